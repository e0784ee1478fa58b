package domain

// File types reported by GitHub contents listings.
const (
	FileTypeFile = "file"
	FileTypeDir  = "dir"
)

// RepositoryFile is a file or directory discovered while walking a repository.
// Content is loaded lazily. ContentLoaded marks a fetch that returned an
// empty file.
type RepositoryFile struct {
	ID            string `json:"id"           db:"id"`
	RepositoryID  string `json:"repositoryId" db:"repository_id"`
	Path          string `json:"path"         db:"path"`
	Name          string `json:"name"         db:"name"`
	Type          string `json:"type"         db:"type"`
	Size          string `json:"size,omitempty"     db:"size"` // byte count, string-encoded
	Content       string `json:"content,omitempty"  db:"content"`
	ContentLoaded bool   `json:"contentLoaded"      db:"content_loaded"`
	Language      string `json:"language,omitempty" db:"language"`
	IsSelected    bool   `json:"isSelected"   db:"is_selected"`
}

// IsFile reports whether the record can be selected for generation.
func (f *RepositoryFile) IsFile() bool {
	return f.Type == FileTypeFile
}

// HasContent reports whether the content has been loaded, even if empty.
func (f *RepositoryFile) HasContent() bool {
	return f.ContentLoaded || f.Content != ""
}

// SourceFile returns the tuple sent to the content generation client.
func (f *RepositoryFile) SourceFile() SourceFile {
	lang := f.Language
	if lang == "" {
		lang = LanguageText
	}
	return SourceFile{Path: f.Path, Language: lang, Content: f.Content}
}

// FilePatch is a partial update of a repository file. Setting Content marks
// the content as loaded.
type FilePatch struct {
	Content    *string `json:"content,omitempty"`
	Language   *string `json:"language,omitempty"`
	IsSelected *bool   `json:"isSelected,omitempty"`
}

// SourceFile is a (path, language, content) tuple fed to the LLM.
type SourceFile struct {
	Path     string `json:"path"`
	Language string `json:"language"`
	Content  string `json:"content"`
}

// RemoteEntry is one entry of a remote directory listing.
type RemoteEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	Size        *int   `json:"size,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
}

// IsDir reports whether the entry is a directory.
func (e RemoteEntry) IsDir() bool {
	return e.Type == FileTypeDir
}

// RemoteRepository is a repository as listed by the hosting API.
type RemoteRepository struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Owner         string `json:"owner"`
	Description   string `json:"description"`
	Language      string `json:"language"`
	Private       bool   `json:"private"`
	DefaultBranch string `json:"default_branch"`
}
