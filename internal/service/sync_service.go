package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/arturoeanton/testgen-ai/internal/domain"
	"github.com/arturoeanton/testgen-ai/internal/port"
)

// SyncResult reports the outcome of a tree sync.
type SyncResult struct {
	Message string                  `json:"message"`
	Created int                     `json:"created"`
	Files   []domain.RepositoryFile `json:"files"`
}

// SyncService mirrors a remote repository tree into file records and
// manages the per-file selection flag.
type SyncService struct {
	store  port.Store
	remote port.RemoteRepository
}

// NewSyncService creates a new sync and selection service.
func NewSyncService(s port.Store, remote port.RemoteRepository) *SyncService {
	return &SyncService{store: s, remote: remote}
}

// SyncFiles walks the remote tree and creates records for new source files.
// Existing paths are left untouched, so repeated syncs are idempotent.
func (s *SyncService) SyncFiles(ctx context.Context, repoID string) (*SyncResult, error) {
	repo, err := s.store.GetRepository(ctx, repoID)
	if err != nil {
		return nil, err
	}
	if !repo.HasAccessToken() {
		return nil, port.BadRequestf("Repository access token not found")
	}
	owner, name, ok := repo.SplitFullName()
	if !ok {
		return nil, port.BadRequestf("Invalid repository format: %s", repo.FullName)
	}

	existing, err := s.store.ListFiles(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, f := range existing {
		known[f.Path] = true
	}

	walker := NewSourceWalker(func(ctx context.Context, path string) ([]domain.RemoteEntry, error) {
		return s.remote.ListContents(ctx, repo.AccessToken, owner, name, path)
	})
	entries, err := walker.Walk(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync %s: %w", repoID, err)
	}

	created := make([]domain.RepositoryFile, 0, len(entries))
	for _, e := range entries {
		if known[e.Path] {
			continue
		}
		rec := &domain.RepositoryFile{
			RepositoryID: repoID,
			Path:         e.Path,
			Name:         e.Name,
			Type:         domain.FileTypeFile,
			Language:     domain.LanguageFromFilename(e.Name),
		}
		if e.Size != nil {
			rec.Size = strconv.Itoa(*e.Size)
		}
		f, err := s.store.CreateFile(ctx, rec)
		if err != nil {
			if errors.Is(err, port.ErrBadRequest) {
				// created concurrently by another sync
				continue
			}
			slog.Warn("failed to save file", "repo_id", repoID, "path", e.Path, "error", err)
			continue
		}
		known[e.Path] = true
		created = append(created, *f)
	}

	slog.Info("repository synced", "repo_id", repoID, "accepted", len(entries), "created", len(created))
	return &SyncResult{
		Message: fmt.Sprintf("Synced %d files from repository", len(created)),
		Created: len(created),
		Files:   created,
	}, nil
}

// ListFiles returns every file record of a repository.
func (s *SyncService) ListFiles(ctx context.Context, repoID string) ([]domain.RepositoryFile, error) {
	return s.store.ListFiles(ctx, repoID)
}

// ListSelected returns the selected file records of a repository.
func (s *SyncService) ListSelected(ctx context.Context, repoID string) ([]domain.RepositoryFile, error) {
	return s.store.ListSelectedFiles(ctx, repoID)
}

// SetSelection toggles one file. Directories cannot be selected.
func (s *SyncService) SetSelection(ctx context.Context, fileID string, selected bool) (*domain.RepositoryFile, error) {
	return s.UpdateFile(ctx, fileID, domain.FilePatch{IsSelected: &selected})
}

// UpdateFile applies a partial update to one file.
func (s *SyncService) UpdateFile(ctx context.Context, fileID string, patch domain.FilePatch) (*domain.RepositoryFile, error) {
	if patch.IsSelected != nil && *patch.IsSelected {
		f, err := s.store.GetFile(ctx, fileID)
		if err != nil {
			return nil, err
		}
		if !f.IsFile() {
			return nil, port.BadRequestf("Directories cannot be selected")
		}
	}
	return s.store.UpdateFile(ctx, fileID, patch)
}

// UpdateRepoFile is UpdateFile scoped to a repository.
func (s *SyncService) UpdateRepoFile(ctx context.Context, repoID, fileID string, patch domain.FilePatch) (*domain.RepositoryFile, error) {
	if _, err := s.fileInRepo(ctx, repoID, fileID); err != nil {
		return nil, err
	}
	return s.UpdateFile(ctx, fileID, patch)
}

// SelectAll selects every file record (never directories) and returns the repository's files.
func (s *SyncService) SelectAll(ctx context.Context, repoID string) ([]domain.RepositoryFile, error) {
	if _, err := s.store.GetRepository(ctx, repoID); err != nil {
		return nil, err
	}
	files, err := s.store.ListFiles(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	selected := true
	out := make([]domain.RepositoryFile, 0, len(files))
	for _, f := range files {
		if !f.IsFile() || f.IsSelected {
			out = append(out, f)
			continue
		}
		updated, err := s.store.UpdateFile(ctx, f.ID, domain.FilePatch{IsSelected: &selected})
		if err != nil {
			return nil, fmt.Errorf("select %s: %w", f.Path, err)
		}
		out = append(out, *updated)
	}
	return out, nil
}

// ClearSelection deselects every selected record and returns the records it changed.
func (s *SyncService) ClearSelection(ctx context.Context, repoID string) ([]domain.RepositoryFile, error) {
	if _, err := s.store.GetRepository(ctx, repoID); err != nil {
		return nil, err
	}
	selectedFiles, err := s.store.ListSelectedFiles(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("list selected files: %w", err)
	}

	cleared := false
	out := make([]domain.RepositoryFile, 0, len(selectedFiles))
	for _, f := range selectedFiles {
		updated, err := s.store.UpdateFile(ctx, f.ID, domain.FilePatch{IsSelected: &cleared})
		if err != nil {
			return nil, fmt.Errorf("clear %s: %w", f.Path, err)
		}
		out = append(out, *updated)
	}
	return out, nil
}

// FileContent returns a file with its content, fetching and caching it on first access.
func (s *SyncService) FileContent(ctx context.Context, repoID, fileID string) (*domain.RepositoryFile, error) {
	f, err := s.fileInRepo(ctx, repoID, fileID)
	if err != nil {
		return nil, err
	}
	if f.HasContent() {
		return f, nil
	}
	if !f.IsFile() {
		return nil, port.BadRequestf("%s is a directory", f.Path)
	}

	repo, err := s.store.GetRepository(ctx, repoID)
	if err != nil {
		return nil, err
	}
	return loadContent(ctx, s.store, s.remote, repo, f)
}

func (s *SyncService) fileInRepo(ctx context.Context, repoID, fileID string) (*domain.RepositoryFile, error) {
	f, err := s.store.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if f.RepositoryID != repoID {
		return nil, port.ErrFileNotFound
	}
	return f, nil
}

// loadContent fetches a file from the remote and caches it on the record.
func loadContent(ctx context.Context, st port.FileStore, remote port.RemoteRepository, repo *domain.Repository, f *domain.RepositoryFile) (*domain.RepositoryFile, error) {
	if !repo.HasAccessToken() {
		return nil, port.BadRequestf("Repository access token not found")
	}
	owner, name, ok := repo.SplitFullName()
	if !ok {
		return nil, port.BadRequestf("Invalid repository format: %s", repo.FullName)
	}

	content, err := remote.FileContent(ctx, repo.AccessToken, owner, name, f.Path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", f.Path, err)
	}
	patch := domain.FilePatch{Content: &content}
	if f.Language == "" {
		lang := domain.LanguageFromFilename(f.Name)
		patch.Language = &lang
	}
	return st.UpdateFile(ctx, f.ID, patch)
}
