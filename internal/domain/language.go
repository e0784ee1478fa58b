package domain

import (
	"path"
	"strings"
)

// LanguageText is the tag used when an extension is unknown.
const LanguageText = "text"

// MaxSyncFileSize is the exclusive upper bound (bytes) for files accepted by sync.
const MaxSyncFileSize = 1_000_000

type languageInfo struct {
	language string
	testable bool // a programming language the generator can write tests for
}

// extensionTable is the single source of truth for sync filtering, language
// tagging and batch eligibility.
var extensionTable = map[string]languageInfo{
	".js":    {"javascript", true},
	".jsx":   {"javascript", true},
	".ts":    {"typescript", true},
	".tsx":   {"typescript", true},
	".py":    {"python", true},
	".java":  {"java", true},
	".cpp":   {"cpp", true},
	".c":     {"c", true},
	".h":     {"c", true},
	".go":    {"go", true},
	".rs":    {"rust", true},
	".php":   {"php", true},
	".rb":    {"ruby", true},
	".swift": {"swift", true},
	".kt":    {"kotlin", true},
	".scala": {"scala", true},
	".css":   {"css", false},
	".html":  {"html", false},
	".json":  {"json", false},
	".yaml":  {"yaml", false},
	".yml":   {"yaml", false},
	".md":    {"markdown", false},
	".txt":   {LanguageText, false},
	".sh":    {"shell", false},
	".bat":   {"batch", false},
}

var testableLanguages = func() map[string]bool {
	m := make(map[string]bool)
	for _, info := range extensionTable {
		if info.testable {
			m[info.language] = true
		}
	}
	return m
}()

// dependencyDirs are never descended into and never eligible for batch runs.
var dependencyDirs = map[string]bool{
	"node_modules":     true,
	"bower_components": true,
	"vendor":           true,
}

func extOf(name string) string {
	return strings.ToLower(path.Ext(name))
}

// IsAllowedExtension reports whether a file name has a recognized source or text extension.
func IsAllowedExtension(name string) bool {
	_, ok := extensionTable[extOf(name)]
	return ok
}

// LanguageFromFilename maps a file name to a language tag.
func LanguageFromFilename(name string) string {
	if info, ok := extensionTable[extOf(name)]; ok {
		return info.language
	}
	return LanguageText
}

// IsTestableLanguage reports whether a language tag belongs to a programming
// language family that tests can be generated for.
func IsTestableLanguage(language string) bool {
	return testableLanguages[strings.ToLower(language)]
}

// IsSkippedDirName reports whether a directory name is hidden or a dependency directory.
func IsSkippedDirName(name string) bool {
	return strings.HasPrefix(name, ".") || dependencyDirs[name]
}

// TraversesSkippedDir reports whether any directory segment of a
// repo-relative path is hidden or a dependency directory.
func TraversesSkippedDir(p string) bool {
	segments := strings.Split(p, "/")
	for _, seg := range segments[:len(segments)-1] {
		if seg != "" && IsSkippedDirName(seg) {
			return true
		}
	}
	return false
}
