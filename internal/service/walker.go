package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/arturoeanton/testgen-ai/internal/domain"
)

// ListFunc lists one directory level of a remote tree. "" is the root.
type ListFunc func(ctx context.Context, path string) ([]domain.RemoteEntry, error)

// Walker traverses a remote tree depth-first with an explicit stack.
// ShouldDescend gates directories and ShouldAccept gates files.
type Walker struct {
	List          ListFunc
	ShouldDescend func(domain.RemoteEntry) bool
	ShouldAccept  func(domain.RemoteEntry) bool
}

// DescendSourceDirs skips hidden and dependency directories.
func DescendSourceDirs(e domain.RemoteEntry) bool {
	return !domain.IsSkippedDirName(e.Name)
}

// AcceptSourceFiles keeps files with an allowed extension below the size ceiling.
// Entries that report no size are accepted.
func AcceptSourceFiles(e domain.RemoteEntry) bool {
	if e.Type != domain.FileTypeFile || !domain.IsAllowedExtension(e.Name) {
		return false
	}
	return e.Size == nil || *e.Size < domain.MaxSyncFileSize
}

// NewSourceWalker returns a Walker with the default source-tree predicates.
func NewSourceWalker(list ListFunc) *Walker {
	return &Walker{List: list, ShouldDescend: DescendSourceDirs, ShouldAccept: AcceptSourceFiles}
}

// Walk returns every accepted file. A failure listing the root is returned;
// failures below the root are logged and that subtree is skipped.
func (w *Walker) Walk(ctx context.Context) ([]domain.RemoteEntry, error) {
	var accepted []domain.RemoteEntry
	stack := []string{""}
	seen := map[string]bool{}

	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[dir] {
			continue
		}
		seen[dir] = true

		entries, err := w.List(ctx, dir)
		if err != nil {
			if dir == "" {
				return nil, fmt.Errorf("list repository root: %w", err)
			}
			slog.Warn("skipping directory", "path", dir, "error", err)
			continue
		}

		var subdirs []string
		for _, e := range entries {
			switch {
			case e.IsDir():
				if w.ShouldDescend(e) {
					subdirs = append(subdirs, e.Path)
				}
			case w.ShouldAccept(e):
				accepted = append(accepted, e)
			}
		}
		// reversed so directories are visited in listing order
		slices.Reverse(subdirs)
		stack = append(stack, subdirs...)
	}
	return accepted, nil
}
