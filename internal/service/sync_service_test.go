package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/testgen-ai/internal/domain"
	"github.com/arturoeanton/testgen-ai/internal/port"
)

func sampleTree() *fakeRemote {
	r := newFakeRemote()
	r.tree[""] = []domain.RemoteEntry{
		entry("a.ts", domain.FileTypeFile, 500),
		entry("node_modules", domain.FileTypeDir, 0),
		entry(".git", domain.FileTypeDir, 0),
		entry("b.png", domain.FileTypeFile, 2_000_000),
		entry("big.js", domain.FileTypeFile, 2_000_000),
		entry("src", domain.FileTypeDir, 0),
	}
	r.tree["node_modules"] = []domain.RemoteEntry{entry("node_modules/x.js", domain.FileTypeFile, 10)}
	r.tree[".git"] = []domain.RemoteEntry{entry(".git/config", domain.FileTypeFile, 10)}
	r.tree["src"] = []domain.RemoteEntry{entry("src/util.py", domain.FileTypeFile, 42)}
	return r
}

func TestSyncFilesFiltersTree(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newRepoStore(t)
	svc := NewSyncService(s, sampleTree())

	res, err := svc.SyncFiles(ctx, testRepoID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, "Synced 2 files from repository", res.Message)

	files, err := svc.ListFiles(ctx, testRepoID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.ts", files[0].Path)
	assert.Equal(t, "typescript", files[0].Language)
	assert.Equal(t, "500", files[0].Size)
	assert.False(t, files[0].IsSelected)
	assert.Empty(t, files[0].Content)
	assert.Equal(t, "src/util.py", files[1].Path)
	assert.Equal(t, "python", files[1].Language)
}

func TestSyncFilesIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newRepoStore(t)
	svc := NewSyncService(s, sampleTree())

	_, err := svc.SyncFiles(ctx, testRepoID)
	require.NoError(t, err)
	second, err := svc.SyncFiles(ctx, testRepoID)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, "Synced 0 files from repository", second.Message)

	files, err := svc.ListFiles(ctx, testRepoID)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestSyncFilesSkipsFailingSubdirectory(t *testing.T) {
	t.Parallel()

	remote := sampleTree()
	remote.listErr["src"] = errors.New("boom")
	svc := NewSyncService(newRepoStore(t), remote)

	res, err := svc.SyncFiles(context.Background(), testRepoID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
}

func TestSyncFilesPreconditions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newRepoStore(t)
	_, err := s.CreateRepository(ctx, &domain.Repository{ID: "octo/notoken", FullName: "octo/notoken"})
	require.NoError(t, err)
	_, err = s.CreateRepository(ctx, &domain.Repository{ID: "broken", FullName: "no-slash", AccessToken: "tok"})
	require.NoError(t, err)

	remote := sampleTree()
	remote.listErr[""] = &port.RemoteError{Service: "github", StatusCode: 401, Message: "Bad credentials"}
	svc := NewSyncService(s, remote)

	_, err = svc.SyncFiles(ctx, "octo/missing")
	require.ErrorIs(t, err, port.ErrNotFound)

	_, err = svc.SyncFiles(ctx, "octo/notoken")
	require.ErrorIs(t, err, port.ErrBadRequest)
	assert.Equal(t, "Repository access token not found", err.Error())

	_, err = svc.SyncFiles(ctx, "broken")
	require.ErrorIs(t, err, port.ErrBadRequest)

	_, err = svc.SyncFiles(ctx, testRepoID)
	require.ErrorIs(t, err, port.ErrRemoteService)
}

func TestSelectAllAndClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newRepoStore(t)
	addFile(t, s, "a.js", "", false)
	addFile(t, s, "b.js", "", true)
	_, err := s.CreateFile(ctx, &domain.RepositoryFile{RepositoryID: testRepoID, Path: "lib", Name: "lib", Type: domain.FileTypeDir})
	require.NoError(t, err)
	svc := NewSyncService(s, newFakeRemote())

	all, err := svc.SelectAll(ctx, testRepoID)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	selected, err := svc.ListSelected(ctx, testRepoID)
	require.NoError(t, err)
	require.Len(t, selected, 2)
	for _, f := range selected {
		assert.True(t, f.IsFile())
	}

	cleared, err := svc.ClearSelection(ctx, testRepoID)
	require.NoError(t, err)
	assert.Len(t, cleared, 2)

	selected, err = svc.ListSelected(ctx, testRepoID)
	require.NoError(t, err)
	assert.Empty(t, selected)
}

func TestSelectAllDirectoriesOnly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newRepoStore(t)
	_, err := s.CreateFile(ctx, &domain.RepositoryFile{RepositoryID: testRepoID, Path: "lib", Name: "lib", Type: domain.FileTypeDir})
	require.NoError(t, err)
	svc := NewSyncService(s, newFakeRemote())

	_, err = svc.SelectAll(ctx, testRepoID)
	require.NoError(t, err)
	selected, err := svc.ListSelected(ctx, testRepoID)
	require.NoError(t, err)
	assert.Empty(t, selected)
}

func TestSetSelectionRejectsDirectories(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newRepoStore(t)
	dir, err := s.CreateFile(ctx, &domain.RepositoryFile{RepositoryID: testRepoID, Path: "lib", Name: "lib", Type: domain.FileTypeDir})
	require.NoError(t, err)
	file := addFile(t, s, "a.js", "", false)
	svc := NewSyncService(s, newFakeRemote())

	_, err = svc.SetSelection(ctx, dir.ID, true)
	require.ErrorIs(t, err, port.ErrBadRequest)

	got, err := svc.SetSelection(ctx, file.ID, true)
	require.NoError(t, err)
	assert.True(t, got.IsSelected)

	got, err = svc.SetSelection(ctx, file.ID, false)
	require.NoError(t, err)
	assert.False(t, got.IsSelected)

	_, err = svc.UpdateRepoFile(ctx, "octo/other", file.ID, domain.FilePatch{IsSelected: ptr(true)})
	require.ErrorIs(t, err, port.ErrNotFound)
}

func TestFileContentLoadsOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newRepoStore(t)
	f := addFile(t, s, "src/app.js", "", false)
	remote := newFakeRemote()
	remote.contents["src/app.js"] = "export const x = 1"
	svc := NewSyncService(s, remote)

	for range 3 {
		got, err := svc.FileContent(ctx, testRepoID, f.ID)
		require.NoError(t, err)
		assert.Equal(t, "export const x = 1", got.Content)
	}
	assert.Equal(t, 1, remote.contentHits["src/app.js"])
}

func TestFileContentRemoteFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newRepoStore(t)
	f := addFile(t, s, "gone.js", "", false)
	svc := NewSyncService(s, newFakeRemote())

	_, err := svc.FileContent(ctx, testRepoID, f.ID)
	require.ErrorIs(t, err, port.ErrRemoteService)

	stored, err := s.GetFile(ctx, f.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Content)
}
