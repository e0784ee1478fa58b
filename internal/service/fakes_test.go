package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/testgen-ai/internal/adapter/store"
	"github.com/arturoeanton/testgen-ai/internal/domain"
	"github.com/arturoeanton/testgen-ai/internal/port"
)

func ptr[T any](v T) *T { return &v }

func entry(path, typ string, size int) domain.RemoteEntry {
	name := path
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			name = path[i+1:]
			break
		}
	}
	e := domain.RemoteEntry{Name: name, Path: path, Type: typ}
	if typ == domain.FileTypeFile {
		e.Size = ptr(size)
	}
	return e
}

type putCall struct {
	Branch, Path, Content, Message string
}

// fakeRemote is an in-memory RemoteRepository keyed by directory path.
type fakeRemote struct {
	mu sync.Mutex

	repos       []domain.RemoteRepository
	tree        map[string][]domain.RemoteEntry
	listErr     map[string]error
	contents    map[string]string
	branch      string
	baseErr     error
	branchErr   error
	prErr       error
	contentHits map[string]int

	branches []string
	puts     []putCall
	prs      []port.NewPullRequest
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		tree:        map[string][]domain.RemoteEntry{},
		listErr:     map[string]error{},
		contents:    map[string]string{},
		contentHits: map[string]int{},
		branch:      "develop",
	}
}

func (f *fakeRemote) ListRepositories(context.Context, string) ([]domain.RemoteRepository, error) {
	return f.repos, nil
}

func (f *fakeRemote) ListContents(_ context.Context, _, _, _, path string) ([]domain.RemoteEntry, error) {
	if err := f.listErr[path]; err != nil {
		return nil, err
	}
	return f.tree[path], nil
}

func (f *fakeRemote) FileContent(_ context.Context, _, _, _, path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contentHits[path]++
	c, ok := f.contents[path]
	if !ok {
		return "", &port.RemoteError{Service: "github", StatusCode: 404, Message: "Not Found"}
	}
	return c, nil
}

func (f *fakeRemote) DefaultBranch(context.Context, string, string, string) (string, error) {
	if f.baseErr != nil {
		return "", f.baseErr
	}
	return f.branch, nil
}

func (f *fakeRemote) CreateBranch(_ context.Context, _, _, _, branch, _ string) error {
	if f.branchErr != nil {
		return f.branchErr
	}
	f.branches = append(f.branches, branch)
	return nil
}

func (f *fakeRemote) PutFile(_ context.Context, _, _, _, branch, path, content, message string) error {
	f.puts = append(f.puts, putCall{Branch: branch, Path: path, Content: content, Message: message})
	return nil
}

func (f *fakeRemote) CreatePullRequest(_ context.Context, _, _, _ string, pr port.NewPullRequest) (*port.OpenedPullRequest, error) {
	if f.prErr != nil {
		return nil, f.prErr
	}
	f.prs = append(f.prs, pr)
	return &port.OpenedPullRequest{Number: 7, URL: "https://github.com/octo/app/pull/7"}, nil
}

// fakeGenerator records requests and returns canned output.
type fakeGenerator struct {
	drafts  []domain.SummaryDraft
	code    string
	codeErr error
	docs    string

	summaryReqs []port.SummaryRequest
	codeReqs    []port.CodeRequest
	customReqs  []port.CustomRequest
	docsFw      string
}

func (g *fakeGenerator) GenerateSummaries(_ context.Context, req port.SummaryRequest) ([]domain.SummaryDraft, error) {
	g.summaryReqs = append(g.summaryReqs, req)
	return g.drafts, nil
}

func (g *fakeGenerator) GenerateCode(_ context.Context, req port.CodeRequest) (*domain.GeneratedTest, error) {
	g.codeReqs = append(g.codeReqs, req)
	if g.codeErr != nil {
		return nil, g.codeErr
	}
	fw := domain.LookupFramework(req.Summary.TestFramework)
	return &domain.GeneratedTest{
		Filename:  fw.TestFileName(req.Summary.Files, req.Summary.Category),
		Content:   g.code,
		Framework: req.Summary.TestFramework,
		Category:  req.Summary.Category,
	}, nil
}

func (g *fakeGenerator) GenerateCustomTest(_ context.Context, req port.CustomRequest) (*domain.GeneratedTest, error) {
	g.customReqs = append(g.customReqs, req)
	return &domain.GeneratedTest{Filename: "custom-test.test.js", Content: g.code, Framework: req.Framework}, nil
}

func (g *fakeGenerator) GenerateDocumentation(_ context.Context, _ []domain.TestCaseSummary, framework string) (string, error) {
	g.docsFw = framework
	if g.docs == "" {
		return "", errors.New("no docs scripted")
	}
	return g.docs, nil
}

const testRepoID = "octo/app"

func newRepoStore(t *testing.T) *store.MemoryStore {
	t.Helper()

	s := store.NewMemoryStore()
	_, err := s.CreateRepository(context.Background(), &domain.Repository{
		ID:          testRepoID,
		Name:        "app",
		FullName:    "octo/app",
		Owner:       "octo",
		AccessToken: "tok",
	})
	require.NoError(t, err)
	return s
}

func addFile(t *testing.T, s *store.MemoryStore, path, content string, selected bool) domain.RepositoryFile {
	t.Helper()

	f, err := s.CreateFile(context.Background(), &domain.RepositoryFile{
		RepositoryID: testRepoID,
		Path:         path,
		Name:         path,
		Type:         domain.FileTypeFile,
		Language:     domain.LanguageFromFilename(path),
		Content:      content,
		IsSelected:   selected,
	})
	require.NoError(t, err)
	return *f
}
