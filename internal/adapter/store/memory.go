package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/arturoeanton/testgen-ai/internal/domain"
	"github.com/arturoeanton/testgen-ai/internal/port"
)

var _ port.Store = (*MemoryStore)(nil)

var patchOption = copier.Option{IgnoreEmpty: true}

// MemoryStore is an in-process port.Store. Every read returns a copy.
type MemoryStore struct {
	mu  sync.RWMutex
	now func() time.Time

	repos     map[string]*domain.Repository
	repoOrder []string

	files     map[string]*domain.RepositoryFile
	repoFiles map[string][]string          // repo ID -> file IDs in insertion order
	filePaths map[string]map[string]string // repo ID -> path -> file ID

	testCases     map[string]*domain.TestCaseSummary
	testCaseOrder []string

	templates     map[string]*domain.TestTemplate
	templateOrder []string
}

// NewMemoryStore returns an empty store seeded with DefaultTemplates.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		now:       time.Now,
		repos:     make(map[string]*domain.Repository),
		files:     make(map[string]*domain.RepositoryFile),
		repoFiles: make(map[string][]string),
		filePaths: make(map[string]map[string]string),
		testCases: make(map[string]*domain.TestCaseSummary),
		templates: make(map[string]*domain.TestTemplate),
	}
	for _, t := range DefaultTemplates() {
		_, _ = s.CreateTemplate(context.Background(), &t)
	}
	return s
}

// --- Repositories ---

// CreateRepository stores r under its external ID, generating one when empty.
func (s *MemoryStore) CreateRepository(_ context.Context, r *domain.Repository) (*domain.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := *r
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if _, exists := s.repos[rec.ID]; exists {
		return nil, port.BadRequestf("repository %s already exists", rec.ID)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	s.repos[rec.ID] = &rec
	s.repoOrder = append(s.repoOrder, rec.ID)

	out := rec
	return &out, nil
}

func (s *MemoryStore) GetRepository(_ context.Context, id string) (*domain.Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.repos[id]
	if !ok {
		return nil, port.ErrRepoNotFound
	}
	out := *rec
	return &out, nil
}

func (s *MemoryStore) ListRepositories(_ context.Context) ([]domain.Repository, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Repository, 0, len(s.repoOrder))
	for _, id := range s.repoOrder {
		out = append(out, *s.repos[id])
	}
	return out, nil
}

func (s *MemoryStore) UpdateRepository(_ context.Context, id string, patch domain.RepositoryPatch) (*domain.Repository, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.repos[id]
	if !ok {
		return nil, port.ErrRepoNotFound
	}
	updated := *rec
	if err := copier.CopyWithOption(&updated, &patch, patchOption); err != nil {
		return nil, fmt.Errorf("patch repository: %w", err)
	}
	updated.ID = rec.ID
	s.repos[rec.ID] = &updated

	out := updated
	return &out, nil
}

// --- Files ---

func (s *MemoryStore) CreateFile(_ context.Context, f *domain.RepositoryFile) (*domain.RepositoryFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.repos[f.RepositoryID]; !ok {
		return nil, port.ErrRepoNotFound
	}
	paths := s.filePaths[f.RepositoryID]
	if paths == nil {
		paths = make(map[string]string)
		s.filePaths[f.RepositoryID] = paths
	}
	if _, exists := paths[f.Path]; exists {
		return nil, port.BadRequestf("file %s already exists", f.Path)
	}

	rec := *f
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.files[rec.ID] = &rec
	paths[rec.Path] = rec.ID
	s.repoFiles[rec.RepositoryID] = append(s.repoFiles[rec.RepositoryID], rec.ID)

	out := rec
	return &out, nil
}

func (s *MemoryStore) GetFile(_ context.Context, id string) (*domain.RepositoryFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.files[id]
	if !ok {
		return nil, port.ErrFileNotFound
	}
	out := *rec
	return &out, nil
}

func (s *MemoryStore) ListFiles(_ context.Context, repoID string) ([]domain.RepositoryFile, error) {
	return s.listFiles(repoID, func(*domain.RepositoryFile) bool { return true }), nil
}

func (s *MemoryStore) ListSelectedFiles(_ context.Context, repoID string) ([]domain.RepositoryFile, error) {
	return s.listFiles(repoID, func(f *domain.RepositoryFile) bool { return f.IsSelected }), nil
}

func (s *MemoryStore) listFiles(repoID string, keep func(*domain.RepositoryFile) bool) []domain.RepositoryFile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.repoFiles[repoID]
	out := make([]domain.RepositoryFile, 0, len(ids))
	for _, id := range ids {
		if f := s.files[id]; keep(f) {
			out = append(out, *f)
		}
	}
	return out
}

func (s *MemoryStore) UpdateFile(_ context.Context, id string, patch domain.FilePatch) (*domain.RepositoryFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.files[id]
	if !ok {
		return nil, port.ErrFileNotFound
	}
	updated := *rec
	if err := copier.CopyWithOption(&updated, &patch, patchOption); err != nil {
		return nil, fmt.Errorf("patch file: %w", err)
	}
	if patch.Content != nil {
		updated.ContentLoaded = true
	}
	updated.ID = rec.ID
	s.files[rec.ID] = &updated

	out := updated
	return &out, nil
}

// --- Test cases ---

func cloneTestCase(tc *domain.TestCaseSummary) *domain.TestCaseSummary {
	out := *tc
	out.Files = slices.Clone(tc.Files)
	return &out
}

func (s *MemoryStore) CreateTestCase(_ context.Context, tc *domain.TestCaseSummary) (*domain.TestCaseSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := cloneTestCase(tc)
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	if _, exists := s.testCases[rec.ID]; !exists {
		s.testCaseOrder = append(s.testCaseOrder, rec.ID)
	}
	s.testCases[rec.ID] = rec
	return cloneTestCase(rec), nil
}

func (s *MemoryStore) GetTestCase(_ context.Context, id string) (*domain.TestCaseSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.testCases[id]
	if !ok {
		return nil, port.ErrTestCaseNotFound
	}
	return cloneTestCase(rec), nil
}

func (s *MemoryStore) ListTestCases(_ context.Context, repoID string) ([]domain.TestCaseSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.TestCaseSummary
	for _, id := range s.testCaseOrder {
		if tc := s.testCases[id]; tc.RepositoryID == repoID {
			out = append(out, *cloneTestCase(tc))
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateTestCase(_ context.Context, id string, patch domain.TestCasePatch) (*domain.TestCaseSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.testCases[id]
	if !ok {
		return nil, port.ErrTestCaseNotFound
	}
	updated := cloneTestCase(rec)
	if err := copier.CopyWithOption(updated, &patch, patchOption); err != nil {
		return nil, fmt.Errorf("patch test case: %w", err)
	}
	if patch.Files != nil {
		updated.Files = slices.Clone(*patch.Files)
	}
	updated.ID = rec.ID
	s.testCases[rec.ID] = updated
	return cloneTestCase(updated), nil
}

func (s *MemoryStore) DeleteTestCase(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.testCases[id]; !ok {
		return port.ErrTestCaseNotFound
	}
	delete(s.testCases, id)
	s.testCaseOrder = slices.DeleteFunc(s.testCaseOrder, func(v string) bool { return v == id })
	return nil
}

// --- Templates ---

func (s *MemoryStore) CreateTemplate(_ context.Context, t *domain.TestTemplate) (*domain.TestTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := *t
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	if _, exists := s.templates[rec.ID]; !exists {
		s.templateOrder = append(s.templateOrder, rec.ID)
	}
	s.templates[rec.ID] = &rec

	out := rec
	return &out, nil
}

func (s *MemoryStore) GetTemplate(_ context.Context, id string) (*domain.TestTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.templates[id]
	if !ok {
		return nil, port.ErrTemplateNotFound
	}
	out := *rec
	return &out, nil
}

func (s *MemoryStore) ListTemplates(_ context.Context, framework, category string) ([]domain.TestTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.TestTemplate
	for _, id := range s.templateOrder {
		t := s.templates[id]
		if framework != "" && !strings.EqualFold(t.Framework, framework) {
			continue
		}
		if category != "" && !strings.EqualFold(t.Category, category) {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}
