package port

import (
	"context"

	"github.com/arturoeanton/testgen-ai/internal/domain"
)

// RepositoryStore persists repositories. Get returns ErrRepoNotFound when missing.
type RepositoryStore interface {
	CreateRepository(ctx context.Context, r *domain.Repository) (*domain.Repository, error)
	GetRepository(ctx context.Context, id string) (*domain.Repository, error)
	ListRepositories(ctx context.Context) ([]domain.Repository, error)
	UpdateRepository(ctx context.Context, id string, patch domain.RepositoryPatch) (*domain.Repository, error)
}

// FileStore persists repository files. (RepositoryID, Path) is unique.
type FileStore interface {
	// CreateFile inserts a file record, assigning an ID when empty.
	CreateFile(ctx context.Context, f *domain.RepositoryFile) (*domain.RepositoryFile, error)
	GetFile(ctx context.Context, id string) (*domain.RepositoryFile, error)
	ListFiles(ctx context.Context, repoID string) ([]domain.RepositoryFile, error)
	ListSelectedFiles(ctx context.Context, repoID string) ([]domain.RepositoryFile, error)
	UpdateFile(ctx context.Context, id string, patch domain.FilePatch) (*domain.RepositoryFile, error)
}

// TestCaseStore persists test-case summaries.
type TestCaseStore interface {
	CreateTestCase(ctx context.Context, tc *domain.TestCaseSummary) (*domain.TestCaseSummary, error)
	GetTestCase(ctx context.Context, id string) (*domain.TestCaseSummary, error)
	ListTestCases(ctx context.Context, repoID string) ([]domain.TestCaseSummary, error)
	UpdateTestCase(ctx context.Context, id string, patch domain.TestCasePatch) (*domain.TestCaseSummary, error)
	DeleteTestCase(ctx context.Context, id string) error
}

// TemplateStore persists test templates. Empty filters match everything.
type TemplateStore interface {
	CreateTemplate(ctx context.Context, t *domain.TestTemplate) (*domain.TestTemplate, error)
	GetTemplate(ctx context.Context, id string) (*domain.TestTemplate, error)
	ListTemplates(ctx context.Context, framework, category string) ([]domain.TestTemplate, error)
}

// Store is the full persistence surface used by the services.
type Store interface {
	RepositoryStore
	FileStore
	TestCaseStore
	TemplateStore
}
