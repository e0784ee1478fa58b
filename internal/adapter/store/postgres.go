package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/arturoeanton/testgen-ai/internal/domain"
	"github.com/arturoeanton/testgen-ai/internal/port"
)

//go:embed schema.sql
var schemaSQL string

var _ port.Store = (*PostgresStore)(nil)

// PostgresStore is the durable port.Store backed by PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection and returns a store instance.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreWithDB wraps an existing connection pool.
func NewPostgresStoreWithDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Migrate creates the schema and seeds the default templates into an empty template table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM test_templates`).Scan(&count); err != nil {
		return fmt.Errorf("count templates: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, t := range DefaultTemplates() {
		if _, err := s.CreateTemplate(ctx, &t); err != nil {
			return fmt.Errorf("seed templates: %w", err)
		}
	}
	return nil
}

// --- Repositories ---

const repoColumns = `id, name, full_name, owner, description, language, is_private, access_token, default_branch, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRepo(row scanner) (*domain.Repository, error) {
	var r domain.Repository
	err := row.Scan(
		&r.ID, &r.Name, &r.FullName, &r.Owner, &r.Description, &r.Language,
		&r.IsPrivate, &r.AccessToken, &r.DefaultBranch, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateRepository inserts a repository keyed by its external ID.
func (s *PostgresStore) CreateRepository(ctx context.Context, r *domain.Repository) (*domain.Repository, error) {
	id := r.ID
	if id == "" {
		id = uuid.NewString()
	}
	query := `INSERT INTO repositories (id, name, full_name, owner, description, language, is_private, access_token, default_branch)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          ON CONFLICT (id) DO NOTHING
	          RETURNING ` + repoColumns

	repo, err := scanRepo(s.db.QueryRowContext(ctx, query,
		id, r.Name, r.FullName, r.Owner, r.Description, r.Language, r.IsPrivate, r.AccessToken, r.DefaultBranch,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.BadRequestf("repository %s already exists", id)
	}
	if err != nil {
		return nil, fmt.Errorf("create repository: %w", err)
	}
	return repo, nil
}

func (s *PostgresStore) GetRepository(ctx context.Context, id string) (*domain.Repository, error) {
	query := `SELECT ` + repoColumns + ` FROM repositories WHERE id = $1`

	repo, err := scanRepo(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrRepoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get repository: %w", err)
	}
	return repo, nil
}

func (s *PostgresStore) ListRepositories(ctx context.Context) ([]domain.Repository, error) {
	query := `SELECT ` + repoColumns + ` FROM repositories ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}
	defer rows.Close()

	var repos []domain.Repository
	for rows.Next() {
		r, err := scanRepo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan repository: %w", err)
		}
		repos = append(repos, *r)
	}
	return repos, rows.Err()
}

func (s *PostgresStore) UpdateRepository(ctx context.Context, id string, p domain.RepositoryPatch) (*domain.Repository, error) {
	query := `UPDATE repositories SET
	              name = COALESCE($2, name),
	              full_name = COALESCE($3, full_name),
	              owner = COALESCE($4, owner),
	              description = COALESCE($5, description),
	              language = COALESCE($6, language),
	              is_private = COALESCE($7, is_private),
	              access_token = COALESCE($8, access_token),
	              default_branch = COALESCE($9, default_branch)
	          WHERE id = $1
	          RETURNING ` + repoColumns

	repo, err := scanRepo(s.db.QueryRowContext(ctx, query,
		id, p.Name, p.FullName, p.Owner, p.Description, p.Language, p.IsPrivate, p.AccessToken, p.DefaultBranch,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrRepoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update repository: %w", err)
	}
	return repo, nil
}

// --- Files ---

const fileColumns = `id, repository_id, path, name, type, size, content, content_loaded, language, is_selected`

func scanFile(row scanner) (*domain.RepositoryFile, error) {
	var f domain.RepositoryFile
	err := row.Scan(&f.ID, &f.RepositoryID, &f.Path, &f.Name, &f.Type, &f.Size, &f.Content, &f.ContentLoaded, &f.Language, &f.IsSelected)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// CreateFile inserts a file. An existing (repository, path) pair is rejected.
func (s *PostgresStore) CreateFile(ctx context.Context, f *domain.RepositoryFile) (*domain.RepositoryFile, error) {
	id := f.ID
	if id == "" {
		id = uuid.NewString()
	}
	query := `INSERT INTO repository_files (id, repository_id, path, name, type, size, content, content_loaded, language, is_selected)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          ON CONFLICT (repository_id, path) DO NOTHING
	          RETURNING ` + fileColumns

	file, err := scanFile(s.db.QueryRowContext(ctx, query,
		id, f.RepositoryID, f.Path, f.Name, f.Type, f.Size, f.Content, f.HasContent(), f.Language, f.IsSelected,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.BadRequestf("file %s already exists", f.Path)
	}
	if isForeignKeyViolation(err) {
		return nil, port.ErrRepoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	return file, nil
}

func (s *PostgresStore) GetFile(ctx context.Context, id string) (*domain.RepositoryFile, error) {
	query := `SELECT ` + fileColumns + ` FROM repository_files WHERE id = $1`

	file, err := scanFile(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	return file, nil
}

func (s *PostgresStore) ListFiles(ctx context.Context, repoID string) ([]domain.RepositoryFile, error) {
	return s.queryFiles(ctx, `SELECT `+fileColumns+` FROM repository_files WHERE repository_id = $1 ORDER BY path`, repoID)
}

func (s *PostgresStore) ListSelectedFiles(ctx context.Context, repoID string) ([]domain.RepositoryFile, error) {
	return s.queryFiles(ctx, `SELECT `+fileColumns+` FROM repository_files WHERE repository_id = $1 AND is_selected ORDER BY path`, repoID)
}

func (s *PostgresStore) queryFiles(ctx context.Context, query string, args ...any) ([]domain.RepositoryFile, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []domain.RepositoryFile
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}

func (s *PostgresStore) UpdateFile(ctx context.Context, id string, p domain.FilePatch) (*domain.RepositoryFile, error) {
	query := `UPDATE repository_files SET
	              content = COALESCE($2::text, content),
	              content_loaded = content_loaded OR $2::text IS NOT NULL,
	              language = COALESCE($3, language),
	              is_selected = COALESCE($4, is_selected)
	          WHERE id = $1
	          RETURNING ` + fileColumns

	file, err := scanFile(s.db.QueryRowContext(ctx, query, id, p.Content, p.Language, p.IsSelected))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrFileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update file: %w", err)
	}
	return file, nil
}

// --- Test cases ---

const testCaseColumns = `id, repository_id, title, description, priority, test_framework, files,
	test_case_count, estimated_time, generated_code, category, is_customizable, created_at`

func scanTestCase(row scanner) (*domain.TestCaseSummary, error) {
	var tc domain.TestCaseSummary
	err := row.Scan(
		&tc.ID, &tc.RepositoryID, &tc.Title, &tc.Description, &tc.Priority, &tc.TestFramework,
		pq.Array(&tc.Files), &tc.TestCaseCount, &tc.EstimatedTime, &tc.GeneratedCode,
		&tc.Category, &tc.IsCustomizable, &tc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tc, nil
}

func (s *PostgresStore) CreateTestCase(ctx context.Context, tc *domain.TestCaseSummary) (*domain.TestCaseSummary, error) {
	id := tc.ID
	if id == "" {
		id = uuid.NewString()
	}
	files := tc.Files
	if files == nil {
		files = []string{}
	}
	query := `INSERT INTO test_case_summaries (id, repository_id, title, description, priority, test_framework, files,
	              test_case_count, estimated_time, generated_code, category, is_customizable)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING ` + testCaseColumns

	out, err := scanTestCase(s.db.QueryRowContext(ctx, query,
		id, tc.RepositoryID, tc.Title, tc.Description, tc.Priority, tc.TestFramework, pq.Array(files),
		tc.TestCaseCount, tc.EstimatedTime, tc.GeneratedCode, tc.Category, tc.IsCustomizable,
	))
	if isForeignKeyViolation(err) {
		return nil, port.ErrRepoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("create test case: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetTestCase(ctx context.Context, id string) (*domain.TestCaseSummary, error) {
	query := `SELECT ` + testCaseColumns + ` FROM test_case_summaries WHERE id = $1`

	tc, err := scanTestCase(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrTestCaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get test case: %w", err)
	}
	return tc, nil
}

func (s *PostgresStore) ListTestCases(ctx context.Context, repoID string) ([]domain.TestCaseSummary, error) {
	query := `SELECT ` + testCaseColumns + ` FROM test_case_summaries WHERE repository_id = $1 ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, repoID)
	if err != nil {
		return nil, fmt.Errorf("list test cases: %w", err)
	}
	defer rows.Close()

	var out []domain.TestCaseSummary
	for rows.Next() {
		tc, err := scanTestCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scan test case: %w", err)
		}
		out = append(out, *tc)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateTestCase(ctx context.Context, id string, p domain.TestCasePatch) (*domain.TestCaseSummary, error) {
	var files any
	if p.Files != nil {
		files = pq.Array(*p.Files)
	}
	query := `UPDATE test_case_summaries SET
	              title = COALESCE($2, title),
	              description = COALESCE($3, description),
	              priority = COALESCE($4, priority),
	              test_framework = COALESCE($5, test_framework),
	              files = COALESCE($6::text[], files),
	              test_case_count = COALESCE($7, test_case_count),
	              estimated_time = COALESCE($8, estimated_time),
	              generated_code = COALESCE($9, generated_code),
	              category = COALESCE($10, category),
	              is_customizable = COALESCE($11, is_customizable)
	          WHERE id = $1
	          RETURNING ` + testCaseColumns

	tc, err := scanTestCase(s.db.QueryRowContext(ctx, query,
		id, p.Title, p.Description, p.Priority, p.TestFramework, files,
		p.TestCaseCount, p.EstimatedTime, p.GeneratedCode, p.Category, p.IsCustomizable,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrTestCaseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update test case: %w", err)
	}
	return tc, nil
}

func (s *PostgresStore) DeleteTestCase(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM test_case_summaries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete test case: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete test case: %w", err)
	}
	if n == 0 {
		return port.ErrTestCaseNotFound
	}
	return nil
}

// --- Templates ---

const templateColumns = `id, framework, category, template, description, created_at`

func scanTemplate(row scanner) (*domain.TestTemplate, error) {
	var t domain.TestTemplate
	if err := row.Scan(&t.ID, &t.Framework, &t.Category, &t.Template, &t.Description, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *PostgresStore) CreateTemplate(ctx context.Context, t *domain.TestTemplate) (*domain.TestTemplate, error) {
	id := t.ID
	if id == "" {
		id = uuid.NewString()
	}
	query := `INSERT INTO test_templates (id, framework, category, template, description)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING ` + templateColumns

	out, err := scanTemplate(s.db.QueryRowContext(ctx, query, id, t.Framework, t.Category, t.Template, t.Description))
	if err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) GetTemplate(ctx context.Context, id string) (*domain.TestTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM test_templates WHERE id = $1`

	t, err := scanTemplate(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

// ListTemplates returns templates, optionally filtered by framework and category.
func (s *PostgresStore) ListTemplates(ctx context.Context, framework, category string) ([]domain.TestTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM test_templates WHERE TRUE`
	args := []any{}
	argIdx := 1

	if framework != "" {
		query += fmt.Sprintf(" AND LOWER(framework) = LOWER($%d)", argIdx)
		args = append(args, framework)
		argIdx++
	}
	if category != "" {
		query += fmt.Sprintf(" AND LOWER(category) = LOWER($%d)", argIdx)
		args = append(args, category)
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []domain.TestTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}
