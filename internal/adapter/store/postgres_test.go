package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/testgen-ai/internal/domain"
	"github.com/arturoeanton/testgen-ai/internal/port"
)

var (
	repoCols     = []string{"id", "name", "full_name", "owner", "description", "language", "is_private", "access_token", "default_branch", "created_at"}
	fileCols     = []string{"id", "repository_id", "path", "name", "type", "size", "content", "content_loaded", "language", "is_selected"}
	testCaseCols = []string{"id", "repository_id", "title", "description", "priority", "test_framework", "files", "test_case_count", "estimated_time", "generated_code", "category", "is_customizable", "created_at"}
	templateCols = []string{"id", "framework", "category", "template", "description", "created_at"}
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStoreWithDB(db), mock
}

func TestPostgresMigrateSkipsSeedWhenTemplatesExist(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS repositories`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM test_templates`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMigrateSeedsEmptyTemplateTable(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS repositories`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM test_templates`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	for _, tpl := range DefaultTemplates() {
		mock.ExpectQuery(`INSERT INTO test_templates`).
			WithArgs(sqlmock.AnyArg(), tpl.Framework, tpl.Category, tpl.Template, tpl.Description).
			WillReturnRows(sqlmock.NewRows(templateCols).AddRow("id", tpl.Framework, tpl.Category, tpl.Template, tpl.Description, time.Now()))
	}

	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetRepositoryNotFound(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT .* FROM repositories WHERE id = \$1`).
		WithArgs("octo/app").
		WillReturnRows(sqlmock.NewRows(repoCols))

	_, err := s.GetRepository(context.Background(), "octo/app")
	require.ErrorIs(t, err, port.ErrRepoNotFound)
	require.ErrorIs(t, err, port.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateRepositoryConflict(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectQuery(`INSERT INTO repositories .* ON CONFLICT \(id\) DO NOTHING`).
		WillReturnRows(sqlmock.NewRows(repoCols))

	_, err := s.CreateRepository(context.Background(), &domain.Repository{ID: "octo/app", Name: "app", FullName: "octo/app"})
	require.ErrorIs(t, err, port.ErrBadRequest)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateFile(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectQuery(`INSERT INTO repository_files .* ON CONFLICT \(repository_id, path\) DO NOTHING`).
		WithArgs(sqlmock.AnyArg(), "octo/app", "src/a.ts", "a.ts", "file", "12", "", false, "typescript", false).
		WillReturnRows(sqlmock.NewRows(fileCols).AddRow("f1", "octo/app", "src/a.ts", "a.ts", "file", "12", "", false, "typescript", false))

	f, err := s.CreateFile(context.Background(), &domain.RepositoryFile{
		RepositoryID: "octo/app", Path: "src/a.ts", Name: "a.ts", Type: domain.FileTypeFile, Size: "12", Language: "typescript",
	})
	require.NoError(t, err)
	require.Equal(t, "f1", f.ID)
	require.False(t, f.IsSelected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateFileDuplicateAndMissingRepo(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectQuery(`INSERT INTO repository_files`).
		WillReturnRows(sqlmock.NewRows(fileCols))
	mock.ExpectQuery(`INSERT INTO repository_files`).
		WillReturnError(&pq.Error{Code: "23503", Message: "violates foreign key constraint"})

	_, err := s.CreateFile(context.Background(), &domain.RepositoryFile{RepositoryID: "octo/app", Path: "a.ts"})
	require.ErrorIs(t, err, port.ErrBadRequest)

	_, err = s.CreateFile(context.Background(), &domain.RepositoryFile{RepositoryID: "missing", Path: "a.ts"})
	require.ErrorIs(t, err, port.ErrRepoNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateFileSelection(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	selected := true
	mock.ExpectQuery(`UPDATE repository_files SET`).
		WithArgs("f1", nil, nil, true).
		WillReturnRows(sqlmock.NewRows(fileCols).AddRow("f1", "octo/app", "src/a.ts", "a.ts", "file", "", "", false, "typescript", true))

	f, err := s.UpdateFile(context.Background(), "f1", domain.FilePatch{IsSelected: &selected})
	require.NoError(t, err)
	require.True(t, f.IsSelected)
	require.False(t, f.HasContent())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateFileMarksEmptyContentLoaded(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	empty := ""
	mock.ExpectQuery(regexp.QuoteMeta(`content_loaded = content_loaded OR $2::text IS NOT NULL`)).
		WithArgs("f1", "", nil, nil).
		WillReturnRows(sqlmock.NewRows(fileCols).AddRow("f1", "octo/app", "empty.js", "empty.js", "file", "0", "", true, "javascript", true))

	f, err := s.UpdateFile(context.Background(), "f1", domain.FilePatch{Content: &empty})
	require.NoError(t, err)
	require.True(t, f.HasContent())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTestCaseFilesRoundTrip(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO test_case_summaries`).
		WillReturnRows(sqlmock.NewRows(testCaseCols).AddRow(
			"tc1", "octo/app", "Calc", "desc", "high", "Pytest", "{app/calc.py,app/util.py}",
			"4", "1m", "", "unit", true, now,
		))

	tc, err := s.CreateTestCase(context.Background(), &domain.TestCaseSummary{
		RepositoryID: "octo/app", Title: "Calc", Priority: domain.PriorityHigh, TestFramework: "Pytest",
		Files: []string{"app/calc.py", "app/util.py"}, Category: domain.CategoryUnit, IsCustomizable: true,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"app/calc.py", "app/util.py"}, tc.Files)
	require.False(t, tc.HasCode())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateTestCaseLeavesNilFieldsUntouched(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	code := "def test(): pass"
	mock.ExpectQuery(`UPDATE test_case_summaries SET`).
		WithArgs("tc1", nil, nil, nil, nil, nil, nil, nil, code, nil, nil).
		WillReturnRows(sqlmock.NewRows(testCaseCols).AddRow(
			"tc1", "octo/app", "Calc", "", "high", "Pytest", "{app/calc.py}", "", "", code, "unit", true, time.Now(),
		))

	tc, err := s.UpdateTestCase(context.Background(), "tc1", domain.TestCasePatch{GeneratedCode: &code})
	require.NoError(t, err)
	require.Equal(t, code, tc.GeneratedCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateTestCaseEmptiesFiles(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectQuery(`UPDATE test_case_summaries SET`).
		WithArgs("tc1", nil, nil, nil, nil, "{}", nil, nil, nil, nil, nil).
		WillReturnRows(sqlmock.NewRows(testCaseCols).AddRow(
			"tc1", "octo/app", "Calc", "", "high", "Pytest", "{}", "", "", "", "unit", true, time.Now(),
		))

	tc, err := s.UpdateTestCase(context.Background(), "tc1", domain.TestCasePatch{Files: &[]string{}})
	require.NoError(t, err)
	require.Empty(t, tc.Files)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteTestCaseNotFound(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectExec(`DELETE FROM test_case_summaries WHERE id = \$1`).
		WithArgs("nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.DeleteTestCase(context.Background(), "nope")
	require.ErrorIs(t, err, port.ErrTestCaseNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListTemplatesFilters(t *testing.T) {
	t.Parallel()

	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`AND LOWER(framework) = LOWER($1) AND LOWER(category) = LOWER($2)`)).
		WithArgs("Cypress", "e2e").
		WillReturnRows(sqlmock.NewRows(templateCols).AddRow("t1", "Cypress", "e2e", "describe()", "E2E", time.Now()))

	out, err := s.ListTemplates(context.Background(), "Cypress", "e2e")
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "Cypress", out[0].Framework)
	require.NoError(t, mock.ExpectationsWereMet())
}
