package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/testgen-ai/internal/adapter/store"
	"github.com/arturoeanton/testgen-ai/internal/domain"
	"github.com/arturoeanton/testgen-ai/internal/port"
	"github.com/arturoeanton/testgen-ai/internal/service"
)

// stubRemote serves a one-file tree and fails every write.
type stubRemote struct{}

func (stubRemote) ListRepositories(context.Context, string) ([]domain.RemoteRepository, error) {
	return nil, &port.RemoteError{Service: "github", StatusCode: 401, Message: "Bad credentials"}
}

func (stubRemote) ListContents(_ context.Context, _, owner, _, path string) ([]domain.RemoteEntry, error) {
	if owner == "ghost" {
		return nil, &port.RemoteError{Service: "github", StatusCode: 404, Message: "Not Found"}
	}
	if path != "" {
		return nil, nil
	}
	size := 12
	return []domain.RemoteEntry{{Name: "app.js", Path: "app.js", Type: domain.FileTypeFile, Size: &size}}, nil
}

func (stubRemote) FileContent(context.Context, string, string, string, string) (string, error) {
	return "export default 1", nil
}

func (stubRemote) DefaultBranch(context.Context, string, string, string) (string, error) {
	return "main", nil
}

func (stubRemote) CreateBranch(context.Context, string, string, string, string, string) error {
	return &port.RemoteError{Service: "github", StatusCode: 422, Message: "Reference already exists"}
}

func (stubRemote) PutFile(context.Context, string, string, string, string, string, string, string) error {
	return nil
}

func (stubRemote) CreatePullRequest(context.Context, string, string, string, port.NewPullRequest) (*port.OpenedPullRequest, error) {
	return nil, nil
}

type stubGenerator struct{}

func (stubGenerator) GenerateSummaries(_ context.Context, req port.SummaryRequest) ([]domain.SummaryDraft, error) {
	return []domain.SummaryDraft{{Title: "App", Priority: "high", Files: []string{req.Files[0].Path}}}, nil
}

func (stubGenerator) GenerateCode(_ context.Context, req port.CodeRequest) (*domain.GeneratedTest, error) {
	return &domain.GeneratedTest{Filename: "app.test.js", Content: "test('app')", Framework: req.Summary.TestFramework}, nil
}

func (stubGenerator) GenerateCustomTest(context.Context, port.CustomRequest) (*domain.GeneratedTest, error) {
	return &domain.GeneratedTest{Filename: "custom-test.test.js", Content: "test('custom')"}, nil
}

func (stubGenerator) GenerateDocumentation(context.Context, []domain.TestCaseSummary, string) (string, error) {
	return "# Docs", nil
}

func newTestApp(t *testing.T) (*fiber.App, *store.MemoryStore) {
	t.Helper()

	st := store.NewMemoryStore()
	var remote stubRemote
	gen := service.NewGenerationService(st, remote, stubGenerator{}, "")

	app := fiber.New()
	api := app.Group("/api")
	NewHealthHandler("test", "memory", "stub").Register(api)
	NewRepoHandler(service.NewRepoService(st, remote)).Register(api)
	NewFileHandler(service.NewSyncService(st, remote)).Register(api)
	NewTestCaseHandler(gen, service.NewPullRequestService(st, remote, gen)).Register(api)
	NewTemplateHandler(service.NewTemplateService(st)).Register(api)
	NewGitHubHandler(remote).Register(api)
	return app, st
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, []byte) {
	t.Helper()
	return doWithHeader(t, app, method, target, body, "")
}

func doWithHeader(t *testing.T, app *fiber.App, method, target, body, auth string) (int, []byte) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func message(t *testing.T, raw []byte) string {
	t.Helper()

	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body.Message
}

func TestHealth(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t)
	status, raw := do(t, app, "GET", "/api/health", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(raw), `"status":"healthy"`)
}

func TestRepositoryRoutes(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t)

	status, raw := do(t, app, "POST", "/api/repositories", `{"fullName":"octo/app","accessToken":"secret"}`)
	require.Equal(t, fiber.StatusCreated, status, string(raw))
	assert.NotContains(t, string(raw), "secret")

	status, raw = do(t, app, "GET", "/api/repositories/octo%2Fapp", "")
	require.Equal(t, fiber.StatusOK, status)
	var repo domain.Repository
	require.NoError(t, json.Unmarshal(raw, &repo))
	assert.Equal(t, "octo/app", repo.ID)
	assert.Equal(t, "app", repo.Name)

	status, raw = do(t, app, "PUT", "/api/repositories/octo%2Fapp", `{"description":"demo"}`)
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(raw), `"description":"demo"`)

	status, raw = do(t, app, "GET", "/api/repositories/octo%2Fnone", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Repository not found", message(t, raw))

	status, raw = do(t, app, "POST", "/api/repositories/sync", `{}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Access token required", message(t, raw))

	status, raw = do(t, app, "POST", "/api/repositories/sync", `{"accessToken":"bad"}`)
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Failed to sync repositories: github: status 401: Bad credentials", message(t, raw))
}

func TestFileAndGenerationFlow(t *testing.T) {
	t.Parallel()

	app, st := newTestApp(t)
	_, err := st.CreateRepository(context.Background(), &domain.Repository{ID: "octo/app", FullName: "octo/app", AccessToken: "tok"})
	require.NoError(t, err)

	status, raw := do(t, app, "POST", "/api/repositories/octo%2Fapp/test-cases/generate", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "No files selected", message(t, raw))

	status, raw = do(t, app, "POST", "/api/repositories/octo%2Fapp/files/sync", "")
	require.Equal(t, fiber.StatusOK, status, string(raw))
	assert.Contains(t, string(raw), "Synced 1 files from repository")

	status, raw = do(t, app, "POST", "/api/repositories/octo%2Fapp/files/select-all", "")
	require.Equal(t, fiber.StatusOK, status)
	var files []domain.RepositoryFile
	require.NoError(t, json.Unmarshal(raw, &files))
	require.Len(t, files, 1)
	assert.True(t, files[0].IsSelected)

	status, raw = do(t, app, "GET", "/api/repositories/octo%2Fapp/files/"+files[0].ID+"/content", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(raw), "export default 1")

	status, raw = do(t, app, "POST", "/api/repositories/octo%2Fapp/test-cases/generate", `{"testFramework":"Jest"}`)
	require.Equal(t, fiber.StatusOK, status, string(raw))
	var cases []domain.TestCaseSummary
	require.NoError(t, json.Unmarshal(raw, &cases))
	require.Len(t, cases, 1)
	assert.Equal(t, domain.PriorityHigh, cases[0].Priority)

	status, raw = do(t, app, "POST", "/api/test-cases/"+cases[0].ID+"/generate-code", "")
	require.Equal(t, fiber.StatusOK, status, string(raw))
	assert.Contains(t, string(raw), "test('app')")

	status, raw = do(t, app, "POST", "/api/repositories/octo%2Fapp/create-pr", `{"testCaseIds":["`+cases[0].ID+`"]}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, message(t, raw), "Cannot create PR")

	status, _ = do(t, app, "PATCH", "/api/files/"+files[0].ID, `{"isSelected":false}`)
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = do(t, app, "DELETE", "/api/test-cases/"+cases[0].ID, "")
	assert.Equal(t, fiber.StatusNoContent, status)

	status, raw = do(t, app, "DELETE", "/api/test-cases/"+cases[0].ID, "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "Test case not found", message(t, raw))
}

func TestPatchedRecordsSurviveLaterRequests(t *testing.T) {
	t.Parallel()

	app, st := newTestApp(t)
	ctx := context.Background()
	_, err := st.CreateRepository(ctx, &domain.Repository{ID: "octo/app", FullName: "octo/app", AccessToken: "tok"})
	require.NoError(t, err)
	f, err := st.CreateFile(ctx, &domain.RepositoryFile{RepositoryID: "octo/app", Path: "app.js", Name: "app.js", Type: domain.FileTypeFile})
	require.NoError(t, err)
	tc, err := st.CreateTestCase(ctx, &domain.TestCaseSummary{RepositoryID: "octo/app", Title: "App", Priority: domain.PriorityLow})
	require.NoError(t, err)

	status, _ := do(t, app, "PATCH", "/api/files/"+f.ID, `{"isSelected":true}`)
	require.Equal(t, fiber.StatusOK, status)
	status, _ = do(t, app, "PUT", "/api/test-cases/"+tc.ID, `{"title":"Renamed"}`)
	require.Equal(t, fiber.StatusOK, status)
	status, _ = do(t, app, "PUT", "/api/repositories/octo%2Fapp", `{"description":"demo"}`)
	require.Equal(t, fiber.StatusOK, status)

	// reuse the request buffers
	for range 3 {
		status, _ = do(t, app, "GET", "/api/test-templates?category=unit", "")
		require.Equal(t, fiber.StatusOK, status)
	}

	got, err := st.GetFile(ctx, f.ID)
	require.NoError(t, err)
	assert.True(t, got.IsSelected)

	status, raw := do(t, app, "GET", "/api/repositories/octo%2Fapp/files/selected", "")
	require.Equal(t, fiber.StatusOK, status, string(raw))
	var files []domain.RepositoryFile
	require.NoError(t, json.Unmarshal(raw, &files))
	require.Len(t, files, 1)
	assert.Equal(t, f.ID, files[0].ID)

	renamed, err := st.GetTestCase(ctx, tc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", renamed.Title)

	repo, err := st.GetRepository(ctx, "octo/app")
	require.NoError(t, err)
	assert.Equal(t, "demo", repo.Description)
}

func TestGitHubBrowseRoutes(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t)

	status, raw := do(t, app, "GET", "/api/github/repositories/octo/app/contents", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Access token required", message(t, raw))

	status, raw = doWithHeader(t, app, "GET", "/api/github/repositories/octo/app/contents", "", "Bearer tok")
	require.Equal(t, fiber.StatusOK, status, string(raw))
	var entries []domain.RemoteEntry
	require.NoError(t, json.Unmarshal(raw, &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "app.js", entries[0].Path)

	status, raw = doWithHeader(t, app, "GET", "/api/github/repositories/octo/app/contents?path=src", "", "Bearer tok")
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `[]`, string(raw))

	status, raw = doWithHeader(t, app, "GET", "/api/github/repositories/ghost/app/contents", "", "Bearer tok")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Failed to fetch repository contents: github: status 404: Not Found", message(t, raw))

	status, raw = doWithHeader(t, app, "GET", "/api/github/repositories/octo/app/file", "", "Bearer tok")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Access token and path required", message(t, raw))

	status, raw = doWithHeader(t, app, "GET", "/api/github/repositories/octo/app/file?path=app.js", "", "Bearer tok")
	require.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"content":"export default 1"}`, string(raw))

	status, raw = doWithHeader(t, app, "GET", "/api/github/repositories", "", "Bearer bad")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "Failed to fetch GitHub repositories: github: status 401: Bad credentials", message(t, raw))
}

func TestTemplateRoutes(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t)

	status, raw := do(t, app, "GET", "/api/test-templates?category=e2e", "")
	require.Equal(t, fiber.StatusOK, status)
	var templates []domain.TestTemplate
	require.NoError(t, json.Unmarshal(raw, &templates))
	assert.Len(t, templates, 3)

	status, raw = do(t, app, "POST", "/api/test-templates", `{"framework":"Mocha"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "framework and template are required", message(t, raw))

	status, _ = do(t, app, "POST", "/api/test-templates", `{"framework":"Mocha","template":"describe()"}`)
	assert.Equal(t, fiber.StatusCreated, status)
}

func TestInvalidBody(t *testing.T) {
	t.Parallel()

	app, _ := newTestApp(t)
	status, raw := do(t, app, "POST", "/api/repositories", `{not json`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "Invalid request body", message(t, raw))
}
