package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/arturoeanton/testgen-ai/internal/domain"
	"github.com/arturoeanton/testgen-ai/internal/service"
)

// Services are the application services exposed as MCP tools.
type Services struct {
	Repos      *service.RepoService
	Sync       *service.SyncService
	Generation *service.GenerationService
	PRs        *service.PullRequestService
	Templates  *service.TemplateService
}

// Server implements the Model Context Protocol (MCP) server.
// It exposes the sync, generation and PR pipeline to external AI agents.
type Server struct {
	svcs Services
	port string
	mcp  *sdk.Server
}

// NewServer creates a new MCP server with every tool registered.
func NewServer(svcs Services, port string) *Server {
	s := &Server{svcs: svcs, port: port}
	s.mcp = sdk.NewServer(&sdk.Implementation{
		Name:    "testgen-ai",
		Version: "1.0.0",
	}, nil)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_repositories",
		Description: "List the repositories known to TestGen",
	}, s.listRepositories)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "sync_repository_files",
		Description: "Walk the GitHub tree of a repository and record new source files",
	}, s.syncFiles)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_files",
		Description: "List the file records of a repository, optionally only the selected ones",
	}, s.listFiles)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "select_files",
		Description: "Select files by path for test generation, or clear the selection",
	}, s.selectFiles)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "generate_test_summaries",
		Description: "Ask the LLM to propose test suites for the selected files, or for every loaded source file in batch mode",
	}, s.generateSummaries)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "generate_test_code",
		Description: "Generate runnable test code for one test case summary",
	}, s.generateCode)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "create_pull_request",
		Description: "Commit generated tests to a new branch and open a pull request",
	}, s.createPullRequest)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_templates",
		Description: "List reference test templates, optionally filtered by framework and category",
	}, s.listTemplates)

	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *sdk.Server {
	return s.mcp
}

// Start serves the streamable HTTP transport on /mcp until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/mcp", sdk.NewStreamableHTTPHandler(func(*http.Request) *sdk.Server {
		return s.mcp
	}, nil))

	srv := &http.Server{Addr: ":" + s.port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("MCP server starting", "port", s.port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// RunStdio serves a single client over stdin/stdout.
func (s *Server) RunStdio(ctx context.Context) error {
	return s.mcp.Run(ctx, &sdk.StdioTransport{})
}

// --- Input types ---

type emptyInput struct{}

type RepositoryInput struct {
	RepositoryID string `json:"repositoryId" jsonschema:"Repository id, the GitHub full name owner/name"`
}

type ListFilesInput struct {
	RepositoryID string `json:"repositoryId" jsonschema:"Repository id, the GitHub full name owner/name"`
	SelectedOnly bool   `json:"selectedOnly,omitempty" jsonschema:"Only return selected files"`
}

type SelectFilesInput struct {
	RepositoryID string   `json:"repositoryId" jsonschema:"Repository id, the GitHub full name owner/name"`
	Paths        []string `json:"paths,omitempty" jsonschema:"Repository-relative paths to select"`
	All          bool     `json:"all,omitempty" jsonschema:"Select every file instead of the given paths"`
	Clear        bool     `json:"clear,omitempty" jsonschema:"Clear the selection before applying paths or all"`
}

type GenerateSummariesInput struct {
	RepositoryID string `json:"repositoryId" jsonschema:"Repository id, the GitHub full name owner/name"`
	Framework    string `json:"framework,omitempty" jsonschema:"Test framework label such as Jest or Pytest"`
	Batch        bool   `json:"batch,omitempty" jsonschema:"Ignore the selection and use every loaded source file"`
}

type GenerateCodeInput struct {
	TestCaseID string `json:"testCaseId" jsonschema:"Id of the test case summary"`
	TemplateID string `json:"templateId,omitempty" jsonschema:"Optional reference template id"`
}

type CreatePullRequestInput struct {
	RepositoryID string   `json:"repositoryId" jsonschema:"Repository id, the GitHub full name owner/name"`
	TestCaseIDs  []string `json:"testCaseIds" jsonschema:"Test case summaries to include"`
	Title        string   `json:"title,omitempty" jsonschema:"Pull request title"`
	Description  string   `json:"description,omitempty" jsonschema:"Pull request body"`
}

type ListTemplatesInput struct {
	Framework string `json:"framework,omitempty" jsonschema:"Framework filter"`
	Category  string `json:"category,omitempty" jsonschema:"Category filter: unit, integration, e2e or performance"`
}

// --- Handlers ---

func (s *Server) listRepositories(ctx context.Context, _ *sdk.CallToolRequest, _ emptyInput) (*sdk.CallToolResult, any, error) {
	repos, err := s.svcs.Repos.ListRepositories(ctx)
	if err != nil {
		return toolError("Failed to list repositories: %v", err), nil, nil
	}
	if repos == nil {
		repos = []domain.Repository{}
	}
	return toolJSON(repos)
}

func (s *Server) syncFiles(ctx context.Context, _ *sdk.CallToolRequest, in RepositoryInput) (*sdk.CallToolResult, any, error) {
	res, err := s.svcs.Sync.SyncFiles(ctx, in.RepositoryID)
	if err != nil {
		return toolError("Failed to sync repository files: %v", err), nil, nil
	}
	return toolText(res.Message), nil, nil
}

func (s *Server) listFiles(ctx context.Context, _ *sdk.CallToolRequest, in ListFilesInput) (*sdk.CallToolResult, any, error) {
	var files []domain.RepositoryFile
	var err error
	if in.SelectedOnly {
		files, err = s.svcs.Sync.ListSelected(ctx, in.RepositoryID)
	} else {
		files, err = s.svcs.Sync.ListFiles(ctx, in.RepositoryID)
	}
	if err != nil {
		return toolError("Failed to list files: %v", err), nil, nil
	}

	type fileView struct {
		ID         string `json:"id"`
		Path       string `json:"path"`
		Language   string `json:"language"`
		IsSelected bool   `json:"isSelected"`
		Loaded     bool   `json:"loaded"`
	}
	out := make([]fileView, 0, len(files))
	for _, f := range files {
		out = append(out, fileView{ID: f.ID, Path: f.Path, Language: f.Language, IsSelected: f.IsSelected, Loaded: f.HasContent()})
	}
	return toolJSON(out)
}

func (s *Server) selectFiles(ctx context.Context, _ *sdk.CallToolRequest, in SelectFilesInput) (*sdk.CallToolResult, any, error) {
	if in.Clear {
		if _, err := s.svcs.Sync.ClearSelection(ctx, in.RepositoryID); err != nil {
			return toolError("Failed to clear selection: %v", err), nil, nil
		}
	}
	if in.All {
		if _, err := s.svcs.Sync.SelectAll(ctx, in.RepositoryID); err != nil {
			return toolError("Failed to select files: %v", err), nil, nil
		}
	} else if len(in.Paths) > 0 {
		files, err := s.svcs.Sync.ListFiles(ctx, in.RepositoryID)
		if err != nil {
			return toolError("Failed to list files: %v", err), nil, nil
		}
		byPath := make(map[string]string, len(files))
		for _, f := range files {
			byPath[f.Path] = f.ID
		}
		for _, p := range in.Paths {
			id, ok := byPath[p]
			if !ok {
				return toolError("Unknown file: %s", p), nil, nil
			}
			if _, err := s.svcs.Sync.SetSelection(ctx, id, true); err != nil {
				return toolError("Failed to select %s: %v", p, err), nil, nil
			}
		}
	}

	selected, err := s.svcs.Sync.ListSelected(ctx, in.RepositoryID)
	if err != nil {
		return toolError("Failed to list selected files: %v", err), nil, nil
	}
	return toolText(fmt.Sprintf("%d files selected", len(selected))), nil, nil
}

func (s *Server) generateSummaries(ctx context.Context, _ *sdk.CallToolRequest, in GenerateSummariesInput) (*sdk.CallToolResult, any, error) {
	var cases []domain.TestCaseSummary
	var err error
	if in.Batch {
		cases, err = s.svcs.Generation.BatchGenerateSummaries(ctx, in.RepositoryID, in.Framework)
	} else {
		cases, err = s.svcs.Generation.GenerateSummaries(ctx, in.RepositoryID, in.Framework)
	}
	if err != nil {
		return toolError("Failed to generate test summaries: %v", err), nil, nil
	}
	return toolJSON(cases)
}

func (s *Server) generateCode(ctx context.Context, _ *sdk.CallToolRequest, in GenerateCodeInput) (*sdk.CallToolResult, any, error) {
	res, err := s.svcs.Generation.GenerateCode(ctx, in.TestCaseID, in.TemplateID)
	if err != nil {
		return toolError("Failed to generate test code: %v", err), nil, nil
	}
	return toolJSON(res.GeneratedTest)
}

func (s *Server) createPullRequest(ctx context.Context, _ *sdk.CallToolRequest, in CreatePullRequestInput) (*sdk.CallToolResult, any, error) {
	res, err := s.svcs.PRs.CreatePullRequest(ctx, in.RepositoryID, service.PullRequestRequest{
		TestCaseIDs: in.TestCaseIDs,
		Title:       in.Title,
		Description: in.Description,
	})
	if err != nil {
		return toolError("Failed to create pull request: %v", err), nil, nil
	}
	return toolJSON(res)
}

func (s *Server) listTemplates(ctx context.Context, _ *sdk.CallToolRequest, in ListTemplatesInput) (*sdk.CallToolResult, any, error) {
	templates, err := s.svcs.Templates.ListTemplates(ctx, in.Framework, in.Category)
	if err != nil {
		return toolError("Failed to list templates: %v", err), nil, nil
	}
	if templates == nil {
		templates = []domain.TestTemplate{}
	}
	return toolJSON(templates)
}

// --- Helpers ---

func toolText(text string) *sdk.CallToolResult {
	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: text}},
	}
}

func toolError(format string, args ...any) *sdk.CallToolResult {
	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolJSON(v any) (*sdk.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return toolText(string(data)), nil, nil
}
