package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/arturoeanton/testgen-ai/internal/domain"
	"github.com/arturoeanton/testgen-ai/internal/port"
)

// CodeResult is the outcome of code generation for one summary.
type CodeResult struct {
	domain.GeneratedTest
	Summary *domain.TestCaseSummary `json:"summary"`
}

// GenerationService orchestrates summary, code and documentation generation.
type GenerationService struct {
	store            port.Store
	remote           port.RemoteRepository
	generator        port.TestCaseGenerator
	defaultFramework string
}

// NewGenerationService creates a new generation orchestrator.
func NewGenerationService(s port.Store, remote port.RemoteRepository, gen port.TestCaseGenerator, defaultFramework string) *GenerationService {
	if defaultFramework == "" {
		defaultFramework = domain.DefaultFramework
	}
	return &GenerationService{store: s, remote: remote, generator: gen, defaultFramework: defaultFramework}
}

func (s *GenerationService) framework(label string) string {
	if strings.TrimSpace(label) == "" {
		return s.defaultFramework
	}
	return strings.TrimSpace(label)
}

// GenerateSummaries proposes test suites for the selected files of a repository.
// Missing content is loaded one file at a time; files that fail to load are skipped.
func (s *GenerationService) GenerateSummaries(ctx context.Context, repoID, framework string) ([]domain.TestCaseSummary, error) {
	repo, err := s.store.GetRepository(ctx, repoID)
	if err != nil {
		return nil, err
	}
	selected, err := s.store.ListSelectedFiles(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("list selected files: %w", err)
	}
	selected = slices.DeleteFunc(selected, func(f domain.RepositoryFile) bool { return !f.IsFile() })
	if len(selected) == 0 {
		return nil, port.BadRequestf("No files selected")
	}

	sources := make([]domain.SourceFile, 0, len(selected))
	for _, f := range selected {
		if !f.HasContent() {
			loaded, err := loadContent(ctx, s.store, s.remote, repo, &f)
			if err != nil {
				slog.Warn("failed to load file content", "repo_id", repoID, "path", f.Path, "error", err)
				continue
			}
			f = *loaded
		}
		if !f.HasContent() {
			continue
		}
		sources = append(sources, f.SourceFile())
	}
	if len(sources) == 0 {
		return nil, port.BadRequestf("Selected files have no content after loading")
	}

	return s.summarize(ctx, repoID, s.framework(framework), sources)
}

// BatchGenerateSummaries ignores selection and uses every loaded source file
// in a testable language outside dependency and VCS directories.
func (s *GenerationService) BatchGenerateSummaries(ctx context.Context, repoID, framework string) ([]domain.TestCaseSummary, error) {
	if _, err := s.store.GetRepository(ctx, repoID); err != nil {
		return nil, err
	}
	files, err := s.store.ListFiles(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	var sources []domain.SourceFile
	for _, f := range files {
		if isBatchEligible(f) {
			sources = append(sources, f.SourceFile())
		}
	}
	if len(sources) == 0 {
		return nil, port.BadRequestf("No code files found for batch processing")
	}

	return s.summarize(ctx, repoID, s.framework(framework), sources)
}

func isBatchEligible(f domain.RepositoryFile) bool {
	return f.IsFile() &&
		f.HasContent() &&
		domain.IsTestableLanguage(f.Language) &&
		!domain.TraversesSkippedDir(f.Path)
}

func (s *GenerationService) summarize(ctx context.Context, repoID, framework string, sources []domain.SourceFile) ([]domain.TestCaseSummary, error) {
	drafts, err := s.generator.GenerateSummaries(ctx, port.SummaryRequest{Files: sources, Framework: framework})
	if err != nil {
		return nil, fmt.Errorf("generate test summaries: %w", err)
	}

	supplied := make([]string, 0, len(sources))
	for _, src := range sources {
		supplied = append(supplied, src.Path)
	}

	out := make([]domain.TestCaseSummary, 0, len(drafts))
	for _, d := range drafts {
		tc, err := s.store.CreateTestCase(ctx, &domain.TestCaseSummary{
			RepositoryID:   repoID,
			Title:          d.Title,
			Description:    d.Description,
			Priority:       domain.NormalizePriority(d.Priority),
			TestFramework:  framework,
			Files:          restrictFiles(d.Files, supplied),
			TestCaseCount:  d.TestCaseCount,
			EstimatedTime:  d.EstimatedTime,
			Category:       domain.NormalizeCategory(d.Category),
			IsCustomizable: true,
		})
		if err != nil {
			return nil, fmt.Errorf("store test case: %w", err)
		}
		out = append(out, *tc)
	}
	slog.Info("test summaries generated", "repo_id", repoID, "framework", framework, "files", len(sources), "summaries", len(out))
	return out, nil
}

// restrictFiles keeps the proposed paths that were actually supplied, in order
// and without duplicates. When none match it falls back to every supplied path.
func restrictFiles(proposed, supplied []string) []string {
	var out []string
	for _, p := range proposed {
		p = strings.TrimPrefix(strings.TrimSpace(p), "/")
		if slices.Contains(supplied, p) && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return slices.Clone(supplied)
	}
	return out
}

// GenerateCode writes test code for one summary and stores it, replacing any previous code.
func (s *GenerationService) GenerateCode(ctx context.Context, summaryID, templateID string) (*CodeResult, error) {
	summary, err := s.store.GetTestCase(ctx, summaryID)
	if err != nil {
		return nil, err
	}

	var templateText string
	if templateID != "" {
		tpl, err := s.store.GetTemplate(ctx, templateID)
		if err != nil {
			return nil, err
		}
		templateText = tpl.Template
	}

	files, err := s.store.ListFiles(ctx, summary.RepositoryID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	var sources []domain.SourceFile
	for _, path := range summary.Files {
		for _, f := range files {
			if f.Path == path && f.HasContent() {
				sources = append(sources, f.SourceFile())
				break
			}
		}
	}
	if len(sources) == 0 {
		return nil, port.BadRequestf("Referenced files have no content")
	}

	generated, err := s.generator.GenerateCode(ctx, port.CodeRequest{Summary: *summary, Files: sources, Template: templateText})
	if err != nil {
		return nil, fmt.Errorf("generate test code: %w", err)
	}

	updated, err := s.store.UpdateTestCase(ctx, summaryID, domain.TestCasePatch{GeneratedCode: &generated.Content})
	if err != nil {
		return nil, fmt.Errorf("store generated code: %w", err)
	}
	slog.Info("test code generated", "test_case_id", summaryID, "filename", generated.Filename)
	return &CodeResult{GeneratedTest: *generated, Summary: updated}, nil
}

// CustomTestRequest carries a free-form test generation request.
type CustomTestRequest struct {
	Prompt    string   `json:"customPrompt"`
	Framework string   `json:"testFramework"`
	FileIDs   []string `json:"fileIds"`
}

// GenerateCustomTest writes a test from a user instruction over the given
// files, or over every loaded file when none are named.
func (s *GenerationService) GenerateCustomTest(ctx context.Context, repoID string, req CustomTestRequest) (*domain.GeneratedTest, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, port.BadRequestf("Custom prompt is required")
	}
	repo, err := s.store.GetRepository(ctx, repoID)
	if err != nil {
		return nil, err
	}
	files, err := s.store.ListFiles(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	var sources []domain.SourceFile
	for _, f := range files {
		if !f.IsFile() {
			continue
		}
		if len(req.FileIDs) > 0 {
			if !slices.Contains(req.FileIDs, f.ID) {
				continue
			}
			if !f.HasContent() {
				loaded, err := loadContent(ctx, s.store, s.remote, repo, &f)
				if err != nil {
					slog.Warn("failed to load file content", "repo_id", repoID, "path", f.Path, "error", err)
					continue
				}
				f = *loaded
			}
		}
		if f.HasContent() {
			sources = append(sources, f.SourceFile())
		}
	}

	out, err := s.generator.GenerateCustomTest(ctx, port.CustomRequest{
		Prompt:    req.Prompt,
		Framework: s.framework(req.Framework),
		Files:     sources,
	})
	if err != nil {
		return nil, fmt.Errorf("generate custom test: %w", err)
	}
	return out, nil
}

// Documentation is generated Markdown for a repository's test suites.
type Documentation struct {
	Markdown  string `json:"documentation"`
	Framework string `json:"framework"`
	TestCases int    `json:"testCases"`
}

// GenerateDocumentation renders Markdown describing the repository's summaries.
// An empty framework documents every summary; otherwise only that framework's.
func (s *GenerationService) GenerateDocumentation(ctx context.Context, repoID, framework string) (*Documentation, error) {
	if _, err := s.store.GetRepository(ctx, repoID); err != nil {
		return nil, err
	}
	summaries, err := s.store.ListTestCases(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("list test cases: %w", err)
	}
	if framework != "" {
		summaries = slices.DeleteFunc(summaries, func(tc domain.TestCaseSummary) bool {
			return !strings.EqualFold(tc.TestFramework, framework)
		})
	}
	if len(summaries) == 0 {
		return nil, port.BadRequestf("No test cases found for documentation")
	}

	fw := s.framework(framework)
	if framework == "" {
		fw = summaries[0].TestFramework
	}
	md, err := s.generator.GenerateDocumentation(ctx, summaries, fw)
	if err != nil {
		return nil, fmt.Errorf("generate documentation: %w", err)
	}
	return &Documentation{Markdown: md, Framework: fw, TestCases: len(summaries)}, nil
}

// ListTestCases returns the summaries of a repository.
func (s *GenerationService) ListTestCases(ctx context.Context, repoID string) ([]domain.TestCaseSummary, error) {
	return s.store.ListTestCases(ctx, repoID)
}

// GetTestCase returns one summary.
func (s *GenerationService) GetTestCase(ctx context.Context, id string) (*domain.TestCaseSummary, error) {
	return s.store.GetTestCase(ctx, id)
}

// UpdateTestCase applies a user edit, validating enumerated fields.
func (s *GenerationService) UpdateTestCase(ctx context.Context, id string, patch domain.TestCasePatch) (*domain.TestCaseSummary, error) {
	if patch.Priority != nil {
		switch *patch.Priority {
		case domain.PriorityHigh, domain.PriorityMedium, domain.PriorityLow:
		default:
			return nil, port.BadRequestf("Invalid priority: %s", *patch.Priority)
		}
	}
	if patch.Category != nil {
		switch *patch.Category {
		case domain.CategoryUnit, domain.CategoryIntegration, domain.CategoryE2E, domain.CategoryPerformance:
		default:
			return nil, port.BadRequestf("Invalid category: %s", *patch.Category)
		}
	}
	return s.store.UpdateTestCase(ctx, id, patch)
}

// DeleteTestCase removes one summary.
func (s *GenerationService) DeleteTestCase(ctx context.Context, id string) error {
	return s.store.DeleteTestCase(ctx, id)
}
