package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/arturoeanton/testgen-ai/internal/domain"
	"github.com/arturoeanton/testgen-ai/internal/port"
)

const conflictMessage = "Cannot create PR: Branch may not exist or PR already exists. Please ensure the repository has the required branch."

// CodeGenerator produces code for a stored summary.
type CodeGenerator interface {
	GenerateCode(ctx context.Context, summaryID, templateID string) (*CodeResult, error)
}

// PullRequestRequest selects the summaries to ship and optional PR text overrides.
type PullRequestRequest struct {
	TestCaseIDs []string `json:"testCaseIds"`
	Title       string   `json:"prTitle"`
	Description string   `json:"prDescription"`
	AccessToken string   `json:"accessToken"`
}

// PullRequestService commits generated tests to a new branch and opens a pull request.
type PullRequestService struct {
	store   port.Store
	remote  port.RemoteRepository
	codegen CodeGenerator
	now     func() time.Time
}

// NewPullRequestService creates a new pull request assembler.
func NewPullRequestService(s port.Store, remote port.RemoteRepository, codegen CodeGenerator) *PullRequestService {
	return &PullRequestService{store: s, remote: remote, codegen: codegen, now: time.Now}
}

// CreatePullRequest ships the given summaries. Summaries without code get one
// generation attempt each; nothing is written to the remote unless at least one has code.
func (s *PullRequestService) CreatePullRequest(ctx context.Context, repoID string, req PullRequestRequest) (*domain.PullRequestResult, error) {
	if len(req.TestCaseIDs) == 0 {
		return nil, port.BadRequestf("No test cases selected")
	}
	repo, err := s.store.GetRepository(ctx, repoID)
	if err != nil {
		return nil, err
	}
	token := req.AccessToken
	if token == "" {
		token = repo.AccessToken
	}
	if token == "" {
		return nil, port.BadRequestf("GitHub access token is required")
	}
	owner, name, ok := repo.SplitFullName()
	if !ok {
		return nil, port.BadRequestf("Invalid repository format: %s", repo.FullName)
	}

	summaries, err := s.resolveWithCode(ctx, repoID, req.TestCaseIDs)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, port.BadRequestf("No test cases with generated code found")
	}

	if repo.DefaultBranch == "" {
		remoteBase, err := s.remote.DefaultBranch(ctx, token, owner, name)
		if err != nil {
			slog.Warn("default branch lookup failed", "repo_id", repoID, "error", err)
		}
		repo.DefaultBranch = remoteBase
	}
	base := repo.BaseBranch()

	frameworks := frameworkLabels(summaries)
	branch := fmt.Sprintf("feature/test-cases-%s-%d", domain.LookupFramework(frameworks[0]).Slug(), s.now().UnixMilli())
	if err := s.remote.CreateBranch(ctx, token, owner, name, branch, base); err != nil {
		return nil, translateConflict(err)
	}

	committed := make([]committedTest, 0, len(summaries))
	used := map[string]bool{}
	for _, tc := range summaries {
		fw := domain.LookupFramework(tc.TestFramework)
		filePath := uniquePath(fw.TestFilePath(fw.TestFileName(tc.Files, tc.Category)), used)
		filename := path.Base(filePath)

		msg := fmt.Sprintf("Add %s test: %s", tc.TestFramework, filename)
		if err := s.remote.PutFile(ctx, token, owner, name, branch, filePath, tc.GeneratedCode, msg); err != nil {
			return nil, translateConflict(err)
		}
		committed = append(committed, committedTest{path: filePath, summary: tc, framework: fw})
	}

	title := req.Title
	if title == "" {
		title = fmt.Sprintf("Add %s test cases (%d files)", strings.Join(frameworks, ", "), len(committed))
	}
	body := req.Description
	if body == "" {
		body = pullRequestBody(committed)
	}

	pr, err := s.remote.CreatePullRequest(ctx, token, owner, name, port.NewPullRequest{
		Title: title,
		Head:  branch,
		Base:  base,
		Body:  body,
	})
	if err != nil {
		return nil, translateConflict(err)
	}

	paths := make([]string, 0, len(committed))
	for _, c := range committed {
		paths = append(paths, c.path)
	}
	slog.Info("pull request created", "repo_id", repoID, "number", pr.Number, "branch", branch, "files", len(paths))
	return &domain.PullRequestResult{
		URL:       pr.URL,
		Number:    pr.Number,
		Title:     title,
		Branch:    branch,
		Files:     paths,
		TestCases: len(committed),
	}, nil
}

// resolveWithCode looks up each id, skipping unknown ones and ones whose
// on-demand code generation fails.
func (s *PullRequestService) resolveWithCode(ctx context.Context, repoID string, ids []string) ([]domain.TestCaseSummary, error) {
	var out []domain.TestCaseSummary
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		tc, err := s.store.GetTestCase(ctx, id)
		if errors.Is(err, port.ErrNotFound) {
			slog.Warn("skipping unknown test case", "test_case_id", id)
			continue
		}
		if err != nil {
			return nil, err
		}
		if tc.RepositoryID != repoID {
			slog.Warn("skipping test case of another repository", "test_case_id", id, "repo_id", tc.RepositoryID)
			continue
		}

		if !tc.HasCode() {
			res, err := s.codegen.GenerateCode(ctx, id, "")
			if err != nil {
				slog.Warn("on-demand code generation failed", "test_case_id", id, "error", err)
				continue
			}
			tc = res.Summary
		}
		if tc.HasCode() {
			out = append(out, *tc)
		}
	}
	return out, nil
}

type committedTest struct {
	path      string
	summary   domain.TestCaseSummary
	framework domain.Framework
}

func frameworkLabels(summaries []domain.TestCaseSummary) []string {
	var labels []string
	for _, tc := range summaries {
		if !slices.Contains(labels, tc.TestFramework) {
			labels = append(labels, tc.TestFramework)
		}
	}
	return labels
}

// uniquePath suffixes the file stem with -2, -3, ... until the path is unused.
func uniquePath(p string, used map[string]bool) string {
	candidate := p
	dir, file := path.Split(p)
	stem, rest, _ := strings.Cut(file, ".")
	for n := 2; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s%s-%d.%s", dir, stem, n, rest)
	}
	used[candidate] = true
	return candidate
}

func pullRequestBody(committed []committedTest) string {
	var b strings.Builder
	b.WriteString("## Generated test cases\n\n")
	fmt.Fprintf(&b, "This pull request adds %d generated test file(s).\n\n", len(committed))
	b.WriteString("### Files\n\n")
	var commands []string
	for _, c := range committed {
		fmt.Fprintf(&b, "- `%s` (%s, %s): %s\n", c.path, c.summary.TestFramework, c.summary.Category, c.summary.Title)
		if !slices.Contains(commands, c.framework.Command) {
			commands = append(commands, c.framework.Command)
		}
	}
	b.WriteString("\n### Running the tests\n\n```sh\n")
	for _, cmd := range commands {
		b.WriteString(cmd + "\n")
	}
	b.WriteString("```\n")
	return b.String()
}

func translateConflict(err error) error {
	if port.IsConflict(err) {
		return port.BadRequestf(conflictMessage)
	}
	return err
}
