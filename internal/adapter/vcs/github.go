package vcs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v72/github"

	"github.com/arturoeanton/testgen-ai/internal/domain"
	"github.com/arturoeanton/testgen-ai/internal/port"
)

// maxRepoPages caps repository listing at 500 repositories.
const maxRepoPages = 5

// GitHubProvider implements port.RemoteRepository on the GitHub REST API.
type GitHubProvider struct {
	base *github.Client
}

// NewGitHubProvider creates a provider. An empty apiURL targets api.github.com.
func NewGitHubProvider(apiURL string, timeout time.Duration) (*GitHubProvider, error) {
	client := github.NewClient(&http.Client{Timeout: timeout})
	if apiURL != "" {
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		u, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("parse github api url: %w", err)
		}
		client.BaseURL = u
	}
	return &GitHubProvider{base: client}, nil
}

func (g *GitHubProvider) client(token string) *github.Client {
	return g.base.WithAuthToken(token)
}

// ListRepositories returns the token owner's repositories, most recently updated first.
func (g *GitHubProvider) ListRepositories(ctx context.Context, token string) ([]domain.RemoteRepository, error) {
	gh := g.client(token)
	opts := &github.RepositoryListByAuthenticatedUserOptions{
		Sort:        "updated",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var out []domain.RemoteRepository
	for page := 0; page < maxRepoPages; page++ {
		repos, resp, err := gh.Repositories.ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("list repositories: %w", remoteError(err))
		}
		for _, r := range repos {
			out = append(out, domain.RemoteRepository{
				ID:            r.GetID(),
				Name:          r.GetName(),
				FullName:      r.GetFullName(),
				Owner:         r.GetOwner().GetLogin(),
				Description:   r.GetDescription(),
				Language:      r.GetLanguage(),
				Private:       r.GetPrivate(),
				DefaultBranch: r.GetDefaultBranch(),
			})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

// ListContents lists one directory. A file path yields a single entry.
func (g *GitHubProvider) ListContents(ctx context.Context, token, owner, repo, path string) ([]domain.RemoteEntry, error) {
	file, dir, _, err := g.client(token).Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		return nil, fmt.Errorf("list contents %q: %w", path, remoteError(err))
	}
	if file != nil {
		return []domain.RemoteEntry{toEntry(file)}, nil
	}

	entries := make([]domain.RemoteEntry, 0, len(dir))
	for _, c := range dir {
		entries = append(entries, toEntry(c))
	}
	return entries, nil
}

func toEntry(c *github.RepositoryContent) domain.RemoteEntry {
	return domain.RemoteEntry{
		Name:        c.GetName(),
		Path:        c.GetPath(),
		Type:        c.GetType(),
		Size:        c.Size,
		DownloadURL: c.GetDownloadURL(),
	}
}

// FileContent fetches and base64-decodes one file.
func (g *GitHubProvider) FileContent(ctx context.Context, token, owner, repo, path string) (string, error) {
	file, _, _, err := g.client(token).Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		return "", fmt.Errorf("get file %q: %w", path, remoteError(err))
	}
	if file == nil {
		return "", port.BadRequestf("%s is a directory", path)
	}
	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("decode file %q: %w", path, &port.RemoteError{Service: "github", Message: err.Error()})
	}
	return content, nil
}

// DefaultBranch returns the repository's default branch.
func (g *GitHubProvider) DefaultBranch(ctx context.Context, token, owner, repo string) (string, error) {
	r, _, err := g.client(token).Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", fmt.Errorf("get repository: %w", remoteError(err))
	}
	if r.GetDefaultBranch() == "" {
		return domain.DefaultBaseBranch, nil
	}
	return r.GetDefaultBranch(), nil
}

// CreateBranch points a new branch at the current head of base.
func (g *GitHubProvider) CreateBranch(ctx context.Context, token, owner, repo, branch, base string) error {
	gh := g.client(token)

	ref, _, err := gh.Git.GetRef(ctx, owner, repo, "heads/"+base)
	if err != nil {
		return fmt.Errorf("get base ref %s: %w", base, remoteError(err))
	}

	_, _, err = gh.Git.CreateRef(ctx, owner, repo, &github.Reference{
		Ref:    github.Ptr("refs/heads/" + branch),
		Object: &github.GitObject{SHA: ref.GetObject().SHA},
	})
	if err != nil {
		return fmt.Errorf("create branch %s: %w", branch, remoteError(err))
	}
	return nil
}

// PutFile commits content to path on branch, updating the file if it already exists there.
func (g *GitHubProvider) PutFile(ctx context.Context, token, owner, repo, branch, path, content, message string) error {
	gh := g.client(token)

	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(message),
		Content: []byte(content),
		Branch:  github.Ptr(branch),
	}

	existing, _, _, err := gh.Repositories.GetContents(ctx, owner, repo, path, &github.RepositoryContentGetOptions{Ref: branch})
	switch {
	case err == nil && existing != nil:
		opts.SHA = existing.SHA
		_, _, err = gh.Repositories.UpdateFile(ctx, owner, repo, path, opts)
	case err == nil || isStatus(err, http.StatusNotFound):
		_, _, err = gh.Repositories.CreateFile(ctx, owner, repo, path, opts)
	default:
		slog.Warn("sha lookup failed, attempting create", "path", path, "error", err)
		_, _, err = gh.Repositories.CreateFile(ctx, owner, repo, path, opts)
	}
	if err != nil {
		return fmt.Errorf("put file %s: %w", path, remoteError(err))
	}
	return nil
}

// CreatePullRequest opens a pull request from pr.Head into pr.Base.
func (g *GitHubProvider) CreatePullRequest(ctx context.Context, token, owner, repo string, pr port.NewPullRequest) (*port.OpenedPullRequest, error) {
	created, _, err := g.client(token).PullRequests.Create(ctx, owner, repo, &github.NewPullRequest{
		Title: github.Ptr(pr.Title),
		Head:  github.Ptr(pr.Head),
		Base:  github.Ptr(pr.Base),
		Body:  github.Ptr(pr.Body),
	})
	if err != nil {
		return nil, fmt.Errorf("create pull request: %w", remoteError(err))
	}
	return &port.OpenedPullRequest{Number: created.GetNumber(), URL: created.GetHTMLURL()}, nil
}

func isStatus(err error, code int) bool {
	var ghErr *github.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == code
}

// remoteError converts go-github errors into *port.RemoteError.
func remoteError(err error) error {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) {
		re := &port.RemoteError{Service: "github", Message: ghErr.Message}
		if ghErr.Response != nil {
			re.StatusCode = ghErr.Response.StatusCode
		}
		if len(ghErr.Errors) > 0 && ghErr.Errors[0].Message != "" {
			re.Message += ": " + ghErr.Errors[0].Message
		}
		return re
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		re := &port.RemoteError{Service: "github", Message: rateErr.Message}
		if rateErr.Response != nil {
			re.StatusCode = rateErr.Response.StatusCode
		}
		return re
	}
	return &port.RemoteError{Service: "github", Message: err.Error()}
}
