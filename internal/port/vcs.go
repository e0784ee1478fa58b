package port

import (
	"context"

	"github.com/arturoeanton/testgen-ai/internal/domain"
)

// NewPullRequest describes a pull request to open.
type NewPullRequest struct {
	Title string
	Head  string
	Base  string
	Body  string
}

// OpenedPullRequest is the host's view of a created pull request.
type OpenedPullRequest struct {
	Number int
	URL    string
}

// RemoteRepository abstracts the hosted repository API.
// The access token is passed on every call; implementations hold no user credentials.
type RemoteRepository interface {
	// ListRepositories returns the repositories visible to the token's owner.
	ListRepositories(ctx context.Context, token string) ([]domain.RemoteRepository, error)

	// ListContents lists one directory level. An empty path lists the root.
	ListContents(ctx context.Context, token, owner, repo, path string) ([]domain.RemoteEntry, error)

	// FileContent returns the decoded content of one file.
	FileContent(ctx context.Context, token, owner, repo, path string) (string, error)

	// DefaultBranch returns the repository's default branch name.
	DefaultBranch(ctx context.Context, token, owner, repo string) (string, error)

	// CreateBranch creates branch from the head commit of base.
	CreateBranch(ctx context.Context, token, owner, repo, branch, base string) error

	// PutFile creates or updates a file on branch with one commit.
	PutFile(ctx context.Context, token, owner, repo, branch, path, content, message string) error

	// CreatePullRequest opens a pull request.
	CreatePullRequest(ctx context.Context, token, owner, repo string, pr NewPullRequest) (*OpenedPullRequest, error)
}
