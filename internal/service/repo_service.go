package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arturoeanton/testgen-ai/internal/domain"
	"github.com/arturoeanton/testgen-ai/internal/port"
)

// RepoService manages the repository catalogue.
type RepoService struct {
	store  port.RepositoryStore
	remote port.RemoteRepository
}

// NewRepoService creates a new repository service.
func NewRepoService(s port.RepositoryStore, remote port.RemoteRepository) *RepoService {
	return &RepoService{store: s, remote: remote}
}

// ImportResult lists the repositories created by an import.
type ImportResult struct {
	Message      string              `json:"message"`
	Repositories []domain.Repository `json:"repositories"`
}

// ImportRepositories registers every repository visible to token that is not
// already known. Repositories are keyed by their full name.
func (s *RepoService) ImportRepositories(ctx context.Context, token string) (*ImportResult, error) {
	if strings.TrimSpace(token) == "" {
		return nil, port.BadRequestf("Access token required")
	}

	remoteRepos, err := s.remote.ListRepositories(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("list remote repositories: %w", err)
	}

	saved := make([]domain.Repository, 0, len(remoteRepos))
	for _, rr := range remoteRepos {
		_, err := s.store.GetRepository(ctx, rr.FullName)
		if err == nil {
			continue
		}
		if !errors.Is(err, port.ErrNotFound) {
			return nil, fmt.Errorf("lookup %s: %w", rr.FullName, err)
		}

		repo, err := s.store.CreateRepository(ctx, &domain.Repository{
			ID:            rr.FullName,
			Name:          rr.Name,
			FullName:      rr.FullName,
			Owner:         rr.Owner,
			Description:   rr.Description,
			Language:      rr.Language,
			IsPrivate:     rr.Private,
			AccessToken:   token,
			DefaultBranch: rr.DefaultBranch,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", rr.FullName, err)
		}
		saved = append(saved, *repo)
	}

	slog.Info("repositories imported", "remote", len(remoteRepos), "created", len(saved))
	return &ImportResult{
		Message:      fmt.Sprintf("Synced %d new repositories", len(saved)),
		Repositories: saved,
	}, nil
}

// CreateRepository registers a repository by hand. The ID defaults to the full name.
func (s *RepoService) CreateRepository(ctx context.Context, r domain.Repository) (*domain.Repository, error) {
	if r.FullName == "" && r.Owner != "" && r.Name != "" {
		r.FullName = r.Owner + "/" + r.Name
	}
	if r.FullName == "" {
		return nil, port.BadRequestf("fullName is required")
	}
	if r.ID == "" {
		r.ID = r.FullName
	}
	if r.Name == "" || r.Owner == "" {
		owner, name, ok := r.SplitFullName()
		if !ok {
			return nil, port.BadRequestf("Invalid repository format: %s", r.FullName)
		}
		if r.Owner == "" {
			r.Owner = owner
		}
		if r.Name == "" {
			r.Name = name
		}
	}
	return s.store.CreateRepository(ctx, &r)
}

// GetRepository returns one repository.
func (s *RepoService) GetRepository(ctx context.Context, id string) (*domain.Repository, error) {
	return s.store.GetRepository(ctx, id)
}

// ListRepositories returns every known repository.
func (s *RepoService) ListRepositories(ctx context.Context) ([]domain.Repository, error) {
	return s.store.ListRepositories(ctx)
}

// UpdateRepository applies a partial update.
func (s *RepoService) UpdateRepository(ctx context.Context, id string, patch domain.RepositoryPatch) (*domain.Repository, error) {
	return s.store.UpdateRepository(ctx, id, patch)
}
