package handler

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/testgen-ai/internal/domain"
	"github.com/arturoeanton/testgen-ai/internal/port"
)

// GitHubHandler browses GitHub directly with the caller's bearer token,
// without touching the store.
type GitHubHandler struct {
	remote port.RemoteRepository
}

// NewGitHubHandler creates a new GitHub browse handler.
func NewGitHubHandler(remote port.RemoteRepository) *GitHubHandler {
	return &GitHubHandler{remote: remote}
}

// Register sets up GitHub browse routes.
func (h *GitHubHandler) Register(api fiber.Router) {
	gh := api.Group("/github/repositories")
	gh.Get("/", h.ListRepositories)
	gh.Get("/:owner/:repo/contents", h.Contents)
	gh.Get("/:owner/:repo/file", h.File)
}

func bearerToken(c fiber.Ctx) string {
	return strings.TrimSpace(strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer "))
}

// ListRepositories lists the repositories visible to the token.
func (h *GitHubHandler) ListRepositories(c fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Access token required"})
	}
	repos, err := h.remote.ListRepositories(c.Context(), token)
	if err != nil {
		return writeError(c, "Failed to fetch GitHub repositories", err)
	}
	if repos == nil {
		repos = []domain.RemoteRepository{}
	}
	return c.JSON(repos)
}

// Contents lists one directory; ?path= defaults to the root.
func (h *GitHubHandler) Contents(c fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Access token required"})
	}
	entries, err := h.remote.ListContents(c.Context(), token, param(c, "owner"), param(c, "repo"), c.Query("path"))
	if err != nil {
		return writeError(c, "Failed to fetch repository contents", err)
	}
	if entries == nil {
		entries = []domain.RemoteEntry{}
	}
	return c.JSON(entries)
}

// File returns the decoded content of one file as {content}.
func (h *GitHubHandler) File(c fiber.Ctx) error {
	token := bearerToken(c)
	path := c.Query("path")
	if token == "" || path == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Access token and path required"})
	}
	content, err := h.remote.FileContent(c.Context(), token, param(c, "owner"), param(c, "repo"), path)
	if err != nil {
		return writeError(c, "Failed to fetch file content", err)
	}
	return c.JSON(fiber.Map{"content": content})
}
