package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/testgen-ai/internal/domain"
	"github.com/arturoeanton/testgen-ai/internal/service"
)

// RepoHandler handles the repository catalogue and GitHub import.
type RepoHandler struct {
	repos *service.RepoService
}

// NewRepoHandler creates a new repo handler.
func NewRepoHandler(repos *service.RepoService) *RepoHandler {
	return &RepoHandler{repos: repos}
}

// Register sets up repository routes.
func (h *RepoHandler) Register(api fiber.Router) {
	repos := api.Group("/repositories")
	repos.Get("/", h.List)
	repos.Post("/", h.Create)
	repos.Post("/sync", h.Import)
	repos.Get("/:id", h.Get)
	repos.Put("/:id", h.Update)
}

// List returns every known repository.
func (h *RepoHandler) List(c fiber.Ctx) error {
	repos, err := h.repos.ListRepositories(c.Context())
	if err != nil {
		return writeError(c, "Failed to fetch repositories", err)
	}
	return c.JSON(repos)
}

type createRepoBody struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"fullName"`
	Owner         string `json:"owner"`
	Description   string `json:"description"`
	Language      string `json:"language"`
	IsPrivate     bool   `json:"isPrivate"`
	AccessToken   string `json:"accessToken"`
	DefaultBranch string `json:"defaultBranch"`
}

// Create registers a repository by hand.
func (h *RepoHandler) Create(c fiber.Ctx) error {
	var body createRepoBody
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}

	created, err := h.repos.CreateRepository(c.Context(), domain.Repository{
		ID:            body.ID,
		Name:          body.Name,
		FullName:      body.FullName,
		Owner:         body.Owner,
		Description:   body.Description,
		Language:      body.Language,
		IsPrivate:     body.IsPrivate,
		AccessToken:   body.AccessToken,
		DefaultBranch: body.DefaultBranch,
	})
	if err != nil {
		return writeError(c, "Failed to create repository", err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// Import pulls the token owner's repositories from GitHub.
func (h *RepoHandler) Import(c fiber.Ctx) error {
	var body struct {
		AccessToken string `json:"accessToken"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}

	res, err := h.repos.ImportRepositories(c.Context(), body.AccessToken)
	if err != nil {
		return writeError(c, "Failed to sync repositories", err)
	}
	return c.JSON(res)
}

// Get returns one repository.
func (h *RepoHandler) Get(c fiber.Ctx) error {
	repo, err := h.repos.GetRepository(c.Context(), param(c, "id"))
	if err != nil {
		return writeError(c, "Failed to fetch repository", err)
	}
	return c.JSON(repo)
}

// Update applies a partial update.
func (h *RepoHandler) Update(c fiber.Ctx) error {
	var patch domain.RepositoryPatch
	if err := c.Bind().JSON(&patch); err != nil {
		return badBody(c)
	}

	repo, err := h.repos.UpdateRepository(c.Context(), param(c, "id"), patch)
	if err != nil {
		return writeError(c, "Failed to update repository", err)
	}
	return c.JSON(repo)
}
