package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/testgen-ai/internal/domain"
	"github.com/arturoeanton/testgen-ai/internal/service"
)

// FileHandler handles tree sync, selection and lazy content.
type FileHandler struct {
	sync *service.SyncService
}

// NewFileHandler creates a new file handler.
func NewFileHandler(sync *service.SyncService) *FileHandler {
	return &FileHandler{sync: sync}
}

// Register sets up file routes.
func (h *FileHandler) Register(api fiber.Router) {
	files := api.Group("/repositories/:id/files")
	files.Get("/", h.List)
	files.Post("/sync", h.Sync)
	files.Get("/selected", h.ListSelected)
	files.Post("/select-all", h.SelectAll)
	files.Post("/clear-selection", h.ClearSelection)
	files.Get("/:fileId/content", h.Content)
	files.Put("/:fileId", h.UpdateInRepo)

	api.Patch("/files/:id", h.Update)
}

// List returns every file record of a repository.
func (h *FileHandler) List(c fiber.Ctx) error {
	files, err := h.sync.ListFiles(c.Context(), param(c, "id"))
	if err != nil {
		return writeError(c, "Failed to fetch files", err)
	}
	return c.JSON(files)
}

// Sync walks the remote tree and records new source files.
func (h *FileHandler) Sync(c fiber.Ctx) error {
	res, err := h.sync.SyncFiles(c.Context(), param(c, "id"))
	if err != nil {
		return writeError(c, "Failed to sync repository files", err)
	}
	return c.JSON(res)
}

// ListSelected returns the selected files of a repository.
func (h *FileHandler) ListSelected(c fiber.Ctx) error {
	files, err := h.sync.ListSelected(c.Context(), param(c, "id"))
	if err != nil {
		return writeError(c, "Failed to fetch selected files", err)
	}
	return c.JSON(files)
}

// SelectAll selects every file record.
func (h *FileHandler) SelectAll(c fiber.Ctx) error {
	files, err := h.sync.SelectAll(c.Context(), param(c, "id"))
	if err != nil {
		return writeError(c, "Failed to select files", err)
	}
	return c.JSON(files)
}

// ClearSelection deselects every file record.
func (h *FileHandler) ClearSelection(c fiber.Ctx) error {
	files, err := h.sync.ClearSelection(c.Context(), param(c, "id"))
	if err != nil {
		return writeError(c, "Failed to clear selection", err)
	}
	return c.JSON(files)
}

// Content returns one file, loading its content from GitHub on first access.
func (h *FileHandler) Content(c fiber.Ctx) error {
	f, err := h.sync.FileContent(c.Context(), param(c, "id"), param(c, "fileId"))
	if err != nil {
		return writeError(c, "Failed to fetch file content", err)
	}
	return c.JSON(f)
}

// UpdateInRepo patches a file of the given repository.
func (h *FileHandler) UpdateInRepo(c fiber.Ctx) error {
	var patch domain.FilePatch
	if err := c.Bind().JSON(&patch); err != nil {
		return badBody(c)
	}

	f, err := h.sync.UpdateRepoFile(c.Context(), param(c, "id"), param(c, "fileId"), patch)
	if err != nil {
		return writeError(c, "Failed to update file", err)
	}
	return c.JSON(f)
}

// Update patches a file by id.
func (h *FileHandler) Update(c fiber.Ctx) error {
	var patch domain.FilePatch
	if err := c.Bind().JSON(&patch); err != nil {
		return badBody(c)
	}

	f, err := h.sync.UpdateFile(c.Context(), param(c, "id"), patch)
	if err != nil {
		return writeError(c, "Failed to update file", err)
	}
	return c.JSON(f)
}
