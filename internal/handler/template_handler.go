package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/testgen-ai/internal/domain"
	"github.com/arturoeanton/testgen-ai/internal/service"
)

// TemplateHandler exposes the template catalogue.
type TemplateHandler struct {
	templates *service.TemplateService
}

// NewTemplateHandler creates a new template handler.
func NewTemplateHandler(templates *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

// Register sets up template routes.
func (h *TemplateHandler) Register(api fiber.Router) {
	tpl := api.Group("/test-templates")
	tpl.Get("/", h.List)
	tpl.Post("/", h.Create)
}

// List returns templates filtered by the framework and category query params.
func (h *TemplateHandler) List(c fiber.Ctx) error {
	out, err := h.templates.ListTemplates(c.Context(), c.Query("framework"), c.Query("category"))
	if err != nil {
		return writeError(c, "Failed to fetch templates", err)
	}
	if out == nil {
		out = []domain.TestTemplate{}
	}
	return c.JSON(out)
}

// Create adds a template.
func (h *TemplateHandler) Create(c fiber.Ctx) error {
	var body domain.TestTemplate
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}

	created, err := h.templates.CreateTemplate(c.Context(), body)
	if err != nil {
		return writeError(c, "Failed to create template", err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}
