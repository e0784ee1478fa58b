package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/testgen-ai/internal/domain"
	"github.com/arturoeanton/testgen-ai/internal/service"
)

// TestCaseHandler handles summary generation, code generation and PR assembly.
type TestCaseHandler struct {
	gen *service.GenerationService
	prs *service.PullRequestService
}

// NewTestCaseHandler creates a new test case handler.
func NewTestCaseHandler(gen *service.GenerationService, prs *service.PullRequestService) *TestCaseHandler {
	return &TestCaseHandler{gen: gen, prs: prs}
}

// Register sets up test case routes.
func (h *TestCaseHandler) Register(api fiber.Router) {
	repo := api.Group("/repositories/:id")
	repo.Get("/test-cases", h.List)
	repo.Post("/test-cases/generate", h.Generate)
	repo.Post("/test-cases/batch-generate", h.BatchGenerate)
	repo.Post("/create-pr", h.CreatePR)
	repo.Post("/custom-test", h.CustomTest)
	repo.Post("/generate-documentation", h.Documentation)

	tc := api.Group("/test-cases")
	tc.Post("/:id/generate-code", h.GenerateCode)
	tc.Put("/:id", h.Update)
	tc.Delete("/:id", h.Delete)
}

type frameworkBody struct {
	Framework string `json:"testFramework"`
}

// bindOptional decodes a JSON body when one was sent.
func bindOptional(c fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return c.Bind().JSON(out)
}

// List returns the summaries of a repository.
func (h *TestCaseHandler) List(c fiber.Ctx) error {
	cases, err := h.gen.ListTestCases(c.Context(), param(c, "id"))
	if err != nil {
		return writeError(c, "Failed to fetch test cases", err)
	}
	if cases == nil {
		cases = []domain.TestCaseSummary{}
	}
	return c.JSON(cases)
}

// Generate proposes summaries for the selected files.
func (h *TestCaseHandler) Generate(c fiber.Ctx) error {
	var body frameworkBody
	if err := bindOptional(c, &body); err != nil {
		return badBody(c)
	}

	cases, err := h.gen.GenerateSummaries(c.Context(), param(c, "id"), body.Framework)
	if err != nil {
		return writeError(c, "Failed to generate test case summaries", err)
	}
	return c.JSON(cases)
}

// BatchGenerate proposes summaries for every loaded source file.
func (h *TestCaseHandler) BatchGenerate(c fiber.Ctx) error {
	var body frameworkBody
	if err := bindOptional(c, &body); err != nil {
		return badBody(c)
	}

	cases, err := h.gen.BatchGenerateSummaries(c.Context(), param(c, "id"), body.Framework)
	if err != nil {
		return writeError(c, "Failed to batch generate test cases", err)
	}
	return c.JSON(fiber.Map{
		"message":   "Batch generation completed",
		"testCases": cases,
		"count":     len(cases),
	})
}

// GenerateCode writes test code for one summary.
func (h *TestCaseHandler) GenerateCode(c fiber.Ctx) error {
	var body struct {
		TemplateID string `json:"templateId"`
	}
	if err := bindOptional(c, &body); err != nil {
		return badBody(c)
	}

	res, err := h.gen.GenerateCode(c.Context(), param(c, "id"), body.TemplateID)
	if err != nil {
		return writeError(c, "Failed to generate test code", err)
	}
	return c.JSON(res)
}

// Update applies a user edit to a summary.
func (h *TestCaseHandler) Update(c fiber.Ctx) error {
	var patch domain.TestCasePatch
	if err := c.Bind().JSON(&patch); err != nil {
		return badBody(c)
	}

	tc, err := h.gen.UpdateTestCase(c.Context(), param(c, "id"), patch)
	if err != nil {
		return writeError(c, "Failed to update test case", err)
	}
	return c.JSON(tc)
}

// Delete removes a summary.
func (h *TestCaseHandler) Delete(c fiber.Ctx) error {
	if err := h.gen.DeleteTestCase(c.Context(), param(c, "id")); err != nil {
		return writeError(c, "Failed to delete test case", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CreatePR commits generated tests to a new branch and opens a pull request.
func (h *TestCaseHandler) CreatePR(c fiber.Ctx) error {
	var body service.PullRequestRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}

	res, err := h.prs.CreatePullRequest(c.Context(), param(c, "id"), body)
	if err != nil {
		return writeError(c, "Failed to create pull request", err)
	}
	return c.JSON(fiber.Map{
		"success":   true,
		"prUrl":     res.URL,
		"prNumber":  res.Number,
		"title":     res.Title,
		"branch":    res.Branch,
		"files":     res.Files,
		"testCases": res.TestCases,
	})
}

// CustomTest writes a test from a free-form instruction.
func (h *TestCaseHandler) CustomTest(c fiber.Ctx) error {
	var body service.CustomTestRequest
	if err := c.Bind().JSON(&body); err != nil {
		return badBody(c)
	}

	out, err := h.gen.GenerateCustomTest(c.Context(), param(c, "id"), body)
	if err != nil {
		return writeError(c, "Failed to generate custom test", err)
	}
	return c.JSON(out)
}

// Documentation renders Markdown for the repository's summaries.
func (h *TestCaseHandler) Documentation(c fiber.Ctx) error {
	var body frameworkBody
	if err := bindOptional(c, &body); err != nil {
		return badBody(c)
	}

	doc, err := h.gen.GenerateDocumentation(c.Context(), param(c, "id"), body.Framework)
	if err != nil {
		return writeError(c, "Failed to generate documentation", err)
	}
	return c.JSON(doc)
}
