package handler

import "github.com/gofiber/fiber/v3"

// HealthHandler reports liveness and the configured backends.
type HealthHandler struct {
	appName string
	store   string
	model   string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(appName, store, model string) *HealthHandler {
	return &HealthHandler{appName: appName, store: store, model: model}
}

// Register sets up the health route.
func (h *HealthHandler) Register(api fiber.Router) {
	api.Get("/health", h.Health)
}

func (h *HealthHandler) Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"app":    h.appName,
		"store":  h.store,
		"model":  h.model,
	})
}
