package service

import (
	"context"
	"strings"

	"github.com/arturoeanton/testgen-ai/internal/domain"
	"github.com/arturoeanton/testgen-ai/internal/port"
)

// TemplateService exposes the reference template catalogue.
type TemplateService struct {
	store port.TemplateStore
}

// NewTemplateService creates a new template service.
func NewTemplateService(s port.TemplateStore) *TemplateService {
	return &TemplateService{store: s}
}

// ListTemplates returns templates, optionally filtered by framework and category.
func (s *TemplateService) ListTemplates(ctx context.Context, framework, category string) ([]domain.TestTemplate, error) {
	return s.store.ListTemplates(ctx, framework, category)
}

// CreateTemplate adds a template. Framework and template text are required.
func (s *TemplateService) CreateTemplate(ctx context.Context, t domain.TestTemplate) (*domain.TestTemplate, error) {
	if strings.TrimSpace(t.Framework) == "" || strings.TrimSpace(t.Template) == "" {
		return nil, port.BadRequestf("framework and template are required")
	}
	t.ID = ""
	t.Category = domain.NormalizeCategory(t.Category)
	return s.store.CreateTemplate(ctx, &t)
}
