package handlers

import (
	"errors"
	"strings"

	"github.com/dimitrije/bolt-api/internal/models"
	"github.com/dimitrije/bolt-api/internal/services"
	"github.com/dimitrije/bolt-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

type TemplateHandler struct {
	templateService TemplateServiceInterface
}

func NewTemplateHandler(templateService TemplateServiceInterface) *TemplateHandler {
	return &TemplateHandler{
		templateService: templateService,
	}
}

func (h *TemplateHandler) Search(c *drift.Context) {
	query := strings.TrimSpace(c.QueryParam("q"))
	category := strings.TrimSpace(c.QueryParam("category"))

	templates, err := h.templateService.Search(c.Request.Context(), query, category)
	if err != nil {
		c.InternalServerError("failed to search templates")
		return
	}

	results := make([]dto.TemplateResponse, len(templates))
	for i := range templates {
		results[i] = templateResponse(&templates[i])
	}

	_ = c.JSON(200, results)
}

func (h *TemplateHandler) Get(c *drift.Context) {
	slug := c.Param("slug")
	if slug == "" {
		c.BadRequest("template slug is required")
		return
	}

	tmpl, err := h.templateService.GetBySlug(c.Request.Context(), slug)
	if errors.Is(err, services.ErrTemplateNotFound) {
		c.NotFound("template not found")
		return
	}
	if err != nil {
		c.InternalServerError("failed to get template")
		return
	}

	_ = c.JSON(200, templateResponse(tmpl))
}

func templateResponse(t *models.ProjectTemplate) dto.TemplateResponse {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return dto.TemplateResponse{
		Slug:          t.Slug,
		Name:          t.Name,
		Description:   t.Description,
		Category:      t.Category,
		Icon:          t.Icon,
		Prompt:        t.Prompt,
		Tags:          tags,
		Difficulty:    t.Difficulty,
		EstimatedTime: t.EstimatedTime,
	}
}
