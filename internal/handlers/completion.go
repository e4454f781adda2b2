package handlers

import (
	"strings"

	"github.com/dimitrije/bolt-api/internal/catalog"
	"github.com/dimitrije/bolt-api/internal/completion"
	"github.com/dimitrije/bolt-api/internal/logger"
	"github.com/dimitrije/bolt-api/internal/models"
	"github.com/dimitrije/bolt-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

// CompletionHandler serves the stateless completion endpoints. They are
// public: nothing is stored.
type CompletionHandler struct {
	gateway CompletionGatewayInterface
	catalog *catalog.Catalog
	log     *logger.Logger
}

func NewCompletionHandler(gateway CompletionGatewayInterface, cat *catalog.Catalog, log *logger.Logger) *CompletionHandler {
	return &CompletionHandler{gateway: gateway, catalog: cat, log: log}
}

func (h *CompletionHandler) ChatModels(c *drift.Context) {
	_ = c.JSON(200, dto.ModelsResponse{
		Models:       h.catalog.All(),
		DefaultModel: h.catalog.Default(),
	})
}

func (h *CompletionHandler) ListModels(c *drift.Context) {
	purpose, err := models.ParsePurpose(c.QueryParam("purpose"))
	if err != nil {
		c.BadRequest("purpose must be chat or code")
		return
	}

	_ = c.JSON(200, dto.ModelsResponse{
		Models:       h.catalog.ForPurpose(purpose),
		DefaultModel: h.catalog.DefaultFor(purpose),
	})
}

func (h *CompletionHandler) Chat(c *drift.Context) {
	var req dto.CompletionRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if strings.TrimSpace(req.Prompt) == "" {
		c.BadRequest("prompt is required")
		return
	}

	res, err := h.gateway.GenerateChatReply(c.Request.Context(), req.Prompt, req.ModelID)
	if err != nil {
		h.log.Warn("chat completion failed", "model", req.ModelID, "error", err)
		respondGenerationError(c, err)
		return
	}

	_ = c.JSON(200, dto.ChatCompletionResponse{
		Result: res.Result,
		Model:  res.Model,
		Usage:  usageDTO(res.Usage),
	})
}

func (h *CompletionHandler) Code(c *drift.Context) {
	var req dto.CompletionRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if strings.TrimSpace(req.Prompt) == "" {
		c.BadRequest("prompt is required")
		return
	}

	res, err := h.gateway.GenerateCodeArtifacts(c.Request.Context(), req.Prompt, req.ModelID)
	if err != nil {
		h.log.Warn("code completion failed", "model", req.ModelID, "error", err)
		respondGenerationError(c, err)
		return
	}

	_ = c.JSON(200, dto.CodeArtifactsResponse{
		Extra: res.Extra,
		Files: res.Files,
		Model: res.Model,
		Usage: usageDTO(res.Usage),
	})
}

func usageDTO(u completion.Usage) dto.Usage {
	return dto.Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	}
}
