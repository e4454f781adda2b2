package handlers

import (
	"errors"
	"net/http"

	"github.com/dimitrije/bolt-api/internal/completion"
	"github.com/dimitrije/bolt-api/internal/services"
	"github.com/dimitrije/bolt-api/internal/workflow"
	"github.com/m1z23r/drift/pkg/drift"
)

// respondGenerationError maps completion and workflow failures to responses.
// Upstream details stay in the server log.
func respondGenerationError(c *drift.Context, err error) {
	switch {
	case errors.Is(err, completion.ErrInvalidModel):
		c.BadRequest("Invalid model selected")
	case errors.Is(err, workflow.ErrEmptyMessage):
		c.BadRequest(err.Error())
	case errors.Is(err, workflow.ErrTurnInFlight):
		_ = c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, services.ErrWorkspaceNotFound):
		c.NotFound("workspace not found")
	case errors.Is(err, completion.ErrConfiguration):
		c.InternalServerError("OpenRouter API key not configured")
	case errors.Is(err, completion.ErrUpstream):
		c.InternalServerError("Failed to get response from OpenRouter")
	case errors.Is(err, completion.ErrMalformedResponse):
		c.InternalServerError("Invalid JSON response from AI")
	default:
		c.InternalServerError("Internal server error")
	}
}
