package handlers

import (
	"time"

	"github.com/dimitrije/bolt-api/internal/completion"
	"github.com/dimitrije/bolt-api/internal/models"
	"github.com/dimitrije/bolt-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

var nowFunc = time.Now

func turnResponse(messages []models.Message, reply *models.Message, model string, usage completion.Usage) dto.TurnResponse {
	if messages == nil {
		messages = []models.Message{}
	}
	resp := dto.TurnResponse{Messages: messages, Reply: reply}
	if reply != nil {
		u := usageDTO(usage)
		resp.Model = model
		resp.Usage = &u
	}
	return resp
}

// bindOptionalJSON binds the request body when one was sent.
func bindOptionalJSON(c *drift.Context, v any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.BindJSON(v)
}
