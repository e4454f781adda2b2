package handlers

import (
	"github.com/dimitrije/bolt-api/internal/middleware"
	"github.com/dimitrije/bolt-api/internal/sse"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type SSEHandler struct {
	hub              SSEHubInterface
	workspaceService WorkspaceServiceInterface
}

func NewSSEHandler(hub SSEHubInterface, workspaceService WorkspaceServiceInterface) *SSEHandler {
	return &SSEHandler{
		hub:              hub,
		workspaceService: workspaceService,
	}
}

// Connect streams the change events of one workspace until the client goes
// away or the hub shuts down. Each event is named after its type.
func (h *SSEHandler) Connect(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	workspaceID, err := uuid.Parse(c.Param("workspaceId"))
	if err != nil {
		c.BadRequest("invalid workspace id")
		return
	}

	ctx := c.Request.Context()

	isOwner, err := h.workspaceService.IsOwner(ctx, workspaceID, userID)
	if err != nil || !isOwner {
		c.NotFound("workspace not found")
		return
	}

	sseCtx := c.SSE()

	client := sse.NewClient(userID, workspaceID)
	h.hub.Register(client)
	defer h.hub.Unregister(client)

	if err := sseCtx.SendJSON(map[string]string{
		"type":      "connected",
		"client_id": client.ID,
	}, "system", ""); err != nil {
		return
	}

	for {
		select {
		case ev, ok := <-client.Send:
			if !ok {
				return
			}
			if err := sseCtx.SendJSON(ev, string(ev.Type), ""); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
