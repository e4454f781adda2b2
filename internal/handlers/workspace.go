package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/dimitrije/bolt-api/internal/export"
	"github.com/dimitrije/bolt-api/internal/logger"
	"github.com/dimitrije/bolt-api/internal/middleware"
	"github.com/dimitrije/bolt-api/internal/models"
	"github.com/dimitrije/bolt-api/internal/services"
	"github.com/dimitrije/bolt-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type WorkspaceHandler struct {
	workspaceService WorkspaceServiceInterface
	templateService  TemplateServiceInterface
	workflow         WorkflowInterface
	log              *logger.Logger
}

func NewWorkspaceHandler(
	workspaceService WorkspaceServiceInterface,
	templateService TemplateServiceInterface,
	wf WorkflowInterface,
	log *logger.Logger,
) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaceService: workspaceService,
		templateService:  templateService,
		workflow:         wf,
		log:              log,
	}
}

func (h *WorkspaceHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	workspaces, err := h.workspaceService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("failed to list workspaces", "user_id", userID, "error", err)
		c.InternalServerError("failed to get workspaces")
		return
	}

	response := make([]dto.WorkspaceSummary, len(workspaces))
	for i := range workspaces {
		w := &workspaces[i]
		response[i] = dto.WorkspaceSummary{
			ID:           w.ID,
			Title:        w.DisplayTitle(),
			MessageCount: len(w.Messages),
			HasFiles:     len(w.Files) > 0,
			CreatedAt:    w.CreatedAt,
			UpdatedAt:    w.UpdatedAt,
		}
	}

	_ = c.JSON(200, response)
}

func (h *WorkspaceHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateWorkspaceRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	ctx := c.Request.Context()
	title := strings.TrimSpace(req.Title)
	messages := []models.Message{}

	switch {
	case strings.TrimSpace(req.Prompt) != "":
		messages = append(messages, models.NewMessage(models.RoleUser, req.Prompt, nowFunc()))
	case req.Template != "":
		tmpl, err := h.templateService.GetBySlug(ctx, req.Template)
		if errors.Is(err, services.ErrTemplateNotFound) {
			c.BadRequest("unknown template: " + req.Template)
			return
		}
		if err != nil {
			c.InternalServerError("failed to load template")
			return
		}
		messages = append(messages, models.NewMessage(models.RoleUser, tmpl.Prompt, nowFunc()))
		if title == "" {
			title = tmpl.Name
		}
	}

	workspace, err := h.workspaceService.Create(ctx, userID, messages, title)
	if errors.Is(err, services.ErrUserNotFound) {
		c.Unauthorized("user not found")
		return
	}
	if err != nil {
		h.log.Error("failed to create workspace", "user_id", userID, "error", err)
		c.InternalServerError("failed to create workspace")
		return
	}

	_ = c.JSON(201, workspaceResponse(workspace))
}

func (h *WorkspaceHandler) Get(c *drift.Context) {
	workspace, ok := h.ownedWorkspace(c)
	if !ok {
		return
	}

	_ = c.JSON(200, workspaceResponse(workspace))
}

// Delete succeeds for ids that do not exist so clients can retry freely.
func (h *WorkspaceHandler) Delete(c *drift.Context) {
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

	workspace, err := h.workspaceService.GetByID(ctx, workspaceID)
	if errors.Is(err, services.ErrWorkspaceNotFound) {
		_ = c.JSON(200, dto.SuccessResponse{Success: true})
		return
	}
	if err != nil {
		c.InternalServerError("failed to get workspace")
		return
	}
	if workspace.OwnerID != userID {
		c.Forbidden("not the owner of this workspace")
		return
	}

	if err := h.workspaceService.Delete(ctx, workspaceID); err != nil {
		h.log.Error("failed to delete workspace", "workspace_id", workspaceID, "error", err)
		c.InternalServerError("failed to delete workspace")
		return
	}
	h.workflow.Forget(workspaceID)

	_ = c.JSON(200, dto.SuccessResponse{Success: true})
}

func (h *WorkspaceHandler) ReplaceMessages(c *drift.Context) {
	workspace, ok := h.ownedWorkspace(c)
	if !ok {
		return
	}

	var req dto.ReplaceMessagesRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	messages := req.Messages
	if messages == nil {
		messages = []models.Message{}
	}
	for _, msg := range messages {
		if msg.Role != models.RoleUser && msg.Role != models.RoleAI {
			c.BadRequest(fmt.Sprintf("invalid message role %q", msg.Role))
			return
		}
	}

	if err := h.workspaceService.ReplaceMessages(c.Request.Context(), workspace.ID, messages); err != nil {
		respondStoreError(c, err, "failed to update messages")
		return
	}

	workspace.Messages = messages
	_ = c.JSON(200, workspaceResponse(workspace))
}

func (h *WorkspaceHandler) ReplaceFiles(c *drift.Context) {
	workspace, ok := h.ownedWorkspace(c)
	if !ok {
		return
	}

	var req dto.ReplaceFilesRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	files := req.Files
	if files == nil {
		files = models.FileTree{}
	}

	if err := h.workspaceService.ReplaceFiles(c.Request.Context(), workspace.ID, files); err != nil {
		respondStoreError(c, err, "failed to update files")
		return
	}

	workspace.Files = files
	_ = c.JSON(200, workspaceResponse(workspace))
}

// SendMessage appends a user message and waits for the reply.
func (h *WorkspaceHandler) SendMessage(c *drift.Context) {
	workspace, ok := h.ownedWorkspace(c)
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	res, err := h.workflow.Send(c.Request.Context(), workspace.ID, req.Content, req.ModelID)
	if err != nil {
		respondGenerationError(c, err)
		return
	}

	_ = c.JSON(200, turnResponse(res.Messages, res.Reply, res.Model, res.Usage))
}

// Reply answers a pending user message, if there is one.
func (h *WorkspaceHandler) Reply(c *drift.Context) {
	workspace, ok := h.ownedWorkspace(c)
	if !ok {
		return
	}

	var req dto.ModelSelectionRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	res, err := h.workflow.Resume(c.Request.Context(), workspace.ID, req.ModelID)
	if err != nil {
		respondGenerationError(c, err)
		return
	}

	_ = c.JSON(200, turnResponse(res.Messages, res.Reply, res.Model, res.Usage))
}

func (h *WorkspaceHandler) Generate(c *drift.Context) {
	workspace, ok := h.ownedWorkspace(c)
	if !ok {
		return
	}

	var req dto.ModelSelectionRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	res, err := h.workflow.Generate(c.Request.Context(), workspace.ID, req.ModelID)
	if err != nil {
		respondGenerationError(c, err)
		return
	}

	_ = c.JSON(200, dto.CodeArtifactsResponse{
		Extra:      res.Extra,
		Files:      res.Files,
		ActiveView: res.ActiveView,
		Model:      res.Model,
		Usage:      usageDTO(res.Usage),
	})
}

func (h *WorkspaceHandler) Export(c *drift.Context) {
	workspace, ok := h.ownedWorkspace(c)
	if !ok {
		return
	}

	format, err := export.ParseFormat(c.QueryParam("format"))
	if err != nil {
		c.BadRequest(err.Error())
		return
	}

	var body bytes.Buffer
	if format == export.FormatText {
		body.WriteString(export.Text(workspace.Files))
	} else if _, err := export.WriteZip(&body, workspace.Files); err != nil {
		h.log.Error("failed to build archive", "workspace_id", workspace.ID, "error", err)
		c.InternalServerError("failed to export workspace")
		return
	}

	filename := export.Filename(workspace.Messages, format)
	c.Response.Header().Set("Content-Type", export.ContentType(format))
	c.Response.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Response.WriteHeader(200)
	_, _ = c.Response.Write(body.Bytes())
	c.Abort()
}

// ownedWorkspace loads the workspace named in the path and checks that the
// caller owns it. It writes the error response itself when it returns false.
func (h *WorkspaceHandler) ownedWorkspace(c *drift.Context) (*models.Workspace, bool) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return nil, false
	}

	workspaceID, err := uuid.Parse(c.Param("workspaceId"))
	if err != nil {
		c.BadRequest("invalid workspace id")
		return nil, false
	}

	workspace, err := h.workspaceService.GetByID(c.Request.Context(), workspaceID)
	if errors.Is(err, services.ErrWorkspaceNotFound) {
		c.NotFound("workspace not found")
		return nil, false
	}
	if err != nil {
		h.log.Error("failed to get workspace", "workspace_id", workspaceID, "error", err)
		c.InternalServerError("failed to get workspace")
		return nil, false
	}

	if workspace.OwnerID != userID {
		c.Forbidden("not the owner of this workspace")
		return nil, false
	}
	return workspace, true
}

func respondStoreError(c *drift.Context, err error, msg string) {
	if errors.Is(err, services.ErrWorkspaceNotFound) {
		c.NotFound("workspace not found")
		return
	}
	c.InternalServerError(msg)
}

func workspaceResponse(w *models.Workspace) dto.WorkspaceResponse {
	messages := w.Messages
	if messages == nil {
		messages = []models.Message{}
	}
	files := w.Files
	if files == nil {
		files = models.FileTree{}
	}
	return dto.WorkspaceResponse{
		ID:        w.ID,
		OwnerID:   w.OwnerID,
		Title:     w.DisplayTitle(),
		Messages:  messages,
		Files:     files,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}
