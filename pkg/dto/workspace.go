package dto

import (
	"time"

	"github.com/dimitrije/bolt-api/internal/models"
	"github.com/google/uuid"
)

// CreateWorkspaceRequest starts a workspace from a first prompt, a template
// slug, or nothing at all. Prompt wins over Template.
type CreateWorkspaceRequest struct {
	Title    string `json:"title,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
	Template string `json:"template,omitempty"`
}

type WorkspaceResponse struct {
	ID        uuid.UUID        `json:"id"`
	OwnerID   uuid.UUID        `json:"owner_id"`
	Title     string           `json:"title"`
	Messages  []models.Message `json:"messages"`
	Files     models.FileTree  `json:"files"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type WorkspaceSummary struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	HasFiles     bool      `json:"has_files"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ReplaceMessagesRequest struct {
	Messages []models.Message `json:"messages"`
}

type ReplaceFilesRequest struct {
	Files models.FileTree `json:"files"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
	ModelID string `json:"modelId,omitempty"`
}

type ModelSelectionRequest struct {
	ModelID string `json:"modelId,omitempty"`
}

type TurnResponse struct {
	Messages []models.Message `json:"messages"`
	Reply    *models.Message  `json:"reply"`
	Model    string           `json:"model,omitempty"`
	Usage    *Usage           `json:"usage,omitempty"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}
