package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser = "user"
	RoleAI   = "ai"
)

const (
	DefaultWorkspaceTitle = "Untitled Workspace"
	displayTitleLimit     = 50
)

type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

func NewMessage(role, content string, at time.Time) Message {
	return Message{Role: role, Content: content, Timestamp: at.UnixMilli()}
}

type Workspace struct {
	ID        uuid.UUID `json:"id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Title     *string   `json:"title,omitempty"`
	Messages  []Message `json:"messages"`
	Files     FileTree  `json:"files"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LastMessage reports the newest message of the log, if any.
func (w *Workspace) LastMessage() (Message, bool) {
	if len(w.Messages) == 0 {
		return Message{}, false
	}
	return w.Messages[len(w.Messages)-1], true
}

// AwaitingReply is true when the newest message was written by the user.
func (w *Workspace) AwaitingReply() bool {
	last, ok := w.LastMessage()
	return ok && last.Role == RoleUser
}

// DisplayTitle is the title shown in workspace listings: an explicit title,
// else the first user message cut to 50 characters, else the default.
func (w *Workspace) DisplayTitle() string {
	if w.Title != nil && *w.Title != "" && *w.Title != DefaultWorkspaceTitle {
		return *w.Title
	}
	for _, msg := range w.Messages {
		if msg.Role != RoleUser {
			continue
		}
		runes := []rune(msg.Content)
		if len(runes) > displayTitleLimit {
			return string(runes[:displayTitleLimit]) + "..."
		}
		return msg.Content
	}
	return DefaultWorkspaceTitle
}
