// Package events carries workspace change notifications from the store to
// subscribed clients, optionally across several API instances.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	MessagesReplaced Type = "messages_replaced"
	FilesReplaced    Type = "files_replaced"
	WorkspaceDeleted Type = "workspace_deleted"
)

type Event struct {
	Type        Type            `json:"type"`
	WorkspaceID uuid.UUID       `json:"workspace_id"`
	Data        json.RawMessage `json:"data,omitempty"`
	At          time.Time       `json:"at"`
}

// New builds an event, encoding data as its payload. A nil data leaves the
// payload empty.
func New(t Type, workspaceID uuid.UUID, data any) (Event, error) {
	ev := Event{Type: t, WorkspaceID: workspaceID, At: time.Now().UTC()}
	if data == nil {
		return ev, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	ev.Data = raw
	return ev, nil
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type Bus interface {
	Publisher
	StartForwarder(ctx context.Context, onEvent func(Event)) error
	Close() error
}
