package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dimitrije/bolt-api/internal/database"
	"github.com/dimitrije/bolt-api/internal/events"
	"github.com/dimitrije/bolt-api/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrWorkspaceNotFound = errors.New("workspace not found")

const workspaceColumns = `id, owner_id, title, messages, files, created_at, updated_at`

// WorkspaceService persists workspaces: one conversation log and one generated
// file tree per workspace. Ownership is not checked here; callers decide who
// may touch a workspace.
type WorkspaceService struct {
	db        *database.DB
	publisher events.Publisher
}

func NewWorkspaceService(db *database.DB, publisher events.Publisher) *WorkspaceService {
	return &WorkspaceService{db: db, publisher: publisher}
}

// Create starts a workspace for an existing user. An empty title is stored as
// the default title.
func (s *WorkspaceService) Create(ctx context.Context, ownerID uuid.UUID, messages []models.Message, title string) (*models.Workspace, error) {
	if messages == nil {
		messages = []models.Message{}
	}
	if title == "" {
		title = models.DefaultWorkspaceTitle
	}

	raw, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("failed to encode messages: %w", err)
	}

	// Selecting the owner row makes a missing user surface as no rows instead
	// of a foreign key violation.
	ws, err := scanWorkspace(s.db.Pool.QueryRow(ctx, `
		INSERT INTO workspaces (owner_id, title, messages)
		SELECT id, $2::varchar, $3::jsonb FROM users WHERE id = $1
		RETURNING `+workspaceColumns,
		ownerID, title, raw))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return ws, nil
}

func (s *WorkspaceService) GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	ws, err := scanWorkspace(s.db.Pool.QueryRow(ctx, `SELECT `+workspaceColumns+` FROM workspaces WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrWorkspaceNotFound
	}
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// ListForUser returns the owner's workspaces, newest first.
func (s *WorkspaceService) ListForUser(ctx context.Context, ownerID uuid.UUID) ([]models.Workspace, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+workspaceColumns+`
		FROM workspaces
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workspaces := []models.Workspace{}
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		workspaces = append(workspaces, *ws)
	}
	return workspaces, rows.Err()
}

// ReplaceMessages overwrites the whole conversation log.
func (s *WorkspaceService) ReplaceMessages(ctx context.Context, id uuid.UUID, messages []models.Message) error {
	if messages == nil {
		messages = []models.Message{}
	}
	raw, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to encode messages: %w", err)
	}

	if err := s.update(ctx, `UPDATE workspaces SET messages = $2, updated_at = NOW() WHERE id = $1`, id, raw); err != nil {
		return err
	}
	s.publish(ctx, events.MessagesReplaced, id, messages)
	return nil
}

// ReplaceFiles overwrites the whole file tree.
func (s *WorkspaceService) ReplaceFiles(ctx context.Context, id uuid.UUID, files models.FileTree) error {
	if files == nil {
		files = models.FileTree{}
	}
	raw, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("failed to encode files: %w", err)
	}

	if err := s.update(ctx, `UPDATE workspaces SET files = $2, updated_at = NOW() WHERE id = $1`, id, raw); err != nil {
		return err
	}
	s.publish(ctx, events.FilesReplaced, id, files)
	return nil
}

// Delete removes a workspace. Deleting a missing workspace is not an error.
func (s *WorkspaceService) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM workspaces WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}
	if tag.RowsAffected() > 0 {
		s.publish(ctx, events.WorkspaceDeleted, id, nil)
	}
	return nil
}

func (s *WorkspaceService) IsOwner(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	var owner bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM workspaces WHERE id = $1 AND owner_id = $2)
	`, id, userID).Scan(&owner)
	return owner, err
}

func (s *WorkspaceService) update(ctx context.Context, sql string, id uuid.UUID, raw []byte) error {
	tag, err := s.db.Pool.Exec(ctx, sql, id, raw)
	if err != nil {
		return fmt.Errorf("failed to update workspace: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkspaceNotFound
	}
	return nil
}

// publish is best effort: the write already happened and subscribers can
// always refetch.
func (s *WorkspaceService) publish(ctx context.Context, t events.Type, id uuid.UUID, data any) {
	if s.publisher == nil {
		return
	}
	ev, err := events.New(t, id, data)
	if err != nil {
		return
	}
	_ = s.publisher.Publish(ctx, ev)
}

func scanWorkspace(row pgx.Row) (*models.Workspace, error) {
	var (
		ws       models.Workspace
		messages []byte
		files    []byte
	)
	if err := row.Scan(&ws.ID, &ws.OwnerID, &ws.Title, &messages, &files, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
		return nil, err
	}

	ws.Messages = []models.Message{}
	if len(messages) > 0 {
		if err := json.Unmarshal(messages, &ws.Messages); err != nil {
			return nil, fmt.Errorf("failed to decode messages: %w", err)
		}
	}
	ws.Files = models.FileTree{}
	if len(files) > 0 {
		if err := json.Unmarshal(files, &ws.Files); err != nil {
			return nil, fmt.Errorf("failed to decode files: %w", err)
		}
	}
	return &ws, nil
}
