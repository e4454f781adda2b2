package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/dimitrije/bolt-api/internal/database"
	"github.com/dimitrije/bolt-api/internal/models"
	"github.com/dimitrije/bolt-api/internal/oauth"
	"github.com/google/uuid"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser creates a test user with default values
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Email:          fmt.Sprintf("user%d@example.com", f.counter),
		Name:           fmt.Sprintf("Test User %d", f.counter),
		Provider:       "github",
		ExternalAuthID: fmt.Sprintf("provider-%d", f.counter),
	}

	for _, opt := range opts {
		opt(user)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, picture_url, provider, provider_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, user.Email, user.Name, user.PictureURL, user.Provider, user.ExternalAuthID).Scan(
		&user.ID, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

// WithEmail sets the user's email
func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

// WithName sets the user's name
func WithName(name string) UserOption {
	return func(u *models.User) {
		u.Name = name
	}
}

// WithProvider sets the user's OAuth provider
func WithProvider(provider, externalID string) UserOption {
	return func(u *models.User) {
		u.Provider = provider
		u.ExternalAuthID = externalID
	}
}

// CreateWorkspace creates a test workspace owned by owner
func (f *Fixtures) CreateWorkspace(t *testing.T, owner *models.User, opts ...WorkspaceOption) *models.Workspace {
	t.Helper()
	f.counter++

	title := fmt.Sprintf("Test Workspace %d", f.counter)
	ws := &models.Workspace{
		OwnerID:  owner.ID,
		Title:    &title,
		Messages: []models.Message{},
		Files:    models.FileTree{},
	}

	for _, opt := range opts {
		opt(ws)
	}

	messages, err := json.Marshal(ws.Messages)
	if err != nil {
		t.Fatalf("failed to encode messages: %v", err)
	}
	files, err := json.Marshal(ws.Files)
	if err != nil {
		t.Fatalf("failed to encode files: %v", err)
	}

	ctx := context.Background()
	err = f.db.Pool.QueryRow(ctx, `
		INSERT INTO workspaces (owner_id, title, messages, files)
		VALUES ($1, $2, $3::jsonb, $4::jsonb)
		RETURNING id, created_at, updated_at
	`, ws.OwnerID, ws.Title, messages, files).Scan(&ws.ID, &ws.CreatedAt, &ws.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create workspace: %v", err)
	}

	return ws
}

// WorkspaceOption configures a test workspace
type WorkspaceOption func(*models.Workspace)

// WithTitle sets the workspace title; an empty title stores NULL
func WithTitle(title string) WorkspaceOption {
	return func(w *models.Workspace) {
		if title == "" {
			w.Title = nil
			return
		}
		w.Title = &title
	}
}

// WithMessages sets the initial conversation
func WithMessages(messages ...models.Message) WorkspaceOption {
	return func(w *models.Workspace) {
		w.Messages = messages
	}
}

// WithFiles sets the initial file tree
func WithFiles(files models.FileTree) WorkspaceOption {
	return func(w *models.Workspace) {
		w.Files = files
	}
}

// CreateRefreshToken creates a test refresh token
func (f *Fixtures) CreateRefreshToken(t *testing.T, userID uuid.UUID, tokenHash string, expiresAt time.Time) {
	t.Helper()
	ctx := context.Background()

	_, err := f.db.Pool.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, userID, tokenHash, expiresAt)
	if err != nil {
		t.Fatalf("failed to create refresh token: %v", err)
	}
}

// OAuthUserInfo creates test OAuth user info
func OAuthUserInfo(email, name, provider, id string) *oauth.UserInfo {
	return &oauth.UserInfo{
		Email:      email,
		Name:       name,
		PictureURL: "https://example.com/avatar.png",
		ExternalID: id,
		Provider:   provider,
	}
}
