package handlers

import (
	"context"
	"time"

	"github.com/dimitrije/bolt-api/internal/completion"
	"github.com/dimitrije/bolt-api/internal/models"
	"github.com/dimitrije/bolt-api/internal/oauth"
	"github.com/dimitrije/bolt-api/internal/services"
	"github.com/dimitrije/bolt-api/internal/sse"
	"github.com/dimitrije/bolt-api/internal/workflow"
	"github.com/google/uuid"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// WorkspaceServiceInterface defines the methods used by handlers from WorkspaceService
type WorkspaceServiceInterface interface {
	Create(ctx context.Context, ownerID uuid.UUID, messages []models.Message, title string) (*models.Workspace, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error)
	ListForUser(ctx context.Context, ownerID uuid.UUID) ([]models.Workspace, error)
	ReplaceMessages(ctx context.Context, id uuid.UUID, messages []models.Message) error
	ReplaceFiles(ctx context.Context, id uuid.UUID, files models.FileTree) error
	Delete(ctx context.Context, id uuid.UUID) error
	IsOwner(ctx context.Context, id, userID uuid.UUID) (bool, error)
}

// TokenServiceInterface defines the methods used by handlers from TokenService
type TokenServiceInterface interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
	RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldHash, newHash string, expiresAt time.Time) error
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

// JWTServiceInterface defines the methods used by handlers from JWTService
type JWTServiceInterface interface {
	GenerateTokenPair(userID uuid.UUID, email string) (*services.TokenPair, error)
	ValidateRefreshToken(token string) (uuid.UUID, error)
	RefreshExpiry() time.Duration
}

// TemplateServiceInterface defines the methods used by handlers from TemplateService
type TemplateServiceInterface interface {
	Search(ctx context.Context, query, category string) ([]models.ProjectTemplate, error)
	GetBySlug(ctx context.Context, slug string) (*models.ProjectTemplate, error)
}

// CompletionGatewayInterface defines the methods used by handlers from the completion Gateway
type CompletionGatewayInterface interface {
	GenerateChatReply(ctx context.Context, prompt, modelID string) (*completion.ChatResult, error)
	GenerateCodeArtifacts(ctx context.Context, prompt, modelID string) (*completion.CodeResult, error)
}

// WorkflowInterface defines the methods used by handlers from the workflow Controller
type WorkflowInterface interface {
	Send(ctx context.Context, workspaceID uuid.UUID, content, modelID string) (*workflow.TurnResult, error)
	Resume(ctx context.Context, workspaceID uuid.UUID, modelID string) (*workflow.TurnResult, error)
	Generate(ctx context.Context, workspaceID uuid.UUID, modelID string) (*workflow.GenerateResult, error)
	Forget(workspaceID uuid.UUID)
}

// SSEHubInterface defines the methods used by handlers from the SSE Hub
type SSEHubInterface interface {
	Register(client *sse.Client)
	Unregister(client *sse.Client)
}
