package testutil

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
	"github.com/stretchr/testify/mock"
)

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	args := m.Called(ctx, info)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockWorkspaceService mocks the WorkspaceService
type MockWorkspaceService struct {
	mock.Mock
}

func (m *MockWorkspaceService) Create(ctx context.Context, ownerID uuid.UUID, messages []models.Message, title string) (*models.Workspace, error) {
	args := m.Called(ctx, ownerID, messages, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workspace), args.Error(1)
}

func (m *MockWorkspaceService) GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Workspace), args.Error(1)
}

func (m *MockWorkspaceService) ListForUser(ctx context.Context, ownerID uuid.UUID) ([]models.Workspace, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Workspace), args.Error(1)
}

func (m *MockWorkspaceService) ReplaceMessages(ctx context.Context, id uuid.UUID, messages []models.Message) error {
	args := m.Called(ctx, id, messages)
	return args.Error(0)
}

func (m *MockWorkspaceService) ReplaceFiles(ctx context.Context, id uuid.UUID, files models.FileTree) error {
	args := m.Called(ctx, id, files)
	return args.Error(0)
}

func (m *MockWorkspaceService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockWorkspaceService) IsOwner(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, id, userID)
	return args.Bool(0), args.Error(1)
}

// MockTokenService mocks the TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *MockTokenService) ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockTokenService) RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldHash, newHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, oldHash, newHash, expiresAt)
	return args.Error(0)
}

func (m *MockTokenService) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *MockTokenService) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockJWTService mocks the JWTService
type MockJWTService struct {
	mock.Mock
}

func (m *MockJWTService) GenerateTokenPair(userID uuid.UUID, email string) (*services.TokenPair, error) {
	args := m.Called(userID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TokenPair), args.Error(1)
}

func (m *MockJWTService) ValidateRefreshToken(token string) (uuid.UUID, error) {
	args := m.Called(token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockJWTService) RefreshExpiry() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

// MockTemplateService mocks the TemplateService
type MockTemplateService struct {
	mock.Mock
}

func (m *MockTemplateService) Search(ctx context.Context, query, category string) ([]models.ProjectTemplate, error) {
	args := m.Called(ctx, query, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProjectTemplate), args.Error(1)
}

func (m *MockTemplateService) GetBySlug(ctx context.Context, slug string) (*models.ProjectTemplate, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProjectTemplate), args.Error(1)
}

// MockCompletionGateway mocks the completion Gateway
type MockCompletionGateway struct {
	mock.Mock
}

func (m *MockCompletionGateway) GenerateChatReply(ctx context.Context, prompt, modelID string) (*completion.ChatResult, error) {
	args := m.Called(ctx, prompt, modelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*completion.ChatResult), args.Error(1)
}

func (m *MockCompletionGateway) GenerateCodeArtifacts(ctx context.Context, prompt, modelID string) (*completion.CodeResult, error) {
	args := m.Called(ctx, prompt, modelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*completion.CodeResult), args.Error(1)
}

// MockWorkflow mocks the workflow Controller
type MockWorkflow struct {
	mock.Mock
}

func (m *MockWorkflow) Send(ctx context.Context, workspaceID uuid.UUID, content, modelID string) (*workflow.TurnResult, error) {
	args := m.Called(ctx, workspaceID, content, modelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.TurnResult), args.Error(1)
}

func (m *MockWorkflow) Resume(ctx context.Context, workspaceID uuid.UUID, modelID string) (*workflow.TurnResult, error) {
	args := m.Called(ctx, workspaceID, modelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.TurnResult), args.Error(1)
}

func (m *MockWorkflow) Generate(ctx context.Context, workspaceID uuid.UUID, modelID string) (*workflow.GenerateResult, error) {
	args := m.Called(ctx, workspaceID, modelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.GenerateResult), args.Error(1)
}

func (m *MockWorkflow) Forget(workspaceID uuid.UUID) {
	m.Called(workspaceID)
}

// MockSSEHub mocks the SSE Hub
type MockSSEHub struct {
	mock.Mock
}

func (m *MockSSEHub) Register(client *sse.Client) {
	m.Called(client)
}

func (m *MockSSEHub) Unregister(client *sse.Client) {
	m.Called(client)
}

// MockOAuthProvider mocks an OAuth provider
type MockOAuthProvider struct {
	mock.Mock
}

func (m *MockOAuthProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockOAuthProvider) ConsentURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockOAuthProvider) Exchange(ctx context.Context, code string) (*oauth.UserInfo, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth.UserInfo), args.Error(1)
}
