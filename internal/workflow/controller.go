// Package workflow runs conversation turns and code generation for
// workspaces: it assembles prompts from the stored log, calls the completion
// gateway and persists the outcome.
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dimitrije/bolt-api/internal/completion"
	"github.com/dimitrije/bolt-api/internal/config"
	"github.com/dimitrije/bolt-api/internal/logger"
	"github.com/dimitrije/bolt-api/internal/models"
	"github.com/dimitrije/bolt-api/internal/prompt"
	"github.com/google/uuid"
)

// ActiveViewCode tells the client to switch to the code tab.
const ActiveViewCode = "code"

var ErrEmptyMessage = errors.New("message content is required")

type Gateway interface {
	GenerateChatReply(ctx context.Context, prompt, modelID string) (*completion.ChatResult, error)
	GenerateCodeArtifacts(ctx context.Context, prompt, modelID string) (*completion.CodeResult, error)
}

type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error)
	ReplaceMessages(ctx context.Context, id uuid.UUID, messages []models.Message) error
	ReplaceFiles(ctx context.Context, id uuid.UUID, files models.FileTree) error
}

// TurnResult is the outcome of a conversation turn. Reply is nil when there
// was nothing to answer.
type TurnResult struct {
	Messages []models.Message
	Reply    *models.Message
	Model    string
	Usage    completion.Usage
}

type GenerateResult struct {
	Files      models.FileTree
	Extra      map[string]json.RawMessage
	ActiveView string
	Model      string
	Usage      completion.Usage
}

type Options struct {
	Policy config.OverlapPolicy
	// Window limits how many of the newest messages go into a prompt. Zero
	// sends the whole log.
	Window int
	Now    func() time.Time
}

// Session is the turn state of one workspace. Chat turns and code generation
// run in separate lanes.
type Session struct {
	WorkspaceID uuid.UUID
	chat        *lane[*TurnResult]
	code        *lane[*GenerateResult]

	// refs counts callers inside Send, Resume or Generate. Guarded by
	// Controller.mu.
	refs int
}

// Busy reports whether a chat turn or a generation is running.
func (s *Session) Busy() bool {
	return s.chat.busy() || s.code.busy()
}

type Controller struct {
	store   Store
	gateway Gateway
	log     *logger.Logger
	policy  config.OverlapPolicy
	window  int
	now     func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

func NewController(store Store, gateway Gateway, log *logger.Logger, opts Options) *Controller {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	policy := opts.Policy
	if policy == "" {
		policy = config.OverlapReject
	}
	return &Controller{
		store:    store,
		gateway:  gateway,
		log:      log.With("component", "workflow"),
		policy:   policy,
		window:   opts.Window,
		now:      now,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Session returns the state handle for a workspace, creating it on first use.
func (c *Controller) Session(workspaceID uuid.UUID) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionLocked(workspaceID)
}

func (c *Controller) sessionLocked(workspaceID uuid.UUID) *Session {
	s, ok := c.sessions[workspaceID]
	if !ok {
		s = &Session{
			WorkspaceID: workspaceID,
			chat:        newLane[*TurnResult](c.policy),
			code:        newLane[*GenerateResult](c.policy),
		}
		c.sessions[workspaceID] = s
	}
	return s
}

func (c *Controller) acquire(workspaceID uuid.UUID) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.sessionLocked(workspaceID)
	s.refs++
	return s
}

// release evicts the session once its last caller is gone and no turn is
// running. A coalesced follow-up can still be draining at that point; the
// sweep picks those up later.
func (c *Controller) release(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s.refs--
	c.evictLocked(s)
}

func (c *Controller) evictLocked(s *Session) bool {
	if s.refs > 0 || s.Busy() || c.sessions[s.WorkspaceID] != s {
		return false
	}
	delete(c.sessions, s.WorkspaceID)
	return true
}

// Forget drops the session of a deleted workspace unless a turn is running.
func (c *Controller) Forget(workspaceID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.sessions[workspaceID]; ok {
		c.evictLocked(s)
	}
}

// SweepIdle drops every session nobody is using and returns how many went.
func (c *Controller) SweepIdle() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, s := range c.sessions {
		if c.evictLocked(s) {
			removed++
		}
	}
	return removed
}

// RunCleanup sweeps idle sessions every interval until ctx is done.
func (c *Controller) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.SweepIdle(); n > 0 {
				c.log.Debug("swept idle sessions", "count", n)
			}
		}
	}
}

// Send appends a user message and answers it. Nothing is persisted unless the
// reply succeeds.
func (c *Controller) Send(ctx context.Context, workspaceID uuid.UUID, content, modelID string) (*TurnResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}
	s := c.acquire(workspaceID)
	defer c.release(s)
	return s.chat.do(ctx, content, func(ctx context.Context, inputs []string) (*TurnResult, error) {
		return c.chatTurn(ctx, workspaceID, modelID, inputs)
	})
}

// Resume answers the stored log when its newest message is from the user, as
// happens for a workspace created with a first prompt.
func (c *Controller) Resume(ctx context.Context, workspaceID uuid.UUID, modelID string) (*TurnResult, error) {
	s := c.acquire(workspaceID)
	defer c.release(s)
	return s.chat.do(ctx, "", func(ctx context.Context, inputs []string) (*TurnResult, error) {
		return c.chatTurn(ctx, workspaceID, modelID, inputs)
	})
}

// Generate asks for code from the whole conversation and merges the returned
// files into the stored tree.
func (c *Controller) Generate(ctx context.Context, workspaceID uuid.UUID, modelID string) (*GenerateResult, error) {
	s := c.acquire(workspaceID)
	defer c.release(s)
	return s.code.do(ctx, "", func(ctx context.Context, _ []string) (*GenerateResult, error) {
		return c.generate(ctx, workspaceID, modelID)
	})
}

func (c *Controller) chatTurn(ctx context.Context, workspaceID uuid.UUID, modelID string, inputs []string) (*TurnResult, error) {
	ws, err := c.store.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	messages := make([]models.Message, 0, len(ws.Messages)+len(inputs)+1)
	messages = append(messages, ws.Messages...)
	for _, content := range inputs {
		messages = append(messages, models.NewMessage(models.RoleUser, content, c.now()))
	}

	pending := models.Workspace{Messages: messages}
	if !pending.AwaitingReply() {
		return &TurnResult{Messages: messages}, nil
	}

	text, err := prompt.Build(prompt.Window(messages, c.window), models.PurposeChat)
	if err != nil {
		return nil, err
	}

	log := c.log.With("workspace_id", workspaceID, "model", modelID)
	log.Debug("chat turn started", "messages", len(messages))

	reply, err := c.gateway.GenerateChatReply(ctx, text, modelID)
	if err != nil {
		log.Warn("chat turn failed", "error", err)
		return nil, err
	}

	answer := models.NewMessage(models.RoleAI, reply.Result, c.now())
	messages = append(messages, answer)
	if err := c.store.ReplaceMessages(ctx, workspaceID, messages); err != nil {
		return nil, fmt.Errorf("failed to persist messages: %w", err)
	}

	log.Info("chat turn completed", "total_tokens", reply.Usage.TotalTokens)
	return &TurnResult{
		Messages: messages,
		Reply:    &answer,
		Model:    reply.Model,
		Usage:    reply.Usage,
	}, nil
}

func (c *Controller) generate(ctx context.Context, workspaceID uuid.UUID, modelID string) (*GenerateResult, error) {
	ws, err := c.store.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	text, err := prompt.Build(prompt.Window(ws.Messages, c.window), models.PurposeCode)
	if err != nil {
		return nil, err
	}

	log := c.log.With("workspace_id", workspaceID, "model", modelID)
	log.Debug("code generation started", "messages", len(ws.Messages))

	artifacts, err := c.gateway.GenerateCodeArtifacts(ctx, text, modelID)
	if err != nil {
		log.Warn("code generation failed", "error", err)
		return nil, err
	}

	merged := ws.Files.Merge(artifacts.Files)
	if err := c.store.ReplaceFiles(ctx, workspaceID, merged); err != nil {
		return nil, fmt.Errorf("failed to persist files: %w", err)
	}

	log.Info("code generation completed", "files", len(artifacts.Files), "total_tokens", artifacts.Usage.TotalTokens)
	return &GenerateResult{
		Files:      merged,
		Extra:      artifacts.Extra,
		ActiveView: ActiveViewCode,
		Model:      artifacts.Model,
		Usage:      artifacts.Usage,
	}, nil
}
