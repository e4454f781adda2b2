package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dimitrije/bolt-api/internal/config"
	"github.com/dimitrije/bolt-api/internal/logger"
	"github.com/dimitrije/bolt-api/internal/middleware"
	"github.com/dimitrije/bolt-api/internal/models"
	"github.com/dimitrije/bolt-api/internal/oauth"
	"github.com/dimitrije/bolt-api/internal/services"
	"github.com/dimitrije/bolt-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

const (
	stateTTL    = 10 * time.Minute
	authCodeTTL = 30 * time.Second
)

// AuthHandler runs the OAuth sign-in flow and issues JWT pairs. Identity
// itself stays with the provider.
type AuthHandler struct {
	callbackURL  string
	providers    map[string]oauth.Provider
	userService  UserServiceInterface
	tokenService TokenServiceInterface
	jwtService   JWTServiceInterface
	log          *logger.Logger

	states    *ttlSet[struct{}]
	authCodes *ttlSet[uuid.UUID]
}

func NewAuthHandler(
	cfg *config.Config,
	userService UserServiceInterface,
	tokenService TokenServiceInterface,
	jwtService JWTServiceInterface,
	log *logger.Logger,
) *AuthHandler {
	h := &AuthHandler{
		callbackURL:  cfg.FrontendCallbackURL,
		providers:    make(map[string]oauth.Provider),
		userService:  userService,
		tokenService: tokenService,
		jwtService:   jwtService,
		log:          log,
		states:       newTTLSet[struct{}](),
		authCodes:    newTTLSet[uuid.UUID](),
	}

	if cfg.GitHub.ClientID != "" {
		h.RegisterProvider(oauth.NewGitHubProvider(cfg.GitHub))
	}
	if cfg.Google.ClientID != "" {
		h.RegisterProvider(oauth.NewGoogleProvider(cfg.Google))
	}
	return h
}

func (h *AuthHandler) RegisterProvider(p oauth.Provider) {
	h.providers[p.Name()] = p
}

// RunCleanup drops expired states and one-time codes every minute until ctx
// is done.
func (h *AuthHandler) RunCleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := h.sweep(now); n > 0 {
				h.log.Debug("swept expired auth entries", "count", n)
			}
		}
	}
}

func (h *AuthHandler) sweep(now time.Time) int {
	return h.states.sweep(now) + h.authCodes.sweep(now)
}

func (h *AuthHandler) GetConsentURL(c *drift.Context) {
	provider := c.Param("provider")
	p, ok := h.providers[provider]
	if !ok {
		c.BadRequest("unsupported provider: " + provider)
		return
	}

	state, err := oauth.GenerateState()
	if err != nil {
		c.InternalServerError("failed to generate state")
		return
	}
	h.states.put(state, struct{}{}, time.Now().Add(stateTTL))

	_ = c.JSON(http.StatusOK, dto.ConsentURLResponse{URL: p.ConsentURL(state)})
}

// Callback finishes the provider flow and sends the browser back to the
// frontend with a short-lived one-time code. Tokens never appear in a URL.
func (h *AuthHandler) Callback(c *drift.Context) {
	provider := c.Param("provider")
	p, ok := h.providers[provider]
	if !ok {
		h.redirectWithError(c, "unsupported provider")
		return
	}

	state := c.QueryParam("state")
	if state == "" {
		h.redirectWithError(c, "missing state parameter")
		return
	}
	if _, err := h.states.take(state, time.Now()); err != nil {
		if errors.Is(err, errExpiredKey) {
			h.redirectWithError(c, "state expired")
		} else {
			h.redirectWithError(c, "invalid or expired state")
		}
		return
	}

	code := c.QueryParam("code")
	if code == "" {
		h.redirectWithError(c, "missing authorization code")
		return
	}

	ctx := c.Request.Context()
	info, err := p.Exchange(ctx, code)
	if err != nil {
		h.log.Warn("oauth exchange failed", "provider", provider, "error", err)
		h.redirectWithError(c, "failed to exchange code")
		return
	}

	user, err := h.userService.FindOrCreateFromOAuth(ctx, info)
	if err != nil {
		h.log.Error("failed to upsert oauth user", "provider", provider, "error", err)
		h.redirectWithError(c, "failed to create user")
		return
	}

	authCode, err := oauth.GenerateState()
	if err != nil {
		h.redirectWithError(c, "failed to generate auth code")
		return
	}
	h.authCodes.put(authCode, user.ID, time.Now().Add(authCodeTTL))

	h.redirect(c, url.Values{"code": {authCode}})
}

func (h *AuthHandler) ExchangeCode(c *drift.Context) {
	var req dto.ExchangeCodeRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Code == "" {
		c.BadRequest("code is required")
		return
	}

	userID, err := h.authCodes.take(req.Code, time.Now())
	switch {
	case errors.Is(err, errExpiredKey):
		c.Unauthorized("code expired")
		return
	case err != nil:
		c.Unauthorized("invalid or expired code")
		return
	}

	ctx := c.Request.Context()
	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		c.Unauthorized("user not found")
		return
	}

	pair, err := h.mint(user)
	if err != nil {
		c.InternalServerError("failed to generate tokens")
		return
	}
	if err := h.tokenService.StoreRefreshToken(ctx, user.ID, pair.hash, pair.expiresAt); err != nil {
		c.InternalServerError("failed to store refresh token")
		return
	}

	_ = c.JSON(http.StatusOK, pair.response())
}

// RefreshToken trades a refresh token for a new pair. The presented token is
// replaced by the new one in a single step, so it cannot be replayed.
func (h *AuthHandler) RefreshToken(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.RefreshToken == "" {
		c.BadRequest("refresh_token is required")
		return
	}

	userID, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.Unauthorized("invalid refresh token")
		return
	}

	ctx := c.Request.Context()
	presented := services.HashToken(req.RefreshToken)
	storedUserID, err := h.tokenService.ValidateRefreshToken(ctx, presented)
	if err != nil || storedUserID != userID {
		c.Unauthorized("refresh token not found or expired")
		return
	}

	user, err := h.userService.GetByID(ctx, userID)
	if err != nil {
		c.Unauthorized("user not found")
		return
	}

	pair, err := h.mint(user)
	if err != nil {
		c.InternalServerError("failed to generate tokens")
		return
	}
	if err := h.tokenService.RotateRefreshToken(ctx, user.ID, presented, pair.hash, pair.expiresAt); err != nil {
		c.InternalServerError("failed to rotate refresh token")
		return
	}

	_ = c.JSON(http.StatusOK, pair.response())
}

func (h *AuthHandler) Logout(c *drift.Context) {
	var req dto.RefreshTokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.RefreshToken != "" {
		_ = h.tokenService.RevokeRefreshToken(c.Request.Context(), services.HashToken(req.RefreshToken))
	}
	_ = c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) LogoutAll(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	if err := h.tokenService.RevokeAllUserTokens(c.Request.Context(), userID); err != nil {
		c.InternalServerError("failed to revoke tokens")
		return
	}
	_ = c.JSON(http.StatusOK, map[string]string{"message": "all sessions logged out"})
}

type mintedPair struct {
	*services.TokenPair
	hash      string
	expiresAt time.Time
}

func (p mintedPair) response() dto.TokenResponse {
	return dto.TokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresIn:    p.ExpiresIn,
	}
}

func (h *AuthHandler) mint(user *models.User) (mintedPair, error) {
	pair, err := h.jwtService.GenerateTokenPair(user.ID, user.Email)
	if err != nil {
		return mintedPair{}, fmt.Errorf("generate token pair: %w", err)
	}
	return mintedPair{
		TokenPair: pair,
		hash:      services.HashToken(pair.RefreshToken),
		expiresAt: time.Now().Add(h.jwtService.RefreshExpiry()),
	}, nil
}

func (h *AuthHandler) redirectWithError(c *drift.Context, msg string) {
	h.redirect(c, url.Values{"error": {msg}})
}

func (h *AuthHandler) redirect(c *drift.Context, query url.Values) {
	http.Redirect(c.Response, c.Request, h.callbackURL+"?"+query.Encode(), http.StatusFound)
	c.Abort()
}
