package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/dimitrije/bolt-api/internal/config"
	"github.com/dimitrije/bolt-api/internal/logger"
	"github.com/dimitrije/bolt-api/internal/middleware"
	"github.com/dimitrije/bolt-api/internal/models"
	"github.com/dimitrije/bolt-api/internal/oauth"
	"github.com/dimitrije/bolt-api/internal/services"
	"github.com/dimitrije/bolt-api/pkg/dto"
	"github.com/dimitrije/bolt-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	users   *testutil.MockUserService
	tokens  *testutil.MockTokenService
	jwt     *testutil.MockJWTService
	handler *AuthHandler
	app     http.Handler
}

func setupAuthTest(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:  new(testutil.MockUserService),
		tokens: new(testutil.MockTokenService),
		jwt:    new(testutil.MockJWTService),
	}

	cfg := &config.Config{FrontendCallbackURL: "http://localhost:5173/auth/callback"}
	f.handler = NewAuthHandler(cfg, f.users, f.tokens, f.jwt, logger.Nop())

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Get("/auth/:provider/consent", f.handler.GetConsentURL)
	app.Get("/auth/:provider/callback", f.handler.Callback)
	app.Post("/auth/exchange", f.handler.ExchangeCode)
	app.Post("/auth/refresh", f.handler.RefreshToken)
	app.Post("/auth/logout", f.handler.Logout)
	f.app = app
	return f
}

func (f *authFixture) assertExpectations(t *testing.T) {
	f.users.AssertExpectations(t)
	f.tokens.AssertExpectations(t)
	f.jwt.AssertExpectations(t)
}

func (f *authFixture) withProvider(name string) *testutil.MockOAuthProvider {
	p := new(testutil.MockOAuthProvider)
	p.On("Name").Return(name)
	f.handler.RegisterProvider(p)
	return p
}

func (f *authFixture) storeState(state string, ttl time.Duration) {
	f.handler.states.put(state, struct{}{}, time.Now().Add(ttl))
}

func redirectError(t *testing.T, location string) string {
	t.Helper()
	u, err := url.Parse(location)
	require.NoError(t, err)
	return u.Query().Get("error")
}

func TestAuthHandler_NoProvidersWithoutCredentials(t *testing.T) {
	f := setupAuthTest(t)
	assert.Empty(t, f.handler.providers)
}

func TestAuthHandler_ExchangeCode_Success(t *testing.T) {
	f := setupAuthTest(t)

	userID := uuid.New()
	user := &models.User{ID: userID, Email: "ada@example.com", Name: "Ada", Provider: "github"}
	f.handler.authCodes.put("one-time", userID, time.Now().Add(authCodeTTL))

	f.users.On("GetByID", mock.Anything, userID).Return(user, nil)
	f.jwt.On("GenerateTokenPair", userID, "ada@example.com").Return(&services.TokenPair{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresIn:    900,
	}, nil)
	f.jwt.On("RefreshExpiry").Return(7 * 24 * time.Hour)
	f.tokens.On("StoreRefreshToken", mock.Anything, userID, services.HashToken("refresh"), mock.AnythingOfType("time.Time")).Return(nil)

	rec := serve(t, f.app, http.MethodPost, "/auth/exchange", dto.ExchangeCodeRequest{Code: "one-time"}, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.TokenResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "access", resp.AccessToken)
	assert.Equal(t, "refresh", resp.RefreshToken)
	assert.Equal(t, int64(900), resp.ExpiresIn)
	f.assertExpectations(t)

	again := serve(t, f.app, http.MethodPost, "/auth/exchange", dto.ExchangeCodeRequest{Code: "one-time"}, "")
	assert.Equal(t, http.StatusUnauthorized, again.Code)
}

func TestAuthHandler_ExchangeCode_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		stored  time.Duration
		status  int
		message string
	}{
		{name: "missing code", code: "", status: http.StatusBadRequest, message: "code is required"},
		{name: "unknown code", code: "nope", status: http.StatusUnauthorized, message: "invalid or expired code"},
		{name: "expired code", code: "stale", stored: -time.Second, status: http.StatusUnauthorized, message: "code expired"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupAuthTest(t)
			if tt.stored != 0 {
				f.handler.authCodes.put(tt.code, uuid.New(), time.Now().Add(tt.stored))
			}

			rec := serve(t, f.app, http.MethodPost, "/auth/exchange", dto.ExchangeCodeRequest{Code: tt.code}, "")

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.message)
		})
	}
}

func TestAuthHandler_RefreshToken_RotatesStoredToken(t *testing.T) {
	f := setupAuthTest(t)

	userID := uuid.New()
	user := &models.User{ID: userID, Email: "ada@example.com"}

	f.jwt.On("ValidateRefreshToken", "old-refresh").Return(userID, nil)
	f.tokens.On("ValidateRefreshToken", mock.Anything, services.HashToken("old-refresh")).Return(userID, nil)
	f.users.On("GetByID", mock.Anything, userID).Return(user, nil)
	f.jwt.On("GenerateTokenPair", userID, "ada@example.com").Return(&services.TokenPair{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		ExpiresIn:    900,
	}, nil)
	f.jwt.On("RefreshExpiry").Return(24 * time.Hour)
	f.tokens.On("RotateRefreshToken", mock.Anything, userID,
		services.HashToken("old-refresh"), services.HashToken("new-refresh"),
		mock.AnythingOfType("time.Time"),
	).Return(nil)

	rec := serve(t, f.app, http.MethodPost, "/auth/refresh", dto.RefreshTokenRequest{RefreshToken: "old-refresh"}, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.TokenResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "new-access", resp.AccessToken)
	assert.Equal(t, "new-refresh", resp.RefreshToken)
	f.assertExpectations(t)
}

func TestAuthHandler_RefreshToken_RotationFails(t *testing.T) {
	f := setupAuthTest(t)

	userID := uuid.New()
	f.jwt.On("ValidateRefreshToken", "old-refresh").Return(userID, nil)
	f.tokens.On("ValidateRefreshToken", mock.Anything, mock.Anything).Return(userID, nil)
	f.users.On("GetByID", mock.Anything, userID).Return(&models.User{ID: userID, Email: "a@b.c"}, nil)
	f.jwt.On("GenerateTokenPair", userID, "a@b.c").Return(&services.TokenPair{RefreshToken: "new"}, nil)
	f.jwt.On("RefreshExpiry").Return(time.Hour)
	f.tokens.On("RotateRefreshToken", mock.Anything, userID, mock.Anything, mock.Anything, mock.Anything).
		Return(services.ErrRefreshTokenNotFound)

	rec := serve(t, f.app, http.MethodPost, "/auth/refresh", dto.RefreshTokenRequest{RefreshToken: "old-refresh"}, "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to rotate refresh token")
}

func TestAuthHandler_RefreshToken_InvalidSignature(t *testing.T) {
	f := setupAuthTest(t)
	f.jwt.On("ValidateRefreshToken", "forged").Return(uuid.Nil, errors.New("invalid token"))

	rec := serve(t, f.app, http.MethodPost, "/auth/refresh", dto.RefreshTokenRequest{RefreshToken: "forged"}, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid refresh token")
	f.assertExpectations(t)
}

func TestAuthHandler_RefreshToken_StoredForAnotherUser(t *testing.T) {
	f := setupAuthTest(t)
	f.jwt.On("ValidateRefreshToken", "token").Return(uuid.New(), nil)
	f.tokens.On("ValidateRefreshToken", mock.Anything, mock.Anything).Return(uuid.New(), nil)

	rec := serve(t, f.app, http.MethodPost, "/auth/refresh", dto.RefreshTokenRequest{RefreshToken: "token"}, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "refresh token not found or expired")
}

func TestAuthHandler_RefreshToken_MissingToken(t *testing.T) {
	f := setupAuthTest(t)

	rec := serve(t, f.app, http.MethodPost, "/auth/refresh", dto.RefreshTokenRequest{}, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "refresh_token is required")
}

func TestAuthHandler_Logout(t *testing.T) {
	t.Run("revokes the given token", func(t *testing.T) {
		f := setupAuthTest(t)
		f.tokens.On("RevokeRefreshToken", mock.Anything, services.HashToken("refresh")).Return(nil)

		rec := serve(t, f.app, http.MethodPost, "/auth/logout", dto.RefreshTokenRequest{RefreshToken: "refresh"}, "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "logged out")
		f.assertExpectations(t)
	})

	t.Run("succeeds without a token", func(t *testing.T) {
		f := setupAuthTest(t)

		rec := serve(t, f.app, http.MethodPost, "/auth/logout", dto.RefreshTokenRequest{}, "")

		assert.Equal(t, http.StatusOK, rec.Code)
		f.tokens.AssertNotCalled(t, "RevokeRefreshToken", mock.Anything, mock.Anything)
	})
}

func TestAuthHandler_LogoutAll(t *testing.T) {
	f := setupAuthTest(t)
	jwtSvc := newTestJWTService()
	userID := uuid.New()

	f.tokens.On("RevokeAllUserTokens", mock.Anything, userID).Return(nil)

	app := drift.New()
	app.Use(middleware.Auth(jwtSvc))
	app.Post("/auth/logout-all", f.handler.LogoutAll)

	rec := serve(t, app, http.MethodPost, "/auth/logout-all", nil, generateTestToken(t, jwtSvc, userID, "a@b.c"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "all sessions logged out")

	rec = serve(t, app, http.MethodPost, "/auth/logout-all", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	f.tokens.AssertExpectations(t)
}

func TestAuthHandler_GetConsentURL(t *testing.T) {
	f := setupAuthTest(t)
	p := f.withProvider("github")
	p.On("ConsentURL", mock.AnythingOfType("string")).Return("https://github.com/login/oauth/authorize?state=abc")

	rec := serve(t, f.app, http.MethodGet, "/auth/github/consent", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dto.ConsentURLResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "https://github.com/login/oauth/authorize?state=abc", resp.URL)

	assert.Equal(t, 1, f.handler.states.len())
	p.AssertExpectations(t)

	rec = serve(t, f.app, http.MethodGet, "/auth/gitlab/consent", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported provider")
}

func TestAuthHandler_Callback_RedirectsWithError(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		setup func(f *authFixture, p *testutil.MockOAuthProvider)
		want  string
	}{
		{
			name: "unsupported provider",
			path: "/auth/gitlab/callback?code=abc&state=xyz",
			want: "unsupported provider",
		},
		{
			name: "missing state",
			path: "/auth/github/callback?code=abc",
			want: "missing state parameter",
		},
		{
			name: "unknown state",
			path: "/auth/github/callback?code=abc&state=forged",
			want: "invalid or expired state",
		},
		{
			name: "expired state",
			path: "/auth/github/callback?code=abc&state=old",
			setup: func(f *authFixture, _ *testutil.MockOAuthProvider) {
				f.storeState("old", -time.Minute)
			},
			want: "state expired",
		},
		{
			name: "missing code",
			path: "/auth/github/callback?state=ok",
			setup: func(f *authFixture, _ *testutil.MockOAuthProvider) {
				f.storeState("ok", stateTTL)
			},
			want: "missing authorization code",
		},
		{
			name: "exchange fails",
			path: "/auth/github/callback?code=bad&state=ok",
			setup: func(f *authFixture, p *testutil.MockOAuthProvider) {
				f.storeState("ok", stateTTL)
				p.On("Exchange", mock.Anything, "bad").Return(nil, errors.New("bad_verification_code"))
			},
			want: "failed to exchange code",
		},
		{
			name: "user upsert fails",
			path: "/auth/github/callback?code=good&state=ok",
			setup: func(f *authFixture, p *testutil.MockOAuthProvider) {
				f.storeState("ok", stateTTL)
				info := testutil.OAuthUserInfo("ada@example.com", "Ada", "github", "42")
				p.On("Exchange", mock.Anything, "good").Return(info, nil)
				f.users.On("FindOrCreateFromOAuth", mock.Anything, info).Return(nil, errors.New("db down"))
			},
			want: "failed to create user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupAuthTest(t)
			p := f.withProvider("github")
			if tt.setup != nil {
				tt.setup(f, p)
			}

			rec := serve(t, f.app, http.MethodGet, tt.path, nil, "")

			require.Equal(t, http.StatusFound, rec.Code)
			location := rec.Header().Get("Location")
			assert.Contains(t, location, "http://localhost:5173/auth/callback")
			assert.Equal(t, tt.want, redirectError(t, location))
			f.users.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_Callback_IssuesOneTimeCode(t *testing.T) {
	f := setupAuthTest(t)
	p := f.withProvider("github")
	f.storeState("ok", stateTTL)

	info := testutil.OAuthUserInfo("ada@example.com", "Ada", "github", "42")
	user := &models.User{ID: uuid.New(), Email: "ada@example.com"}
	p.On("Exchange", mock.Anything, "good").Return(info, nil)
	f.users.On("FindOrCreateFromOAuth", mock.Anything, info).Return(user, nil)

	rec := serve(t, f.app, http.MethodGet, "/auth/github/callback?code=good&state=ok", nil, "")

	require.Equal(t, http.StatusFound, rec.Code)
	u, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Empty(t, u.Query().Get("error"))
	assert.NotContains(t, u.RawQuery, "access")

	code := u.Query().Get("code")
	require.NotEmpty(t, code)
	stored, err := f.handler.authCodes.take(code, time.Now())
	require.NoError(t, err)
	assert.Equal(t, user.ID, stored)

	_, err = f.handler.states.take("ok", time.Now())
	assert.ErrorIs(t, err, errUnknownKey, "state must be single use")

	p.AssertExpectations(t)
	f.users.AssertExpectations(t)
}

func TestAuthHandler_SweepDropsExpiredEntries(t *testing.T) {
	f := setupAuthTest(t)
	now := time.Now()

	f.handler.states.put("fresh", struct{}{}, now.Add(time.Minute))
	f.handler.states.put("stale", struct{}{}, now.Add(-time.Minute))
	f.handler.authCodes.put("fresh", uuid.New(), now.Add(time.Second))
	f.handler.authCodes.put("stale", uuid.New(), now.Add(-time.Second))

	assert.Equal(t, 2, f.handler.sweep(now))

	_, err := f.handler.states.take("fresh", now)
	assert.NoError(t, err)
	_, err = f.handler.states.take("stale", now)
	assert.ErrorIs(t, err, errUnknownKey)
	_, err = f.handler.authCodes.take("fresh", now)
	assert.NoError(t, err)
	_, err = f.handler.authCodes.take("stale", now)
	assert.ErrorIs(t, err, errUnknownKey)
}

var _ oauth.Provider = (*testutil.MockOAuthProvider)(nil)
