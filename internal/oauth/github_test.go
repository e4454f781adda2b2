package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dimitrije/bolt-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGitHubAPI(t *testing.T, user, emails string) (*httptest.Server, *bool) {
	t.Helper()
	emailsFetched := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/user":
			_, _ = w.Write([]byte(user))
		case "/user/emails":
			emailsFetched = true
			_, _ = w.Write([]byte(emails))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &emailsFetched
}

func newTestGitHubProvider(t *testing.T, apiURL string) *GitHubProvider {
	t.Helper()
	p := NewGitHubProvider(config.OAuthConfig{ClientID: "id", ClientSecret: "secret"})
	p.config.Endpoint = testEndpoint(newTokenServer(t))
	p.apiURL = apiURL
	return p
}

func TestGitHubProvider_ConsentURL(t *testing.T) {
	provider := NewGitHubProvider(config.OAuthConfig{
		ClientID:    "test-client-id",
		RedirectURL: "http://localhost/callback",
	})

	url := provider.ConsentURL("test-state")

	assert.Equal(t, "github", provider.Name())
	assert.Contains(t, url, "github.com/login/oauth/authorize")
	assert.Contains(t, url, "state=test-state")
	assert.Contains(t, provider.config.Scopes, "user:email")
}

func TestGitHubProvider_Exchange(t *testing.T) {
	api, emailsFetched := newGitHubAPI(t,
		`{"id":12345,"login":"octo","name":"Octo Cat","email":"octo@example.com","avatar_url":"https://a/1"}`,
		`[]`)

	info, err := newTestGitHubProvider(t, api.URL).Exchange(context.Background(), "code")
	require.NoError(t, err)

	assert.False(t, *emailsFetched)
	assert.Equal(t, "12345", info.ExternalID)
	assert.Equal(t, "octo@example.com", info.Email)
	assert.Equal(t, "Octo Cat", info.Name)
	assert.Equal(t, "github", info.Provider)
}

func TestGitHubProvider_Exchange_EmailFallback(t *testing.T) {
	api, emailsFetched := newGitHubAPI(t,
		`{"id":1,"login":"octo","name":"","email":""}`,
		`[{"email":"other@example.com","primary":false,"verified":true},
		  {"email":"main@example.com","primary":true,"verified":true}]`)

	info, err := newTestGitHubProvider(t, api.URL).Exchange(context.Background(), "code")
	require.NoError(t, err)

	assert.True(t, *emailsFetched)
	assert.Equal(t, "main@example.com", info.Email)
	assert.Equal(t, "octo", info.Name)
}

func TestGitHubProvider_Exchange_NoEmail(t *testing.T) {
	api, _ := newGitHubAPI(t, `{"id":1,"login":"octo","email":""}`, `[]`)

	_, err := newTestGitHubProvider(t, api.URL).Exchange(context.Background(), "code")
	assert.ErrorContains(t, err, "no email found")
}
