package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dimitrije/bolt-api/internal/services"
	"github.com/dimitrije/bolt-api/tests/testutil"
	"github.com/google/uuid"
)

func newTestJWTService() *services.JWTService {
	return testutil.NewJWTService()
}

func generateTestToken(t *testing.T, jwtSvc *services.JWTService, userID uuid.UUID, email string) string {
	t.Helper()
	return testutil.AccessToken(t, jwtSvc, userID, email)
}

func serve(t *testing.T, app http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.Serve(t, app, method, path, body, token)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	testutil.DecodeJSON(t, rec, v)
}
