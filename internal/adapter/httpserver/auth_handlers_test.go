package httpserver_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpserver "github.com/fairyhunter13/ai-quiz-scorer/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/adapter/notify"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/adapter/repo/memory"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/config"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/domain"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/usecase"
)

func newAuthServer() *httpserver.Server {
	return httpserver.NewServer(
		config.Config{AppEnv: "test"},
		usecase.ScoreService{},
		usecase.QuestionService{},
		usecase.NewAuthService(memory.NewUserRepo()),
		notify.NewHub(),
		nil,
		nil,
	)
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	return rec
}

func TestRegisterHandler(t *testing.T) {
	t.Parallel()
	srv := newAuthServer()

	rec := postJSON(t, srv.RegisterHandler(domain.AudienceAdmin), `{"username":"alice","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["id"])
	assert.Equal(t, "alice", resp["username"])

	// Same username again: conflict.
	rec = postJSON(t, srv.RegisterHandler(domain.AudienceAdmin), `{"username":"alice","password":"s3cret-pass"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Same username, other audience: fine.
	rec = postJSON(t, srv.RegisterHandler(domain.AudienceClient), `{"username":"alice","password":"s3cret-pass"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	// Missing fields: 400.
	rec = postJSON(t, srv.RegisterHandler(domain.AudienceAdmin), `{"username":"bob"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginHandler(t *testing.T) {
	t.Parallel()
	srv := newAuthServer()

	rec := postJSON(t, srv.RegisterHandler(domain.AudienceClient), `{"username":"carol","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = postJSON(t, srv.LoginHandler(domain.AudienceClient), `{"username":"carol","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "carol", resp["username"])
	assert.Equal(t, domain.AudienceClient, resp["audience"])

	rec = postJSON(t, srv.LoginHandler(domain.AudienceClient), `{"username":"carol","password":"wrong-pass"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Registered as client, not admin.
	rec = postJSON(t, srv.LoginHandler(domain.AudienceAdmin), `{"username":"carol","password":"s3cret-pass"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
