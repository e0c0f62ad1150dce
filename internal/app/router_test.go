package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpserver "github.com/fairyhunter13/ai-quiz-scorer/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/adapter/notify"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/adapter/repo/memory"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/app"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/config"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/domain"
	"github.com/fairyhunter13/ai-quiz-scorer/internal/usecase"
)

type routerGenerator struct{ content string }

func (g routerGenerator) GenerateQuestion(domain.Context, string) (string, error) {
	return g.content, nil
}

func testConfig() config.Config {
	return config.Config{AppEnv: "test", RateLimitPerMin: 1000, CORSAllowOrigins: "*"}
}

func buildTestRouter(t *testing.T, dbErr error) http.Handler {
	t.Helper()
	gen := routerGenerator{content: `[{"title":"T","content":"C","type":"subjective"}]`}
	srv := httpserver.NewServer(
		testConfig(),
		usecase.NewScoreService(memory.NewJobRepo()),
		usecase.NewQuestionService(memory.NewQuestionRepo(), gen),
		usecase.NewAuthService(memory.NewUserRepo()),
		notify.NewHub(),
		func(context.Context) error { return dbErr },
		nil,
	)
	return app.BuildRouter(testConfig(), srv)
}

func TestParseOrigins(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"*"}, app.ParseOrigins(""))
	assert.Equal(t, []string{"*"}, app.ParseOrigins("*"))
	assert.Equal(t, []string{"https://a.example", "https://b.example"},
		app.ParseOrigins(" https://a.example , https://b.example "))
}

func TestRouter_HealthzAndMetrics(t *testing.T) {
	t.Parallel()
	h := buildTestRouter(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_Readyz(t *testing.T) {
	t.Parallel()
	h := buildTestRouter(t, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	h = buildTestRouter(t, errors.New("db down"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_SubmitRouteSetsRequestID(t *testing.T) {
	t.Parallel()
	h := buildTestRouter(t, nil)
	body := `{"key":"k","question":"q","userAnswer":"a"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/score/submit", strings.NewReader(body)))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRouter_QuestionLifecycle(t *testing.T) {
	t.Parallel()
	h := buildTestRouter(t, nil)

	// Generate.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/questions/generate",
		strings.NewReader(`{"userId":"u1","prompt":"one about Go"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Questions []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Len(t, created.Questions, 1)
	id := created.Questions[0].ID
	assert.Equal(t, "pending", created.Questions[0].Status)

	// List.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/questions?userId=u1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), id)

	// Update.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/questions/"+id,
		strings.NewReader(`{"title":"T2","content":"C2","type":"subjective"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "T2")

	// Approve.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/questions/"+id+"/approve", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "approved")

	// Reject.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/questions/"+id+"/reject", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	// Delete, then the update 404s.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/questions/"+id, nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/questions/"+id,
		strings.NewReader(`{"title":"T3","content":"C3"}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_AuthRoutes(t *testing.T) {
	t.Parallel()
	h := buildTestRouter(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/register",
		strings.NewReader(`{"username":"root","password":"s3cret-pass"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/client/auth/login",
		strings.NewReader(`{"username":"root","password":"s3cret-pass"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"username":"root","password":"s3cret-pass"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
}
