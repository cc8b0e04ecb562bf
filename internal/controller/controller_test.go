package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"quiz-session-backend/internal/config"
	"quiz-session-backend/internal/model"
	"quiz-session-backend/internal/repository"
	"quiz-session-backend/internal/service"
	"quiz-session-backend/utilities"
)

const testPassword = "space-mountain"

type memoryResultRepo struct {
	results []*model.SessionResult
}

func (m *memoryResultRepo) SaveResult(result *model.SessionResult) error {
	for _, r := range m.results {
		if r.SessionID == result.SessionID {
			return repository.ErrDuplicateResult
		}
	}
	result.ID = uint(len(m.results) + 1)
	m.results = append(m.results, result)
	return nil
}

func (m *memoryResultRepo) GetRecentResults(limit int) ([]model.SessionResult, error) {
	out := []model.SessionResult{}
	for _, r := range m.results {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memoryResultRepo) GetResultBySessionID(sessionID string) (*model.SessionResult, error) {
	for _, r := range m.results {
		if r.SessionID == sessionID {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memoryResultRepo) GetMissStats(limit int) ([]model.QuestionMissStat, error) {
	return []model.QuestionMissStat{{QuestionText: "Q1", Attempts: 1, Misses: 1}}, nil
}

func newTestRouter(t *testing.T, loginBurst int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utilities.ConfigureTokens("controller-test-secret", time.Minute)

	cfg, err := config.Parse([]byte(`<API><AUTHENTICATION><LOGIN_RATE>0.001</LOGIN_RATE></AUTHENTICATION></API>`))
	require.NoError(t, err)
	cfg.Authentication.PasswordHash = service.Hash256Encode(testPassword)
	cfg.Authentication.LoginBurst = loginBurst

	auth, err := service.NewAuthService(cfg.Authentication)
	require.NoError(t, err)

	questions := []model.QuestionRecord{
		{Question: "Q1", Type: model.TypeTrueFalse, Choices: []string{"○", "×"}, Answer: 0, Explanation: "E1"},
		{Question: "Q2", Type: model.TypeChoice, Choices: []string{"A", "B", "C", "D"}, Answer: 2, Explanation: "E2"},
	}

	r := gin.New()
	require.NoError(t, ConfigureEngine(r, cfg))
	RegisterRoutes(r, cfg, Services{
		Auth:      auth,
		Quiz:      service.NewQuizService(questions, service.QuizServiceOptions{DefaultCount: 0, Events: utilities.NewEventBus()}),
		Report:    service.NewReportService(service.ReportOptions{}),
		Collector: service.NewCollectorService(&memoryResultRepo{}),
	})
	return r
}

func doJSON(r http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r http.Handler) string {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/auth/login", "", gin.H{"password": testPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestLogin(t *testing.T) {
	r := newTestRouter(t, 5)
	login(t, r)

	w := doJSON(r, http.MethodPost, "/auth/login", "", gin.H{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, "/auth/login", "", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginIsThrottled(t *testing.T) {
	r := newTestRouter(t, 2)
	for i := 0; i < 2; i++ {
		w := doJSON(r, http.MethodPost, "/auth/login", "", gin.H{"password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := doJSON(r, http.MethodPost, "/auth/login", "", gin.H{"password": testPassword})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestLoginThrottleIgnoresForwardedHeaders(t *testing.T) {
	r := newTestRouter(t, 1)
	throttled := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"password":"wrong"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i))
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code == http.StatusTooManyRequests {
			throttled++
		}
	}
	assert.Equal(t, 49, throttled)
}

func TestConfigureEngineTrustsConfiguredProxy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg, err := config.Parse([]byte(`<API><CONTEXT><TRUSTED_PROXIES><PROXY>192.0.2.1</PROXY></TRUSTED_PROXIES></CONTEXT></API>`))
	require.NoError(t, err)

	r := gin.New()
	require.NoError(t, ConfigureEngine(r, cfg))
	var seen []string
	r.GET("/ip", func(c *gin.Context) { seen = append(seen, c.ClientIP()) })

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, []string{"203.0.113.7"}, seen)
}

func TestLoginLimitersAreEvictedWhenIdle(t *testing.T) {
	ac := NewAuthController(nil, 1, 2)
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	ac.now = func() time.Time { return now }

	for i := 0; i < 100; i++ {
		ac.allow(fmt.Sprintf("10.0.0.%d", i))
	}
	assert.Len(t, ac.limiters, 100)

	// Within the idle window the buckets still matter and are kept.
	now = now.Add(limiterSweepInterval)
	assert.True(t, ac.allow("10.0.0.1"))
	assert.Len(t, ac.limiters, 100)

	now = now.Add(ac.idle + limiterSweepInterval)
	assert.True(t, ac.allow("10.0.0.200"))
	assert.Len(t, ac.limiters, 1)
}

func TestSessionRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t, 5)
	w := doJSON(r, http.MethodPost, "/sessions", "", gin.H{"count": 1})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = doJSON(r, http.MethodGet, "/quiz/options", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionFlow(t *testing.T) {
	r := newTestRouter(t, 5)
	token := login(t, r)

	w := doJSON(r, http.MethodGet, "/quiz/options", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"bank_size":2`)

	w = doJSON(r, http.MethodPost, "/sessions", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var info service.SessionInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, 2, info.Total)
	base := "/sessions/" + info.SessionID

	w = doJSON(r, http.MethodGet, base+"/summary", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	for i := 0; i < info.Total; i++ {
		w = doJSON(r, http.MethodGet, base+"/question", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "correct")

		w = doJSON(r, http.MethodPost, base+"/answer", token, gin.H{"index": 9})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doJSON(r, http.MethodPost, base+"/answer", token, gin.H{"index": 0})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var fb service.AnswerFeedback
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fb))
		assert.Equal(t, i == info.Total-1, fb.Completed)
	}

	w = doJSON(r, http.MethodGet, base+"/question", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(r, http.MethodGet, base+"/summary", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Summary model.SessionSummary `json:"summary"`
		Band    string               `json:"band"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Summary.Total)
	assert.NotEmpty(t, resp.Band)

	w = doJSON(r, http.MethodGet, base+"/review.pdf", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = doJSON(r, http.MethodPost, base+"/retry", token, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var retried service.SessionInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &retried))
	assert.Equal(t, 2, retried.Total)

	w = doJSON(r, http.MethodGet, base+"/question", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodDelete, "/sessions/"+retried.SessionID, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(r, http.MethodDelete, "/sessions/"+retried.SessionID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStartSessionRejectsNegativeCount(t *testing.T) {
	r := newTestRouter(t, 5)
	token := login(t, r)
	w := doJSON(r, http.MethodPost, "/sessions", token, gin.H{"count": -3})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestCollectorRoutes(t *testing.T) {
	r := newTestRouter(t, 5)
	token := login(t, r)

	snap := model.ResultSnapshot{
		SessionID: "abc",
		Timestamp: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Answers: []model.AnswerRecord{
			{QuestionText: "Q1", Type: model.TypeTrueFalse, UserAnswerText: "×", CorrectAnswerText: "○"},
		},
	}
	w := doJSON(r, http.MethodPost, "/telemetry/results", "", snap)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = doJSON(r, http.MethodPost, "/telemetry/results", "", snap)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = doJSON(r, http.MethodPost, "/telemetry/results", "", model.ResultSnapshot{SessionID: "empty"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/telemetry/results", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = doJSON(r, http.MethodGet, "/telemetry/results", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"session_id":"abc"`)

	w = doJSON(r, http.MethodGet, "/telemetry/results/abc", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(r, http.MethodGet, "/telemetry/results/nope", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodGet, "/telemetry/missed", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"misses":1`)
}
