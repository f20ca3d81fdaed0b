package admission

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pario-ai/aigateway/pkg/ledger"
	"github.com/pario-ai/aigateway/pkg/models"
	"github.com/pario-ai/aigateway/pkg/quota"
)

const prefix = "/ai-gateway"

var testKey = quota.Key{UseCaseID: "client-1", ProviderName: "azure_openai", ModelName: "gpt-4o"}

type scheduled struct {
	key     quota.Key
	balance int64
}

type recordingScheduler struct {
	mu   sync.Mutex
	jobs []scheduled
}

func (r *recordingScheduler) Schedule(key quota.Key, balance int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, scheduled{key, balance})
	return true
}

type harness struct {
	engine     *gin.Engine
	svc        *quota.Service
	store      ledger.Store
	debits     *recordingScheduler
	logs       *bytes.Buffer
	downstream int
}

func newHarness(t *testing.T, handler gin.HandlerFunc) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := &harness{
		store:  ledger.NewMemory(),
		debits: &recordingScheduler{},
		logs:   &bytes.Buffer{},
	}
	h.svc = quota.NewService(h.store)
	logger := slog.New(slog.NewJSONHandler(h.logs, nil))

	h.engine = gin.New()
	h.engine.Use(Middleware(h.svc, h.debits, prefix, logger))
	counted := func(c *gin.Context) {
		h.downstream++
		handler(c)
	}
	h.engine.POST(prefix+"/v1/chat", counted)
	h.engine.POST(prefix+"/v1/embeddings", counted)
	h.engine.POST(prefix+"/v1/images/generations", counted)
	return h
}

func (h *harness) createQuota(t *testing.T, limit int64) {
	t.Helper()
	_, err := h.svc.Create(context.Background(), quota.CreateRequest{
		Unit:     models.QuotaUnitTokens,
		Limit:    limit,
		UseCase:  models.UseCase{ID: testKey.UseCaseID, Name: "test"},
		Provider: models.ProviderRef{Name: testKey.ProviderName, Model: models.ModelRef{Name: testKey.ModelName}},
	})
	require.NoError(t, err)
}

func (h *harness) do(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(ClientHeader, testKey.UseCaseID)
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

func (h *harness) lastRecord(t *testing.T) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(h.logs.String()), "\n")
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &rec))
	return rec
}

const chatBody = `{"provider":{"name":"azure_openai","model":{"name":"gpt-4o"}},"prompt":{"messages":[]}}`

const upstreamBody = `{"usage":{"prompt_tokens":100,"completion_tokens":50,"total_tokens":150},"messages":[{"role":"assistant","content":"hi"}]}`

func respond(status int, body string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Upstream", "yes")
		c.Data(status, "application/json", []byte(body))
	}
}

func TestAdmitChargesUsage(t *testing.T) {
	h := newHarness(t, respond(http.StatusOK, upstreamBody))
	h.createQuota(t, 1000)

	w := h.do(prefix+"/v1/chat", chatBody)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, upstreamBody, w.Body.String())
	assert.Equal(t, "yes", w.Header().Get("X-Upstream"))
	require.Len(t, h.debits.jobs, 1)
	assert.Equal(t, testKey, h.debits.jobs[0].key)
	assert.Equal(t, int64(850), h.debits.jobs[0].balance)

	rec := h.lastRecord(t)
	assert.Equal(t, "quota middleware", rec["msg"])
	q := rec["quota"].(map[string]any)
	assert.EqualValues(t, 1000, q["limit"])
	assert.EqualValues(t, 1000, q["balance"])
	assert.EqualValues(t, 850, q["new_balance"])
	assert.Equal(t, "gpt-4o", q["provider"].(map[string]any)["model"].(map[string]any)["name"])
	resp := rec["response"].(map[string]any)
	assert.EqualValues(t, 200, resp["status_code"])
	assert.Equal(t, "ms", resp["latency"].(map[string]any)["unit"])
}

func TestHandlerSeesRestoredBody(t *testing.T) {
	var seen string
	h := newHarness(t, func(c *gin.Context) {
		b, _ := io.ReadAll(c.Request.Body)
		seen = string(b)
		c.Data(http.StatusOK, "application/json", []byte(upstreamBody))
	})
	h.createQuota(t, 1000)

	h.do(prefix+"/v1/chat", chatBody)
	assert.Equal(t, chatBody, seen)
}

func TestExhaustedQuota(t *testing.T) {
	h := newHarness(t, respond(http.StatusOK, upstreamBody))
	h.createQuota(t, 1000)
	require.NoError(t, h.svc.Debit(context.Background(), testKey, 0))

	w := h.do(prefix+"/v1/chat", chatBody)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"errorDetails":[{"statusCode":"ERR_MID_002","message":"Exceeded quota, balance is 0"}]}`, w.Body.String())
	assert.Zero(t, h.downstream)
	assert.Empty(t, h.debits.jobs)

	rec := h.lastRecord(t)
	exc := rec["exception"].(map[string]any)
	assert.Equal(t, "Exceeded quota, balance is 0", exc["message"])
}

func TestMissingQuota(t *testing.T) {
	h := newHarness(t, respond(http.StatusOK, upstreamBody))

	w := h.do(prefix+"/v1/chat", chatBody)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"errorDetails":[{"statusCode":"ERR_MID_003","message":"Quota not Found"}]}`, w.Body.String())
	assert.Zero(t, h.downstream)
}

func TestDownstreamErrorIsNotCharged(t *testing.T) {
	failure := `{"errorDetails":[{"statusCode":"ERROR_002","message":"Internal Server Error"}]}`
	h := newHarness(t, respond(http.StatusInternalServerError, failure))
	h.createQuota(t, 1000)

	w := h.do(prefix+"/v1/chat", chatBody)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, failure, w.Body.String())
	assert.Empty(t, h.debits.jobs)

	got, err := h.svc.Retrieve(context.Background(), testKey, ledger.Bool(true))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got[0].Balance)
}

func TestMalformedBody(t *testing.T) {
	h := newHarness(t, respond(http.StatusOK, upstreamBody))
	h.createQuota(t, 1000)

	for _, body := range []string{`{not json`, `{"provider":{"name":"azure_openai"}}`} {
		w := h.do(prefix+"/v1/chat", body)
		assert.Equal(t, http.StatusInternalServerError, w.Code, body)
		assert.Contains(t, w.Body.String(), "ERR_MID_001")
	}
	assert.Zero(t, h.downstream)
}

func TestMissingUsageIsInternalError(t *testing.T) {
	h := newHarness(t, respond(http.StatusOK, `{"messages":[]}`))
	h.createQuota(t, 1000)

	w := h.do(prefix+"/v1/chat", chatBody)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_MID_001")
	assert.Empty(t, h.debits.jobs)
}

func TestUnmeteredRoutePassesThrough(t *testing.T) {
	h := newHarness(t, respond(http.StatusCreated, `{"data":[]}`))

	w := h.do(prefix+"/v1/images/generations", chatBody)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, `{"data":[]}`, w.Body.String())
	assert.Equal(t, 1, h.downstream)
	assert.Empty(t, h.logs.String())
}

func TestCreatedStatusIsCharged(t *testing.T) {
	h := newHarness(t, respond(http.StatusCreated, upstreamBody))
	h.createQuota(t, 100)

	w := h.do(prefix+"/v1/embeddings", chatBody)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, h.debits.jobs, 1)
	assert.Equal(t, int64(-50), h.debits.jobs[0].balance)
}

func TestMissingClientIDMatchesNoTenant(t *testing.T) {
	h := newHarness(t, respond(http.StatusOK, upstreamBody))
	h.createQuota(t, 1000)

	req := httptest.NewRequest(http.MethodPost, prefix+"/v1/chat", strings.NewReader(chatBody))
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_MID_003")
	assert.Zero(t, h.downstream)
	assert.Empty(t, h.debits.jobs)
}

func TestHandlerPanicIsInternalError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := ledger.NewMemory()
	svc := quota.NewService(store)
	_, err := svc.Create(context.Background(), quota.CreateRequest{
		Limit:    1000,
		UseCase:  models.UseCase{ID: testKey.UseCaseID},
		Provider: models.ProviderRef{Name: testKey.ProviderName, Model: models.ModelRef{Name: testKey.ModelName}},
	})
	require.NoError(t, err)
	debits := &recordingScheduler{}
	logs := &bytes.Buffer{}

	engine := gin.New()
	engine.Use(gin.CustomRecovery(func(c *gin.Context, _ any) {
		c.AbortWithStatus(http.StatusInternalServerError)
	}))
	engine.Use(Middleware(svc, debits, prefix, slog.New(slog.NewJSONHandler(logs, nil))))
	engine.POST(prefix+"/v1/chat", func(c *gin.Context) {
		c.Writer.WriteHeader(http.StatusOK)
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodPost, prefix+"/v1/chat", strings.NewReader(chatBody))
	req.Header.Set(ClientHeader, testKey.UseCaseID)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_MID_001")
	assert.Empty(t, debits.jobs)
	assert.Contains(t, logs.String(), "downstream handler panicked: boom")
}
