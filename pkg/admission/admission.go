// Package admission implements the quota admission middleware. For metered
// routes it checks the caller's quota before the handler runs, buffers the
// handler's response, charges the reported token usage against the balance
// and schedules the ledger debit without waiting for it.
package admission

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/pario-ai/aigateway/pkg/apierror"
	"github.com/pario-ai/aigateway/pkg/logging"
	"github.com/pario-ai/aigateway/pkg/models"
	"github.com/pario-ai/aigateway/pkg/quota"
)

// ClientHeader carries the use case id quotas are keyed by.
const ClientHeader = "client_id"

// Admitter returns the active quota for a key. *quota.Service satisfies it.
type Admitter interface {
	Admit(ctx context.Context, key quota.Key) (models.Quota, error)
}

// Scheduler accepts a balance update without blocking. *quota.Debiter
// satisfies it.
type Scheduler interface {
	Schedule(key quota.Key, balance int64) bool
}

// MeteredPaths returns the routes subject to admission under prefix.
func MeteredPaths(prefix string) []string {
	return []string{
		prefix + "/v1/chat",
		prefix + "/v1/embeddings",
		prefix + "/v1/similarity",
	}
}

// Middleware returns the admission middleware for the metered routes under
// prefix. Other requests pass through untouched.
func Middleware(admitter Admitter, debits Scheduler, prefix string, logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	metered := make(map[string]bool)
	for _, p := range MeteredPaths(prefix) {
		metered[p] = true
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost || !metered[c.Request.URL.Path] {
			c.Next()
			return
		}
		a := &attempt{c: c, logger: logger, start: time.Now()}
		a.run(admitter, debits)
	}
}

// attempt is the state of one admission pass.
type attempt struct {
	c      *gin.Context
	logger *slog.Logger
	start  time.Time

	key        quota.Key
	limit      int64
	balance    int64
	newBalance int64
	status     int
}

func (a *attempt) run(admitter Admitter, debits Scheduler) {
	c := a.c
	key, err := extractKey(c)
	if err != nil {
		a.fail(http.StatusInternalServerError, internalError(), err)
		return
	}
	a.key = key

	q, err := admitter.Admit(c.Request.Context(), key)
	if err != nil {
		var (
			exceeded *quota.ExceededError
			missing  *quota.NotFoundError
		)
		switch {
		case errors.As(err, &exceeded):
			a.fail(http.StatusTooManyRequests, apierror.New(apierror.CodeQuotaExceeded, exceeded.Error()), err)
		case errors.As(err, &missing):
			a.fail(http.StatusNotFound, apierror.New(apierror.CodeQuotaNotFound, "Quota not Found"), err)
		default:
			a.fail(http.StatusInternalServerError, internalError(), err)
		}
		return
	}
	a.limit, a.balance = q.Limit, q.Balance

	w := newBufferedWriter(c.Writer)
	if err := a.next(w); err != nil {
		a.fail(http.StatusInternalServerError, internalError(), err)
		return
	}
	a.status = w.Status()

	if a.status != http.StatusOK && a.status != http.StatusCreated {
		w.replay()
		return
	}

	usage := gjson.GetBytes(w.body.Bytes(), "usage.total_tokens")
	if !usage.Exists() {
		a.fail(http.StatusInternalServerError, internalError(),
			errors.New("downstream response carries no usage.total_tokens"))
		return
	}
	a.newBalance = a.balance - usage.Int()

	if !debits.Schedule(key, a.newBalance) {
		a.logger.Warn("quota debit not scheduled", "quota", key.String(), "new_balance", a.newBalance)
	}
	a.observe(nil)
	w.replay()
}

// next runs the rest of the chain against w and always restores the real
// writer. A panic in the chain is returned as an error.
func (a *attempt) next(w *bufferedWriter) (err error) {
	c := a.c
	c.Writer = w
	defer func() {
		c.Writer = w.ResponseWriter
		if r := recover(); r != nil {
			err = fmt.Errorf("downstream handler panicked: %v", r)
		}
	}()
	c.Next()
	return nil
}

// extractKey reads the client id header and the provider reference from the
// JSON body, restoring the body for the handler.
func extractKey(c *gin.Context) (quota.Key, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return quota.Key{}, fmt.Errorf("read request body: %w", err)
	}
	_ = c.Request.Body.Close()
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	if !gjson.ValidBytes(body) {
		return quota.Key{}, errors.New("request body is not valid JSON")
	}
	provider := gjson.GetBytes(body, "provider.name")
	model := gjson.GetBytes(body, "provider.model.name")
	if provider.Type != gjson.String || model.Type != gjson.String {
		return quota.Key{}, errors.New("request body has no provider.name and provider.model.name")
	}
	return quota.Key{
		UseCaseID:    c.GetHeader(ClientHeader),
		ProviderName: provider.Str,
		ModelName:    model.Str,
	}, nil
}

func internalError() apierror.Payload {
	return apierror.New(apierror.CodeQuotaInternal, "An error occurred while processing the request")
}

func (a *attempt) fail(status int, p apierror.Payload, err error) {
	a.status = status
	a.observe(err)
	a.c.AbortWithStatusJSON(status, p)
}

// observe emits the single record describing this admission pass.
func (a *attempt) observe(err error) {
	c := a.c
	latency := math.Round(float64(time.Since(a.start).Microseconds())/10) / 100

	attrs := []slog.Attr{
		slog.String("correlation_id", logging.CorrelationID(c.Request.Context())),
		slog.Group("request",
			slog.String("path", c.Request.URL.Path),
			slog.String("method", c.Request.Method),
		),
		slog.Group("response",
			slog.Int("status_code", a.status),
			slog.Group("latency",
				slog.Float64("time", latency),
				slog.String("unit", "ms"),
			),
		),
	}
	if a.key.ProviderName != "" {
		attrs = append(attrs, slog.Group("quota",
			slog.Group("provider",
				slog.String("name", a.key.ProviderName),
				slog.Group("model", slog.String("name", a.key.ModelName)),
			),
			slog.Int64("limit", a.limit),
			slog.Int64("balance", a.balance),
			slog.Int64("new_balance", a.newBalance),
		))
	}

	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
		if a.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		attrs = append(attrs, slog.Group("exception",
			slog.String("type", fmt.Sprintf("%T", err)),
			slog.String("message", err.Error()),
		))
	}
	a.logger.LogAttrs(c.Request.Context(), level, "quota middleware", attrs...)
}
