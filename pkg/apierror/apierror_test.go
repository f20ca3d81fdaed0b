package apierror

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pario-ai/aigateway/pkg/driver"
	"github.com/pario-ai/aigateway/pkg/gateway"
	"github.com/pario-ai/aigateway/pkg/quota"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"bad request", fmt.Errorf("chat: %w", &gateway.BadRequestError{Params: []string{"x"}}), 400, CodeBadRequest, "Bad Request"},
		{"invalid limit", fmt.Errorf("create: %w", quota.ErrInvalidLimit), 400, CodeBadRequest, "Bad Request"},
		{"catalog entity", &gateway.NotFoundError{Entity: "Model gpt-9"}, 404, CodeNotFound, "Model gpt-9 not found"},
		{"quota", &quota.NotFoundError{Entity: "quotas"}, 404, CodeNotFound, "quotas not found"},
		{"driver entity", fmt.Errorf("get file: %w", &driver.NotFoundError{Entity: "File: f-1"}), 404, CodeNotFound, "File: f-1 not found"},
		{"rate limited", fmt.Errorf("chat: %w", driver.ErrRateLimited), 429, CodeRateLimited, "Exceeded rate limit, please retry later"},
		{"not mapped", fmt.Errorf("chat: %w", driver.ErrNotMapped), 500, CodeInternal, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, p := Classify(tt.err)
			assert.Equal(t, tt.status, status)
			require.Len(t, p.ErrorDetails, 1)
			assert.Equal(t, tt.code, p.ErrorDetails[0].StatusCode)
			assert.Equal(t, tt.message, p.ErrorDetails[0].Message)
		})
	}
}

func TestPayloadJSON(t *testing.T) {
	data, err := json.Marshal(BadRequest("Model name cannot be empty or blank."))
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"errorDetails":[{"statusCode":"ERROR_001","message":"Bad Request","details":["Model name cannot be empty or blank."]}]}`,
		string(data))

	data, err = json.Marshal(Unauthorized())
	require.NoError(t, err)
	assert.JSONEq(t, `{"errorDetails":[{"statusCode":"ERROR_401","message":"Unauthorized access"}]}`, string(data))
}

func TestAbort(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := gin.New()
	r.GET("/x", func(c *gin.Context) {
		Abort(c, logger, &quota.NotFoundError{Entity: "quota"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"errorDetails":[{"statusCode":"ERROR_004","message":"quota not found"}]}`, w.Body.String())
}
