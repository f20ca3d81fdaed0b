// Package apierror defines the error payload returned by every endpoint and
// maps service errors onto it.
package apierror

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pario-ai/aigateway/pkg/driver"
	"github.com/pario-ai/aigateway/pkg/gateway"
	"github.com/pario-ai/aigateway/pkg/quota"
)

// Codes carried in Detail.StatusCode.
const (
	CodeBadRequest    = "ERROR_001"
	CodeInternal      = "ERROR_002"
	CodeRateLimited   = "ERROR_003"
	CodeNotFound      = "ERROR_004"
	CodeUnauthorized  = "ERROR_401"
	CodeQuotaInternal = "ERR_MID_001"
	CodeQuotaExceeded = "ERR_MID_002"
	CodeQuotaNotFound = "ERR_MID_003"
)

// Detail is one entry of the errorDetails list.
type Detail struct {
	StatusCode string   `json:"statusCode"`
	Message    string   `json:"message"`
	Details    []string `json:"details,omitempty"`
}

// Payload is the JSON error body.
type Payload struct {
	ErrorDetails []Detail `json:"errorDetails"`
}

// New builds a single-entry payload.
func New(code, message string, details ...string) Payload {
	return Payload{ErrorDetails: []Detail{{StatusCode: code, Message: message, Details: details}}}
}

func BadRequest(params ...string) Payload { return New(CodeBadRequest, "Bad Request", params...) }

func Internal() Payload { return New(CodeInternal, "Internal Server Error") }

func RateLimited() Payload {
	return New(CodeRateLimited, "Exceeded rate limit, please retry later")
}

func NotFound(entity string) Payload { return New(CodeNotFound, entity+" not found") }

func Unauthorized() Payload { return New(CodeUnauthorized, "Unauthorized access") }

// Classify maps err onto a status code and payload.
func Classify(err error) (int, Payload) {
	var (
		bad       *gateway.BadRequestError
		gwMissing *gateway.NotFoundError
		qMissing  *quota.NotFoundError
		drMissing *driver.NotFoundError
	)
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest, BadRequest(bad.Params...)
	case errors.Is(err, quota.ErrInvalidLimit), errors.Is(err, quota.ErrIncompleteKey):
		return http.StatusBadRequest, BadRequest(err.Error())
	case errors.As(err, &gwMissing):
		return http.StatusNotFound, NotFound(gwMissing.Entity)
	case errors.As(err, &qMissing):
		return http.StatusNotFound, NotFound(qMissing.Entity)
	case errors.As(err, &drMissing):
		return http.StatusNotFound, NotFound(drMissing.Entity)
	case errors.Is(err, driver.ErrRateLimited):
		return http.StatusTooManyRequests, RateLimited()
	default:
		return http.StatusInternalServerError, Internal()
	}
}

// Abort classifies err, logs it and aborts the request with the payload.
func Abort(c *gin.Context, logger *slog.Logger, err error) {
	status, p := Classify(err)
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.Log(c.Request.Context(), level, p.ErrorDetails[0].Message,
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
		"status_code", status,
		"error", err.Error(),
	)
	c.AbortWithStatusJSON(status, p)
}
