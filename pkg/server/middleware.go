package server

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pario-ai/aigateway/pkg/admission"
	"github.com/pario-ai/aigateway/pkg/apierror"
	"github.com/pario-ai/aigateway/pkg/logging"
)

const (
	correlationHeader = "X-Correlation-ID"
	userHeader        = "X-User-Id"
	adminHeader       = "X-Admin-Auth"
)

var clientHeaders = []string{userHeader, admission.ClientHeader}

func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		s.logger.Error("panic recovered",
			"correlation_id", logging.CorrelationID(c.Request.Context()),
			"path", c.Request.URL.Path,
			"error", fmt.Sprint(recovered),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.Internal())
	})
}

// correlationID propagates X-Correlation-ID, generating one when absent.
func correlationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(correlationHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Request = c.Request.WithContext(logging.WithCorrelationID(c.Request.Context(), id))
		c.Header(correlationHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	health := s.cfg.PathPrefix + "/health"
	return func(c *gin.Context) {
		if c.Request.URL.Path == health {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		latency := float64(time.Since(start).Microseconds()) / 1000
		s.logger.Info("http request",
			"correlation_id", logging.CorrelationID(c.Request.Context()),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status_code", c.Writer.Status(),
			"latency_ms", latency,
			"client_ip", c.ClientIP(),
		)
	}
}

// requireHeaders rejects requests missing any of names.
func requireHeaders(names ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var missing []string
		for _, n := range names {
			if c.GetHeader(n) == "" {
				missing = append(missing, fmt.Sprintf("The %s header field is required", n))
			}
		}
		if len(missing) > 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, apierror.BadRequest(missing...))
			return
		}
		c.Next()
	}
}

// adminAuth requires X-Admin-Auth to equal token. An empty token disables
// the check.
func adminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got := c.GetHeader(adminHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.Unauthorized())
			return
		}
		c.Next()
	}
}
