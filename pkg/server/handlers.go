package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pario-ai/aigateway/pkg/apierror"
	"github.com/pario-ai/aigateway/pkg/models"
)

func (s *Server) fail(c *gin.Context, err error) {
	apierror.Abort(c, s.logger, err)
}

// bind decodes the JSON body into v, answering 400 on failure.
func (s *Server) bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		s.logger.Warn("invalid request body", "path", c.Request.URL.Path, "error", err.Error())
		c.AbortWithStatusJSON(http.StatusBadRequest, apierror.BadRequest(err.Error()))
		return false
	}
	return true
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleChat(c *gin.Context) {
	var req models.ChatRequest
	if !s.bind(c, &req) {
		return
	}
	resp, err := s.gateway.Chat(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// handleChatStream writes one SSE data frame per normalized event.
func (s *Server) handleChatStream(c *gin.Context) {
	var req models.ChatRequest
	if !s.bind(c, &req) {
		return
	}
	stream, err := s.gateway.ChatStream(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	defer func() { _ = stream.Close() }()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	ctx := c.Request.Context()
	for ctx.Err() == nil {
		ev, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			s.logger.Error("chat stream aborted", "path", c.Request.URL.Path, "error", err.Error())
			return
		}
		data, err := json.Marshal(ev)
		if err != nil {
			s.logger.Error("encode stream event", "error", err.Error())
			return
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
			return
		}
		c.Writer.Flush()
	}
}

func (s *Server) handleEmbeddings(c *gin.Context) {
	var req models.EmbeddingRequest
	if !s.bind(c, &req) {
		return
	}
	resp, err := s.gateway.Embed(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSimilarity(c *gin.Context) {
	var req models.SimilarityRequest
	if !s.bind(c, &req) {
		return
	}
	resp, err := s.gateway.Similarity(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleImages(c *gin.Context) {
	var req models.ImageRequest
	if !s.bind(c, &req) {
		return
	}
	resp, err := s.gateway.GenerateImage(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleCreateFile(c *gin.Context) {
	var req models.FileRequest
	if !s.bind(c, &req) {
		return
	}
	resp, err := s.gateway.CreateFile(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleGetFile(c *gin.Context) {
	resp, err := s.gateway.GetFile(c.Request.Context(),
		c.Query("providerName"), c.Query("modelName"), c.Param("fileId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleCreateBatch(c *gin.Context) {
	var req models.BatchRequest
	if !s.bind(c, &req) {
		return
	}
	resp, err := s.gateway.CreateBatch(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleGetBatch(c *gin.Context) {
	resp, err := s.gateway.GetBatch(c.Request.Context(),
		c.Query("providerName"), c.Query("modelName"), c.Param("batchId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleProviders(c *gin.Context) {
	c.JSON(http.StatusOK, models.DataList[models.Provider]{Data: s.gateway.Providers()})
}
