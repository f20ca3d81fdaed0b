package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pario-ai/aigateway/pkg/apierror"
	"github.com/pario-ai/aigateway/pkg/gateway"
	"github.com/pario-ai/aigateway/pkg/models"
	"github.com/pario-ai/aigateway/pkg/quota"
)

type createQuotaRequest struct {
	Unit    models.QuotaUnit `json:"unit" binding:"required,oneof=tokens"`
	Limit   int64            `json:"limit" binding:"required,gt=0"`
	UseCase struct {
		ID   string `json:"id" binding:"required"`
		Name string `json:"name"`
	} `json:"use_case"`
	Provider struct {
		Name  string `json:"name" binding:"required"`
		Model struct {
			Name string `json:"name" binding:"required"`
		} `json:"model"`
	} `json:"provider"`
}

type updateQuotaRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (s *Server) handleCreateQuota(c *gin.Context) {
	var req createQuotaRequest
	if !s.bind(c, &req) {
		return
	}
	q, err := s.quotas.Create(c.Request.Context(), quota.CreateRequest{
		Unit:    req.Unit,
		Limit:   req.Limit,
		UseCase: models.UseCase{ID: strings.TrimSpace(req.UseCase.ID), Name: strings.TrimSpace(req.UseCase.Name)},
		Provider: models.ProviderRef{
			Name:  strings.TrimSpace(req.Provider.Name),
			Model: models.ModelRef{Name: strings.TrimSpace(req.Provider.Model.Name)},
		},
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

func (s *Server) handleRetrieveQuotas(c *gin.Context) {
	key, enabled, ok := s.quotaQuery(c)
	if !ok {
		return
	}
	qs, err := s.quotas.Retrieve(c.Request.Context(), key, enabled)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DataList[models.Quota]{Data: qs})
}

func (s *Server) handleUpdateQuota(c *gin.Context) {
	var req updateQuotaRequest
	if !s.bind(c, &req) {
		return
	}
	key, match, ok := s.quotaQuery(c)
	if !ok {
		return
	}
	q, err := s.quotas.Update(c.Request.Context(), key, match, *req.Enabled)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// quotaQuery parses useCaseId, providerName, modelName and the optional
// enabled filter.
func (s *Server) quotaQuery(c *gin.Context) (quota.Key, *bool, bool) {
	useCase := c.Query("useCaseId")
	if useCase == "" || strings.ContainsAny(useCase, " \t\r\n") {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			apierror.BadRequest("useCaseId must be a non-empty value without whitespace"))
		return quota.Key{}, nil, false
	}
	provider, model := c.Query("providerName"), c.Query("modelName")
	if err := gateway.ValidateProviderName(s.gateway.Catalog(), provider); err != nil {
		s.fail(c, err)
		return quota.Key{}, nil, false
	}
	if err := gateway.ValidateModelName(s.gateway.Catalog(), model); err != nil {
		s.fail(c, err)
		return quota.Key{}, nil, false
	}

	var enabled *bool
	if raw, ok := c.GetQuery("enabled"); ok {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				apierror.BadRequest(fmt.Sprintf("enabled must be a boolean, got %q", raw)))
			return quota.Key{}, nil, false
		}
		enabled = &v
	}
	return quota.Key{UseCaseID: useCase, ProviderName: provider, ModelName: model}, enabled, true
}
