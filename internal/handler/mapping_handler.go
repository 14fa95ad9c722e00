package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
	"github.com/noah-isme/obe-attainment-api/pkg/response"
)

type mappingService interface {
	List(ctx context.Context, filter models.MappingFilter) ([]models.CLOPLOMapping, error)
	Create(ctx context.Context, actor models.Principal, req dto.CreateMappingRequest) (*models.CLOPLOMapping, error)
	UpdateWeight(ctx context.Context, actor models.Principal, id int64, req dto.UpdateMappingRequest) (*models.CLOPLOMapping, error)
	Delete(ctx context.Context, actor models.Principal, id int64) error
}

// MappingHandler exposes CLO to PLO mapping endpoints.
type MappingHandler struct {
	service mappingService
}

// NewMappingHandler constructs a mapping handler.
func NewMappingHandler(svc mappingService) *MappingHandler {
	return &MappingHandler{service: svc}
}

// List godoc
// @Summary List CLO-PLO mappings
// @Tags Mappings
// @Produce json
// @Param cloId query int false "CLO ID"
// @Param ploId query int false "PLO ID"
// @Success 200 {object} response.Envelope
// @Router /clo-plo-mappings [get]
func (h *MappingHandler) List(c *gin.Context) {
	var filter models.MappingFilter
	var err error
	if filter.CLOID, err = queryID(c, "cloId"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.PLOID, err = queryID(c, "ploId"); err != nil {
		response.Error(c, err)
		return
	}
	mappings, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mappings)
}

// Create godoc
// @Summary Map a CLO to a PLO
// @Tags Mappings
// @Accept json
// @Produce json
// @Param payload body dto.CreateMappingRequest true "Mapping payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /clo-plo-mappings [post]
func (h *MappingHandler) Create(c *gin.Context) {
	actor, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	mapping, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		mappingError(c, err)
		return
	}
	response.Created(c, mapping)
}

// Update godoc
// @Summary Change a mapping weight
// @Tags Mappings
// @Accept json
// @Produce json
// @Param id path int true "Mapping ID"
// @Param payload body dto.UpdateMappingRequest true "Weight payload"
// @Success 200 {object} response.Envelope
// @Router /clo-plo-mappings/{id} [put]
func (h *MappingHandler) Update(c *gin.Context) {
	actor, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	mapping, err := h.service.UpdateWeight(c.Request.Context(), actor, id, req)
	if err != nil {
		mappingError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, mapping)
}

// Delete godoc
// @Summary Remove a mapping
// @Tags Mappings
// @Param id path int true "Mapping ID"
// @Success 200 {object} response.Envelope
// @Router /clo-plo-mappings/{id} [delete]
func (h *MappingHandler) Delete(c *gin.Context) {
	actor, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		mappingError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, nil)
}

// mappingError reports duplicate mappings as bad requests, as portal clients expect.
func mappingError(c *gin.Context, err error) {
	if appErrors.IsCode(err, appErrors.ErrConflict.Code) {
		response.ErrorWithStatus(c, http.StatusBadRequest, err)
		return
	}
	response.Error(c, err)
}
