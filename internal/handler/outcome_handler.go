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

type outcomeService interface {
	GetCLO(ctx context.Context, id int64) (*models.CLO, error)
	ListCLOs(ctx context.Context, courseID int64) ([]models.CLO, error)
	CreateCLO(ctx context.Context, req dto.CreateCLORequest) (*models.CLO, error)
	UpdateCLO(ctx context.Context, id int64, req dto.UpdateCLORequest) (*models.CLO, error)
	DeleteCLO(ctx context.Context, id int64) error
	GetPLO(ctx context.Context, id int64) (*models.PLO, error)
	ListPLOs(ctx context.Context, programID int64) ([]models.PLO, error)
	CreatePLO(ctx context.Context, req dto.CreatePLORequest) (*models.PLO, error)
	UpdatePLO(ctx context.Context, id int64, req dto.UpdatePLORequest) (*models.PLO, error)
	DeletePLO(ctx context.Context, id int64) error
}

// OutcomeHandler exposes CLO and PLO endpoints.
type OutcomeHandler struct {
	service outcomeService
}

// NewOutcomeHandler constructs an outcome handler.
func NewOutcomeHandler(svc outcomeService) *OutcomeHandler {
	return &OutcomeHandler{service: svc}
}

// ListCLOs godoc
// @Summary List course learning outcomes
// @Tags Outcomes
// @Produce json
// @Param courseId query int true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /clos [get]
func (h *OutcomeHandler) ListCLOs(c *gin.Context) {
	courseID, err := queryID(c, "courseId")
	if err != nil {
		response.Error(c, err)
		return
	}
	clos, err := h.service.ListCLOs(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clos)
}

// GetCLO godoc
// @Summary Get CLO by id
// @Tags Outcomes
// @Produce json
// @Param id path int true "CLO ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /clos/{id} [get]
func (h *OutcomeHandler) GetCLO(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	clo, err := h.service.GetCLO(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clo)
}

// CreateCLO godoc
// @Summary Create CLO
// @Tags Outcomes
// @Accept json
// @Produce json
// @Param payload body dto.CreateCLORequest true "CLO payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /clos [post]
func (h *OutcomeHandler) CreateCLO(c *gin.Context) {
	var req dto.CreateCLORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	clo, err := h.service.CreateCLO(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, clo)
}

// UpdateCLO godoc
// @Summary Update CLO
// @Tags Outcomes
// @Accept json
// @Produce json
// @Param id path int true "CLO ID"
// @Param payload body dto.UpdateCLORequest true "CLO payload"
// @Success 200 {object} response.Envelope
// @Router /clos/{id} [put]
func (h *OutcomeHandler) UpdateCLO(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateCLORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	clo, err := h.service.UpdateCLO(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clo)
}

// DeleteCLO godoc
// @Summary Delete CLO
// @Tags Outcomes
// @Param id path int true "CLO ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /clos/{id} [delete]
func (h *OutcomeHandler) DeleteCLO(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.DeleteCLO(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListPLOs godoc
// @Summary List program learning outcomes
// @Tags Outcomes
// @Produce json
// @Param programId query int true "Program ID"
// @Success 200 {object} response.Envelope
// @Router /plos [get]
func (h *OutcomeHandler) ListPLOs(c *gin.Context) {
	programID, err := queryID(c, "programId")
	if err != nil {
		response.Error(c, err)
		return
	}
	plos, err := h.service.ListPLOs(c.Request.Context(), programID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plos)
}

// GetPLO godoc
// @Summary Get PLO by id
// @Tags Outcomes
// @Produce json
// @Param id path int true "PLO ID"
// @Success 200 {object} response.Envelope
// @Router /plos/{id} [get]
func (h *OutcomeHandler) GetPLO(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	plo, err := h.service.GetPLO(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plo)
}

// CreatePLO godoc
// @Summary Create PLO
// @Tags Outcomes
// @Accept json
// @Produce json
// @Param payload body dto.CreatePLORequest true "PLO payload"
// @Success 201 {object} response.Envelope
// @Router /plos [post]
func (h *OutcomeHandler) CreatePLO(c *gin.Context) {
	var req dto.CreatePLORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	plo, err := h.service.CreatePLO(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, plo)
}

// UpdatePLO godoc
// @Summary Update PLO
// @Tags Outcomes
// @Accept json
// @Produce json
// @Param id path int true "PLO ID"
// @Param payload body dto.UpdatePLORequest true "PLO payload"
// @Success 200 {object} response.Envelope
// @Router /plos/{id} [put]
func (h *OutcomeHandler) UpdatePLO(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdatePLORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	plo, err := h.service.UpdatePLO(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plo)
}

// DeletePLO godoc
// @Summary Delete PLO
// @Tags Outcomes
// @Param id path int true "PLO ID"
// @Success 204
// @Router /plos/{id} [delete]
func (h *OutcomeHandler) DeletePLO(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.DeletePLO(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
