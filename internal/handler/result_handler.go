package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	"github.com/noah-isme/obe-attainment-api/internal/service"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
	"github.com/noah-isme/obe-attainment-api/pkg/response"
)

type marksSubmitter interface {
	BulkSubmit(ctx context.Context, principal models.Principal, req dto.BulkMarksRequest) (*service.BulkSubmitResult, error)
}

type resultService interface {
	Get(ctx context.Context, id int64) (*models.StudentAssessmentResult, error)
	List(ctx context.Context, filter models.ResultFilter) ([]models.StudentAssessmentResult, error)
	UpdateStatus(ctx context.Context, actor models.Principal, id int64, req dto.UpdateResultRequest) (*models.StudentAssessmentResult, error)
	Delete(ctx context.Context, id int64) error
}

type resultAnalyticsService interface {
	Analytics(ctx context.Context, sectionID, assessmentID int64) (*models.ResultAnalytics, error)
}

// ResultHandler exposes marks submission, moderation and result analytics.
type ResultHandler struct {
	marks     marksSubmitter
	results   resultService
	analytics resultAnalyticsService
}

// NewResultHandler constructs a result handler.
func NewResultHandler(marks marksSubmitter, results resultService, analytics resultAnalyticsService) *ResultHandler {
	return &ResultHandler{marks: marks, results: results, analytics: analytics}
}

// BulkSubmit godoc
// @Summary Submit marks for a section
// @Description Validates every row before writing; all results are stored in one transaction or none are.
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body dto.BulkMarksRequest true "Marks payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assessment-results/bulk [post]
func (h *ResultHandler) BulkSubmit(c *gin.Context) {
	principal, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.BulkMarksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.marks.BulkSubmit(c.Request.Context(), principal, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result.Results, map[string]interface{}{
		"count":    result.Count,
		"replaced": result.Replaced,
	})
}

// List godoc
// @Summary List results of an assessment
// @Tags Results
// @Produce json
// @Param assessmentId query int true "Assessment ID"
// @Param sectionId query int false "Section ID"
// @Param studentId query int false "Student ID"
// @Success 200 {object} response.Envelope
// @Router /assessment-results [get]
func (h *ResultHandler) List(c *gin.Context) {
	var filter models.ResultFilter
	var err error
	if filter.AssessmentID, err = queryID(c, "assessmentId"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.SectionID, err = queryID(c, "sectionId"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.StudentID, err = queryID(c, "studentId"); err != nil {
		response.Error(c, err)
		return
	}
	results, err := h.results.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results)
}

// Analytics godoc
// @Summary Result analytics for a section and assessment
// @Tags Results
// @Produce json
// @Param sectionId query int true "Section ID"
// @Param assessmentId query int true "Assessment ID"
// @Success 200 {object} response.Envelope
// @Router /assessment-results/analytics [get]
func (h *ResultHandler) Analytics(c *gin.Context) {
	sectionID, err := requiredQueryID(c, "sectionId")
	if err != nil {
		response.Error(c, err)
		return
	}
	assessmentID, err := requiredQueryID(c, "assessmentId")
	if err != nil {
		response.Error(c, err)
		return
	}
	analytics, err := h.analytics.Analytics(c.Request.Context(), sectionID, assessmentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analytics)
}

// Get godoc
// @Summary Get result with item scores
// @Tags Results
// @Produce json
// @Param id path int true "Result ID"
// @Success 200 {object} response.Envelope
// @Router /assessment-results/{id} [get]
func (h *ResultHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.results.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Update godoc
// @Summary Moderate a result
// @Tags Results
// @Accept json
// @Produce json
// @Param id path int true "Result ID"
// @Param payload body dto.UpdateResultRequest true "Moderation payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assessment-results/{id} [patch]
func (h *ResultHandler) Update(c *gin.Context) {
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
	var req dto.UpdateResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.results.UpdateStatus(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Delete godoc
// @Summary Delete a result
// @Tags Results
// @Param id path int true "Result ID"
// @Success 204
// @Router /assessment-results/{id} [delete]
func (h *ResultHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.results.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
