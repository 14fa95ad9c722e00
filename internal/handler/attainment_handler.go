package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/obe-attainment-api/internal/models"
	"github.com/noah-isme/obe-attainment-api/internal/service"
	"github.com/noah-isme/obe-attainment-api/pkg/response"
)

type attainmentService interface {
	CLOAttainment(ctx context.Context, cloID, courseOfferingID int64) (*models.CLOAttainment, error)
	PLOAttainment(ctx context.Context, ploID, semesterID int64) (*models.PLOAttainment, error)
	ListPLOAttainments(ctx context.Context, programID, semesterID int64) ([]models.PLOAttainment, error)
}

type attainmentExporter interface {
	ExportPLOAttainment(ctx context.Context, programID, semesterID int64, format string) (*service.ExportFile, error)
}

// AttainmentHandler exposes attainment calculations and reports.
type AttainmentHandler struct {
	attainment attainmentService
	exporter   attainmentExporter
}

// NewAttainmentHandler constructs an attainment handler.
func NewAttainmentHandler(attainment attainmentService, exporter attainmentExporter) *AttainmentHandler {
	return &AttainmentHandler{attainment: attainment, exporter: exporter}
}

// CLO godoc
// @Summary CLO attainment within a course offering
// @Tags Attainment
// @Produce json
// @Param cloId query int true "CLO ID"
// @Param courseOfferingId query int true "Course offering ID"
// @Success 200 {object} response.Envelope
// @Router /clo-attainments [get]
func (h *AttainmentHandler) CLO(c *gin.Context) {
	cloID, err := requiredQueryID(c, "cloId")
	if err != nil {
		response.Error(c, err)
		return
	}
	offeringID, err := requiredQueryID(c, "courseOfferingId")
	if err != nil {
		response.Error(c, err)
		return
	}
	attainment, err := h.attainment.CLOAttainment(c.Request.Context(), cloID, offeringID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, attainment)
}

// ListPLO godoc
// @Summary PLO attainments of a program for a semester
// @Tags Attainment
// @Produce json
// @Param programId query int true "Program ID"
// @Param semesterId query int true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /plo-attainments [get]
func (h *AttainmentHandler) ListPLO(c *gin.Context) {
	programID, err := queryID(c, "programId")
	if err != nil {
		response.Error(c, err)
		return
	}
	semesterID, err := queryID(c, "semesterId")
	if err != nil {
		response.Error(c, err)
		return
	}
	attainments, err := h.attainment.ListPLOAttainments(c.Request.Context(), programID, semesterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, attainments)
}

// PLO godoc
// @Summary Attainment of one PLO for a semester
// @Tags Attainment
// @Produce json
// @Param ploId path int true "PLO ID"
// @Param semesterId query int true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /plo-attainments/{ploId} [get]
func (h *AttainmentHandler) PLO(c *gin.Context) {
	ploID, err := pathID(c, "ploId")
	if err != nil {
		response.Error(c, err)
		return
	}
	semesterID, err := requiredQueryID(c, "semesterId")
	if err != nil {
		response.Error(c, err)
		return
	}
	attainment, err := h.attainment.PLOAttainment(c.Request.Context(), ploID, semesterID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, attainment)
}

// Export godoc
// @Summary Download the PLO attainment report
// @Tags Attainment
// @Produce application/octet-stream
// @Param programId query int true "Program ID"
// @Param semesterId query int true "Semester ID"
// @Param format query string false "csv, pdf or xlsx"
// @Success 200 {file} binary
// @Router /plo-attainments/export [get]
func (h *AttainmentHandler) Export(c *gin.Context) {
	programID, err := queryID(c, "programId")
	if err != nil {
		response.Error(c, err)
		return
	}
	semesterID, err := queryID(c, "semesterId")
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exporter.ExportPLOAttainment(c.Request.Context(), programID, semesterID, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Binary(c, file.Filename, file.ContentType, file.Payload)
}
