package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
	"github.com/noah-isme/obe-attainment-api/pkg/export"
)

var attainmentHeaders = []string{"PLO", "Description", "Attainment (%)", "Contributing CLOs"}

type ploAttainmentLister interface {
	ListPLOAttainments(ctx context.Context, programID, semesterID int64) ([]models.PLOAttainment, error)
}

// ExportFile is a rendered report ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders attainment reports.
type ExportService struct {
	attainment ploAttainmentLister
	renderers  map[string]export.Renderer
	logger     *zap.Logger
	now        func() time.Time
}

// NewExportService constructs ExportService with CSV, PDF and XLSX renderers.
func NewExportService(attainment ploAttainmentLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		attainment: attainment,
		renderers: map[string]export.Renderer{
			"csv":  export.NewCSVExporter(),
			"pdf":  export.NewPDFExporter(),
			"xlsx": export.NewXLSXExporter(),
		},
		logger: logger,
		now:    time.Now,
	}
}

// ExportPLOAttainment renders the PLO attainment table of a program and semester.
func (s *ExportService) ExportPLOAttainment(ctx context.Context, programID, semesterID int64, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be one of csv, pdf, xlsx")
	}

	attainments, err := s.attainment.ListPLOAttainments(ctx, programID, semesterID)
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("PLO attainment - program %d, semester %d", programID, semesterID)
	payload, err := renderer.Render(AttainmentDataset(attainments), title)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render attainment report")
	}
	s.logger.Info("attainment report rendered",
		zap.Int64("program_id", programID),
		zap.Int64("semester_id", semesterID),
		zap.String("format", format),
		zap.Int("bytes", len(payload)))

	return &ExportFile{
		Filename:    fmt.Sprintf("plo-attainment-%d-%d-%s.%s", programID, semesterID, s.now().UTC().Format("20060102"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Payload:     payload,
	}, nil
}

// AttainmentDataset flattens PLO attainments into export rows.
func AttainmentDataset(attainments []models.PLOAttainment) export.Dataset {
	rows := make([]map[string]string, 0, len(attainments))
	for _, a := range attainments {
		clos := make([]string, 0, len(a.ContributingCLOs))
		for _, c := range a.ContributingCLOs {
			clos = append(clos, fmt.Sprintf("%s (w=%s, %s%%)", c.CLOCode, strconv.FormatFloat(c.Weight, 'f', -1, 64), strconv.FormatFloat(c.Attainment, 'f', 2, 64)))
		}
		rows = append(rows, map[string]string{
			attainmentHeaders[0]: a.PLOCode,
			attainmentHeaders[1]: a.Description,
			attainmentHeaders[2]: strconv.FormatFloat(a.Attainment, 'f', 2, 64),
			attainmentHeaders[3]: strings.Join(clos, "; "),
		})
	}
	return export.Dataset{Headers: attainmentHeaders, Rows: rows}
}
