package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	"github.com/noah-isme/obe-attainment-api/internal/repository"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
)

// correctThreshold is the share of an item's maximum a student needs for the item to count as correct.
const correctThreshold = 0.5

type assessmentReader interface {
	FindByID(ctx context.Context, id int64) (*models.Assessment, error)
}

type sectionRosterReader interface {
	FindSection(ctx context.Context, id int64) (*models.Section, error)
	EnrolledStudents(ctx context.Context, sectionID int64, studentIDs []int64) (map[int64]bool, error)
}

type resultWriter interface {
	CreateBulk(ctx context.Context, results []*models.StudentAssessmentResult, replace bool) error
}

// BulkSubmitResult summarises a committed bulk submission.
type BulkSubmitResult struct {
	AssessmentID int64                            `json:"assessmentId"`
	SectionID    int64                            `json:"sectionId"`
	Count        int                              `json:"count"`
	Replaced     bool                             `json:"replaced"`
	Results      []models.StudentAssessmentResult `json:"results"`
}

// MarksService validates and persists bulk marks entry.
type MarksService struct {
	assessments assessmentReader
	roster      sectionRosterReader
	results     resultWriter
	cache       cacheInvalidator
	events      eventEmitter
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewMarksService constructs MarksService.
func NewMarksService(assessments assessmentReader, roster sectionRosterReader, results resultWriter, cache cacheInvalidator, events eventEmitter, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *MarksService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarksService{
		assessments: assessments,
		roster:      roster,
		results:     results,
		cache:       cache,
		events:      events,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// BulkSubmit records every student's marks for an assessment atomically.
// All violations are reported together and nothing is written when any exists.
func (s *MarksService) BulkSubmit(ctx context.Context, principal models.Principal, req dto.BulkMarksRequest) (*BulkSubmitResult, error) {
	if err := s.validator.Struct(req); err != nil {
		s.metrics.RecordMarksSubmission(SubmissionRejected, 0)
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marks payload")
	}

	assessment, err := s.assessments.FindByID(ctx, req.AssessmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return nil, appErrors.Internal(err, "failed to load assessment")
	}
	if assessment.Status == models.AssessmentStatusArchived {
		s.metrics.RecordMarksSubmission(SubmissionConflict, 0)
		return nil, appErrors.Clone(appErrors.ErrConflict, "assessment is archived")
	}
	section, err := s.roster.FindSection(ctx, req.SectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Internal(err, "failed to load section")
	}

	studentIDs := make([]int64, 0, len(req.Marks))
	for _, entry := range req.Marks {
		studentIDs = append(studentIDs, entry.StudentID)
	}
	enrolled, err := s.roster.EnrolledStudents(ctx, section.ID, studentIDs)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load section enrollments")
	}

	violations := collectViolations(assessment, section, req.Marks, enrolled)
	if len(violations) > 0 {
		s.metrics.RecordMarksSubmission(SubmissionRejected, 0)
		s.logger.Info("bulk marks rejected",
			zap.Int64("assessment_id", assessment.ID),
			zap.Int64("section_id", section.ID),
			zap.Int("violations", len(violations)))
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "marks submission rejected", violations)
	}

	results := buildResults(assessment, req.Marks)
	if err := s.results.CreateBulk(ctx, results, req.ReplaceExisting); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.metrics.RecordMarksSubmission(SubmissionConflict, 0)
			return nil, appErrors.Clone(appErrors.ErrConflict, "results already exist for one or more students")
		}
		s.metrics.RecordMarksSubmission(SubmissionFailed, 0)
		return nil, appErrors.Internal(err, "failed to store results")
	}

	s.metrics.RecordMarksSubmission(SubmissionAccepted, len(results))
	invalidateAttainment(ctx, s.cache, s.logger)
	if s.events != nil {
		s.events.Emit(ctx, EventResultsSubmitted, principal.UserID, map[string]interface{}{
			"assessmentId": assessment.ID,
			"sectionId":    section.ID,
			"studentIds":   studentIDs,
			"replaced":     req.ReplaceExisting,
		})
	}

	out := &BulkSubmitResult{
		AssessmentID: assessment.ID,
		SectionID:    section.ID,
		Count:        len(results),
		Replaced:     req.ReplaceExisting,
		Results:      make([]models.StudentAssessmentResult, 0, len(results)),
	}
	for _, result := range results {
		out.Results = append(out.Results, *result)
	}
	return out, nil
}

func collectViolations(assessment *models.Assessment, section *models.Section, marks []dto.StudentMarksInput, enrolled map[int64]bool) []string {
	var violations []string
	if section.CourseOfferingID != assessment.CourseOfferingID {
		violations = append(violations, fmt.Sprintf("section %d does not belong to the course offering of assessment %d", section.ID, assessment.ID))
	}

	items := make(map[int64]models.AssessmentItem, len(assessment.Items))
	for _, item := range assessment.Items {
		items[item.ID] = item
	}

	seenStudents := make(map[int64]bool, len(marks))
	for _, entry := range marks {
		if seenStudents[entry.StudentID] {
			violations = append(violations, fmt.Sprintf("student %d is listed more than once", entry.StudentID))
		}
		seenStudents[entry.StudentID] = true
		if !enrolled[entry.StudentID] {
			violations = append(violations, fmt.Sprintf("student %d is not enrolled in section %d", entry.StudentID, section.ID))
		}

		seenItems := make(map[int64]bool, len(entry.Items))
		for _, mark := range entry.Items {
			item, ok := items[mark.ItemID]
			if !ok {
				violations = append(violations, fmt.Sprintf("item %d of student %d does not belong to assessment %d", mark.ItemID, entry.StudentID, assessment.ID))
				continue
			}
			if seenItems[mark.ItemID] {
				violations = append(violations, fmt.Sprintf("item %d is submitted more than once for student %d", mark.ItemID, entry.StudentID))
			}
			seenItems[mark.ItemID] = true
			score := *mark.Marks
			if score < 0 {
				violations = append(violations, fmt.Sprintf("marks for item %d of student %d cannot be negative", mark.ItemID, entry.StudentID))
			}
			if score > item.Marks {
				violations = append(violations, fmt.Sprintf("marks %g for item %d of student %d exceed the maximum of %g", score, mark.ItemID, entry.StudentID, item.Marks))
			}
		}
	}
	return violations
}

// buildResults aggregates validated marks; the total always spans every item of the assessment.
// Percentage is stored unrounded.
func buildResults(assessment *models.Assessment, marks []dto.StudentMarksInput) []*models.StudentAssessmentResult {
	maxByItem := make(map[int64]float64, len(assessment.Items))
	for _, item := range assessment.Items {
		maxByItem[item.ID] = item.Marks
	}
	total := models.ItemMarksTotal(assessment.Items)

	results := make([]*models.StudentAssessmentResult, 0, len(marks))
	for _, entry := range marks {
		result := &models.StudentAssessmentResult{
			StudentID:    entry.StudentID,
			AssessmentID: assessment.ID,
			TotalMarks:   total,
			Status:       models.ResultStatusPending,
			Items:        make([]models.StudentAssessmentItemResult, 0, len(entry.Items)),
		}
		for _, mark := range entry.Items {
			maxMarks, obtained := maxByItem[mark.ItemID], *mark.Marks
			result.ObtainedMarks += obtained
			result.Items = append(result.Items, models.StudentAssessmentItemResult{
				ItemID:        mark.ItemID,
				ObtainedMarks: obtained,
				TotalMarks:    maxMarks,
				IsCorrect:     obtained >= correctThreshold*maxMarks,
			})
		}
		result.Percentage = Percentage(result.ObtainedMarks, total)
		results = append(results, result)
	}
	return results
}

// Percentage returns obtained/total*100, or 0 when total is not positive.
func Percentage(obtained, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return obtained / total * 100
}

func roundHalfEven2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
