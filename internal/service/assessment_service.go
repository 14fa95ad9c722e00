package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
)

type assessmentRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Assessment, error)
	ListByOffering(ctx context.Context, courseOfferingID int64) ([]models.Assessment, error)
	Create(ctx context.Context, assessment *models.Assessment) error
	UpdateStatus(ctx context.Context, id int64, status models.AssessmentStatus) error
	AddItem(ctx context.Context, item *models.AssessmentItem) error
}

type teachingScopeReader interface {
	FindCourseOffering(ctx context.Context, id int64) (*models.CourseOffering, error)
	FindFacultyByUserID(ctx context.Context, userID int64) (*models.Faculty, error)
}

// AssessmentService manages assessment definitions and their CLO-tagged items.
type AssessmentService struct {
	assessments assessmentRepository
	scope       teachingScopeReader
	clos        cloFinder
	cache       cacheInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAssessmentService constructs AssessmentService.
func NewAssessmentService(assessments assessmentRepository, scope teachingScopeReader, clos cloFinder, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *AssessmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentService{assessments: assessments, scope: scope, clos: clos, cache: cache, validator: validate, logger: logger}
}

// Create defines an assessment owned by the calling faculty member.
func (s *AssessmentService) Create(ctx context.Context, principal models.Principal, req dto.CreateAssessmentRequest) (*models.Assessment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}
	assessmentType, ok := models.NormalizeAssessmentType(req.Type)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported assessment type "+req.Type)
	}
	if _, err := s.scope.FindCourseOffering(ctx, req.CourseOfferingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course offering not found")
		}
		return nil, appErrors.Internal(err, "failed to load course offering")
	}
	faculty, err := s.scope.FindFacultyByUserID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty record not found for user")
		}
		return nil, appErrors.Internal(err, "failed to load faculty record")
	}

	assessment := &models.Assessment{
		CourseOfferingID: req.CourseOfferingID,
		FacultyID:        faculty.ID,
		Title:            strings.TrimSpace(req.Title),
		Type:             assessmentType,
		TotalMarks:       *req.TotalMarks,
		DueDate:          req.DueDate,
		Weightage:        *req.Weightage,
		Instructions:     req.Instructions,
		Status:           models.AssessmentStatusActive,
	}
	if err := s.assessments.Create(ctx, assessment); err != nil {
		return nil, appErrors.Internal(err, "failed to create assessment")
	}
	s.logger.Info("assessment created",
		zap.Int64("assessment_id", assessment.ID),
		zap.Int64("course_offering_id", assessment.CourseOfferingID),
		zap.String("type", string(assessment.Type)))
	return assessment, nil
}

// Get returns an assessment with its ordered items.
func (s *AssessmentService) Get(ctx context.Context, id int64) (*models.Assessment, error) {
	assessment, err := s.assessments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return nil, appErrors.Internal(err, "failed to load assessment")
	}
	return assessment, nil
}

// List returns the assessments of a course offering.
func (s *AssessmentService) List(ctx context.Context, courseOfferingID int64) ([]models.Assessment, error) {
	if courseOfferingID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "courseOfferingId is required")
	}
	assessments, err := s.assessments.ListByOffering(ctx, courseOfferingID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list assessments")
	}
	return assessments, nil
}

// Archive closes an assessment to further items and marks.
func (s *AssessmentService) Archive(ctx context.Context, id int64) (*models.Assessment, error) {
	assessment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if assessment.Status == models.AssessmentStatusArchived {
		return assessment, nil
	}
	if err := s.assessments.UpdateStatus(ctx, id, models.AssessmentStatusArchived); err != nil {
		return nil, appErrors.Internal(err, "failed to archive assessment")
	}
	assessment.Status = models.AssessmentStatusArchived
	return assessment, nil
}

// AddItem appends a question tied to one CLO.
func (s *AssessmentService) AddItem(ctx context.Context, assessmentID int64, req dto.AddAssessmentItemRequest) (*models.AssessmentItem, error) {
	if !req.CLOID.Valid {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cloId must be a positive integer")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment item payload")
	}
	assessment, err := s.Get(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if assessment.Status == models.AssessmentStatusArchived {
		return nil, appErrors.Clone(appErrors.ErrConflict, "assessment is archived")
	}
	clo, err := s.clos.FindByID(ctx, req.CLOID.Value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "clo not found")
		}
		return nil, appErrors.Internal(err, "failed to load clo")
	}
	offering, err := s.scope.FindCourseOffering(ctx, assessment.CourseOfferingID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load course offering")
	}
	if clo.CourseID != offering.CourseID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "clo does not belong to the course of this assessment")
	}

	item := &models.AssessmentItem{
		AssessmentID: assessmentID,
		QuestionNo:   strings.TrimSpace(req.QuestionNo),
		Description:  req.Description,
		Marks:        req.Marks,
		CLOID:        req.CLOID.Value,
	}
	if err := s.assessments.AddItem(ctx, item); err != nil {
		return nil, appErrors.Internal(err, "failed to add assessment item")
	}
	invalidateAttainment(ctx, s.cache, s.logger)
	return item, nil
}
