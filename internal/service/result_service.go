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

type resultRepository interface {
	FindByID(ctx context.Context, id int64) (*models.StudentAssessmentResult, error)
	List(ctx context.Context, filter models.ResultFilter) ([]models.StudentAssessmentResult, error)
	Update(ctx context.Context, id int64, update models.ResultUpdate) error
	Delete(ctx context.Context, id int64) (bool, error)
}

// ResultService moderates stored results.
type ResultService struct {
	results   resultRepository
	cache     cacheInvalidator
	events    eventEmitter
	strict    bool
	validator *validator.Validate
	logger    *zap.Logger
}

// NewResultService constructs ResultService. strict enables the pending -> approved|rejected state machine.
func NewResultService(results resultRepository, cache cacheInvalidator, events eventEmitter, strict bool, validate *validator.Validate, logger *zap.Logger) *ResultService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultService{results: results, cache: cache, events: events, strict: strict, validator: validate, logger: logger}
}

// Get returns a result with its item results.
func (s *ResultService) Get(ctx context.Context, id int64) (*models.StudentAssessmentResult, error) {
	result, err := s.results.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "result not found")
		}
		return nil, appErrors.Internal(err, "failed to load result")
	}
	return result, nil
}

// List returns the results of an assessment, optionally narrowed to a section.
func (s *ResultService) List(ctx context.Context, filter models.ResultFilter) ([]models.StudentAssessmentResult, error) {
	if filter.AssessmentID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "assessmentId is required")
	}
	results, err := s.results.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list results")
	}
	return results, nil
}

// UpdateStatus applies a moderation decision and/or remarks.
func (s *ResultService) UpdateStatus(ctx context.Context, actor models.Principal, id int64, req dto.UpdateResultRequest) (*models.StudentAssessmentResult, error) {
	if req.Status == nil && req.Remarks == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status or remarks is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid result update")
	}

	update := models.ResultUpdate{Remarks: req.Remarks}
	if req.Status != nil {
		status := models.ResultStatus(strings.ToLower(strings.TrimSpace(*req.Status)))
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "status must be one of pending, approved, rejected")
		}
		update.Status = &status
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.strict && update.Status != nil {
		if err := checkTransition(current.Status, *update.Status); err != nil {
			return nil, err
		}
	}

	if err := s.results.Update(ctx, id, update); err != nil {
		return nil, appErrors.Internal(err, "failed to update result")
	}
	if update.Status != nil {
		current.Status = *update.Status
	}
	if update.Remarks != nil {
		current.Remarks = update.Remarks
	}

	if s.events != nil {
		s.events.Emit(ctx, EventResultModerated, actor.UserID, map[string]interface{}{
			"resultId":     current.ID,
			"assessmentId": current.AssessmentID,
			"studentId":    current.StudentID,
			"status":       current.Status,
		})
	}
	return current, nil
}

// Delete removes a result so marks can be entered again.
func (s *ResultService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.results.Delete(ctx, id)
	if err != nil {
		return appErrors.Internal(err, "failed to delete result")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "result not found")
	}
	invalidateAttainment(ctx, s.cache, s.logger)
	return nil
}

// checkTransition allows pending -> approved|rejected and re-asserting the current status.
func checkTransition(from, to models.ResultStatus) error {
	if from == to {
		return nil
	}
	if from == models.ResultStatusPending && (to == models.ResultStatusApproved || to == models.ResultStatusRejected) {
		return nil
	}
	return appErrors.WithDetails(appErrors.ErrConflict, "result status transition not allowed",
		map[string]string{"from": string(from), "to": string(to)})
}
