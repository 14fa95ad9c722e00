package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	"github.com/noah-isme/obe-attainment-api/internal/repository"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
)

var cloCodePattern = regexp.MustCompile(`^CLO\d+$`)

type cloRepository interface {
	FindByID(ctx context.Context, id int64) (*models.CLO, error)
	ListByCourse(ctx context.Context, courseID int64) ([]models.CLO, error)
	CodeExists(ctx context.Context, courseID int64, code string, excludeID int64) (bool, error)
	Create(ctx context.Context, clo *models.CLO) error
	Update(ctx context.Context, clo *models.CLO) error
	Delete(ctx context.Context, id int64) error
	CountReferences(ctx context.Context, id int64) (int, int, error)
}

type ploRepository interface {
	FindByID(ctx context.Context, id int64) (*models.PLO, error)
	ListByProgram(ctx context.Context, programID int64) ([]models.PLO, error)
	CodeExists(ctx context.Context, programID int64, code string, excludeID int64) (bool, error)
	Create(ctx context.Context, plo *models.PLO) error
	Update(ctx context.Context, plo *models.PLO) error
	Delete(ctx context.Context, id int64) error
	CountMappings(ctx context.Context, id int64) (int, error)
}

type outcomeScopeReader interface {
	CourseExists(ctx context.Context, id int64) (bool, error)
	ProgramExists(ctx context.Context, id int64) (bool, error)
}

// OutcomeService maintains the CLO and PLO registry.
type OutcomeService struct {
	clos      cloRepository
	plos      ploRepository
	scope     outcomeScopeReader
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOutcomeService constructs OutcomeService. Writes that change what attainment
// reports display drop cached attainment payloads.
func NewOutcomeService(clos cloRepository, plos ploRepository, scope outcomeScopeReader, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *OutcomeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	validate.RegisterValidation("bloom_level", func(fl validator.FieldLevel) bool { //nolint:errcheck
		return models.BloomLevel(fl.Field().String()).Valid()
	})
	return &OutcomeService{clos: clos, plos: plos, scope: scope, cache: cache, validator: validate, logger: logger}
}

// NormalizeCLOCode upper-cases and trims a CLO code and checks the CLO<number> shape.
func NormalizeCLOCode(raw string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	return code, cloCodePattern.MatchString(code)
}

// GetCLO returns a CLO by id.
func (s *OutcomeService) GetCLO(ctx context.Context, id int64) (*models.CLO, error) {
	clo, err := s.clos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "clo not found")
		}
		return nil, appErrors.Internal(err, "failed to load clo")
	}
	return clo, nil
}

// ListCLOs returns the CLOs of a course.
func (s *OutcomeService) ListCLOs(ctx context.Context, courseID int64) ([]models.CLO, error) {
	if courseID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "courseId is required")
	}
	clos, err := s.clos.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list clos")
	}
	return clos, nil
}

// CreateCLO registers a CLO under a course.
func (s *OutcomeService) CreateCLO(ctx context.Context, req dto.CreateCLORequest) (*models.CLO, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid clo payload")
	}
	code, ok := NormalizeCLOCode(req.Code)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "clo code must match CLO<number>")
	}
	exists, err := s.scope.CourseExists(ctx, req.CourseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load course")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course not found")
	}
	if err := s.ensureUniqueCLO(ctx, req.CourseID, code, 0); err != nil {
		return nil, err
	}

	clo := &models.CLO{
		CourseID:    req.CourseID,
		Code:        code,
		Description: strings.TrimSpace(req.Description),
		BloomLevel:  req.BloomLevel,
		Status:      models.OutcomeStatusActive,
	}
	if err := s.clos.Create(ctx, clo); err != nil {
		return nil, outcomeWriteError(err, fmt.Sprintf("clo %s already exists for course", code), "failed to create clo")
	}
	return clo, nil
}

// UpdateCLO edits a CLO; the duplicate check skips the CLO itself.
func (s *OutcomeService) UpdateCLO(ctx context.Context, id int64, req dto.UpdateCLORequest) (*models.CLO, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid clo payload")
	}
	code, ok := NormalizeCLOCode(req.Code)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "clo code must match CLO<number>")
	}
	clo, err := s.GetCLO(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniqueCLO(ctx, clo.CourseID, code, id); err != nil {
		return nil, err
	}

	clo.Code = code
	clo.Description = strings.TrimSpace(req.Description)
	clo.BloomLevel = req.BloomLevel
	if req.Status != nil {
		clo.Status = *req.Status
	}
	if err := s.clos.Update(ctx, clo); err != nil {
		return nil, outcomeWriteError(err, fmt.Sprintf("clo %s already exists for course", code), "failed to update clo")
	}
	invalidateAttainment(ctx, s.cache, s.logger)
	return clo, nil
}

// DeleteCLO removes a CLO that is neither mapped nor assessed.
func (s *OutcomeService) DeleteCLO(ctx context.Context, id int64) error {
	if _, err := s.GetCLO(ctx, id); err != nil {
		return err
	}
	mappings, items, err := s.clos.CountReferences(ctx, id)
	if err != nil {
		return appErrors.Internal(err, "failed to inspect clo references")
	}
	if mappings > 0 || items > 0 {
		return appErrors.WithDetails(appErrors.ErrConflict, "clo is referenced by mappings or assessment items",
			map[string]int{"mappings": mappings, "assessmentItems": items})
	}
	if err := s.clos.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return appErrors.Clone(appErrors.ErrConflict, "clo is referenced")
		}
		return appErrors.Internal(err, "failed to delete clo")
	}
	invalidateAttainment(ctx, s.cache, s.logger)
	return nil
}

func (s *OutcomeService) ensureUniqueCLO(ctx context.Context, courseID int64, code string, excludeID int64) error {
	dup, err := s.clos.CodeExists(ctx, courseID, code, excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check clo code")
	}
	if dup {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("clo %s already exists for course", code))
	}
	return nil
}

// GetPLO returns a PLO by id.
func (s *OutcomeService) GetPLO(ctx context.Context, id int64) (*models.PLO, error) {
	plo, err := s.plos.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "plo not found")
		}
		return nil, appErrors.Internal(err, "failed to load plo")
	}
	return plo, nil
}

// ListPLOs returns the PLOs of a program.
func (s *OutcomeService) ListPLOs(ctx context.Context, programID int64) ([]models.PLO, error) {
	if programID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "programId is required")
	}
	plos, err := s.plos.ListByProgram(ctx, programID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list plos")
	}
	return plos, nil
}

// CreatePLO registers a PLO under a program.
func (s *OutcomeService) CreatePLO(ctx context.Context, req dto.CreatePLORequest) (*models.PLO, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid plo payload")
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "plo code is required")
	}
	exists, err := s.scope.ProgramExists(ctx, req.ProgramID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load program")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrValidation, "program not found")
	}
	if err := s.ensureUniquePLO(ctx, req.ProgramID, code, 0); err != nil {
		return nil, err
	}

	plo := &models.PLO{
		ProgramID:   req.ProgramID,
		Code:        code,
		Description: strings.TrimSpace(req.Description),
		BloomLevel:  req.BloomLevel,
		Status:      models.OutcomeStatusActive,
	}
	if err := s.plos.Create(ctx, plo); err != nil {
		return nil, outcomeWriteError(err, fmt.Sprintf("plo %s already exists for program", code), "failed to create plo")
	}
	invalidateAttainment(ctx, s.cache, s.logger)
	return plo, nil
}

// UpdatePLO edits a PLO.
func (s *OutcomeService) UpdatePLO(ctx context.Context, id int64, req dto.UpdatePLORequest) (*models.PLO, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid plo payload")
	}
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "plo code is required")
	}
	plo, err := s.GetPLO(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUniquePLO(ctx, plo.ProgramID, code, id); err != nil {
		return nil, err
	}

	plo.Code = code
	plo.Description = strings.TrimSpace(req.Description)
	plo.BloomLevel = req.BloomLevel
	if req.Status != nil {
		plo.Status = *req.Status
	}
	if err := s.plos.Update(ctx, plo); err != nil {
		return nil, outcomeWriteError(err, fmt.Sprintf("plo %s already exists for program", code), "failed to update plo")
	}
	invalidateAttainment(ctx, s.cache, s.logger)
	return plo, nil
}

// DeletePLO removes an unmapped PLO.
func (s *OutcomeService) DeletePLO(ctx context.Context, id int64) error {
	if _, err := s.GetPLO(ctx, id); err != nil {
		return err
	}
	count, err := s.plos.CountMappings(ctx, id)
	if err != nil {
		return appErrors.Internal(err, "failed to inspect plo mappings")
	}
	if count > 0 {
		return appErrors.WithDetails(appErrors.ErrConflict, "plo is referenced by clo mappings", map[string]int{"mappings": count})
	}
	if err := s.plos.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return appErrors.Clone(appErrors.ErrConflict, "plo is referenced by clo mappings")
		}
		return appErrors.Internal(err, "failed to delete plo")
	}
	invalidateAttainment(ctx, s.cache, s.logger)
	return nil
}

func (s *OutcomeService) ensureUniquePLO(ctx context.Context, programID int64, code string, excludeID int64) error {
	dup, err := s.plos.CodeExists(ctx, programID, code, excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check plo code")
	}
	if dup {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("plo %s already exists for program", code))
	}
	return nil
}

func outcomeWriteError(err error, conflictMsg, internalMsg string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return appErrors.Clone(appErrors.ErrConflict, conflictMsg)
	}
	return appErrors.Internal(err, internalMsg)
}
