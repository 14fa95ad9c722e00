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

type mappingRepository interface {
	FindByID(ctx context.Context, id int64) (*models.CLOPLOMapping, error)
	List(ctx context.Context, filter models.MappingFilter) ([]models.CLOPLOMapping, error)
	Exists(ctx context.Context, cloID, ploID int64) (bool, error)
	Create(ctx context.Context, mapping *models.CLOPLOMapping) error
	UpdateWeight(ctx context.Context, id int64, weight float64) error
	Delete(ctx context.Context, id int64) (bool, error)
}

type cloFinder interface {
	FindByID(ctx context.Context, id int64) (*models.CLO, error)
}

type ploFinder interface {
	FindByID(ctx context.Context, id int64) (*models.PLO, error)
}

type courseProgramReader interface {
	ProgramIDsForCourse(ctx context.Context, courseID int64) ([]int64, error)
}

// MappingService maintains weighted CLO to PLO links.
type MappingService struct {
	mappings  mappingRepository
	clos      cloFinder
	plos      ploFinder
	programs  courseProgramReader
	cache     cacheInvalidator
	events    eventEmitter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMappingService constructs MappingService.
func NewMappingService(mappings mappingRepository, clos cloFinder, plos ploFinder, programs courseProgramReader, cache cacheInvalidator, events eventEmitter, validate *validator.Validate, logger *zap.Logger) *MappingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MappingService{
		mappings:  mappings,
		clos:      clos,
		plos:      plos,
		programs:  programs,
		cache:     cache,
		events:    events,
		validator: validate,
		logger:    logger,
	}
}

// ValidateWeight enforces the inclusive [0,1] weight range.
func ValidateWeight(weight float64) error {
	if math.IsNaN(weight) || weight < 0 || weight > 1 {
		return appErrors.Clone(appErrors.ErrValidation, "weight must be between 0 and 1")
	}
	return nil
}

// List returns mappings newest first.
func (s *MappingService) List(ctx context.Context, filter models.MappingFilter) ([]models.CLOPLOMapping, error) {
	mappings, err := s.mappings.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list mappings")
	}
	return mappings, nil
}

// Create links a CLO to a PLO of one of the programs the CLO's course belongs to.
func (s *MappingService) Create(ctx context.Context, actor models.Principal, req dto.CreateMappingRequest) (*models.CLOPLOMapping, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mapping payload")
	}
	if err := ValidateWeight(*req.Weight); err != nil {
		return nil, err
	}

	clo, err := s.clos.FindByID(ctx, req.CLOID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "clo not found")
		}
		return nil, appErrors.Internal(err, "failed to load clo")
	}
	plo, err := s.plos.FindByID(ctx, req.PLOID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "plo not found")
		}
		return nil, appErrors.Internal(err, "failed to load plo")
	}

	programIDs, err := s.programs.ProgramIDsForCourse(ctx, clo.CourseID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load course programs")
	}
	if !containsID(programIDs, plo.ProgramID) {
		if programIDs == nil {
			programIDs = []int64{}
		}
		return nil, appErrors.WithDetails(appErrors.ErrCrossProgram,
			fmt.Sprintf("clo %s and plo %s belong to different programs", clo.Code, plo.Code),
			map[string]interface{}{"cloPrograms": programIDs, "ploProgram": plo.ProgramID})
	}

	exists, err := s.mappings.Exists(ctx, clo.ID, plo.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check mapping")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "mapping already exists")
	}

	mapping := &models.CLOPLOMapping{CLOID: clo.ID, PLOID: plo.ID, Weight: *req.Weight, CLOCode: clo.Code, PLOCode: plo.Code}
	if err := s.mappings.Create(ctx, mapping); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "mapping already exists")
		}
		return nil, appErrors.Internal(err, "failed to create mapping")
	}

	s.changed(ctx, actor, "created", mapping)
	return mapping, nil
}

// UpdateWeight changes the weight of an existing mapping.
func (s *MappingService) UpdateWeight(ctx context.Context, actor models.Principal, id int64, req dto.UpdateMappingRequest) (*models.CLOPLOMapping, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid mapping payload")
	}
	if err := ValidateWeight(*req.Weight); err != nil {
		return nil, err
	}
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	if err := s.mappings.UpdateWeight(ctx, id, *req.Weight); err != nil {
		return nil, appErrors.Internal(err, "failed to update mapping")
	}
	mapping, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	s.changed(ctx, actor, "updated", mapping)
	return mapping, nil
}

// Delete removes a mapping unconditionally.
func (s *MappingService) Delete(ctx context.Context, actor models.Principal, id int64) error {
	deleted, err := s.mappings.Delete(ctx, id)
	if err != nil {
		return appErrors.Internal(err, "failed to delete mapping")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "mapping not found")
	}
	s.changed(ctx, actor, "deleted", &models.CLOPLOMapping{ID: id})
	return nil
}

func (s *MappingService) find(ctx context.Context, id int64) (*models.CLOPLOMapping, error) {
	mapping, err := s.mappings.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mapping not found")
		}
		return nil, appErrors.Internal(err, "failed to load mapping")
	}
	return mapping, nil
}

func (s *MappingService) changed(ctx context.Context, actor models.Principal, action string, mapping *models.CLOPLOMapping) {
	invalidateAttainment(ctx, s.cache, s.logger)
	if s.events == nil {
		return
	}
	s.events.Emit(ctx, EventMappingChanged, actor.UserID, map[string]interface{}{
		"action":    action,
		"mappingId": mapping.ID,
		"cloId":     mapping.CLOID,
		"ploId":     mapping.PLOID,
		"weight":    mapping.Weight,
	})
}

func containsID(ids []int64, target int64) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}
