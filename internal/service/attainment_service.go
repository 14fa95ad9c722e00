package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
)

type itemScoreReader interface {
	ItemScoresForOffering(ctx context.Context, cloID, courseOfferingID int64) ([]models.ItemScore, error)
	ItemScoresForSemester(ctx context.Context, cloID, semesterID int64) ([]models.ItemScore, error)
}

type mappedCLOReader interface {
	ListByPLO(ctx context.Context, ploID int64) ([]models.MappedCLO, error)
}

type programPLOReader interface {
	FindByID(ctx context.Context, id int64) (*models.PLO, error)
	ListByProgram(ctx context.Context, programID int64) ([]models.PLO, error)
}

type offeringReader interface {
	FindCourseOffering(ctx context.Context, id int64) (*models.CourseOffering, error)
}

type attainmentCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// AttainmentService derives CLO and PLO attainment from stored item results. It never writes.
type AttainmentService struct {
	scores    itemScoreReader
	mappings  mappedCLOReader
	clos      cloFinder
	plos      programPLOReader
	offerings offeringReader
	cache     attainmentCache
	cacheTTL  time.Duration
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewAttainmentService constructs AttainmentService. cache may be nil.
func NewAttainmentService(scores itemScoreReader, mappings mappedCLOReader, clos cloFinder, plos programPLOReader, offerings offeringReader, cache attainmentCache, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *AttainmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttainmentService{
		scores:    scores,
		mappings:  mappings,
		clos:      clos,
		plos:      plos,
		offerings: offerings,
		cache:     cache,
		cacheTTL:  cacheTTL,
		metrics:   metrics,
		logger:    logger,
	}
}

// MeanAttainment averages obtained/total over item results with a positive total and scales to 0..100.
// It returns 0 when no result qualifies.
func MeanAttainment(scores []models.ItemScore) (float64, int) {
	sum := 0.0
	n := 0
	for _, score := range scores {
		if score.TotalMarks <= 0 {
			continue
		}
		sum += score.ObtainedMarks / score.TotalMarks
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n) * 100, n
}

// WeightedAttainment returns Σ(a·w)/Σw over the contributing CLOs, or 0 when the weights sum to 0.
func WeightedAttainment(contributions []models.ContributingCLO) float64 {
	weighted, weights := 0.0, 0.0
	for _, c := range contributions {
		weighted += c.Attainment * c.Weight
		weights += c.Weight
	}
	if weights == 0 {
		return 0
	}
	return weighted / weights
}

// CLOAttainment computes a CLO's attainment within one course offering.
func (s *AttainmentService) CLOAttainment(ctx context.Context, cloID, courseOfferingID int64) (*models.CLOAttainment, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveAttainment("clo", time.Since(start)) }()

	clo, err := s.clos.FindByID(ctx, cloID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "clo not found")
		}
		return nil, appErrors.Internal(err, "failed to load clo")
	}
	offering, err := s.offerings.FindCourseOffering(ctx, courseOfferingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course offering not found")
		}
		return nil, appErrors.Internal(err, "failed to load course offering")
	}
	scores, err := s.scores.ItemScoresForOffering(ctx, clo.ID, offering.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load clo item results")
	}
	attainment, n := MeanAttainment(scores)
	return &models.CLOAttainment{
		CLOID:            clo.ID,
		CLOCode:          clo.Code,
		CourseOfferingID: offering.ID,
		SemesterID:       offering.SemesterID,
		Attainment:       roundHalfEven2(attainment),
		SampleSize:       n,
	}, nil
}

// PLOAttainment computes a PLO's weighted attainment for a semester.
func (s *AttainmentService) PLOAttainment(ctx context.Context, ploID, semesterID int64) (*models.PLOAttainment, error) {
	plo, err := s.plos.FindByID(ctx, ploID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "plo not found")
		}
		return nil, appErrors.Internal(err, "failed to load plo")
	}
	return s.computePLO(ctx, plo, semesterID)
}

// ListPLOAttainments computes the attainment of every PLO of a program for a semester.
func (s *AttainmentService) ListPLOAttainments(ctx context.Context, programID, semesterID int64) ([]models.PLOAttainment, error) {
	if programID <= 0 || semesterID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "programId and semesterId are required")
	}
	key := PLOAttainmentCacheKey(programID, semesterID)
	if s.cache != nil {
		var cached []models.PLOAttainment
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	plos, err := s.plos.ListByProgram(ctx, programID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list plos")
	}
	out := make([]models.PLOAttainment, 0, len(plos))
	for i := range plos {
		attainment, err := s.computePLO(ctx, &plos[i], semesterID)
		if err != nil {
			return nil, err
		}
		out = append(out, *attainment)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, out, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache plo attainment", zap.String("key", key), zap.Error(err))
		}
	}
	return out, nil
}

// PLOAttainmentCacheKey is the cache key of a program's PLO attainment for a semester.
func PLOAttainmentCacheKey(programID, semesterID int64) string {
	return fmt.Sprintf("attainment:plo:%d:%d", programID, semesterID)
}

func (s *AttainmentService) computePLO(ctx context.Context, plo *models.PLO, semesterID int64) (*models.PLOAttainment, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveAttainment("plo", time.Since(start)) }()

	mapped, err := s.mappings.ListByPLO(ctx, plo.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load plo mappings")
	}
	contributions := make([]models.ContributingCLO, 0, len(mapped))
	for _, m := range mapped {
		scores, err := s.scores.ItemScoresForSemester(ctx, m.CLOID, semesterID)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to load clo item results")
		}
		attainment, _ := MeanAttainment(scores)
		contributions = append(contributions, models.ContributingCLO{
			CLOID:      m.CLOID,
			CLOCode:    m.CLOCode,
			Attainment: attainment,
			Weight:     m.Weight,
		})
	}

	overall := WeightedAttainment(contributions)
	for i := range contributions {
		contributions[i].Attainment = roundHalfEven2(contributions[i].Attainment)
	}
	return &models.PLOAttainment{
		PLOID:            plo.ID,
		PLOCode:          plo.Code,
		Description:      plo.Description,
		Attainment:       roundHalfEven2(overall),
		ContributingCLOs: contributions,
	}, nil
}
