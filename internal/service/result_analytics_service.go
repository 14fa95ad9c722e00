package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
)

// gradeBand maps a percentage floor to a letter grade.
type gradeBand struct {
	Grade string
	Floor float64
}

// gradeBands are ordered from highest to lowest floor.
var gradeBands = []gradeBand{
	{"A+", 95}, {"A", 90}, {"A-", 85},
	{"B+", 80}, {"B", 75}, {"B-", 70},
	{"C+", 65}, {"C", 60},
	{"D+", 55}, {"D", 50}, {"D-", 45},
	{"F", 0},
}

type resultLister interface {
	List(ctx context.Context, filter models.ResultFilter) ([]models.StudentAssessmentResult, error)
}

type sectionFinder interface {
	FindSection(ctx context.Context, id int64) (*models.Section, error)
}

// ResultAnalyticsService summarises a section's results for one assessment.
type ResultAnalyticsService struct {
	results       resultLister
	sections      sectionFinder
	passThreshold float64
	logger        *zap.Logger
}

// NewResultAnalyticsService constructs ResultAnalyticsService.
func NewResultAnalyticsService(results resultLister, sections sectionFinder, passThreshold float64, logger *zap.Logger) *ResultAnalyticsService {
	if passThreshold <= 0 || passThreshold > 100 {
		passThreshold = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultAnalyticsService{results: results, sections: sections, passThreshold: passThreshold, logger: logger}
}

// Analytics returns cohort metrics and the letter-grade distribution.
func (s *ResultAnalyticsService) Analytics(ctx context.Context, sectionID, assessmentID int64) (*models.ResultAnalytics, error) {
	if sectionID <= 0 || assessmentID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sectionId and assessmentId are required")
	}
	if _, err := s.sections.FindSection(ctx, sectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Internal(err, "failed to load section")
	}
	results, err := s.results.List(ctx, models.ResultFilter{AssessmentID: assessmentID, SectionID: sectionID})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load results")
	}
	percentages := make([]float64, 0, len(results))
	for _, result := range results {
		percentages = append(percentages, result.Percentage)
	}
	analytics := ComputeResultAnalytics(percentages, s.passThreshold)
	return &analytics, nil
}

// GradeFor returns the letter grade of a percentage.
func GradeFor(percentage float64) string {
	for _, band := range gradeBands {
		if percentage >= band.Floor {
			return band.Grade
		}
	}
	return gradeBands[len(gradeBands)-1].Grade
}

// ComputeResultAnalytics summarises percentages. Every band is listed, including empty ones.
func ComputeResultAnalytics(percentages []float64, passThreshold float64) models.ResultAnalytics {
	distribution := make([]models.GradeBucket, len(gradeBands))
	index := make(map[string]int, len(gradeBands))
	for i, band := range gradeBands {
		distribution[i] = models.GradeBucket{Grade: band.Grade}
		index[band.Grade] = i
	}

	total := len(percentages)
	if total == 0 {
		return models.ResultAnalytics{GradeDistribution: distribution}
	}

	sum, highest, lowest := 0.0, percentages[0], percentages[0]
	passed := 0
	for _, p := range percentages {
		sum += p
		if p > highest {
			highest = p
		}
		if p < lowest {
			lowest = p
		}
		if p >= passThreshold {
			passed++
		}
		distribution[index[GradeFor(p)]].Count++
	}
	for i := range distribution {
		distribution[i].Percentage = roundHalfEven2(float64(distribution[i].Count) / float64(total) * 100)
	}

	return models.ResultAnalytics{
		Metrics: models.ResultMetrics{
			AverageMarks:  roundHalfEven2(sum / float64(total)),
			HighestMarks:  highest,
			LowestMarks:   lowest,
			PassRate:      roundHalfEven2(float64(passed) / float64(total) * 100),
			TotalStudents: total,
		},
		GradeDistribution: distribution,
	}
}
