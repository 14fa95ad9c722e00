package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
)

func TestGradeFor(t *testing.T) {
	cases := map[float64]string{
		100: "A+", 95: "A+", 94.99: "A", 90: "A", 85: "A-",
		84.99: "B+", 75: "B", 70: "B-", 65: "C+", 60: "C", 59.99: "D+",
		55: "D+", 54.99: "D", 50: "D", 45: "D-", 44.99: "F", 0: "F",
	}
	for percentage, grade := range cases {
		assert.Equal(t, grade, GradeFor(percentage), percentage)
	}
}

func TestGradeForMixedCohort(t *testing.T) {
	grades := make([]string, 0, 4)
	for _, percentage := range []float64{96, 82, 58, 40} {
		grades = append(grades, GradeFor(percentage))
	}
	assert.Equal(t, []string{"A+", "B+", "D+", "F"}, grades)
}

func TestComputeResultAnalytics(t *testing.T) {
	analytics := ComputeResultAnalytics([]float64{96, 82, 58, 40}, 50)

	assert.Equal(t, models.ResultMetrics{
		AverageMarks:  69,
		HighestMarks:  96,
		LowestMarks:   40,
		PassRate:      75,
		TotalStudents: 4,
	}, analytics.Metrics)
	require.Len(t, analytics.GradeDistribution, 12)
	assert.Equal(t, models.GradeBucket{Grade: "A+", Count: 1, Percentage: 25}, analytics.GradeDistribution[0])
	assert.Equal(t, models.GradeBucket{Grade: "B+", Count: 1, Percentage: 25}, analytics.GradeDistribution[3])
	assert.Equal(t, models.GradeBucket{Grade: "D+", Count: 1, Percentage: 25}, analytics.GradeDistribution[8])
	assert.Equal(t, models.GradeBucket{Grade: "F", Count: 1, Percentage: 25}, analytics.GradeDistribution[11])
}

func TestComputeResultAnalyticsEmpty(t *testing.T) {
	analytics := ComputeResultAnalytics(nil, 50)
	assert.Zero(t, analytics.Metrics.TotalStudents)
	assert.Len(t, analytics.GradeDistribution, 12)
}

func TestResultAnalyticsService(t *testing.T) {
	academic := newFakeAcademic()
	academic.sections[4] = models.Section{ID: 4, CourseOfferingID: 30}
	repo := newFakeResultRepo()
	repo.results[1] = &models.StudentAssessmentResult{ID: 1, StudentID: 100, AssessmentID: 2, Percentage: 80}
	repo.results[2] = &models.StudentAssessmentResult{ID: 2, StudentID: 101, AssessmentID: 2, Percentage: 40}
	repo.results[3] = &models.StudentAssessmentResult{ID: 3, StudentID: 100, AssessmentID: 3, Percentage: 10}
	svc := NewResultAnalyticsService(repo, academic, 0, nil)

	analytics, err := svc.Analytics(context.Background(), 4, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, analytics.Metrics.TotalStudents)
	assert.Equal(t, 60.0, analytics.Metrics.AverageMarks)
	assert.Equal(t, 50.0, analytics.Metrics.PassRate)

	_, err = svc.Analytics(context.Background(), 9, 2)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	_, err = svc.Analytics(context.Background(), 0, 2)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
