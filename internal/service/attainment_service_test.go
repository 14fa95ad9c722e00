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

func newAttainmentFixture(cache attainmentCache) (*AttainmentService, *fakeMappingRepo, *fakeScores) {
	academic := newFakeAcademic()
	academic.offerings[30] = models.CourseOffering{ID: 30, CourseID: 7, SemesterID: 20}
	clos := newFakeCLORepo(models.CLO{ID: 1, CourseID: 7, Code: "CLO1"}, models.CLO{ID: 2, CourseID: 7, Code: "CLO2"})
	plos := newFakePLORepo(
		models.PLO{ID: 10, ProgramID: 1, Code: "PLO1", Description: "Problem solving"},
		models.PLO{ID: 11, ProgramID: 1, Code: "PLO2", Description: "Communication"},
	)
	mappings := newFakeMappingRepo()
	scores := &fakeScores{
		byOffering: map[[2]int64][]models.ItemScore{
			{1, 30}: {{ObtainedMarks: 8, TotalMarks: 10}, {ObtainedMarks: 6, TotalMarks: 10}},
		},
		bySemester: map[[2]int64][]models.ItemScore{
			{1, 20}: {{ObtainedMarks: 8, TotalMarks: 10}, {ObtainedMarks: 6, TotalMarks: 10}},
			{2, 20}: {{ObtainedMarks: 4, TotalMarks: 10}},
		},
	}
	svc := NewAttainmentService(scores, mappings, clos, plos, academic, cache, 0, NewMetricsService(), nil)
	return svc, mappings, scores
}

func TestMeanAttainment(t *testing.T) {
	value, n := MeanAttainment([]models.ItemScore{{ObtainedMarks: 5, TotalMarks: 10}, {ObtainedMarks: 3, TotalMarks: 4}})
	assert.InDelta(t, 62.5, value, 1e-9)
	assert.Equal(t, 2, n)

	value, n = MeanAttainment(nil)
	assert.Zero(t, value)
	assert.Zero(t, n)

	value, n = MeanAttainment([]models.ItemScore{{ObtainedMarks: 0, TotalMarks: 0}})
	assert.Zero(t, value)
	assert.Zero(t, n)
}

func TestWeightedAttainment(t *testing.T) {
	got := WeightedAttainment([]models.ContributingCLO{{Attainment: 80, Weight: 0.5}, {Attainment: 40, Weight: 1}})
	assert.InDelta(t, 53.333, got, 0.001)

	assert.Zero(t, WeightedAttainment([]models.ContributingCLO{{Attainment: 90, Weight: 0}}))
	assert.Zero(t, WeightedAttainment(nil))
}

func TestCLOAttainment(t *testing.T) {
	svc, _, _ := newAttainmentFixture(nil)

	result, err := svc.CLOAttainment(context.Background(), 1, 30)
	require.NoError(t, err)
	assert.Equal(t, 70.0, result.Attainment)
	assert.Equal(t, 2, result.SampleSize)
	assert.Equal(t, int64(20), result.SemesterID)

	result, err = svc.CLOAttainment(context.Background(), 2, 30)
	require.NoError(t, err)
	assert.Zero(t, result.Attainment)

	_, err = svc.CLOAttainment(context.Background(), 3, 30)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	_, err = svc.CLOAttainment(context.Background(), 1, 99)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestPLOAttainmentWeighted(t *testing.T) {
	svc, mappings, _ := newAttainmentFixture(nil)
	mappings.mappings[1] = &models.CLOPLOMapping{ID: 1, CLOID: 1, PLOID: 10, Weight: 0.5, CLOCode: "CLO1"}
	mappings.mappings[2] = &models.CLOPLOMapping{ID: 2, CLOID: 2, PLOID: 10, Weight: 1, CLOCode: "CLO2"}

	result, err := svc.PLOAttainment(context.Background(), 10, 20)
	require.NoError(t, err)
	assert.Equal(t, 50.0, result.Attainment)
	assert.Equal(t, []models.ContributingCLO{
		{CLOID: 1, CLOCode: "CLO1", Attainment: 70, Weight: 0.5},
		{CLOID: 2, CLOCode: "CLO2", Attainment: 40, Weight: 1},
	}, result.ContributingCLOs)
}

func TestPLOAttainmentWithoutWeight(t *testing.T) {
	svc, mappings, _ := newAttainmentFixture(nil)
	mappings.mappings[1] = &models.CLOPLOMapping{ID: 1, CLOID: 1, PLOID: 10, Weight: 0, CLOCode: "CLO1"}

	result, err := svc.PLOAttainment(context.Background(), 10, 20)
	require.NoError(t, err)
	assert.Zero(t, result.Attainment)
	require.Len(t, result.ContributingCLOs, 1)

	result, err = svc.PLOAttainment(context.Background(), 11, 20)
	require.NoError(t, err)
	assert.Zero(t, result.Attainment)
	assert.Empty(t, result.ContributingCLOs)
}

func TestListPLOAttainmentsUsesCache(t *testing.T) {
	cache := newFakeCache()
	svc, mappings, scores := newAttainmentFixture(cache)
	mappings.mappings[1] = &models.CLOPLOMapping{ID: 1, CLOID: 1, PLOID: 10, Weight: 1, CLOCode: "CLO1"}
	ctx := context.Background()

	first, err := svc.ListPLOAttainments(ctx, 1, 20)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 70.0, first[0].Attainment)
	assert.Equal(t, 1, cache.sets)
	assert.Contains(t, cache.store, PLOAttainmentCacheKey(1, 20))

	scores.bySemester[[2]int64{1, 20}] = []models.ItemScore{{ObtainedMarks: 10, TotalMarks: 10}}
	second, err := svc.ListPLOAttainments(ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 70.0, second[0].Attainment, "served from cache")

	require.NoError(t, cache.Invalidate(ctx, AttainmentCachePattern))
	third, err := svc.ListPLOAttainments(ctx, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 100.0, third[0].Attainment)
}

func TestListPLOAttainmentsRequiresScope(t *testing.T) {
	svc, _, _ := newAttainmentFixture(nil)
	_, err := svc.ListPLOAttainments(context.Background(), 0, 20)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
