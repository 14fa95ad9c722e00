package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/obe-attainment-api/internal/dto"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	appErrors "github.com/noah-isme/obe-attainment-api/pkg/errors"
)

func newOutcomeFixture() (*OutcomeService, *fakeCLORepo, *fakePLORepo, *fakeCache) {
	academic := newFakeAcademic()
	academic.courses[7] = true
	academic.programs[1] = true
	clos := newFakeCLORepo(models.CLO{ID: 1, CourseID: 7, Code: "CLO1", Status: models.OutcomeStatusActive})
	plos := newFakePLORepo(models.PLO{ID: 1, ProgramID: 1, Code: "PLO1", Status: models.OutcomeStatusActive})
	cache := newFakeCache()
	return NewOutcomeService(clos, plos, academic, cache, nil, nil), clos, plos, cache
}

func TestNormalizeCLOCode(t *testing.T) {
	code, ok := NormalizeCLOCode(" clo12 ")
	assert.True(t, ok)
	assert.Equal(t, "CLO12", code)

	for _, raw := range []string{"", "CLO", "CLO-1", "PLO1", "CLO1a"} {
		_, ok := NormalizeCLOCode(raw)
		assert.False(t, ok, raw)
	}
}

func TestCreateCLO(t *testing.T) {
	svc, _, _, _ := newOutcomeFixture()
	bloom := models.BloomAnalyze

	clo, err := svc.CreateCLO(context.Background(), dto.CreateCLORequest{CourseID: 7, Code: "clo2", Description: "Analyse trade-offs", BloomLevel: &bloom})
	require.NoError(t, err)
	assert.Equal(t, "CLO2", clo.Code)
	assert.Equal(t, models.OutcomeStatusActive, clo.Status)
	assert.NotZero(t, clo.ID)
}

func TestCreateCLOValidation(t *testing.T) {
	svc, _, _, _ := newOutcomeFixture()
	ctx := context.Background()

	_, err := svc.CreateCLO(ctx, dto.CreateCLORequest{CourseID: 7, Code: "Outcome 1", Description: "x"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.CreateCLO(ctx, dto.CreateCLORequest{CourseID: 99, Code: "CLO3", Description: "x"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	bogus := models.BloomLevel("memorise")
	_, err = svc.CreateCLO(ctx, dto.CreateCLORequest{CourseID: 7, Code: "CLO3", Description: "x", BloomLevel: &bogus})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestCreateCLODuplicateCode(t *testing.T) {
	svc, _, _, _ := newOutcomeFixture()

	_, err := svc.CreateCLO(context.Background(), dto.CreateCLORequest{CourseID: 7, Code: "clo1", Description: "again"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestUpdateCLOKeepsOwnCode(t *testing.T) {
	svc, _, _, _ := newOutcomeFixture()
	inactive := models.OutcomeStatusInactive

	clo, err := svc.UpdateCLO(context.Background(), 1, dto.UpdateCLORequest{Code: "CLO1", Description: "Reworded", Status: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Reworded", clo.Description)
	assert.Equal(t, models.OutcomeStatusInactive, clo.Status)

	_, err = svc.UpdateCLO(context.Background(), 42, dto.UpdateCLORequest{Code: "CLO1", Description: "x"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestDeleteCLOReferenced(t *testing.T) {
	svc, clos, _, _ := newOutcomeFixture()
	ctx := context.Background()

	clos.items[1] = 2
	err := svc.DeleteCLO(ctx, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.Empty(t, clos.deleted)

	clos.items[1] = 0
	clos.mappings[1] = 1
	assert.True(t, errors.Is(svc.DeleteCLO(ctx, 1), appErrors.ErrConflict))

	clos.mappings[1] = 0
	require.NoError(t, svc.DeleteCLO(ctx, 1))
	assert.Equal(t, []int64{1}, clos.deleted)
}

func TestCreatePLO(t *testing.T) {
	svc, _, _, _ := newOutcomeFixture()
	ctx := context.Background()

	plo, err := svc.CreatePLO(ctx, dto.CreatePLORequest{ProgramID: 1, Code: "Graduate Attribute 2", Description: "Communicate"})
	require.NoError(t, err)
	assert.Equal(t, "Graduate Attribute 2", plo.Code)

	_, err = svc.CreatePLO(ctx, dto.CreatePLORequest{ProgramID: 1, Code: "PLO1", Description: "dup"})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	_, err = svc.CreatePLO(ctx, dto.CreatePLORequest{ProgramID: 5, Code: "PLO9", Description: "x"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestDeletePLOMapped(t *testing.T) {
	svc, _, plos, _ := newOutcomeFixture()

	plos.mappings[1] = 3
	err := svc.DeletePLO(context.Background(), 1)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, map[string]int{"mappings": 3}, appErr.Details)

	plos.mappings[1] = 0
	require.NoError(t, svc.DeletePLO(context.Background(), 1))
	_, err = svc.GetPLO(context.Background(), 1)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestOutcomeWritesInvalidateAttainmentCache(t *testing.T) {
	svc, _, _, cache := newOutcomeFixture()
	ctx := context.Background()

	_, err := svc.CreateCLO(ctx, dto.CreateCLORequest{CourseID: 7, Code: "CLO2", Description: "x"})
	require.NoError(t, err)
	assert.Empty(t, cache.invalidated, "an unmapped clo cannot appear in attainment reports")

	_, err = svc.UpdateCLO(ctx, 1, dto.UpdateCLORequest{Code: "CLO10", Description: "Renamed"})
	require.NoError(t, err)
	assert.Len(t, cache.invalidated, 1)

	plo, err := svc.CreatePLO(ctx, dto.CreatePLORequest{ProgramID: 1, Code: "PLO2", Description: "Teamwork"})
	require.NoError(t, err)
	assert.Len(t, cache.invalidated, 2)

	_, err = svc.UpdatePLO(ctx, plo.ID, dto.UpdatePLORequest{Code: "PLO3", Description: "Teamwork"})
	require.NoError(t, err)
	assert.Len(t, cache.invalidated, 3)

	require.NoError(t, svc.DeletePLO(ctx, plo.ID))
	require.NoError(t, svc.DeleteCLO(ctx, 1))
	assert.Len(t, cache.invalidated, 5)
	for _, pattern := range cache.invalidated {
		assert.Equal(t, AttainmentCachePattern, pattern)
	}
}

func TestOutcomeRejectedWriteKeepsCache(t *testing.T) {
	svc, _, _, cache := newOutcomeFixture()

	_, err := svc.CreatePLO(context.Background(), dto.CreatePLORequest{ProgramID: 1, Code: "PLO1", Description: "dup"})
	require.Error(t, err)
	assert.Empty(t, cache.invalidated)
}
