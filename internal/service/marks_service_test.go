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

type marksFixture struct {
	svc     *MarksService
	results *fakeResultRepo
	cache   *fakeCache
	events  *fakeEmitter
	metrics *MetricsService
}

var faculty = models.Principal{UserID: 5, Role: models.RoleFaculty}

func score(v float64) *float64 { return &v }

func newMarksFixture(assessment models.Assessment) marksFixture {
	academic := newFakeAcademic()
	academic.sections[4] = models.Section{ID: 4, CourseOfferingID: 30, Name: "A"}
	academic.sections[6] = models.Section{ID: 6, CourseOfferingID: 31, Name: "B"}
	academic.enrollments[4] = map[int64]bool{100: true, 101: true}
	results := newFakeResultRepo()
	cache := newFakeCache()
	events := &fakeEmitter{}
	metrics := NewMetricsService()
	return marksFixture{
		svc:     NewMarksService(newFakeAssessmentRepo(assessment), academic, results, cache, events, metrics, nil, nil),
		results: results,
		cache:   cache,
		events:  events,
		metrics: metrics,
	}
}

func quiz() models.Assessment {
	return models.Assessment{
		ID: 2, CourseOfferingID: 30, Title: "Quiz 1", Type: models.AssessmentQuiz, Status: models.AssessmentStatusActive,
		Items: []models.AssessmentItem{
			{ID: 1, AssessmentID: 2, QuestionNo: "Q1", Marks: 10, CLOID: 1},
			{ID: 2, AssessmentID: 2, QuestionNo: "Q2", Marks: 10, CLOID: 2},
		},
	}
}

func TestBulkSubmitAggregatesResults(t *testing.T) {
	f := newMarksFixture(quiz())

	out, err := f.svc.BulkSubmit(context.Background(), faculty, dto.BulkMarksRequest{
		SectionID: 4, AssessmentID: 2,
		Marks: []dto.StudentMarksInput{
			{StudentID: 100, Items: []dto.ItemMarkInput{{ItemID: 1, Marks: score(8)}, {ItemID: 2, Marks: score(7)}}},
			{StudentID: 101, Items: []dto.ItemMarkInput{{ItemID: 1, Marks: score(4.5)}}},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, out.Count)

	first := out.Results[0]
	assert.Equal(t, 20.0, first.TotalMarks)
	assert.Equal(t, 15.0, first.ObtainedMarks)
	assert.Equal(t, 75.0, first.Percentage)
	assert.Equal(t, models.ResultStatusPending, first.Status)
	require.Len(t, first.Items, 2)
	assert.True(t, first.Items[0].IsCorrect)

	second := out.Results[1]
	assert.Equal(t, 20.0, second.TotalMarks, "total spans every item even when some are not submitted")
	assert.Equal(t, 22.5, second.Percentage)
	require.Len(t, second.Items, 1)
	assert.False(t, second.Items[0].IsCorrect)

	assert.Len(t, f.results.results, 2)
	assert.Equal(t, []string{AttainmentCachePattern}, f.cache.invalidated)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, EventResultsSubmitted, f.events.events[0].Type)
	assert.Equal(t, uint64(2), f.metrics.Snapshot().ResultsWritten)
}

func TestBulkSubmitKeepsPercentageUnrounded(t *testing.T) {
	assessment := quiz()
	assessment.Items[1].Marks = 20
	f := newMarksFixture(assessment)

	out, err := f.svc.BulkSubmit(context.Background(), faculty, dto.BulkMarksRequest{
		SectionID: 4, AssessmentID: 2,
		Marks: []dto.StudentMarksInput{{StudentID: 100, Items: []dto.ItemMarkInput{{ItemID: 1, Marks: score(8)}, {ItemID: 2, Marks: score(15)}}}},
	})
	require.NoError(t, err)
	result := out.Results[0]
	assert.Equal(t, 30.0, result.TotalMarks)
	assert.Equal(t, 23.0, result.ObtainedMarks)
	assert.InDelta(t, 76.6666667, result.Percentage, 1e-6)
	assert.NotEqual(t, 76.67, result.Percentage)
	assert.Equal(t, result.Percentage, f.results.results[result.ID].Percentage)
}

func TestBulkSubmitRequiresMarksOnEveryItem(t *testing.T) {
	f := newMarksFixture(quiz())

	_, err := f.svc.BulkSubmit(context.Background(), faculty, dto.BulkMarksRequest{
		SectionID: 4, AssessmentID: 2,
		Marks: []dto.StudentMarksInput{{StudentID: 100, Items: []dto.ItemMarkInput{{ItemID: 1, Marks: score(4)}, {ItemID: 2}}}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, f.results.results)
	assert.Equal(t, uint64(1), f.metrics.Snapshot().MarksSubmissions)
}

func TestBulkSubmitCorrectnessThreshold(t *testing.T) {
	f := newMarksFixture(quiz())

	out, err := f.svc.BulkSubmit(context.Background(), faculty, dto.BulkMarksRequest{
		SectionID: 4, AssessmentID: 2,
		Marks: []dto.StudentMarksInput{{StudentID: 100, Items: []dto.ItemMarkInput{{ItemID: 1, Marks: score(5)}, {ItemID: 2, Marks: score(4.99)}}}},
	})
	require.NoError(t, err)
	assert.True(t, out.Results[0].Items[0].IsCorrect)
	assert.False(t, out.Results[0].Items[1].IsCorrect)
}

func TestBulkSubmitCollectsEveryViolation(t *testing.T) {
	f := newMarksFixture(quiz())

	_, err := f.svc.BulkSubmit(context.Background(), faculty, dto.BulkMarksRequest{
		SectionID: 4, AssessmentID: 2,
		Marks: []dto.StudentMarksInput{
			{StudentID: 100, Items: []dto.ItemMarkInput{{ItemID: 1, Marks: score(11)}, {ItemID: 9, Marks: score(1)}}},
			{StudentID: 101, Items: []dto.ItemMarkInput{{ItemID: 2, Marks: score(-1)}}},
			{StudentID: 200, Items: []dto.ItemMarkInput{{ItemID: 1, Marks: score(3)}}},
		},
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	violations, ok := appErr.Details.([]string)
	require.True(t, ok)
	assert.Equal(t, []string{
		"marks 11 for item 1 of student 100 exceed the maximum of 10",
		"item 9 of student 100 does not belong to assessment 2",
		"marks for item 2 of student 101 cannot be negative",
		"student 200 is not enrolled in section 4",
	}, violations)
	assert.Empty(t, f.results.results, "nothing is written when any violation exists")
	assert.Empty(t, f.events.events)
	assert.Empty(t, f.cache.invalidated)
}

func TestBulkSubmitSectionOutsideOffering(t *testing.T) {
	f := newMarksFixture(quiz())

	_, err := f.svc.BulkSubmit(context.Background(), faculty, dto.BulkMarksRequest{
		SectionID: 6, AssessmentID: 2,
		Marks: []dto.StudentMarksInput{{StudentID: 100, Items: []dto.ItemMarkInput{{ItemID: 1, Marks: score(3)}}}},
	})
	require.Error(t, err)
	violations := appErrors.FromError(err).Details.([]string)
	assert.Contains(t, violations, "section 6 does not belong to the course offering of assessment 2")
}

func TestBulkSubmitConflictAndReplace(t *testing.T) {
	f := newMarksFixture(quiz())
	ctx := context.Background()
	req := dto.BulkMarksRequest{
		SectionID: 4, AssessmentID: 2,
		Marks: []dto.StudentMarksInput{{StudentID: 100, Items: []dto.ItemMarkInput{{ItemID: 1, Marks: score(6)}}}},
	}

	_, err := f.svc.BulkSubmit(ctx, faculty, req)
	require.NoError(t, err)

	_, err = f.svc.BulkSubmit(ctx, faculty, req)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	req.ReplaceExisting = true
	req.Marks[0].Items[0].Marks = score(9)
	out, err := f.svc.BulkSubmit(ctx, faculty, req)
	require.NoError(t, err)
	assert.True(t, out.Replaced)
	require.Len(t, f.results.results, 1)
	for _, r := range f.results.results {
		assert.Equal(t, 9.0, r.ObtainedMarks)
	}
}

func TestBulkSubmitStorageFailureIsInternal(t *testing.T) {
	f := newMarksFixture(quiz())
	f.results.createErr = errors.New("connection reset")

	_, err := f.svc.BulkSubmit(context.Background(), faculty, dto.BulkMarksRequest{
		SectionID: 4, AssessmentID: 2,
		Marks: []dto.StudentMarksInput{{StudentID: 100, Items: []dto.ItemMarkInput{{ItemID: 1, Marks: score(6)}}}},
	})
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}

func TestBulkSubmitUnknownAssessment(t *testing.T) {
	f := newMarksFixture(quiz())

	_, err := f.svc.BulkSubmit(context.Background(), faculty, dto.BulkMarksRequest{
		SectionID: 4, AssessmentID: 77,
		Marks: []dto.StudentMarksInput{{StudentID: 100, Items: []dto.ItemMarkInput{{ItemID: 1, Marks: score(6)}}}},
	})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestBulkSubmitAssessmentWithoutItems(t *testing.T) {
	empty := quiz()
	empty.Items = nil
	f := newMarksFixture(empty)

	_, err := f.svc.BulkSubmit(context.Background(), faculty, dto.BulkMarksRequest{
		SectionID: 4, AssessmentID: 2,
		Marks: []dto.StudentMarksInput{{StudentID: 100, Items: []dto.ItemMarkInput{{ItemID: 1, Marks: score(0)}}}},
	})
	require.Error(t, err)
	assert.Equal(t, []string{"item 1 of student 100 does not belong to assessment 2"}, appErrors.FromError(err).Details)
}

func TestPercentageGuardsZeroTotal(t *testing.T) {
	assert.Equal(t, 0.0, Percentage(5, 0))
	assert.Equal(t, 50.0, Percentage(5, 10))
}
