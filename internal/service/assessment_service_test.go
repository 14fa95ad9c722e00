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

func newAssessmentFixture(assessments ...models.Assessment) (*AssessmentService, *fakeAssessmentRepo, *fakeCache) {
	academic := newFakeAcademic()
	academic.offerings[30] = models.CourseOffering{ID: 30, CourseID: 10, SemesterID: 3}
	academic.faculty[faculty.UserID] = models.Faculty{ID: 77, UserID: faculty.UserID, DepartmentID: 1}
	repo := newFakeAssessmentRepo(assessments...)
	cache := newFakeCache()
	clos := newFakeCLORepo(models.CLO{ID: 1, CourseID: 10, Code: "CLO1"}, models.CLO{ID: 5, CourseID: 11, Code: "CLO1"})
	return NewAssessmentService(repo, academic, clos, cache, nil, nil), repo, cache
}

func TestCreateAssessmentResolvesFaculty(t *testing.T) {
	svc, _, _ := newAssessmentFixture()

	assessment, err := svc.Create(context.Background(), faculty, dto.CreateAssessmentRequest{
		CourseOfferingID: 30, Title: " Midterm ", Type: "Exam", TotalMarks: score(50), Weightage: weight(30),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(77), assessment.FacultyID)
	assert.Equal(t, models.AssessmentMidExam, assessment.Type)
	assert.Equal(t, "Midterm", assessment.Title)
	assert.Equal(t, models.AssessmentStatusActive, assessment.Status)
}

func TestCreateAssessmentRejects(t *testing.T) {
	svc, _, _ := newAssessmentFixture()

	req := func(offering int64, kind string) dto.CreateAssessmentRequest {
		return dto.CreateAssessmentRequest{CourseOfferingID: offering, Title: "X", Type: kind, TotalMarks: score(20), Weightage: weight(10)}
	}

	_, err := svc.Create(context.Background(), faculty, req(30, "essay"))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Create(context.Background(), faculty, req(99, "quiz"))
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	stranger := models.Principal{UserID: 404, Role: models.RoleFaculty}
	_, err = svc.Create(context.Background(), stranger, req(30, "quiz"))
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	missing := req(30, "quiz")
	missing.TotalMarks = nil
	_, err = svc.Create(context.Background(), faculty, missing)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	missing = req(30, "quiz")
	missing.Weightage = nil
	_, err = svc.Create(context.Background(), faculty, missing)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestAddItemValidatesCLOAndStatus(t *testing.T) {
	svc, repo, cache := newAssessmentFixture(quiz())

	item, err := svc.AddItem(context.Background(), 2, dto.AddAssessmentItemRequest{QuestionNo: "Q3", Marks: 5, CLOID: dto.ID(1)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), item.CLOID)
	assert.Equal(t, []string{AttainmentCachePattern}, cache.invalidated)

	_, err = svc.AddItem(context.Background(), 2, dto.AddAssessmentItemRequest{QuestionNo: "Q4", Marks: 5})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.AddItem(context.Background(), 2, dto.AddAssessmentItemRequest{QuestionNo: "Q4", Marks: 5, CLOID: dto.ID(9)})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Archive(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, models.AssessmentStatusArchived, repo.assessments[2].Status)

	_, err = svc.AddItem(context.Background(), 2, dto.AddAssessmentItemRequest{QuestionNo: "Q4", Marks: 5, CLOID: dto.ID(1)})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestAddItemRejectsCLOOfAnotherCourse(t *testing.T) {
	svc, repo, cache := newAssessmentFixture(quiz())

	_, err := svc.AddItem(context.Background(), 2, dto.AddAssessmentItemRequest{QuestionNo: "Q3", Marks: 5, CLOID: dto.ID(5)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Len(t, repo.assessments[2].Items, 2)
	assert.Empty(t, cache.invalidated)
}

func TestArchiveIsIdempotent(t *testing.T) {
	archived := quiz()
	archived.Status = models.AssessmentStatusArchived
	svc, _, _ := newAssessmentFixture(archived)

	out, err := svc.Archive(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, models.AssessmentStatusArchived, out.Status)

	_, err = svc.Archive(context.Background(), 404)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestListAssessmentsRequiresOffering(t *testing.T) {
	svc, _, _ := newAssessmentFixture(quiz())

	_, err := svc.List(context.Background(), 0)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	list, err := svc.List(context.Background(), 30)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
