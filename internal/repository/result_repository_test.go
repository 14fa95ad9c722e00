package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

func sampleResults() []*models.StudentAssessmentResult {
	return []*models.StudentAssessmentResult{
		{
			StudentID: 10, AssessmentID: 2, TotalMarks: 20, ObtainedMarks: 15, Percentage: 75, Status: models.ResultStatusPending,
			Items: []models.StudentAssessmentItemResult{
				{ItemID: 1, ObtainedMarks: 8, TotalMarks: 10, IsCorrect: true},
				{ItemID: 2, ObtainedMarks: 7, TotalMarks: 10, IsCorrect: true},
			},
		},
	}
}

func TestResultRepositoryCreateBulk(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO student_assessment_results")).
		WithArgs(int64(10), int64(2), 20.0, 15.0, 75.0, models.ResultStatusPending, nil, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(100)))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO student_assessment_item_results")).
		WithArgs(int64(100), int64(1), 8.0, 10.0, true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1000)))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO student_assessment_item_results")).
		WithArgs(int64(100), int64(2), 7.0, 10.0, true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1001)))
	mock.ExpectCommit()

	results := sampleResults()
	require.NoError(t, repo.CreateBulk(context.Background(), results, false))
	assert.Equal(t, int64(100), results[0].ID)
	assert.Equal(t, int64(100), results[0].Items[1].ResultID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryCreateBulkDuplicateRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO student_assessment_results")).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.CreateBulk(context.Background(), sampleResults(), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicate))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryCreateBulkReplace(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM student_assessment_results WHERE assessment_id = $1 AND student_id = ANY($2)")).
		WithArgs(int64(2), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO student_assessment_results")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(101)))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO student_assessment_item_results")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO student_assessment_item_results")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectCommit()

	require.NoError(t, repo.CreateBulk(context.Background(), sampleResults(), true))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM student_assessment_results r WHERE r.id = $1")).
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "assessment_id", "total_marks", "obtained_marks", "percentage", "status", "remarks", "submitted_at", "created_at", "updated_at"}).
			AddRow(int64(100), int64(10), int64(2), 20.0, 15.0, 75.0, "approved", "well done", now, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM student_assessment_item_results WHERE result_id = $1")).
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "result_id", "item_id", "obtained_marks", "total_marks", "is_correct"}).
			AddRow(int64(1000), int64(100), int64(1), 8.0, 10.0, true))

	result, err := repo.FindByID(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, models.ResultStatusApproved, result.Status)
	require.NotNil(t, result.Remarks)
	assert.Equal(t, "well done", *result.Remarks)
	require.Len(t, result.Items, 1)
}

func TestResultRepositoryListBySection(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN section_enrollments se ON se.student_id = r.student_id AND se.section_id = $1 WHERE 1=1 AND r.assessment_id = $2")).
		WithArgs(int64(4), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "assessment_id", "total_marks", "obtained_marks", "percentage", "status", "remarks", "submitted_at", "created_at", "updated_at"}))

	results, err := repo.List(context.Background(), models.ResultFilter{AssessmentID: 2, SectionID: 4})
	require.NoError(t, err)
	assert.Empty(t, results)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResultRepositoryUpdateKeepsNilFields(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewResultRepository(db)

	remarks := "recheck Q2"
	mock.ExpectExec(regexp.QuoteMeta("SET status = COALESCE($1, status), remarks = COALESCE($2, remarks)")).
		WithArgs(nil, remarks, sqlmock.AnyArg(), int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), 100, models.ResultUpdate{Remarks: &remarks}))
	require.NoError(t, mock.ExpectationsWereMet())
}
