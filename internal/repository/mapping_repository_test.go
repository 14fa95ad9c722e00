package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

func TestMappingRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMappingRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "clo_id", "plo_id", "weight", "clo_code", "plo_code", "created_at", "updated_at"}).
		AddRow(int64(5), int64(1), int64(2), 0.6, "CLO1", "PLO2", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND m.clo_id = $1 AND m.plo_id = $2 ORDER BY m.created_at DESC")).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(rows)

	mappings, err := repo.List(context.Background(), models.MappingFilter{CLOID: 1, PLOID: 2})
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, "PLO2", mappings[0].PLOCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMappingRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMappingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM clo_plo_mappings WHERE id = $1")).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := repo.Delete(context.Background(), 99)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestMappingRepositoryListByPLO(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMappingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE m.plo_id = $1 ORDER BY m.clo_id")).
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"clo_id", "clo_code", "weight"}).
			AddRow(int64(1), "CLO1", 0.5).
			AddRow(int64(3), "CLO3", 1.0))

	mapped, err := repo.ListByPLO(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, mapped, 2)
	assert.Equal(t, 1.0, mapped[1].Weight)
}

func TestAcademicRepositoryEnrolledStudents(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAcademicRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM section_enrollments WHERE section_id = $1 AND student_id = ANY($2)")).
		WithArgs(int64(4), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"student_id"}).AddRow(int64(10)))

	enrolled, err := repo.EnrolledStudents(context.Background(), 4, []int64{10, 11})
	require.NoError(t, err)
	assert.True(t, enrolled[10])
	assert.False(t, enrolled[11])

	empty, err := repo.EnrolledStudents(context.Background(), 4, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAcademicRepositoryProgramIDsForCourse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAcademicRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT program_id FROM program_courses WHERE course_id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"program_id"}).AddRow(int64(1)).AddRow(int64(3)))

	ids, err := repo.ProgramIDsForCourse(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids)
}
