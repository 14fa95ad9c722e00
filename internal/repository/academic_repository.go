package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

// AcademicRepository reads the reference tables owned by the wider portal.
type AcademicRepository struct {
	db *sqlx.DB
}

// NewAcademicRepository creates an academic lookup repository.
func NewAcademicRepository(db *sqlx.DB) *AcademicRepository {
	return &AcademicRepository{db: db}
}

// CourseExists reports whether the course is known.
func (r *AcademicRepository) CourseExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM courses WHERE id = $1)", id); err != nil {
		return false, fmt.Errorf("check course: %w", err)
	}
	return exists, nil
}

// ProgramExists reports whether the program is known.
func (r *AcademicRepository) ProgramExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM programs WHERE id = $1)", id); err != nil {
		return false, fmt.Errorf("check program: %w", err)
	}
	return exists, nil
}

// ProgramIDsForCourse returns every program the course belongs to.
func (r *AcademicRepository) ProgramIDsForCourse(ctx context.Context, courseID int64) ([]int64, error) {
	var ids []int64
	if err := r.db.SelectContext(ctx, &ids, "SELECT program_id FROM program_courses WHERE course_id = $1 ORDER BY program_id", courseID); err != nil {
		return nil, fmt.Errorf("list course programs: %w", err)
	}
	return ids, nil
}

// FindCourseOffering returns an offering or sql.ErrNoRows.
func (r *AcademicRepository) FindCourseOffering(ctx context.Context, id int64) (*models.CourseOffering, error) {
	var offering models.CourseOffering
	if err := r.db.GetContext(ctx, &offering, "SELECT id, course_id, semester_id FROM course_offerings WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &offering, nil
}

// FindSection returns a section or sql.ErrNoRows.
func (r *AcademicRepository) FindSection(ctx context.Context, id int64) (*models.Section, error) {
	var section models.Section
	if err := r.db.GetContext(ctx, &section, "SELECT id, course_offering_id, name FROM sections WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &section, nil
}

// FindFacultyByUserID returns the faculty record of a portal user or sql.ErrNoRows.
func (r *AcademicRepository) FindFacultyByUserID(ctx context.Context, userID int64) (*models.Faculty, error) {
	var faculty models.Faculty
	if err := r.db.GetContext(ctx, &faculty, "SELECT id, user_id, department_id FROM faculty WHERE user_id = $1", userID); err != nil {
		return nil, err
	}
	return &faculty, nil
}

// EnrolledStudents returns the subset of studentIDs enrolled in the section.
func (r *AcademicRepository) EnrolledStudents(ctx context.Context, sectionID int64, studentIDs []int64) (map[int64]bool, error) {
	enrolled := make(map[int64]bool, len(studentIDs))
	if len(studentIDs) == 0 {
		return enrolled, nil
	}
	var ids []int64
	const query = `SELECT student_id FROM section_enrollments WHERE section_id = $1 AND student_id = ANY($2)`
	if err := r.db.SelectContext(ctx, &ids, query, sectionID, pq.Array(studentIDs)); err != nil {
		return nil, fmt.Errorf("list section enrollments: %w", err)
	}
	for _, id := range ids {
		enrolled[id] = true
	}
	return enrolled, nil
}
