package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

const assessmentColumns = "id, course_offering_id, faculty_id, title, type, total_marks, due_date, weightage, instructions, status, created_at, updated_at"
const itemColumns = "id, assessment_id, question_no, description, marks, clo_id, position, created_at"

// AssessmentRepository persists assessments and their items.
type AssessmentRepository struct {
	db *sqlx.DB
}

// NewAssessmentRepository creates an assessment repository.
func NewAssessmentRepository(db *sqlx.DB) *AssessmentRepository {
	return &AssessmentRepository{db: db}
}

// FindByID returns an assessment with its ordered items, or sql.ErrNoRows.
func (r *AssessmentRepository) FindByID(ctx context.Context, id int64) (*models.Assessment, error) {
	var assessment models.Assessment
	if err := r.db.GetContext(ctx, &assessment, "SELECT "+assessmentColumns+" FROM assessments WHERE id = $1", id); err != nil {
		return nil, err
	}
	items, err := r.ListItems(ctx, id)
	if err != nil {
		return nil, err
	}
	assessment.Items = items
	return &assessment, nil
}

// ListByOffering returns the assessments of a course offering, most recent first.
func (r *AssessmentRepository) ListByOffering(ctx context.Context, courseOfferingID int64) ([]models.Assessment, error) {
	var assessments []models.Assessment
	query := "SELECT " + assessmentColumns + " FROM assessments WHERE course_offering_id = $1 ORDER BY created_at DESC"
	if err := r.db.SelectContext(ctx, &assessments, query, courseOfferingID); err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return assessments, nil
}

// Create inserts an assessment.
func (r *AssessmentRepository) Create(ctx context.Context, assessment *models.Assessment) error {
	now := time.Now().UTC()
	assessment.CreatedAt, assessment.UpdatedAt = now, now
	const query = `INSERT INTO assessments (course_offering_id, faculty_id, title, type, total_marks, due_date, weightage, instructions, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	row := r.db.QueryRowxContext(ctx, query,
		assessment.CourseOfferingID, assessment.FacultyID, assessment.Title, assessment.Type, assessment.TotalMarks,
		assessment.DueDate, assessment.Weightage, assessment.Instructions, assessment.Status, assessment.CreatedAt, assessment.UpdatedAt)
	if err := row.Scan(&assessment.ID); err != nil {
		return fmt.Errorf("insert assessment: %w", translate(err))
	}
	return nil
}

// UpdateStatus changes the lifecycle status of an assessment.
func (r *AssessmentRepository) UpdateStatus(ctx context.Context, id int64, status models.AssessmentStatus) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE assessments SET status = $1, updated_at = $2 WHERE id = $3", status, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update assessment status: %w", err)
	}
	return nil
}

// ListItems returns the items of an assessment ordered by position.
func (r *AssessmentRepository) ListItems(ctx context.Context, assessmentID int64) ([]models.AssessmentItem, error) {
	var items []models.AssessmentItem
	query := "SELECT " + itemColumns + " FROM assessment_items WHERE assessment_id = $1 ORDER BY position, id"
	if err := r.db.SelectContext(ctx, &items, query, assessmentID); err != nil {
		return nil, fmt.Errorf("list assessment items: %w", err)
	}
	return items, nil
}

// AddItem appends an item after the current last position.
func (r *AssessmentRepository) AddItem(ctx context.Context, item *models.AssessmentItem) error {
	item.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO assessment_items (assessment_id, question_no, description, marks, clo_id, position, created_at)
        VALUES ($1, $2, $3, $4, $5, (SELECT COALESCE(MAX(position), 0) + 1 FROM assessment_items WHERE assessment_id = $1), $6)
        RETURNING id, position`
	row := r.db.QueryRowxContext(ctx, query, item.AssessmentID, item.QuestionNo, item.Description, item.Marks, item.CLOID, item.CreatedAt)
	if err := row.Scan(&item.ID, &item.Position); err != nil {
		return fmt.Errorf("insert assessment item: %w", translate(err))
	}
	return nil
}
