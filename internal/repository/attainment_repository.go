package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

// AttainmentRepository reads the item results that feed attainment calculations.
type AttainmentRepository struct {
	db *sqlx.DB
}

// NewAttainmentRepository creates an attainment repository.
func NewAttainmentRepository(db *sqlx.DB) *AttainmentRepository {
	return &AttainmentRepository{db: db}
}

const itemScoresSelect = `SELECT ir.obtained_marks, ir.total_marks
        FROM student_assessment_item_results ir
        JOIN assessment_items ai ON ai.id = ir.item_id
        JOIN assessments a ON a.id = ai.assessment_id`

// ItemScoresForOffering returns item results of the CLO within one course offering.
func (r *AttainmentRepository) ItemScoresForOffering(ctx context.Context, cloID, courseOfferingID int64) ([]models.ItemScore, error) {
	query := itemScoresSelect + " WHERE ai.clo_id = $1 AND a.course_offering_id = $2"
	var scores []models.ItemScore
	if err := r.db.SelectContext(ctx, &scores, query, cloID, courseOfferingID); err != nil {
		return nil, fmt.Errorf("list clo item scores: %w", err)
	}
	return scores, nil
}

// ItemScoresForSemester returns item results of the CLO across every offering of a semester.
func (r *AttainmentRepository) ItemScoresForSemester(ctx context.Context, cloID, semesterID int64) ([]models.ItemScore, error) {
	query := itemScoresSelect + `
        JOIN course_offerings co ON co.id = a.course_offering_id
        WHERE ai.clo_id = $1 AND co.semester_id = $2`
	var scores []models.ItemScore
	if err := r.db.SelectContext(ctx, &scores, query, cloID, semesterID); err != nil {
		return nil, fmt.Errorf("list semester item scores: %w", err)
	}
	return scores, nil
}
