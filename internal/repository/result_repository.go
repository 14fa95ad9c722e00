package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

const resultColumns = "r.id, r.student_id, r.assessment_id, r.total_marks, r.obtained_marks, r.percentage, r.status, r.remarks, r.submitted_at, r.created_at, r.updated_at"

// ResultRepository persists student assessment results and their item results.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository creates a result repository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// CreateBulk stores every result with its item results in one transaction.
// With replace set, existing results of the listed students for the assessment are removed first.
// A pre-existing (student, assessment) pair aborts the whole batch with ErrDuplicate.
func (r *ResultRepository) CreateBulk(ctx context.Context, results []*models.StudentAssessmentResult, replace bool) error {
	if len(results) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin results tx: %w", err)
	}

	if replace {
		studentIDs := make([]int64, 0, len(results))
		for _, result := range results {
			studentIDs = append(studentIDs, result.StudentID)
		}
		const deleteQuery = `DELETE FROM student_assessment_results WHERE assessment_id = $1 AND student_id = ANY($2)`
		if _, err := tx.ExecContext(ctx, deleteQuery, results[0].AssessmentID, pq.Array(studentIDs)); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("replace results: %w", err)
		}
	}

	now := time.Now().UTC()
	const resultQuery = `INSERT INTO student_assessment_results (student_id, assessment_id, total_marks, obtained_marks, percentage, status, remarks, submitted_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	const itemQuery = `INSERT INTO student_assessment_item_results (result_id, item_id, obtained_marks, total_marks, is_correct)
        VALUES ($1, $2, $3, $4, $5) RETURNING id`
	for _, result := range results {
		result.SubmittedAt, result.CreatedAt, result.UpdatedAt = now, now, now
		row := tx.QueryRowxContext(ctx, resultQuery,
			result.StudentID, result.AssessmentID, result.TotalMarks, result.ObtainedMarks, result.Percentage,
			result.Status, result.Remarks, result.SubmittedAt, result.CreatedAt, result.UpdatedAt)
		if err := row.Scan(&result.ID); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert result for student %d: %w", result.StudentID, translate(err))
		}
		for i := range result.Items {
			item := &result.Items[i]
			item.ResultID = result.ID
			if err := tx.QueryRowxContext(ctx, itemQuery, item.ResultID, item.ItemID, item.ObtainedMarks, item.TotalMarks, item.IsCorrect).Scan(&item.ID); err != nil {
				tx.Rollback() //nolint:errcheck
				return fmt.Errorf("insert item result: %w", translate(err))
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit results: %w", err)
	}
	return nil
}

// FindByID returns a result with its item results, or sql.ErrNoRows.
func (r *ResultRepository) FindByID(ctx context.Context, id int64) (*models.StudentAssessmentResult, error) {
	var result models.StudentAssessmentResult
	if err := r.db.GetContext(ctx, &result, "SELECT "+resultColumns+" FROM student_assessment_results r WHERE r.id = $1", id); err != nil {
		return nil, err
	}
	var items []models.StudentAssessmentItemResult
	const itemsQuery = `SELECT id, result_id, item_id, obtained_marks, total_marks, is_correct
        FROM student_assessment_item_results WHERE result_id = $1 ORDER BY id`
	if err := r.db.SelectContext(ctx, &items, itemsQuery, id); err != nil {
		return nil, fmt.Errorf("list item results: %w", err)
	}
	result.Items = items
	return &result, nil
}

// List returns results matching the filter; a section narrows to its enrolled students.
func (r *ResultRepository) List(ctx context.Context, filter models.ResultFilter) ([]models.StudentAssessmentResult, error) {
	query := "SELECT " + resultColumns + " FROM student_assessment_results r"
	var args []interface{}
	if filter.SectionID > 0 {
		query += fmt.Sprintf(" JOIN section_enrollments se ON se.student_id = r.student_id AND se.section_id = $%d", len(args)+1)
		args = append(args, filter.SectionID)
	}
	query += " WHERE 1=1"
	if filter.AssessmentID > 0 {
		query += fmt.Sprintf(" AND r.assessment_id = $%d", len(args)+1)
		args = append(args, filter.AssessmentID)
	}
	if filter.StudentID > 0 {
		query += fmt.Sprintf(" AND r.student_id = $%d", len(args)+1)
		args = append(args, filter.StudentID)
	}
	query += " ORDER BY r.student_id"
	var results []models.StudentAssessmentResult
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	return results, nil
}

// Update applies moderation changes; nil fields keep their stored values.
func (r *ResultRepository) Update(ctx context.Context, id int64, update models.ResultUpdate) error {
	var status *string
	if update.Status != nil {
		s := string(*update.Status)
		status = &s
	}
	const query = `UPDATE student_assessment_results
        SET status = COALESCE($1, status), remarks = COALESCE($2, remarks), updated_at = $3
        WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query, status, update.Remarks, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update result: %w", err)
	}
	return nil
}

// Delete removes a result and its item results, reporting whether it existed.
func (r *ResultRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM student_assessment_results WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("delete result: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete result rows: %w", err)
	}
	return affected > 0, nil
}
