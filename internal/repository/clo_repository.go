package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

const cloColumns = "id, course_id, code, description, bloom_level, status, created_at, updated_at"

// CLORepository persists course learning outcomes.
type CLORepository struct {
	db *sqlx.DB
}

// NewCLORepository creates a CLO repository.
func NewCLORepository(db *sqlx.DB) *CLORepository {
	return &CLORepository{db: db}
}

// FindByID returns a CLO or sql.ErrNoRows.
func (r *CLORepository) FindByID(ctx context.Context, id int64) (*models.CLO, error) {
	var clo models.CLO
	if err := r.db.GetContext(ctx, &clo, "SELECT "+cloColumns+" FROM clos WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &clo, nil
}

// ListByCourse returns the CLOs of a course ordered by code.
func (r *CLORepository) ListByCourse(ctx context.Context, courseID int64) ([]models.CLO, error) {
	var clos []models.CLO
	if err := r.db.SelectContext(ctx, &clos, "SELECT "+cloColumns+" FROM clos WHERE course_id = $1 ORDER BY code", courseID); err != nil {
		return nil, fmt.Errorf("list clos: %w", err)
	}
	return clos, nil
}

// CodeExists reports whether another CLO of the course already uses code.
func (r *CLORepository) CodeExists(ctx context.Context, courseID int64, code string, excludeID int64) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS(SELECT 1 FROM clos WHERE course_id = $1 AND code = $2 AND id <> $3)`
	if err := r.db.GetContext(ctx, &exists, query, courseID, code, excludeID); err != nil {
		return false, fmt.Errorf("check clo code: %w", err)
	}
	return exists, nil
}

// Create inserts a CLO and fills its id and timestamps.
func (r *CLORepository) Create(ctx context.Context, clo *models.CLO) error {
	now := time.Now().UTC()
	clo.CreatedAt, clo.UpdatedAt = now, now
	const query = `INSERT INTO clos (course_id, code, description, bloom_level, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, clo.CourseID, clo.Code, clo.Description, clo.BloomLevel, clo.Status, clo.CreatedAt, clo.UpdatedAt).Scan(&clo.ID); err != nil {
		return fmt.Errorf("insert clo: %w", translate(err))
	}
	return nil
}

// Update persists editable CLO fields.
func (r *CLORepository) Update(ctx context.Context, clo *models.CLO) error {
	clo.UpdatedAt = time.Now().UTC()
	const query = `UPDATE clos SET code = $1, description = $2, bloom_level = $3, status = $4, updated_at = $5 WHERE id = $6`
	if _, err := r.db.ExecContext(ctx, query, clo.Code, clo.Description, clo.BloomLevel, clo.Status, clo.UpdatedAt, clo.ID); err != nil {
		return fmt.Errorf("update clo: %w", translate(err))
	}
	return nil
}

// Delete removes a CLO.
func (r *CLORepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM clos WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete clo: %w", translate(err))
	}
	return nil
}

// CountReferences returns how many mappings and assessment items point at the CLO.
func (r *CLORepository) CountReferences(ctx context.Context, id int64) (mappings int, items int, err error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM clo_plo_mappings WHERE clo_id = $1) AS mappings,
        (SELECT COUNT(*) FROM assessment_items WHERE clo_id = $1) AS items`
	row := r.db.QueryRowxContext(ctx, query, id)
	if err := row.Scan(&mappings, &items); err != nil {
		return 0, 0, fmt.Errorf("count clo references: %w", err)
	}
	return mappings, items, nil
}
