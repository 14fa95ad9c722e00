package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

const ploColumns = "id, program_id, code, description, bloom_level, status, created_at, updated_at"

// PLORepository persists program learning outcomes.
type PLORepository struct {
	db *sqlx.DB
}

// NewPLORepository creates a PLO repository.
func NewPLORepository(db *sqlx.DB) *PLORepository {
	return &PLORepository{db: db}
}

// FindByID returns a PLO or sql.ErrNoRows.
func (r *PLORepository) FindByID(ctx context.Context, id int64) (*models.PLO, error) {
	var plo models.PLO
	if err := r.db.GetContext(ctx, &plo, "SELECT "+ploColumns+" FROM plos WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &plo, nil
}

// ListByProgram returns the PLOs of a program ordered by code.
func (r *PLORepository) ListByProgram(ctx context.Context, programID int64) ([]models.PLO, error) {
	var plos []models.PLO
	if err := r.db.SelectContext(ctx, &plos, "SELECT "+ploColumns+" FROM plos WHERE program_id = $1 ORDER BY code", programID); err != nil {
		return nil, fmt.Errorf("list plos: %w", err)
	}
	return plos, nil
}

// CodeExists reports whether another PLO of the program already uses code.
func (r *PLORepository) CodeExists(ctx context.Context, programID int64, code string, excludeID int64) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS(SELECT 1 FROM plos WHERE program_id = $1 AND code = $2 AND id <> $3)`
	if err := r.db.GetContext(ctx, &exists, query, programID, code, excludeID); err != nil {
		return false, fmt.Errorf("check plo code: %w", err)
	}
	return exists, nil
}

// Create inserts a PLO.
func (r *PLORepository) Create(ctx context.Context, plo *models.PLO) error {
	now := time.Now().UTC()
	plo.CreatedAt, plo.UpdatedAt = now, now
	const query = `INSERT INTO plos (program_id, code, description, bloom_level, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, plo.ProgramID, plo.Code, plo.Description, plo.BloomLevel, plo.Status, plo.CreatedAt, plo.UpdatedAt).Scan(&plo.ID); err != nil {
		return fmt.Errorf("insert plo: %w", translate(err))
	}
	return nil
}

// Update persists editable PLO fields.
func (r *PLORepository) Update(ctx context.Context, plo *models.PLO) error {
	plo.UpdatedAt = time.Now().UTC()
	const query = `UPDATE plos SET code = $1, description = $2, bloom_level = $3, status = $4, updated_at = $5 WHERE id = $6`
	if _, err := r.db.ExecContext(ctx, query, plo.Code, plo.Description, plo.BloomLevel, plo.Status, plo.UpdatedAt, plo.ID); err != nil {
		return fmt.Errorf("update plo: %w", translate(err))
	}
	return nil
}

// Delete removes a PLO; the mappings foreign key restricts deletes that race a new mapping.
func (r *PLORepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM plos WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete plo: %w", translate(err))
	}
	return nil
}

// CountMappings returns how many mappings reference the PLO.
func (r *PLORepository) CountMappings(ctx context.Context, id int64) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM clo_plo_mappings WHERE plo_id = $1", id); err != nil {
		return 0, fmt.Errorf("count plo mappings: %w", err)
	}
	return count, nil
}
