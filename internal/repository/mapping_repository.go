package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/obe-attainment-api/internal/models"
)

const mappingSelect = `SELECT m.id, m.clo_id, m.plo_id, m.weight, c.code AS clo_code, p.code AS plo_code, m.created_at, m.updated_at
        FROM clo_plo_mappings m
        JOIN clos c ON c.id = m.clo_id
        JOIN plos p ON p.id = m.plo_id`

// MappingRepository persists weighted CLO to PLO links.
type MappingRepository struct {
	db *sqlx.DB
}

// NewMappingRepository creates a mapping repository.
func NewMappingRepository(db *sqlx.DB) *MappingRepository {
	return &MappingRepository{db: db}
}

// FindByID returns a mapping or sql.ErrNoRows.
func (r *MappingRepository) FindByID(ctx context.Context, id int64) (*models.CLOPLOMapping, error) {
	var mapping models.CLOPLOMapping
	if err := r.db.GetContext(ctx, &mapping, mappingSelect+" WHERE m.id = $1", id); err != nil {
		return nil, err
	}
	return &mapping, nil
}

// List returns mappings newest first.
func (r *MappingRepository) List(ctx context.Context, filter models.MappingFilter) ([]models.CLOPLOMapping, error) {
	query := mappingSelect + " WHERE 1=1"
	var args []interface{}
	if filter.CLOID > 0 {
		query += fmt.Sprintf(" AND m.clo_id = $%d", len(args)+1)
		args = append(args, filter.CLOID)
	}
	if filter.PLOID > 0 {
		query += fmt.Sprintf(" AND m.plo_id = $%d", len(args)+1)
		args = append(args, filter.PLOID)
	}
	query += " ORDER BY m.created_at DESC, m.id DESC"
	var mappings []models.CLOPLOMapping
	if err := r.db.SelectContext(ctx, &mappings, query, args...); err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	return mappings, nil
}

// Exists reports whether the pair is already mapped.
func (r *MappingRepository) Exists(ctx context.Context, cloID, ploID int64) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, "SELECT EXISTS(SELECT 1 FROM clo_plo_mappings WHERE clo_id = $1 AND plo_id = $2)", cloID, ploID); err != nil {
		return false, fmt.Errorf("check mapping: %w", err)
	}
	return exists, nil
}

// Create inserts a mapping. A concurrent duplicate surfaces as ErrDuplicate.
func (r *MappingRepository) Create(ctx context.Context, mapping *models.CLOPLOMapping) error {
	now := time.Now().UTC()
	mapping.CreatedAt, mapping.UpdatedAt = now, now
	const query = `INSERT INTO clo_plo_mappings (clo_id, plo_id, weight, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, mapping.CLOID, mapping.PLOID, mapping.Weight, mapping.CreatedAt, mapping.UpdatedAt).Scan(&mapping.ID); err != nil {
		return fmt.Errorf("insert mapping: %w", translate(err))
	}
	return nil
}

// UpdateWeight changes the weight of a mapping.
func (r *MappingRepository) UpdateWeight(ctx context.Context, id int64, weight float64) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE clo_plo_mappings SET weight = $1, updated_at = $2 WHERE id = $3", weight, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update mapping: %w", err)
	}
	return nil
}

// Delete removes a mapping and reports whether a row existed.
func (r *MappingRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM clo_plo_mappings WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("delete mapping: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete mapping rows: %w", err)
	}
	return affected > 0, nil
}

// ListByPLO returns the CLOs mapped to a PLO with their weights.
func (r *MappingRepository) ListByPLO(ctx context.Context, ploID int64) ([]models.MappedCLO, error) {
	const query = `SELECT m.clo_id, c.code AS clo_code, m.weight
        FROM clo_plo_mappings m
        JOIN clos c ON c.id = m.clo_id
        WHERE m.plo_id = $1
        ORDER BY m.clo_id`
	var mapped []models.MappedCLO
	if err := r.db.SelectContext(ctx, &mapped, query, ploID); err != nil {
		return nil, fmt.Errorf("list mapped clos: %w", err)
	}
	return mapped, nil
}
