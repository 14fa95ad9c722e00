package dto

import "github.com/noah-isme/obe-attainment-api/internal/models"

// CreateCLORequest registers a course learning outcome.
type CreateCLORequest struct {
	CourseID    int64              `json:"courseId" validate:"required,gt=0"`
	Code        string             `json:"code" validate:"required,max=20"`
	Description string             `json:"description" validate:"required,max=2000"`
	BloomLevel  *models.BloomLevel `json:"bloomLevel,omitempty" validate:"omitempty,bloom_level"`
}

// UpdateCLORequest edits a CLO; the course may not change.
type UpdateCLORequest struct {
	Code        string                `json:"code" validate:"required,max=20"`
	Description string                `json:"description" validate:"required,max=2000"`
	BloomLevel  *models.BloomLevel    `json:"bloomLevel,omitempty" validate:"omitempty,bloom_level"`
	Status      *models.OutcomeStatus `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

// CreatePLORequest registers a program learning outcome.
type CreatePLORequest struct {
	ProgramID   int64              `json:"programId" validate:"required,gt=0"`
	Code        string             `json:"code" validate:"required,max=20"`
	Description string             `json:"description" validate:"required,max=2000"`
	BloomLevel  *models.BloomLevel `json:"bloomLevel,omitempty" validate:"omitempty,bloom_level"`
}

// UpdatePLORequest edits a PLO.
type UpdatePLORequest struct {
	Code        string                `json:"code" validate:"required,max=20"`
	Description string                `json:"description" validate:"required,max=2000"`
	BloomLevel  *models.BloomLevel    `json:"bloomLevel,omitempty" validate:"omitempty,bloom_level"`
	Status      *models.OutcomeStatus `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

// CreateMappingRequest links a CLO to a PLO.
type CreateMappingRequest struct {
	CLOID  int64    `json:"cloId" validate:"required,gt=0"`
	PLOID  int64    `json:"ploId" validate:"required,gt=0"`
	Weight *float64 `json:"weight" validate:"required"`
}

// UpdateMappingRequest changes a mapping weight.
type UpdateMappingRequest struct {
	Weight *float64 `json:"weight" validate:"required"`
}
