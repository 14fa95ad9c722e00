package models

import "time"

// OutcomeStatus marks whether an outcome is in use.
type OutcomeStatus string

const (
	OutcomeStatusActive   OutcomeStatus = "active"
	OutcomeStatusInactive OutcomeStatus = "inactive"
)

// BloomLevel is the optional Bloom's-taxonomy classification of an outcome.
type BloomLevel string

const (
	BloomRemember   BloomLevel = "remember"
	BloomUnderstand BloomLevel = "understand"
	BloomApply      BloomLevel = "apply"
	BloomAnalyze    BloomLevel = "analyze"
	BloomEvaluate   BloomLevel = "evaluate"
	BloomCreate     BloomLevel = "create"
)

// Valid reports whether the level is one of the six taxonomy levels.
func (b BloomLevel) Valid() bool {
	switch b {
	case BloomRemember, BloomUnderstand, BloomApply, BloomAnalyze, BloomEvaluate, BloomCreate:
		return true
	}
	return false
}

// CLO is a course learning outcome.
type CLO struct {
	ID          int64         `db:"id" json:"id"`
	CourseID    int64         `db:"course_id" json:"course_id"`
	Code        string        `db:"code" json:"code"`
	Description string        `db:"description" json:"description"`
	BloomLevel  *BloomLevel   `db:"bloom_level" json:"bloom_level,omitempty"`
	Status      OutcomeStatus `db:"status" json:"status"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// PLO is a program learning outcome.
type PLO struct {
	ID          int64         `db:"id" json:"id"`
	ProgramID   int64         `db:"program_id" json:"program_id"`
	Code        string        `db:"code" json:"code"`
	Description string        `db:"description" json:"description"`
	BloomLevel  *BloomLevel   `db:"bloom_level" json:"bloom_level,omitempty"`
	Status      OutcomeStatus `db:"status" json:"status"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// CLOPLOMapping links a CLO to a PLO with a contribution weight in [0,1].
type CLOPLOMapping struct {
	ID        int64     `db:"id" json:"id"`
	CLOID     int64     `db:"clo_id" json:"clo_id"`
	PLOID     int64     `db:"plo_id" json:"plo_id"`
	Weight    float64   `db:"weight" json:"weight"`
	CLOCode   string    `db:"clo_code" json:"clo_code,omitempty"`
	PLOCode   string    `db:"plo_code" json:"plo_code,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// MappingFilter narrows mapping listings.
type MappingFilter struct {
	CLOID int64
	PLOID int64
}
