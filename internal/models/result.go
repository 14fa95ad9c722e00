package models

import "time"

// ResultStatus is the moderation state of a student result.
type ResultStatus string

const (
	ResultStatusPending  ResultStatus = "pending"
	ResultStatusApproved ResultStatus = "approved"
	ResultStatusRejected ResultStatus = "rejected"
)

// Valid reports whether the status is known.
func (s ResultStatus) Valid() bool {
	switch s {
	case ResultStatusPending, ResultStatusApproved, ResultStatusRejected:
		return true
	}
	return false
}

// StudentAssessmentResult aggregates one student's marks for one assessment.
type StudentAssessmentResult struct {
	ID            int64        `db:"id" json:"id"`
	StudentID     int64        `db:"student_id" json:"student_id"`
	AssessmentID  int64        `db:"assessment_id" json:"assessment_id"`
	TotalMarks    float64      `db:"total_marks" json:"total_marks"`
	ObtainedMarks float64      `db:"obtained_marks" json:"obtained_marks"`
	Percentage    float64      `db:"percentage" json:"percentage"`
	Status        ResultStatus `db:"status" json:"status"`
	Remarks       *string      `db:"remarks" json:"remarks,omitempty"`
	SubmittedAt   time.Time    `db:"submitted_at" json:"submitted_at"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`

	Items []StudentAssessmentItemResult `db:"-" json:"items,omitempty"`
}

// StudentAssessmentItemResult holds the marks obtained on one item.
type StudentAssessmentItemResult struct {
	ID            int64   `db:"id" json:"id"`
	ResultID      int64   `db:"result_id" json:"result_id"`
	ItemID        int64   `db:"item_id" json:"item_id"`
	ObtainedMarks float64 `db:"obtained_marks" json:"obtained_marks"`
	TotalMarks    float64 `db:"total_marks" json:"total_marks"`
	IsCorrect     bool    `db:"is_correct" json:"is_correct"`
}

// ResultFilter narrows result listings.
type ResultFilter struct {
	AssessmentID int64
	SectionID    int64
	StudentID    int64
}

// ResultUpdate carries moderation changes; nil fields are left untouched.
type ResultUpdate struct {
	Status  *ResultStatus
	Remarks *string
}
