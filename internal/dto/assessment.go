package dto

import "time"

// CreateAssessmentRequest defines an assessment for a course offering.
type CreateAssessmentRequest struct {
	CourseOfferingID int64      `json:"courseOfferingId" validate:"required,gt=0"`
	Title            string     `json:"title" validate:"required,max=200"`
	Type             string     `json:"type" validate:"required"`
	TotalMarks       *float64   `json:"totalMarks" validate:"required,gte=0"`
	DueDate          *time.Time `json:"dueDate,omitempty"`
	Weightage        *float64   `json:"weightage" validate:"required,gte=0,lte=100"`
	Instructions     string     `json:"instructions" validate:"max=5000"`
}

// AddAssessmentItemRequest appends a scored item to an assessment.
type AddAssessmentItemRequest struct {
	QuestionNo  string    `json:"questionNo" validate:"required,max=20"`
	Description string    `json:"description" validate:"max=2000"`
	Marks       float64   `json:"marks" validate:"gt=0"`
	CLOID       NumericID `json:"cloId"`
}

// ItemMarkInput is one item score inside a bulk submission.
type ItemMarkInput struct {
	ItemID int64    `json:"itemId" validate:"required,gt=0"`
	Marks  *float64 `json:"marks" validate:"required"`
}

// StudentMarksInput groups one student's item scores.
type StudentMarksInput struct {
	StudentID int64           `json:"studentId" validate:"required,gt=0"`
	Items     []ItemMarkInput `json:"items" validate:"required,min=1,dive"`
}

// BulkMarksRequest is the body of POST /assessment-results/bulk.
type BulkMarksRequest struct {
	SectionID       int64               `json:"sectionId" validate:"required,gt=0"`
	AssessmentID    int64               `json:"assessmentId" validate:"required,gt=0"`
	Marks           []StudentMarksInput `json:"marks" validate:"required,min=1,dive"`
	ReplaceExisting bool                `json:"replaceExisting,omitempty"`
}

// UpdateResultRequest is the moderation body of PATCH /assessment-results/:id.
type UpdateResultRequest struct {
	Status  *string `json:"status,omitempty"`
	Remarks *string `json:"remarks,omitempty" validate:"omitempty,max=2000"`
}
