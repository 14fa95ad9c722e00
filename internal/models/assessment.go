package models

import (
	"strings"
	"time"
)

// AssessmentType enumerates the supported kinds of assessment.
type AssessmentType string

const (
	AssessmentQuiz           AssessmentType = "quiz"
	AssessmentAssignment     AssessmentType = "assignment"
	AssessmentSessionalExam  AssessmentType = "sessional_exam"
	AssessmentMidExam        AssessmentType = "mid_exam"
	AssessmentFinalExam      AssessmentType = "final_exam"
	AssessmentProject        AssessmentType = "project"
	AssessmentPresentation   AssessmentType = "presentation"
	AssessmentLabReport      AssessmentType = "lab_report"
	AssessmentLabPerformance AssessmentType = "lab_performance"
	AssessmentLabExam        AssessmentType = "lab_exam"
	AssessmentViva           AssessmentType = "viva"
)

var assessmentTypes = map[AssessmentType]struct{}{
	AssessmentQuiz: {}, AssessmentAssignment: {}, AssessmentSessionalExam: {}, AssessmentMidExam: {},
	AssessmentFinalExam: {}, AssessmentProject: {}, AssessmentPresentation: {}, AssessmentLabReport: {},
	AssessmentLabPerformance: {}, AssessmentLabExam: {}, AssessmentViva: {},
}

// NormalizeAssessmentType lower-cases the raw type and resolves the legacy "exam" alias.
// The boolean is false when the result is not a supported type.
func NormalizeAssessmentType(raw string) (AssessmentType, bool) {
	t := AssessmentType(strings.ToLower(strings.TrimSpace(raw)))
	if t == "exam" {
		t = AssessmentMidExam
	}
	_, ok := assessmentTypes[t]
	return t, ok
}

// AssessmentStatus tracks whether an assessment still accepts changes.
type AssessmentStatus string

const (
	AssessmentStatusActive   AssessmentStatus = "active"
	AssessmentStatusArchived AssessmentStatus = "archived"
)

// Assessment is a scored activity of a course offering.
type Assessment struct {
	ID               int64            `db:"id" json:"id"`
	CourseOfferingID int64            `db:"course_offering_id" json:"course_offering_id"`
	FacultyID        int64            `db:"faculty_id" json:"faculty_id"`
	Title            string           `db:"title" json:"title"`
	Type             AssessmentType   `db:"type" json:"type"`
	TotalMarks       float64          `db:"total_marks" json:"total_marks"`
	DueDate          *time.Time       `db:"due_date" json:"due_date,omitempty"`
	Weightage        float64          `db:"weightage" json:"weightage"`
	Instructions     string           `db:"instructions" json:"instructions"`
	Status           AssessmentStatus `db:"status" json:"status"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
	Items            []AssessmentItem `db:"-" json:"items,omitempty"`
}

// AssessmentItem is a scored question of an assessment, tied to exactly one CLO.
type AssessmentItem struct {
	ID           int64     `db:"id" json:"id"`
	AssessmentID int64     `db:"assessment_id" json:"assessment_id"`
	QuestionNo   string    `db:"question_no" json:"question_no"`
	Description  string    `db:"description" json:"description"`
	Marks        float64   `db:"marks" json:"marks"`
	CLOID        int64     `db:"clo_id" json:"clo_id"`
	Position     int       `db:"position" json:"position"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// ItemMarksTotal sums the maximum marks of the items.
func ItemMarksTotal(items []AssessmentItem) float64 {
	total := 0.0
	for _, item := range items {
		total += item.Marks
	}
	return total
}
