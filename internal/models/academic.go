package models

// Program is a degree program owning PLOs.
type Program struct {
	ID           int64  `db:"id" json:"id"`
	DepartmentID int64  `db:"department_id" json:"department_id"`
	Code         string `db:"code" json:"code"`
	Name         string `db:"name" json:"name"`
}

// Course is a catalogue course owning CLOs; it may be shared by several programs.
type Course struct {
	ID   int64  `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// CourseOffering is a course taught in a given semester.
type CourseOffering struct {
	ID         int64 `db:"id" json:"id"`
	CourseID   int64 `db:"course_id" json:"course_id"`
	SemesterID int64 `db:"semester_id" json:"semester_id"`
}

// Section is a taught group of a course offering.
type Section struct {
	ID               int64  `db:"id" json:"id"`
	CourseOfferingID int64  `db:"course_offering_id" json:"course_offering_id"`
	Name             string `db:"name" json:"name"`
}

// Faculty is the teaching-staff record linked to a portal user.
type Faculty struct {
	ID           int64 `db:"id" json:"id"`
	UserID       int64 `db:"user_id" json:"user_id"`
	DepartmentID int64 `db:"department_id" json:"department_id"`
}
