package models

// ItemScore is the minimal projection of an item result used for attainment math.
type ItemScore struct {
	ObtainedMarks float64 `db:"obtained_marks"`
	TotalMarks    float64 `db:"total_marks"`
}

// CLOAttainment is the derived attainment of a CLO within a scope.
type CLOAttainment struct {
	CLOID            int64   `json:"clo_id"`
	CLOCode          string  `json:"clo_code"`
	CourseOfferingID int64   `json:"course_offering_id,omitempty"`
	SemesterID       int64   `json:"semester_id,omitempty"`
	Attainment       float64 `json:"attainment"`
	SampleSize       int     `json:"sample_size"`
}

// ContributingCLO records one weighted input of a PLO attainment.
type ContributingCLO struct {
	CLOID      int64   `json:"cloId"`
	CLOCode    string  `json:"cloCode"`
	Attainment float64 `json:"attainment"`
	Weight     float64 `json:"weight"`
}

// PLOAttainment is the weighted attainment of a PLO in a semester.
type PLOAttainment struct {
	PLOID            int64             `json:"ploId"`
	PLOCode          string            `json:"ploCode"`
	Description      string            `json:"description"`
	Attainment       float64           `json:"attainment"`
	ContributingCLOs []ContributingCLO `json:"contributingClos"`
}

// MappedCLO is a mapping joined with its CLO, as consumed by the calculator.
type MappedCLO struct {
	CLOID   int64   `db:"clo_id"`
	CLOCode string  `db:"clo_code"`
	Weight  float64 `db:"weight"`
}
