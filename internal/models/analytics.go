package models

import "time"

// ResultMetrics summarises a cohort's results for one assessment.
type ResultMetrics struct {
	AverageMarks  float64 `json:"averageMarks"`
	HighestMarks  float64 `json:"highestMarks"`
	LowestMarks   float64 `json:"lowestMarks"`
	PassRate      float64 `json:"passRate"`
	TotalStudents int     `json:"totalStudents"`
}

// GradeBucket is one letter grade in a distribution.
type GradeBucket struct {
	Grade      string  `json:"grade"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// ResultAnalytics is returned by the assessment-results analytics endpoint.
type ResultAnalytics struct {
	Metrics           ResultMetrics `json:"metrics"`
	GradeDistribution []GradeBucket `json:"gradeDistribution"`
}

// SystemMetrics is a lightweight snapshot of the process counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	MarksSubmissions         uint64    `json:"marks_submissions"`
	ResultsWritten           uint64    `json:"results_written"`
	EventsPublished          uint64    `json:"events_published"`
	EventsFailed             uint64    `json:"events_failed"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
