package dto

import "time"

// MetricsSnapshot is the JSON view of the in-process counters.
type MetricsSnapshot struct {
	RequestsTotal            uint64     `json:"requestsTotal"`
	AverageRequestDurationMs float64    `json:"averageRequestDurationMs"`
	GenerationRuns           uint64     `json:"generationRuns"`
	EntriesGenerated         uint64     `json:"entriesGenerated"`
	RejectedPlacements       uint64     `json:"rejectedPlacements"`
	LastGenerationAt         *time.Time `json:"lastGenerationAt,omitempty"`
	Goroutines               int        `json:"goroutines"`
	GeneratedAt              time.Time  `json:"generatedAt"`
}
