package models

import "time"

// LookupRecord is one completed isotope resolution.
type LookupRecord struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	Z           int       `json:"Z"`
	A           int       `json:"A"`
	FolderFound bool      `json:"folder_found"`
	Files       int       `json:"files"`
	Skipped     int       `json:"skipped"`
	IndexRows   int       `json:"index_rows"`
	LatencyMS   int64     `json:"latency_ms"`
	CreatedAt   time.Time `json:"created_at"`
}
