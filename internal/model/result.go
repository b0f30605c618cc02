package model

import "time"

// AcquisitionStatus is the terminal state of one acquisition run.
type AcquisitionStatus string

const (
	AcquisitionComplete  AcquisitionStatus = "complete"
	AcquisitionExhausted AcquisitionStatus = "exhausted"
	AcquisitionPartial   AcquisitionStatus = "partial"
)

// AcquireResult is returned to the caller for every acquisition, including
// empty ones, so "no leads" can be told apart from "everything was filtered"
// or "the provider fell over mid-run".
type AcquireResult struct {
	Delivered    []CanonicalProperty `json:"delivered"`
	TotalChecked int                 `json:"total_checked"`
	Filtered     int                 `json:"filtered"`
	Duplicates   int                 `json:"duplicates"`
	HasMore      bool                `json:"has_more"`
	Status       AcquisitionStatus   `json:"status"`
}

// Acquisition is the audit row persisted for each orchestrator invocation.
type Acquisition struct {
	ID           string            `json:"id"`
	UserID       string            `json:"user_id"`
	CriteriaKey  string            `json:"criteria_key"`
	Requested    int               `json:"requested"`
	Delivered    int               `json:"delivered"`
	TotalChecked int               `json:"total_checked"`
	Filtered     int               `json:"filtered"`
	DurationMS   int64             `json:"duration_ms"`
	Status       AcquisitionStatus `json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
}
