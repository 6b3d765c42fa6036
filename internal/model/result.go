// Package model holds the domain types shared across the reconciliation
// engine, the run store, and the API surface.
package model

// Status is the verdict for a single validated record.
type Status string

const (
	StatusValid        Status = "Valid"
	StatusPartialMatch Status = "Partial Match"
	StatusInvalid      Status = "Invalid"
)

// ValidationResult is the engine's verdict for one candidate record.
// It is never mutated by the engine after creation; the manual-approval
// channel may later force the status to Valid.
type ValidationResult struct {
	Status      Status `json:"status"`
	Reason      string `json:"reason"`
	MatchedName string `json:"matched_name,omitempty"`
	MatchedSSID string `json:"matched_ssid,omitempty"`
	MatchedNIN  string `json:"matched_nin,omitempty"`
	Similarity  int    `json:"similarity"`
}

// Summary aggregates verdicts for a whole run.
type Summary struct {
	Total        int `json:"total"`
	Valid        int `json:"valid"`
	Invalid      int `json:"invalid"`
	PartialMatch int `json:"partial_match"`
}
