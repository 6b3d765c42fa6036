package model

import (
	"encoding/json"
	"time"
)

// ResultRecord is one persisted candidate outcome. Fields carries the
// processed entry as ordered JSON so exports reproduce column order.
type ResultRecord struct {
	Index        int              `json:"index"`
	Fields       json.RawMessage  `json:"fields"`
	Result       ValidationResult `json:"result"`
	Approved     bool             `json:"approved,omitempty"`
	ApprovalNote string           `json:"approval_note,omitempty"`
}

// Run is a persisted reconciliation run.
type Run struct {
	ID         string         `json:"id"`
	SourceFile string         `json:"source_file,omitempty"`
	InputFile  string         `json:"input_file,omitempty"`
	Summary    Summary        `json:"summary"`
	Warnings   []string       `json:"warnings,omitempty"`
	Results    []ResultRecord `json:"results,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
