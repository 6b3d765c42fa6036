package reconcile

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sahelgroup/recon-cli/internal/model"
	"github.com/sahelgroup/recon-cli/internal/tabular"
)

// Fixed output column names appended to every processed entry.
const (
	KeyMatchStatus = "Match Status"
	KeyMatchReason = "Match Reason"
	KeyMatchedName = "Matched Name"
	KeyCorrectSSID = "Correct SSID"
	KeyCorrectNIN  = "Correct NIN"
)

// Outcome is the engine's output for one run: a processed entry per
// candidate (original fields plus the verdict columns), the raw verdicts,
// aggregate counts, and any source-indexing warnings.
type Outcome struct {
	Entries  []*tabular.Entry
	Results  []model.ValidationResult
	Summary  model.Summary
	Warnings []string
}

// assemble merges candidates with their verdicts, in input order.
func assemble(candidates []*tabular.Entry, results []model.ValidationResult, warnings []string) *Outcome {
	entries := make([]*tabular.Entry, len(candidates))
	for i, cand := range candidates {
		entries[i] = ProcessEntry(cand, results[i])
	}
	return &Outcome{
		Entries:  entries,
		Results:  results,
		Summary:  Summarize(results),
		Warnings: warnings,
	}
}

// ProcessEntry returns a new entry carrying the candidate's original fields
// plus the five verdict columns. The input entry is not mutated.
func ProcessEntry(cand *tabular.Entry, res model.ValidationResult) *tabular.Entry {
	out := cand.Clone()
	out.Set(KeyMatchStatus, tabular.String(string(res.Status)))
	out.Set(KeyMatchReason, tabular.String(res.Reason))
	out.Set(KeyMatchedName, stringOrNull(res.MatchedName))
	out.Set(KeyCorrectSSID, stringOrNull(res.MatchedSSID))
	out.Set(KeyCorrectNIN, stringOrNull(res.MatchedNIN))
	return out
}

// Summarize computes aggregate counts from per-candidate verdicts.
func Summarize(results []model.ValidationResult) model.Summary {
	s := model.Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case model.StatusValid:
			s.Valid++
		case model.StatusPartialMatch:
			s.PartialMatch++
		default:
			s.Invalid++
		}
	}
	return s
}

// ToRun converts the outcome into a persistable run, serializing each
// processed entry as ordered JSON.
func (o *Outcome) ToRun(sourceFile, inputFile string) (*model.Run, error) {
	records := make([]model.ResultRecord, len(o.Entries))
	for i, e := range o.Entries {
		fields, err := json.Marshal(e)
		if err != nil {
			return nil, eris.Wrapf(err, "reconcile: marshal result %d", i)
		}
		records[i] = model.ResultRecord{
			Index:  i,
			Fields: fields,
			Result: o.Results[i],
		}
	}
	return &model.Run{
		SourceFile: sourceFile,
		InputFile:  inputFile,
		Summary:    o.Summary,
		Warnings:   o.Warnings,
		Results:    records,
	}, nil
}

func stringOrNull(s string) tabular.Value {
	if s == "" {
		return tabular.Null
	}
	return tabular.String(s)
}
