// Package reconcile implements the record-reconciliation engine: it indexes
// a source-of-truth dataset by identifier and classifies each candidate
// record as Valid, Partial Match, or Invalid with a human-readable reason.
package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sahelgroup/recon-cli/internal/model"
	"github.com/sahelgroup/recon-cli/internal/resolve"
	"github.com/sahelgroup/recon-cli/internal/similarity"
	"github.com/sahelgroup/recon-cli/internal/tabular"
)

// AbsencePolicy controls how identifier absence affects agreement checks.
type AbsencePolicy string

const (
	// AbsenceLenient treats a missing identifier on either side as
	// non-contradicting: only two present, unequal values mismatch.
	AbsenceLenient AbsencePolicy = "lenient"
	// AbsenceStrict treats an identifier present on one side but absent
	// on the other as a mismatch.
	AbsenceStrict AbsencePolicy = "strict"
)

// Scoring weights for choosing between multiple candidate source records
// when SSID and NIN resolve to different entries.
const (
	ssidMatchPoints = 40.0
	ninMatchPoints  = 40.0
	nameScoreWeight = 0.2
)

// Config parameterizes the engine.
type Config struct {
	// SimilarityThreshold is the minimum token-set name score (0-100)
	// for name agreement.
	SimilarityThreshold int
	// AbsencePolicy selects lenient or strict identifier-absence
	// semantics.
	AbsencePolicy AbsencePolicy
	// RejectDuplicates pre-filters candidates whose normalized SSID was
	// already seen earlier in the same batch.
	RejectDuplicates bool
	// Workers bounds concurrent candidate evaluation.
	Workers int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 90,
		AbsencePolicy:       AbsenceLenient,
		RejectDuplicates:    true,
		Workers:             8,
	}
}

// Engine evaluates candidate records against a source index. It is
// stateless across runs and safe for concurrent use once constructed.
type Engine struct {
	cfg      Config
	resolver *resolve.Resolver
	simFn    func(a, b string) int
}

// NewEngine builds an engine with the given configuration and field
// resolver. A nil resolver uses the built-in alias table.
func NewEngine(cfg Config, r *resolve.Resolver) *Engine {
	if r == nil {
		r = resolve.Default()
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = 90
	}
	if cfg.AbsencePolicy == "" {
		cfg.AbsencePolicy = AbsenceLenient
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 8
	}
	return &Engine{
		cfg:      cfg,
		resolver: r,
		simFn:    similarity.TokenSetRatio,
	}
}

// Run reconciles candidates against source and returns the assembled
// outcome. Results are positionally ordered: results[i] always corresponds
// to candidates[i], and len(results) == len(candidates) even when
// individual rows fail.
func (e *Engine) Run(ctx context.Context, source, candidates []*tabular.Entry) (*Outcome, error) {
	if len(source) == 0 {
		return nil, eris.New("reconcile: source dataset is empty")
	}
	if len(candidates) == 0 {
		return nil, eris.New("reconcile: candidate dataset is empty")
	}

	idx := e.BuildIndex(source)
	for _, w := range idx.Warnings {
		zap.L().Warn("source indexing anomaly", zap.String("warning", w))
	}

	return e.RunIndexed(ctx, idx, candidates)
}

// RunIndexed reconciles candidates against an already-built index. The
// index must not be mutated while the run is in flight; a cached index may
// be shared across concurrent runs.
func (e *Engine) RunIndexed(ctx context.Context, idx *SourceIndex, candidates []*tabular.Entry) (*Outcome, error) {
	if len(candidates) == 0 {
		return nil, eris.New("reconcile: candidate dataset is empty")
	}

	duplicate := e.markDuplicates(candidates)

	results := make([]model.ValidationResult, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)

	for i, cand := range candidates {
		if duplicate[i] {
			ssid := e.resolver.Field(cand, resolve.FieldSSID)
			results[i] = model.ValidationResult{
				Status: model.StatusInvalid,
				Reason: fmt.Sprintf("Duplicate request: SSID %q already appears in this batch", ssid),
			}
			continue
		}
		i, cand := i, cand
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.evaluateSafe(cand, idx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "reconcile: run aborted")
	}

	outcome := assemble(candidates, results, idx.Warnings)
	zap.L().Info("reconciliation complete",
		zap.Int("total", outcome.Summary.Total),
		zap.Int("valid", outcome.Summary.Valid),
		zap.Int("partial_match", outcome.Summary.PartialMatch),
		zap.Int("invalid", outcome.Summary.Invalid),
	)
	return outcome, nil
}

// markDuplicates flags candidates whose normalized SSID repeats one seen
// earlier in the batch. Runs serially before the concurrent phase so the
// first occurrence always wins regardless of worker scheduling.
func (e *Engine) markDuplicates(candidates []*tabular.Entry) []bool {
	duplicate := make([]bool, len(candidates))
	if !e.cfg.RejectDuplicates {
		return duplicate
	}
	seen := make(map[string]struct{}, len(candidates))
	for i, cand := range candidates {
		ssid := e.resolver.Field(cand, resolve.FieldSSID)
		if ssid == "" {
			continue
		}
		if _, dup := seen[ssid]; dup {
			duplicate[i] = true
			continue
		}
		seen[ssid] = struct{}{}
	}
	return duplicate
}

// evaluateSafe wraps Evaluate with panic isolation: one malformed row must
// never sink the batch. A recovered fault becomes an Invalid outcome
// carrying the fault detail.
func (e *Engine) evaluateSafe(cand *tabular.Entry, idx *SourceIndex) (res model.ValidationResult) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("candidate evaluation panicked", zap.Any("panic", r))
			res = model.ValidationResult{
				Status: model.StatusInvalid,
				Reason: fmt.Sprintf("System error: %v", r),
			}
		}
	}()
	return e.Evaluate(cand, idx)
}

// Evaluate classifies a single candidate against the index. Pure: no
// side effects, identical inputs yield identical results.
func (e *Engine) Evaluate(cand *tabular.Entry, idx *SourceIndex) model.ValidationResult {
	name := e.resolver.FullName(cand)
	if name == "" {
		return invalid("Beneficiary name is missing")
	}

	ssid := e.resolver.Field(cand, resolve.FieldSSID)
	nin := e.resolver.Field(cand, resolve.FieldNIN)
	if ssid == "" && nin == "" {
		return invalid("No SSID or NIN provided")
	}

	best := e.bestMatch(name, ssid, nin, idx)
	if best == nil {
		return invalid("No matching record found")
	}
	if best.name == "" {
		return invalid("Matched source record has no name on file")
	}

	sim := e.simFn(name, best.name)
	ssidOK := e.agree(ssid, best.ssid)
	ninOK := e.agree(nin, best.nin)
	nameOK := sim >= e.cfg.SimilarityThreshold

	res := model.ValidationResult{
		MatchedName: best.name,
		MatchedSSID: best.ssid,
		MatchedNIN:  best.nin,
		Similarity:  sim,
	}

	if ssidOK && ninOK && nameOK {
		res.Status = model.StatusValid
		res.Reason = fmt.Sprintf("All checks passed; name similarity %d%%", sim)
		return res
	}

	var failures []string
	if !ssidOK {
		failures = append(failures, "SSID mismatch")
	}
	if !ninOK {
		failures = append(failures, "NIN mismatch")
	}
	if !nameOK {
		failures = append(failures, fmt.Sprintf("Name similarity: %d%% (threshold %d%%)", sim, e.cfg.SimilarityThreshold))
	}

	res.Status = model.StatusPartialMatch
	res.Reason = strings.Join(failures, "; ")
	return res
}

// bestMatch probes both indices and, when the identifiers reach two
// different source records, picks the one agreeing on more signals:
// 40 points per equal identifier plus 0.2 x name similarity. Ties keep the
// record seen first in the source dataset.
func (e *Engine) bestMatch(name, ssid, nin string, idx *SourceIndex) *sourceRecord {
	var cands []*sourceRecord
	if rec := idx.lookupSSID(ssid); rec != nil {
		cands = append(cands, rec)
	}
	if rec := idx.lookupNIN(nin); rec != nil {
		if len(cands) == 0 || cands[0] != rec {
			cands = append(cands, rec)
		}
	}

	switch len(cands) {
	case 0:
		return nil
	case 1:
		return cands[0]
	}

	best := cands[0]
	bestScore := e.score(name, ssid, nin, best)
	for _, rec := range cands[1:] {
		s := e.score(name, ssid, nin, rec)
		if s > bestScore || (s == bestScore && rec.pos < best.pos) {
			best, bestScore = rec, s
		}
	}
	return best
}

func (e *Engine) score(name, ssid, nin string, rec *sourceRecord) float64 {
	score := 0.0
	if ssid != "" && ssid == rec.ssid {
		score += ssidMatchPoints
	}
	if nin != "" && nin == rec.nin {
		score += ninMatchPoints
	}
	score += float64(e.simFn(name, rec.name)) * nameScoreWeight
	return score
}

// agree applies the configured absence policy to one identifier pair.
func (e *Engine) agree(a, b string) bool {
	if a == "" || b == "" {
		if e.cfg.AbsencePolicy == AbsenceStrict {
			return a == b
		}
		return true
	}
	return a == b
}

func invalid(reason string) model.ValidationResult {
	return model.ValidationResult{Status: model.StatusInvalid, Reason: reason}
}
