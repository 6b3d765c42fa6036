package main

import (
	"github.com/rotisserie/eris"

	"github.com/sahelgroup/recon-cli/internal/reconcile"
	"github.com/sahelgroup/recon-cli/internal/resolve"
)

// newResolver builds the field resolver, merging an alias file over the
// built-in spellings when one is configured. An explicit flag path takes
// precedence over config.
func newResolver(flagPath string) (*resolve.Resolver, error) {
	path := flagPath
	if path == "" {
		path = cfg.AliasFile
	}
	if path == "" {
		return resolve.Default(), nil
	}
	aliases, err := resolve.LoadAliases(path)
	if err != nil {
		return nil, err
	}
	return resolve.New(aliases), nil
}

// engineConfig maps the matching section of the config onto the engine.
func engineConfig() (reconcile.Config, error) {
	ec := reconcile.DefaultConfig()
	if cfg.Matching.SimilarityThreshold > 0 {
		ec.SimilarityThreshold = cfg.Matching.SimilarityThreshold
	}
	switch cfg.Matching.AbsencePolicy {
	case "", string(reconcile.AbsenceLenient):
		ec.AbsencePolicy = reconcile.AbsenceLenient
	case string(reconcile.AbsenceStrict):
		ec.AbsencePolicy = reconcile.AbsenceStrict
	default:
		return ec, eris.Errorf("unknown absence policy %q (want lenient or strict)", cfg.Matching.AbsencePolicy)
	}
	ec.RejectDuplicates = cfg.Matching.RejectDuplicates
	if cfg.Matching.Workers > 0 {
		ec.Workers = cfg.Matching.Workers
	}
	return ec, nil
}
