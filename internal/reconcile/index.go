package reconcile

import (
	"fmt"

	"github.com/sahelgroup/recon-cli/internal/resolve"
	"github.com/sahelgroup/recon-cli/internal/tabular"
)

// sourceRecord is one indexed source-of-truth entry with its identity
// fields resolved once at indexing time.
type sourceRecord struct {
	entry *tabular.Entry
	pos   int // position in the source dataset, for first-seen tie-breaks
	ssid  string
	nin   string
	name  string
}

// SourceIndex holds the two identifier lookup maps built over a source
// dataset. Once built it is read-only; concurrent candidate evaluation
// reads it without locking.
type SourceIndex struct {
	bySSID map[string]*sourceRecord
	byNIN  map[string]*sourceRecord

	// Warnings records source-data anomalies found while indexing,
	// currently duplicate SSIDs. Non-fatal.
	Warnings []string

	size int
}

// BuildIndex resolves identifiers for every source entry and builds the
// SSID and NIN lookup maps in one pass.
//
// Duplicate policy: first-seen wins on both maps. A duplicate SSID records
// a warning naming both records; NIN duplicates are folded silently (SSID
// is the primary key in this domain, NIN secondary). Entries with neither
// identifier are not indexed.
func (e *Engine) BuildIndex(source []*tabular.Entry) *SourceIndex {
	idx := &SourceIndex{
		bySSID: make(map[string]*sourceRecord, len(source)),
		byNIN:  make(map[string]*sourceRecord, len(source)),
		size:   len(source),
	}

	for i, entry := range source {
		rec := &sourceRecord{
			entry: entry,
			pos:   i,
			ssid:  e.resolver.Field(entry, resolve.FieldSSID),
			nin:   e.resolver.Field(entry, resolve.FieldNIN),
			name:  e.resolver.FullName(entry),
		}
		if rec.ssid == "" && rec.nin == "" {
			continue
		}

		if rec.ssid != "" {
			if existing, dup := idx.bySSID[rec.ssid]; dup {
				idx.Warnings = append(idx.Warnings, fmt.Sprintf(
					"duplicate SSID %q in source: record %q conflicts with %q",
					rec.ssid, rec.name, existing.name,
				))
			} else {
				idx.bySSID[rec.ssid] = rec
			}
		}
		if rec.nin != "" {
			if _, dup := idx.byNIN[rec.nin]; !dup {
				idx.byNIN[rec.nin] = rec
			}
		}
	}

	return idx
}

// Size returns the number of source entries the index was built over.
func (idx *SourceIndex) Size() int { return idx.size }

func (idx *SourceIndex) lookupSSID(ssid string) *sourceRecord {
	if ssid == "" {
		return nil
	}
	return idx.bySSID[ssid]
}

func (idx *SourceIndex) lookupNIN(nin string) *sourceRecord {
	if nin == "" {
		return nil
	}
	return idx.byNIN[nin]
}
