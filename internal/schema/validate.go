// Package schema validates an assessment snapshot against a taxonomy before
// it reaches the gap engine.
package schema

import (
	"fmt"
	"math"
	"sort"

	"github.com/dshills/csfgap/internal/assessment"
	"github.com/dshills/csfgap/internal/taxonomy"
)

const unknownSubcategory = "unknown subcategory"

// ValidationError describes a single schema violation.
type ValidationError struct {
	Path    string
	Message string
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a snapshot for structural validity on a 0..maxScale score
// range. Problems are reported in a stable order: snapshot fields, weights by
// function id, then assessments by subcategory id.
func Validate(snap *assessment.Snapshot, t *taxonomy.Taxonomy, maxScale float64) []ValidationError {
	var errs []ValidationError

	if snap.MaxScale < 0 || math.IsNaN(snap.MaxScale) || math.IsInf(snap.MaxScale, 0) {
		errs = append(errs, ValidationError{"max_scale", fmt.Sprintf("must be a positive number, got %v", snap.MaxScale)})
	}

	known := make(map[string]bool)
	for _, id := range t.FunctionIDs() {
		known[id] = true
	}
	fns := make([]string, 0, len(snap.Weights))
	for fn := range snap.Weights {
		fns = append(fns, fn)
	}
	sort.Strings(fns)
	for _, fn := range fns {
		prefix := fmt.Sprintf("weights[%q]", fn)
		w := snap.Weights[fn]
		if !known[fn] {
			errs = append(errs, ValidationError{prefix, "unknown function"})
		}
		if !(w > 0) || math.IsInf(w, 0) {
			errs = append(errs, ValidationError{prefix, fmt.Sprintf("must be a positive finite number, got %v", w)})
		}
	}

	for _, id := range snap.Assessments.IDs() {
		rec := snap.Assessments[id]
		errs = append(errs, validateRecord(fmt.Sprintf("assessments[%q]", id), id, rec, t, maxScale)...)
	}

	return errs
}

func validateRecord(prefix, key string, rec assessment.Record, t *taxonomy.Taxonomy, maxScale float64) []ValidationError {
	var errs []ValidationError
	if rec.SubcategoryID != key {
		errs = append(errs, ValidationError{prefix + ".subcategory_id", fmt.Sprintf("%q does not match key", rec.SubcategoryID)})
	}
	if !t.Has(key) {
		errs = append(errs, ValidationError{prefix, unknownSubcategory})
	}
	if !rec.Status.Valid() {
		errs = append(errs, ValidationError{prefix + ".status", fmt.Sprintf("invalid: %q", rec.Status)})
	}
	switch {
	case math.IsNaN(rec.Score) || math.IsInf(rec.Score, 0):
		errs = append(errs, ValidationError{prefix + ".score", "must be finite"})
	case rec.Score < 0 || rec.Score > maxScale:
		errs = append(errs, ValidationError{prefix + ".score", fmt.Sprintf("%v outside [0, %v]", rec.Score, maxScale)})
	}
	for i, ref := range rec.EvidenceRefs {
		if ref == "" {
			errs = append(errs, ValidationError{fmt.Sprintf("%s.evidence_refs[%d]", prefix, i), "required"})
		}
	}
	return errs
}

// Dangling returns only the errors for subcategories missing from the
// taxonomy. Callers treat these as data-integrity failures rather than input
// mistakes.
func Dangling(errs []ValidationError) []ValidationError {
	var out []ValidationError
	for _, e := range errs {
		if e.Message == unknownSubcategory {
			out = append(out, e)
		}
	}
	return out
}
