// Package assessment defines assessment records and loads a subject's
// assessment snapshot from disk.
package assessment

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Record is one subject's assessment of a single subcategory.
type Record struct {
	SubcategoryID string   `json:"subcategory_id" yaml:"subcategory_id"`
	Status        Status   `json:"status" yaml:"status"`
	Score         float64  `json:"score" yaml:"score"`
	Notes         string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	EvidenceRefs  []string `json:"evidence_refs,omitempty" yaml:"evidence_refs,omitempty"`
}

// NewRecord returns the record a subcategory starts with when it is first
// opened for assessment.
func NewRecord(subcategoryID string) Record {
	return Record{
		SubcategoryID: subcategoryID,
		Status:        StatusNotImplemented,
		Score:         0,
	}
}

// EvidenceCount returns the number of distinct evidence references.
func (r Record) EvidenceCount() int {
	seen := make(map[string]bool, len(r.EvidenceRefs))
	for _, ref := range r.EvidenceRefs {
		seen[ref] = true
	}
	return len(seen)
}

// Set maps subcategory id to its assessment record.
type Set map[string]Record

// IDs returns the subcategory ids in lexical order.
func (s Set) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns a deep copy of the set.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	for id, r := range s {
		r.EvidenceRefs = append([]string(nil), r.EvidenceRefs...)
		out[id] = r
	}
	return out
}

// Snapshot is the loaded, consistent view of one subject's assessments.
type Snapshot struct {
	Subject     string
	Industry    string
	MaxScale    float64
	Weights     map[string]float64
	Assessments Set

	FilePath string
	Hash     string
}

type rawRecord struct {
	SubcategoryID string   `json:"subcategory_id" yaml:"subcategory_id"`
	Status        *Status  `json:"status" yaml:"status"`
	Score         *float64 `json:"score" yaml:"score"`
	Notes         string   `json:"notes" yaml:"notes"`
	EvidenceRefs  []string `json:"evidence_refs" yaml:"evidence_refs"`
}

type rawSnapshot struct {
	Subject     string               `json:"subject" yaml:"subject"`
	Industry    string               `json:"industry" yaml:"industry"`
	MaxScale    float64              `json:"max_scale" yaml:"max_scale"`
	Weights     map[string]float64   `json:"weights" yaml:"weights"`
	Assessments map[string]rawRecord `json:"assessments" yaml:"assessments"`
}

// Load reads a JSON or YAML assessment snapshot and computes its SHA-256 hash.
// Missing status and score take the NewRecord defaults; a missing
// subcategory_id takes the map key.
func Load(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("assessment.Load: %w", err)
	}
	var raw rawSnapshot
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		return nil, fmt.Errorf("assessment.Load: unsupported format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("assessment.Load: parse %s: %w", path, err)
	}

	set := make(Set, len(raw.Assessments))
	for key, rr := range raw.Assessments {
		rec := NewRecord(key)
		if rr.SubcategoryID != "" {
			rec.SubcategoryID = rr.SubcategoryID
		}
		if rr.Status != nil {
			rec.Status = *rr.Status
		}
		if rr.Score != nil {
			rec.Score = *rr.Score
		}
		rec.Notes = rr.Notes
		rec.EvidenceRefs = rr.EvidenceRefs
		set[key] = rec
	}

	h := sha256.Sum256(data)
	return &Snapshot{
		Subject:     raw.Subject,
		Industry:    raw.Industry,
		MaxScale:    raw.MaxScale,
		Weights:     raw.Weights,
		Assessments: set,
		FilePath:    path,
		Hash:        fmt.Sprintf("sha256:%x", h),
	}, nil
}
