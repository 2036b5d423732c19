// Package history archives analysis snapshots per subject and derives
// maturity trends from them.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/csfgap/internal/gap"
)

// DefaultLimit is the number of snapshots kept per subject.
const DefaultLimit = 10

var (
	// ErrNoSubject is returned when a snapshot has no subject to file it under.
	ErrNoSubject = errors.New("history: subject is required")

	unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// Snapshot is the archived outcome of one analysis.
type Snapshot struct {
	ID              uuid.UUID          `json:"id"`
	Subject         string             `json:"subject"`
	Timestamp       time.Time          `json:"timestamp"`
	OverallScore    float64            `json:"overall_score"`
	WeightedOverall float64            `json:"weighted_overall"`
	FunctionScores  map[string]float64 `json:"function_scores"`
	GapCount        int                `json:"gap_count"`
	CriticalCount   int                `json:"critical_count"`
	MaxScale        float64            `json:"max_scale"`
	InputHash       string             `json:"input_hash,omitempty"`
}

// NewSnapshot records the headline figures of an analysis summary.
func NewSnapshot(subject string, sum gap.Summary, inputHash string, at time.Time) Snapshot {
	fs := make(map[string]float64, len(sum.FunctionScores))
	for k, v := range sum.FunctionScores {
		fs[k] = v
	}
	return Snapshot{
		ID:              uuid.New(),
		Subject:         subject,
		Timestamp:       at.UTC(),
		OverallScore:    sum.OverallMaturity,
		WeightedOverall: sum.WeightedOverall,
		FunctionScores:  fs,
		GapCount:        sum.TotalGaps,
		CriticalCount:   sum.CriticalCount,
		MaxScale:        sum.MaxScale,
		InputHash:       inputHash,
	}
}

// Store keeps each subject's snapshots in a JSON file under a directory.
// It is safe for concurrent use within one process.
type Store struct {
	dir   string
	limit int
	mu    sync.Mutex
}

// NewStore returns a Store rooted at dir. A limit <= 0 uses DefaultLimit.
func NewStore(dir string, limit int) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{dir: dir, limit: limit}
}

// Limit returns the number of snapshots retained per subject.
func (s *Store) Limit() int { return s.limit }

func (s *Store) path(subject string) string {
	return filepath.Join(s.dir, unsafeName.ReplaceAllString(subject, "_")+".json")
}

// Append adds snap to its subject's history, drops the oldest entries beyond
// the limit and returns what was kept.
func (s *Store) Append(snap Snapshot) ([]Snapshot, error) {
	if snap.Subject == "" {
		return nil, ErrNoSubject
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snaps, err := s.read(snap.Subject)
	if err != nil {
		return nil, fmt.Errorf("history.Append: %w", err)
	}
	snaps = append(snaps, snap)
	sortByTime(snaps)
	if len(snaps) > s.limit {
		snaps = snaps[len(snaps)-s.limit:]
	}
	if err := s.write(snap.Subject, snaps); err != nil {
		return nil, fmt.Errorf("history.Append: %w", err)
	}
	return snaps, nil
}

// List returns a subject's snapshots, oldest first. A subject with no
// history yields an empty list.
func (s *Store) List(subject string) ([]Snapshot, error) {
	if subject == "" {
		return nil, ErrNoSubject
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snaps, err := s.read(subject)
	if err != nil {
		return nil, fmt.Errorf("history.List: %w", err)
	}
	return snaps, nil
}

func (s *Store) read(subject string) ([]Snapshot, error) {
	data, err := os.ReadFile(s.path(subject))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snaps []Snapshot
	if err := json.Unmarshal(data, &snaps); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path(subject), err)
	}
	sortByTime(snaps)
	return snaps, nil
}

func (s *Store) write(subject string, snaps []Snapshot) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snaps, "", "  ")
	if err != nil {
		return err
	}
	dst := s.path(subject)
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, dst)
}

func sortByTime(snaps []Snapshot) {
	sort.SliceStable(snaps, func(i, j int) bool {
		return snaps[i].Timestamp.Before(snaps[j].Timestamp)
	})
}
