package history

import (
	"errors"
	"time"
)

// ErrInsufficientHistory is returned when fewer than two snapshots exist.
var ErrInsufficientHistory = errors.New("history: at least two snapshots are needed for a trend")

// Direction describes how a score moved across snapshots.
type Direction string

const (
	Improving Direction = "improving"
	Declining Direction = "declining"
	Stable    Direction = "stable"
)

// Trend is the movement of one score series.
type Trend struct {
	Direction Direction `json:"direction"`
	// Rate is the absolute mean change between consecutive snapshots.
	Rate   float64 `json:"rate"`
	Latest float64 `json:"latest_score"`
	Points int     `json:"points"`
}

// Report holds the overall trend and one trend per function.
type Report struct {
	Subject   string           `json:"subject"`
	From      time.Time        `json:"from"`
	To        time.Time        `json:"to"`
	Overall   Trend            `json:"overall"`
	Functions map[string]Trend `json:"functions"`
}

// Trends computes trends over snaps ordered by timestamp. The input is not
// reordered. A function enters the report once it has two data points.
func Trends(snaps []Snapshot) (*Report, error) {
	if len(snaps) < 2 {
		return nil, ErrInsufficientHistory
	}
	ordered := append([]Snapshot(nil), snaps...)
	sortByTime(ordered)

	overall := make([]float64, len(ordered))
	series := make(map[string][]float64)
	for i, s := range ordered {
		overall[i] = s.OverallScore
		for fn, v := range s.FunctionScores {
			series[fn] = append(series[fn], v)
		}
	}

	r := &Report{
		Subject:   ordered[len(ordered)-1].Subject,
		From:      ordered[0].Timestamp,
		To:        ordered[len(ordered)-1].Timestamp,
		Overall:   trendOf(overall),
		Functions: make(map[string]Trend, len(series)),
	}
	for fn, vs := range series {
		if len(vs) >= 2 {
			r.Functions[fn] = trendOf(vs)
		}
	}
	return r, nil
}

func trendOf(values []float64) Trend {
	var sum float64
	for i := 1; i < len(values); i++ {
		sum += values[i] - values[i-1]
	}
	slope := sum / float64(len(values)-1)

	t := Trend{Latest: values[len(values)-1], Points: len(values), Direction: Stable}
	switch {
	case slope > 0:
		t.Direction = Improving
		t.Rate = slope
	case slope < 0:
		t.Direction = Declining
		t.Rate = -slope
	}
	return t
}
