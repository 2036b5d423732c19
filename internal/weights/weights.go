// Package weights provides per-function weight maps and built-in
// industry presets.
package weights

import (
	"fmt"
	"math"
	"sort"
)

// DefaultWeight applies to any function absent from a Map.
const DefaultWeight = 1.0

// Map assigns a positive multiplier to each function id.
type Map map[string]float64

// Get returns the weight for a function, or DefaultWeight when unset.
// A nil Map is valid.
func (m Map) Get(functionID string) float64 {
	if w, ok := m[functionID]; ok {
		return w
	}
	return DefaultWeight
}

// Validate checks that every weight is finite and positive.
func (m Map) Validate() error {
	for _, id := range m.keys() {
		w := m[id]
		if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
			return fmt.Errorf("weights: %s: weight must be a positive number, got %v", id, w)
		}
	}
	return nil
}

// Clone returns a copy of m.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge returns a copy of m with overrides applied on top.
func (m Map) Merge(overrides map[string]float64) Map {
	out := m.Clone()
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Uniform returns a Map with DefaultWeight for every listed function.
func Uniform(functionIDs []string) Map {
	m := make(Map, len(functionIDs))
	for _, id := range functionIDs {
		m[id] = DefaultWeight
	}
	return m
}

func (m Map) keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
