package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/csfgap/internal/assessment"
	"github.com/dshills/csfgap/internal/config"
	"github.com/dshills/csfgap/internal/gap"
	"github.com/dshills/csfgap/internal/history"
	"github.com/dshills/csfgap/internal/weights"
)

func testdata(parts ...string) string {
	return filepath.Join(append([]string{"..", "..", "testdata"}, parts...)...)
}

// execute runs the root command with args and returns what it wrote to
// stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("CSFGAP_CONFIG", "")
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func decodeReport(t *testing.T, out string) Report {
	t.Helper()
	var rep Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("output is not a report: %v\n%s", err, out)
	}
	return rep
}

// --- Pure function tests ---

func TestParseWeights(t *testing.T) {
	got, err := parseWeights(map[string]string{"gv": "1.5", " PR ": " 2 "})
	if err != nil {
		t.Fatal(err)
	}
	if got["GV"] != 1.5 || got["PR"] != 2 || len(got) != 2 {
		t.Errorf("parseWeights = %v", got)
	}
	if _, err := parseWeights(map[string]string{"GV": "heavy"}); err == nil {
		t.Error("expected error for non-numeric weight")
	}
	if _, err := parseWeights(map[string]string{"": "1"}); err == nil {
		t.Error("expected error for empty function id")
	}
}

func TestResolveWeightsLayering(t *testing.T) {
	preset, err := weights.LoadPreset("finance")
	if err != nil {
		t.Fatal(err)
	}
	w, err := resolveWeights(preset,
		map[string]float64{"PR": 2},
		map[string]float64{"PR": 3, "DE": 0.8},
		map[string]string{"de": "1.1"},
	)
	if err != nil {
		t.Fatal(err)
	}
	if w["GV"] != 1.3 || w["PR"] != 3 || w["DE"] != 1.1 {
		t.Errorf("resolved weights = %v", w)
	}
	if preset.Weights["PR"] != 1.5 {
		t.Error("preset was modified")
	}

	if _, err := resolveWeights(preset, nil, nil, map[string]string{"GV": "0"}); err == nil {
		t.Error("expected error for zero weight")
	}
}

func TestResolveScale(t *testing.T) {
	cfg := config.Config{MaxScale: 10}
	snap := &assessment.Snapshot{MaxScale: 5}
	if got := resolveScale(cfg, snap, false); got != 5 {
		t.Errorf("snapshot scale: got %v, want 5", got)
	}
	if got := resolveScale(cfg, snap, true); got != 10 {
		t.Errorf("explicit flag: got %v, want 10", got)
	}
	if got := resolveScale(cfg, &assessment.Snapshot{}, false); got != 10 {
		t.Errorf("no snapshot scale: got %v, want 10", got)
	}
}

func TestFailOnMet(t *testing.T) {
	gaps := []gap.Gap{{Priority: gap.PriorityHigh}, {Priority: gap.PriorityLow}}
	tests := []struct {
		threshold gap.Priority
		want      bool
	}{
		{gap.PriorityCritical, false},
		{gap.PriorityHigh, true},
		{gap.PriorityMedium, true},
		{gap.PriorityLow, true},
	}
	for _, tt := range tests {
		if got := failOnMet(gaps, tt.threshold); got != tt.want {
			t.Errorf("failOnMet(%s) = %v, want %v", tt.threshold, got, tt.want)
		}
	}
	if failOnMet(nil, gap.PriorityLow) {
		t.Error("no gaps should never fail")
	}
}

func TestExitCode(t *testing.T) {
	if exitCode(nil) != exitOK {
		t.Error("nil error should be exit 0")
	}
	if exitCode(errors.New("boom")) != exitUnexpected {
		t.Error("plain error should be exit 1")
	}
	if got := exitCode(exitError(exitIntegrity, "x")); got != exitIntegrity {
		t.Errorf("exitCode = %d, want %d", got, exitIntegrity)
	}
}

// --- Command tests ---

func TestAnalyzeCommand(t *testing.T) {
	out, err := execute(t, "analyze", testdata("assessments", "acme.yaml"), "--sort")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	rep := decodeReport(t, out)

	if rep.Tool != "csfgap" || rep.Input.Preset != "finance" || rep.Input.Subject != "acme-bank" {
		t.Errorf("input = %+v", rep.Input)
	}
	if rep.Input.MaxScale != 10 || !strings.HasPrefix(rep.Input.AssessmentHash, "sha256:") {
		t.Errorf("input = %+v", rep.Input)
	}
	if rep.Summary.TotalGaps != 5 || rep.Summary.CriticalCount != 1 || rep.Summary.HighCount != 3 {
		t.Errorf("summary = %+v", rep.Summary)
	}
	if len(rep.Gaps) != 5 || rep.Gaps[0].SubcategoryID != "ID.AM-01" || rep.Gaps[4].SubcategoryID != "PR.DS-11" {
		t.Errorf("gaps not sorted: %+v", rep.Gaps)
	}
	if rep.Progress.Total != 46 || rep.Progress.Assessed != 8 || rep.Progress.Completed != 7 {
		t.Errorf("progress = %+v", rep.Progress)
	}
	if rep.Impact.Total != 13 {
		t.Errorf("impact total = %v, want 13", rep.Impact.Total)
	}
	if rep.RedactedNotes != 0 || !strings.Contains(out, "Winter2026!") {
		t.Error("notes should be untouched without --redact")
	}
}

func TestAnalyzeMinPriority(t *testing.T) {
	out, err := execute(t, "analyze", testdata("assessments", "acme.yaml"), "--min-priority", "high")
	if err != nil {
		t.Fatal(err)
	}
	rep := decodeReport(t, out)
	if len(rep.Gaps) != 4 {
		t.Errorf("listed %d gaps, want 4", len(rep.Gaps))
	}
	if rep.Summary.TotalGaps != 5 {
		t.Errorf("summary should count every gap, got %d", rep.Summary.TotalGaps)
	}
	// traversal order without --sort
	if rep.Gaps[0].SubcategoryID != "GV.RM-01" {
		t.Errorf("first gap = %s, want GV.RM-01", rep.Gaps[0].SubcategoryID)
	}
}

func TestAnalyzeRedact(t *testing.T) {
	out, err := execute(t, "analyze", testdata("assessments", "acme.yaml"), "--redact")
	if err != nil {
		t.Fatal(err)
	}
	rep := decodeReport(t, out)
	if rep.RedactedNotes != 1 {
		t.Errorf("redacted_notes = %d, want 1", rep.RedactedNotes)
	}
	if strings.Contains(out, "Winter2026!") {
		t.Error("password leaked into output")
	}
}

func TestAnalyzeOutFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	out, err := execute(t, "analyze", testdata("assessments", "acme.yaml"), "--out", path)
	if err != nil {
		t.Fatal(err)
	}
	if out != "" {
		t.Error("stdout should be empty with --out")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	decodeReport(t, string(data))
}

func TestAnalyzeCustomTaxonomy(t *testing.T) {
	out, err := execute(t, "analyze", testdata("assessments", "minimal.json"),
		"--taxonomy", testdata("taxonomy", "minimal.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	rep := decodeReport(t, out)
	if len(rep.Gaps) != 1 {
		t.Fatalf("got %d gaps, want 1", len(rep.Gaps))
	}
	g := rep.Gaps[0]
	if g.SubcategoryID != "GV.OC-01" || g.Priority != gap.PriorityCritical ||
		g.WeightedScore != 3.0 || g.RemediationUrgency != gap.UrgencyImmediate {
		t.Errorf("gap = %+v", g)
	}
	if rep.Summary.OverallMaturity != 5.0 {
		t.Errorf("overall = %v, want 5.0", rep.Summary.OverallMaturity)
	}
	if rep.Input.Preset != weights.DefaultPreset {
		t.Errorf("preset = %q, want default", rep.Input.Preset)
	}
}

func TestAnalyzeScaleFromSnapshot(t *testing.T) {
	out, err := execute(t, "analyze", testdata("assessments", "five-scale.json"))
	if err != nil {
		t.Fatal(err)
	}
	rep := decodeReport(t, out)
	if rep.Input.MaxScale != 5 || len(rep.Gaps) != 1 || rep.Gaps[0].Priority != gap.PriorityHigh {
		t.Errorf("scale %v gaps %+v", rep.Input.MaxScale, rep.Gaps)
	}

	out, err = execute(t, "analyze", testdata("assessments", "five-scale.json"), "--max-scale", "10")
	if err != nil {
		t.Fatal(err)
	}
	rep = decodeReport(t, out)
	if rep.Input.MaxScale != 10 || len(rep.Gaps) != 2 || rep.Gaps[0].Priority != gap.PriorityCritical {
		t.Errorf("scale %v gaps %+v", rep.Input.MaxScale, rep.Gaps)
	}
}

func TestAnalyzeExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"fail-on met", []string{"analyze", testdata("assessments", "acme.yaml"), "--fail-on", "critical"}, exitFailOn},
		{"dangling reference", []string{"analyze", testdata("assessments", "dangling.yaml")}, exitIntegrity},
		{"dangling reference with invalid status", []string{"analyze", testdata("assessments", "dangling-invalid.yaml")}, exitIntegrity},
		{"invalid snapshot", []string{"analyze", testdata("assessments", "invalid.yaml")}, exitValidation},
		{"missing file", []string{"analyze", testdata("assessments", "nope.yaml")}, exitInput},
		{"bad priority", []string{"analyze", testdata("assessments", "acme.yaml"), "--min-priority", "urgent"}, exitInput},
		{"bad weight", []string{"analyze", testdata("assessments", "acme.yaml"), "--weights", "GV=-1"}, exitInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if got := exitCode(err); got != tt.want {
				t.Errorf("exit code = %d (%v), want %d", got, err, tt.want)
			}
		})
	}
}

func TestAnalyzeDanglingOutranksValidation(t *testing.T) {
	out, err := execute(t, "analyze", testdata("assessments", "dangling-invalid.yaml"))
	if exitCode(err) != exitIntegrity {
		t.Fatalf("exit code = %d (%v), want %d", exitCode(err), err, exitIntegrity)
	}
	if !strings.Contains(err.Error(), "GV.ZZ-09") {
		t.Errorf("error %q does not name the dangling id", err)
	}
	if out != "" {
		t.Errorf("expected no report on stdout, got %q", out)
	}
}

func TestAnalyzeFailOnStillWritesReport(t *testing.T) {
	out, err := execute(t, "analyze", testdata("assessments", "acme.yaml"), "--fail-on", "high")
	if exitCode(err) != exitFailOn {
		t.Fatalf("err = %v", err)
	}
	decodeReport(t, out)
}

func TestArchiveHistoryAndTrend(t *testing.T) {
	dir := t.TempDir()
	assessmentPath := testdata("assessments", "acme.yaml")

	out, err := execute(t, "analyze", assessmentPath, "--archive", "--history-dir", dir)
	if err != nil {
		t.Fatal(err)
	}
	if decodeReport(t, out).ArchiveID == "" {
		t.Error("expected archive_id in report")
	}

	_, err = execute(t, "trend", "acme-bank", "--history-dir", dir)
	if exitCode(err) != exitInput {
		t.Errorf("trend with one snapshot: err = %v", err)
	}

	if _, err := execute(t, "analyze", assessmentPath, "--archive", "--history-dir", dir); err != nil {
		t.Fatal(err)
	}

	out, err = execute(t, "history", "acme-bank", "--history-dir", dir)
	if err != nil {
		t.Fatal(err)
	}
	var snaps []history.Snapshot
	if err := json.Unmarshal([]byte(out), &snaps); err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 2 || snaps[0].OverallScore != 6.75 || snaps[0].GapCount != 5 {
		t.Errorf("history = %+v", snaps)
	}

	out, err = execute(t, "trend", "acme-bank", "--history-dir", dir)
	if err != nil {
		t.Fatal(err)
	}
	var rep history.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatal(err)
	}
	if rep.Overall.Direction != history.Stable || rep.Overall.Latest != 6.75 {
		t.Errorf("trend = %+v", rep.Overall)
	}
}

func TestHistoryEmptySubject(t *testing.T) {
	out, err := execute(t, "history", "nobody", "--history-dir", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("out = %q, want []", out)
	}
}

func TestPresetsCommand(t *testing.T) {
	out, err := execute(t, "presets")
	if err != nil {
		t.Fatal(err)
	}
	var presets []weights.Preset
	if err := json.Unmarshal([]byte(out), &presets); err != nil {
		t.Fatal(err)
	}
	if len(presets) != 6 {
		t.Errorf("got %d presets, want 6", len(presets))
	}

	out, err = execute(t, "presets", "healthcare")
	if err != nil {
		t.Fatal(err)
	}
	var p weights.Preset
	if err := json.Unmarshal([]byte(out), &p); err != nil {
		t.Fatal(err)
	}
	if p.Name != "healthcare" || p.Weights["ID"] != 1.3 {
		t.Errorf("preset = %+v", p)
	}

	if _, err := execute(t, "presets", "aerospace"); exitCode(err) != exitInput {
		t.Errorf("unknown preset: err = %v", err)
	}
}

func TestTaxonomyCommand(t *testing.T) {
	out, err := execute(t, "taxonomy")
	if err != nil {
		t.Fatal(err)
	}
	var v taxonomyView
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatal(err)
	}
	if v.Subcategories != 46 || len(v.Functions) != 6 || v.Functions[0].ID != "GV" {
		t.Errorf("taxonomy = %d subcategories, %d functions", v.Subcategories, len(v.Functions))
	}

	out, err = execute(t, "taxonomy", "--taxonomy", testdata("taxonomy", "minimal.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		t.Fatal(err)
	}
	if v.Subcategories != 2 || v.Framework != "Minimal test framework" {
		t.Errorf("custom taxonomy = %+v", v)
	}
}
