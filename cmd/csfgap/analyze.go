package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/csfgap/internal/assessment"
	"github.com/dshills/csfgap/internal/config"
	"github.com/dshills/csfgap/internal/gap"
	"github.com/dshills/csfgap/internal/history"
	"github.com/dshills/csfgap/internal/logging"
	"github.com/dshills/csfgap/internal/redact"
	"github.com/dshills/csfgap/internal/schema"
	"github.com/dshills/csfgap/internal/taxonomy"
	"github.com/dshills/csfgap/internal/weights"
)

type analyzeFlags struct {
	weights     map[string]string
	minPriority string
	sort        bool
	out         string
	archive     bool
	failOn      string
	watch       bool
}

// analyzeRun is one invocation of the analysis pipeline.
type analyzeRun struct {
	path     string
	flags    *analyzeFlags
	scaleSet bool
	stdout   io.Writer
	stderr   io.Writer
	now      func() time.Time
}

// Report is the JSON document written by analyze.
type Report struct {
	Tool           string              `json:"tool"`
	Version        string              `json:"version"`
	Input          ReportInput         `json:"input"`
	Summary        gap.Summary         `json:"summary"`
	Progress       assessment.Progress `json:"progress"`
	CategoryScores map[string]float64  `json:"category_scores"`
	Impact         gap.Impact          `json:"remediation_impact"`
	Gaps           []gap.Gap           `json:"gaps"`
	RedactedNotes  int                 `json:"redacted_notes,omitempty"`
	ArchiveID      string              `json:"archive_id,omitempty"`
}

// ReportInput records what the report was computed from.
type ReportInput struct {
	AssessmentFile string       `json:"assessment_file"`
	AssessmentHash string       `json:"assessment_hash"`
	Subject        string       `json:"subject,omitempty"`
	Industry       string       `json:"industry,omitempty"`
	Taxonomy       string       `json:"taxonomy"`
	TaxonomyHash   string       `json:"taxonomy_hash,omitempty"`
	Preset         string       `json:"weight_preset"`
	Weights        weights.Map  `json:"weights"`
	MaxScale       float64      `json:"max_scale"`
	MinPriority    gap.Priority `json:"min_priority"`
}

func newAnalyzeCmd(a *app) *cobra.Command {
	f := &analyzeFlags{}

	cmd := &cobra.Command{
		Use:   "analyze <assessment-file>",
		Short: "Score an assessment and report prioritized gaps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			run := &analyzeRun{
				path:     args[0],
				flags:    f,
				scaleSet: cmd.Flags().Changed("max-scale"),
				stdout:   cmd.OutOrStdout(),
				stderr:   cmd.ErrOrStderr(),
				now:      time.Now,
			}
			if f.watch {
				return a.watchAnalyze(cmd.Context(), run)
			}
			_, err := a.runAnalyze(run)
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringToStringVar(&f.weights, "weights", nil, "Function weight overrides, e.g. GV=1.5,PR=1.2")
	flags.StringVar(&f.minPriority, "min-priority", "low", "Lowest priority to list: critical, high, medium or low")
	flags.BoolVar(&f.sort, "sort", false, "Sort gaps by priority then score instead of taxonomy order")
	flags.StringVar(&f.out, "out", "", "Output file path (default: stdout)")
	flags.BoolVar(&f.archive, "archive", false, "Archive a snapshot of the result in the history directory")
	flags.StringVar(&f.failOn, "fail-on", "", "Exit 2 if any gap is at or above this priority")
	flags.BoolVar(&f.watch, "watch", false, "Re-run when the assessment or taxonomy file changes")
	flags.String("metrics-addr", "", "With --watch, serve Prometheus metrics on this address, e.g. :9464")

	return cmd
}

type inputs struct {
	tax    *taxonomy.Taxonomy
	snap   *assessment.Snapshot
	preset *weights.Preset
}

// loadInputs reads the taxonomy, snapshot and weight preset concurrently.
// Without a configured industry the preset follows the snapshot's industry.
func loadInputs(cfg config.Config, path string) (*inputs, error) {
	in := &inputs{}
	var g errgroup.Group
	g.Go(func() error {
		t, err := loadTaxonomy(cfg.TaxonomyPath)
		if err != nil {
			return err
		}
		in.tax = t
		return nil
	})
	g.Go(func() error {
		s, err := assessment.Load(path)
		if err != nil {
			return err
		}
		in.snap = s
		return nil
	})
	if cfg.Industry != "" {
		g.Go(func() error {
			p, err := weights.ForIndustry(cfg.Industry)
			if err != nil {
				return err
			}
			in.preset = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if in.preset == nil {
		p, err := weights.ForIndustry(in.snap.Industry)
		if err != nil {
			return nil, err
		}
		in.preset = p
	}
	return in, nil
}

func loadTaxonomy(path string) (*taxonomy.Taxonomy, error) {
	if path == "" {
		return taxonomy.Builtin()
	}
	return taxonomy.Load(path)
}

// resolveScale picks the score range: an explicit --max-scale flag, then the
// snapshot's own max_scale, then configuration.
func resolveScale(cfg config.Config, snap *assessment.Snapshot, flagSet bool) float64 {
	if !flagSet && snap.MaxScale > 0 {
		return snap.MaxScale
	}
	return cfg.MaxScale
}

// resolveWeights layers the preset, configured weights, the snapshot's own
// weights and command-line overrides, later layers winning.
func resolveWeights(preset *weights.Preset, cfgWeights, snapWeights map[string]float64, overrides map[string]string) (weights.Map, error) {
	flagWeights, err := parseWeights(overrides)
	if err != nil {
		return nil, err
	}
	w := preset.Map().Merge(cfgWeights).Merge(snapWeights).Merge(flagWeights)
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

func parseWeights(raw map[string]string) (map[string]float64, error) {
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		fn := strings.ToUpper(strings.TrimSpace(k))
		if fn == "" {
			return nil, fmt.Errorf("weight override %q: empty function id", k+"="+v)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("weight override %s=%s: %w", k, v, err)
		}
		out[fn] = w
	}
	return out, nil
}

// failOnMet reports whether any gap is at or above the threshold priority.
func failOnMet(gaps []gap.Gap, threshold gap.Priority) bool {
	for _, g := range gaps {
		if g.Priority.Rank() <= threshold.Rank() {
			return true
		}
	}
	return false
}

func (a *app) runAnalyze(r *analyzeRun) (*Report, error) {
	log := a.log.With(zap.String("file", r.path))

	minPriority, err := gap.ParsePriority(r.flags.minPriority)
	if err != nil {
		return nil, exitError(exitInput, "--min-priority: %v", err)
	}
	var failOn gap.Priority
	if r.flags.failOn != "" {
		if failOn, err = gap.ParsePriority(r.flags.failOn); err != nil {
			return nil, exitError(exitInput, "--fail-on: %v", err)
		}
	}

	log.Debug("loading inputs", zap.String("taxonomy", a.cfg.TaxonomyPath), zap.String("industry", a.cfg.Industry))
	in, err := loadInputs(a.cfg, r.path)
	if err != nil {
		return nil, exitError(exitInput, "failed to load inputs: %v", err)
	}
	log = logging.WithSubject(log, in.snap.Subject)
	log.Debug("inputs loaded",
		zap.String("taxonomy", in.tax.Source),
		zap.Int("subcategories", in.tax.SubcategoryCount()),
		zap.Int("assessments", len(in.snap.Assessments)),
		zap.String("preset", in.preset.Name))

	scale := resolveScale(a.cfg, in.snap, r.scaleSet)
	w, err := resolveWeights(in.preset, a.cfg.Weights, in.snap.Weights, r.flags.weights)
	if err != nil {
		return nil, exitError(exitInput, "invalid weights: %v", err)
	}

	// Dangling references outrank other validation errors: they fall through
	// to the engine, which reports them as a data-integrity failure.
	verrs := schema.Validate(in.snap, in.tax, scale)
	if len(verrs) > 0 {
		fmt.Fprintln(r.stderr, "Assessment validation errors:")
		for _, e := range verrs {
			fmt.Fprintf(r.stderr, "  %s\n", e)
		}
		if len(schema.Dangling(verrs)) == 0 {
			return nil, exitError(exitValidation, "%s failed validation (%d errors)", r.path, len(verrs))
		}
	}

	eng, err := gap.New(scale)
	if err != nil {
		return nil, exitError(exitInput, "%v", err)
	}

	gaps, err := eng.AnalyzeGaps(in.snap.Assessments, w, in.tax)
	if err != nil {
		var de *gap.DanglingReferenceError
		if errors.As(err, &de) {
			log.Error("data integrity: assessment references unknown subcategories",
				zap.Strings("ids", de.IDs), zap.String("taxonomy", in.tax.Source))
			return nil, exitError(exitIntegrity, "data integrity error: %v", err)
		}
		return nil, err
	}
	summary, err := eng.Summarize(gaps, in.snap.Assessments, w, in.tax)
	if err != nil {
		return nil, err
	}
	categories, err := gap.AggregateByCategory(in.snap.Assessments, in.tax)
	if err != nil {
		return nil, err
	}
	log.Info("analysis complete",
		zap.Int("gaps", summary.TotalGaps),
		zap.Int("critical", summary.CriticalCount),
		zap.Float64("overall", summary.OverallMaturity))

	listed := gap.FilterByPriority(gaps, minPriority)
	if r.flags.sort {
		gap.SortGaps(listed)
	}

	rep := &Report{
		Tool:    "csfgap",
		Version: version,
		Input: ReportInput{
			AssessmentFile: filepath.Base(r.path),
			AssessmentHash: in.snap.Hash,
			Subject:        in.snap.Subject,
			Industry:       in.snap.Industry,
			Taxonomy:       in.tax.Source,
			TaxonomyHash:   in.tax.Hash,
			Preset:         in.preset.Name,
			Weights:        w,
			MaxScale:       scale,
			MinPriority:    minPriority,
		},
		Summary:        summary,
		Progress:       assessment.ComputeProgress(in.tax, in.snap.Assessments),
		CategoryScores: categories,
		Impact:         eng.RemediationImpact(gaps),
		Gaps:           listed,
	}

	if a.cfg.Redact {
		rep.Gaps, rep.RedactedNotes = redact.Gaps(rep.Gaps)
		log.Debug("notes redacted", zap.Int("count", rep.RedactedNotes))
	}

	if r.flags.archive {
		if in.snap.Subject == "" {
			return nil, exitError(exitInput, "--archive requires a subject in %s", r.path)
		}
		store := history.NewStore(a.cfg.HistoryDir, a.cfg.HistoryLimit)
		snap := history.NewSnapshot(in.snap.Subject, summary, in.snap.Hash, r.now())
		kept, err := store.Append(snap)
		if err != nil {
			return nil, fmt.Errorf("failed to archive snapshot: %w", err)
		}
		rep.ArchiveID = snap.ID.String()
		log.Info("snapshot archived", zap.String("id", rep.ArchiveID), zap.Int("retained", len(kept)))
	}

	if err := writeJSON(rep, r.flags.out, r.stdout); err != nil {
		return nil, err
	}

	if failOn != "" && failOnMet(gaps, failOn) {
		return rep, exitError(exitFailOn, "gaps at or above %s priority found", failOn)
	}
	return rep, nil
}

// writeJSON writes v as indented JSON to path, or to w when path is empty.
func writeJSON(v any, path string, w io.Writer) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	data = append(data, '\n')
	if path != "" {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	_, err = w.Write(data)
	return err
}
