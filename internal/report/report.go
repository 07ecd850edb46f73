package report

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/predcompare-cli/internal/analysis"
	"github.com/KaramelBytes/predcompare-cli/internal/config"
	"github.com/KaramelBytes/predcompare-cli/internal/dataset"
)

// Level classifies a note or recommendation.
type Level string

const (
	LevelGood Level = "good"
	LevelWarn Level = "warn"
	LevelInfo Level = "info"
)

// LoadStatus is the outcome of loading one configured dataset.
type LoadStatus string

const (
	StatusLoaded   LoadStatus = "loaded"
	StatusNotFound LoadStatus = "not_found"
	StatusError    LoadStatus = "error"
)

// Input is one configured dataset together with its load outcome.
type Input struct {
	Spec config.DatasetSpec
	Data *dataset.Dataset
	Err  error
}

// LoadResult records what happened to one configured dataset.
type LoadResult struct {
	Key    string     `json:"key"`
	Label  string     `json:"label"`
	Path   string     `json:"path"`
	Status LoadStatus `json:"status"`
	Rows   int        `json:"rows,omitempty"`
	Hint   string     `json:"hint,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// StatsEntry is the summary of one loaded dataset.
type StatsEntry struct {
	Key     string           `json:"key"`
	Label   string           `json:"label"`
	Summary analysis.Summary `json:"summary"`
}

// Note is a verdict attached to a pair comparison.
type Note struct {
	Level Level    `json:"level"`
	Lines []string `json:"lines"`
}

// PairResult is one designated comparison, diffs taken as Candidate - Base.
type PairResult struct {
	BaseKey         string               `json:"base_key"`
	CandidateKey    string               `json:"candidate_key"`
	Base            string               `json:"base"`
	Candidate       string               `json:"candidate"`
	Title           string               `json:"title,omitempty"`
	Expect          string               `json:"expect,omitempty"`
	ShowCorrelation bool                 `json:"-"`
	Align           dataset.AlignStats   `json:"align"`
	Comparison      *analysis.Comparison `json:"comparison,omitempty"`
	// Correlation mirrors Comparison.Correlation with null for undefined.
	Correlation *float64 `json:"correlation"`
	Error       string   `json:"error,omitempty"`
	Notes       []Note   `json:"notes,omitempty"`
}

// Recommendation is the closing heuristic verdict.
type Recommendation struct {
	Level Level    `json:"level"`
	Lines []string `json:"lines"`
}

// Report accumulates everything printed by one run.
type Report struct {
	RunID          string          `json:"run_id"`
	GeneratedAt    time.Time       `json:"generated_at"`
	Column         string          `json:"column"`
	Unit           string          `json:"unit"`
	Loads          []LoadResult    `json:"loads"`
	Stats          []StatsEntry    `json:"stats"`
	Pairs          []PairResult    `json:"pairs"`
	Insights       []string        `json:"insights,omitempty"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
}

// Build runs the comparisons configured in cfg over inputs. Datasets that
// failed to load are reported and every section depending on them is
// skipped.
func Build(cfg *config.Global, inputs []Input) *Report {
	r := &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Column:      cfg.Column,
		Unit:        cfg.Unit,
	}
	loaded := map[string]*dataset.Dataset{}
	for _, in := range inputs {
		lr := LoadResult{Key: in.Spec.Key, Label: in.Spec.Label, Path: in.Spec.Path, Hint: in.Spec.MissingHint}
		switch {
		case in.Err == nil && in.Data != nil:
			lr.Status = StatusLoaded
			lr.Rows = in.Data.Len()
			loaded[in.Spec.Key] = in.Data
		case errors.Is(in.Err, dataset.ErrFileNotFound):
			lr.Status = StatusNotFound
		default:
			lr.Status = StatusError
			if in.Err != nil {
				lr.Error = in.Err.Error()
			}
		}
		r.Loads = append(r.Loads, lr)
	}

	for _, in := range inputs {
		if d, ok := loaded[in.Spec.Key]; ok {
			r.Stats = append(r.Stats, StatsEntry{Key: in.Spec.Key, Label: in.Spec.Label, Summary: analysis.Summarize(d.Values)})
		}
	}

	for _, p := range cfg.Pairs {
		base, okA := loaded[p.Base]
		cand, okB := loaded[p.Candidate]
		if !okA || !okB {
			continue
		}
		pr, _ := ComparePair(cfg, p, base, cand)
		r.Pairs = append(r.Pairs, pr)
	}

	r.Insights = insights(cfg)
	r.Recommendation = recommend(cfg, loaded)
	return r
}

// ComparePair aligns and compares base and cand as described by p. The
// returned error is also recorded in PairResult.Error.
func ComparePair(cfg *config.Global, p config.PairSpec, base, cand *dataset.Dataset) (PairResult, error) {
	pr := PairResult{
		BaseKey:         p.Base,
		CandidateKey:    p.Candidate,
		Base:            base.Label,
		Candidate:       cand.Label,
		Title:           p.Title,
		Expect:          p.Expect,
		ShowCorrelation: p.Correlation,
	}
	x, y, st, err := dataset.Align(base, cand)
	pr.Align = st
	if err != nil {
		pr.Error = err.Error()
		return pr, err
	}
	c, err := analysis.Compare(x, y)
	if err != nil {
		pr.Error = err.Error()
		return pr, err
	}
	pr.Comparison = c
	if c.HasCorrelation() {
		v := c.Correlation
		pr.Correlation = &v
	}
	pr.Notes = expectNotes(cfg, pr)
	return pr, nil
}

func expectNotes(cfg *config.Global, pr PairResult) []Note {
	c := pr.Comparison
	switch pr.Expect {
	case config.ExpectNearIdentical:
		if c.Len > 0 && c.IdenticalRatio() > cfg.NearIdenticalRatio {
			return []Note{{Level: LevelWarn, Lines: []string{
				fmt.Sprintf("WARNING: %s and %s are almost identical!", pr.Base, pr.Candidate),
				"This suggests BOTH have the same bug!",
			}}}
		}
	case config.ExpectSameZeros:
		if c.ZerosA == c.ZerosB {
			return []Note{{Level: LevelGood, Lines: []string{
				fmt.Sprintf("GOOD: %s and %s have same number of zeros", pr.Base, pr.Candidate),
				"Bug fix may have worked!",
			}}}
		}
		return []Note{{Level: LevelWarn, Lines: []string{
			fmt.Sprintf("%s has %d different zeros than %s", pr.Candidate, absInt(c.ZeroDelta()), pr.Base),
		}}}
	case config.ExpectZerosChanged:
		if c.ZerosA != c.ZerosB {
			return []Note{
				{Level: LevelGood, Lines: []string{
					fmt.Sprintf("GOOD: %s has different number of zeros than %s", pr.Candidate, pr.Base),
					"Bug fix is having an effect!",
				}},
				{Level: LevelInfo, Lines: []string{
					fmt.Sprintf("%s predictions went from 0 to non-zero", comma(c.BecameNonZero)),
					"These are the entities that were incorrectly zeroed by the bug!",
				}},
			}
		}
	}
	return nil
}

func insights(cfg *config.Global) []string {
	var out []string
	for _, p := range cfg.Pairs {
		a, b := labelOf(cfg, p.Base), labelOf(cfg, p.Candidate)
		switch p.Expect {
		case config.ExpectNearIdentical:
			out = append(out, fmt.Sprintf("If %s and %s are identical → same bug in both", a, b))
		case config.ExpectZerosChanged:
			out = append(out, fmt.Sprintf("If %s has fewer zeros than %s → bug fix working!", b, a))
		case config.ExpectSameZeros:
			out = append(out, fmt.Sprintf("If %s matches %s closely → we're back on track!", b, a))
		}
	}
	return out
}

func recommend(cfg *config.Global, loaded map[string]*dataset.Dataset) *Recommendation {
	if cfg.Reference == "" || cfg.Candidate == "" {
		return nil
	}
	refLabel, candLabel := labelOf(cfg, cfg.Reference), labelOf(cfg, cfg.Candidate)
	ref, okR := loaded[cfg.Reference]
	cand, okC := loaded[cfg.Candidate]
	if !okR || !okC {
		var missing []string
		if !okR {
			missing = append(missing, refLabel)
		}
		if !okC {
			missing = append(missing, candLabel)
		}
		return &Recommendation{Level: LevelWarn, Lines: []string{
			fmt.Sprintf("Need both %s and %s files to compare!", refLabel, candLabel),
			fmt.Sprintf("Generate %s first, then re-run this report", strings.Join(missing, " and ")),
		}}
	}
	refZeros := analysis.Summarize(ref.Values).Zero
	candZeros := analysis.Summarize(cand.Values).Zero
	switch {
	case absInt(refZeros-candZeros) < cfg.ZeroTolerance:
		return &Recommendation{Level: LevelGood, Lines: []string{
			fmt.Sprintf("%s looks very similar to %s", candLabel, refLabel),
			fmt.Sprintf("SUBMIT %s", candLabel),
			fmt.Sprintf("Expect a score close to %s", refLabel),
		}}
	case candZeros < refZeros:
		return &Recommendation{Level: LevelWarn, Lines: []string{
			fmt.Sprintf("%s has fewer zeros than %s", candLabel, refLabel),
			"This is unexpected - may be over-predicting",
			fmt.Sprintf("Review %s logic before submitting", candLabel),
		}}
	default:
		return &Recommendation{Level: LevelWarn, Lines: []string{
			fmt.Sprintf("%s has more zeros than %s", candLabel, refLabel),
			"Bug may not be fully fixed",
			fmt.Sprintf("Review the %s changes before submitting", candLabel),
		}}
	}
}

// labelOf returns the display label of a configured dataset, or key when
// the dataset is unknown or unlabeled.
func labelOf(cfg *config.Global, key string) string {
	if d, ok := cfg.Dataset(key); ok && d.Label != "" {
		return d.Label
	}
	return key
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// finite reports whether x can be printed as a number.
func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
