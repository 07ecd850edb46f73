package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/predcompare-cli/internal/config"
	"github.com/KaramelBytes/predcompare-cli/internal/dataset"
)

func inputs(cfg *config.Global, values map[string][]float64) []Input {
	var out []Input
	for _, spec := range cfg.Datasets {
		in := Input{Spec: spec}
		if v, ok := values[spec.Key]; ok {
			in.Data = &dataset.Dataset{Label: spec.Label, Path: spec.Path, Values: v}
		} else {
			in.Err = fmt.Errorf("%s: %w", spec.Path, dataset.ErrFileNotFound)
		}
		out = append(out, in)
	}
	return out
}

func pairByKeys(t *testing.T, r *Report, base, cand string) PairResult {
	t.Helper()
	for _, p := range r.Pairs {
		if p.BaseKey == base && p.CandidateKey == cand {
			return p
		}
	}
	t.Fatalf("pair %s->%s not in report", base, cand)
	return PairResult{}
}

func TestBuild_AllDatasets(t *testing.T) {
	cfg := config.Default()
	r := Build(cfg, inputs(cfg, map[string][]float64{
		"step5": {0, 5, 10, 0},
		"step6": {0, 5, 0, 0},
		"step7": {0, 5, 0, 0},
		"step8": {0, 5, 0, 3},
	}))

	require.Len(t, r.Loads, 4)
	for _, l := range r.Loads {
		assert.Equal(t, StatusLoaded, l.Status)
		assert.Equal(t, 4, l.Rows)
	}
	require.Len(t, r.Stats, 4)
	require.Len(t, r.Pairs, 4)
	assert.NotEmpty(t, r.RunID)

	p67 := pairByKeys(t, r, "step6", "step7")
	require.Len(t, p67.Notes, 1)
	assert.Equal(t, LevelWarn, p67.Notes[0].Level)
	assert.Contains(t, p67.Notes[0].Lines[0], "almost identical")

	p58 := pairByKeys(t, r, "step5", "step8")
	c := p58.Comparison
	require.NotNil(t, c)
	assert.Equal(t, []float64{0, 0, -10, 3}, c.Diff)
	assert.Equal(t, 1, c.BecameZero)
	assert.Equal(t, 1, c.BecameNonZero)
	require.Len(t, p58.Notes, 1)
	assert.Equal(t, LevelGood, p58.Notes[0].Level, "same zero count")
	require.NotNil(t, p58.Correlation)

	p78 := pairByKeys(t, r, "step7", "step8")
	require.Len(t, p78.Notes, 2)
	assert.Contains(t, p78.Notes[1].Lines[0], "1 predictions went from 0 to non-zero")

	require.NotNil(t, r.Recommendation)
	assert.Equal(t, LevelGood, r.Recommendation.Level)
	assert.Equal(t, "SUBMIT Step 8", r.Recommendation.Lines[1])
	assert.Len(t, r.Insights, 3)
}

func TestBuild_MissingFilesSkipSections(t *testing.T) {
	cfg := config.Default()
	r := Build(cfg, inputs(cfg, map[string][]float64{
		"step5": {1, 2},
		"step6": {1, 3},
	}))

	assert.Equal(t, StatusNotFound, r.Loads[3].Status)
	assert.Equal(t, "run Step 8 first!", r.Loads[3].Hint)
	assert.Len(t, r.Stats, 2)
	require.Len(t, r.Pairs, 1)
	assert.Equal(t, "step6", r.Pairs[0].CandidateKey)

	require.NotNil(t, r.Recommendation)
	assert.Equal(t, LevelWarn, r.Recommendation.Level)
	assert.Equal(t, "Need both Step 5 and Step 8 files to compare!", r.Recommendation.Lines[0])
	assert.Contains(t, r.Recommendation.Lines[1], "Generate Step 8 first")

	txt := r.Text(TextOptions{Plain: true})
	assert.Contains(t, txt, "[MISSING] Step 8 file not found (run Step 8 first!)")
	assert.NotContains(t, txt, "STEP 5 vs STEP 8")
}

func TestBuild_LengthMismatchIsVisible(t *testing.T) {
	cfg := config.Default()
	r := Build(cfg, inputs(cfg, map[string][]float64{
		"step5": {1, 2, 3},
		"step6": {1, 2},
	}))
	require.Len(t, r.Pairs, 1)
	assert.Nil(t, r.Pairs[0].Comparison)
	assert.Contains(t, r.Pairs[0].Error, "length mismatch: 3 vs 2 rows")

	txt := r.Text(TextOptions{Plain: true})
	assert.Contains(t, txt, "[WARN] Cannot compare: Step 5 vs Step 6: length mismatch: 3 vs 2 rows")
}

func TestRecommendation_Branches(t *testing.T) {
	zeros := func(n, total int) []float64 {
		v := make([]float64, total)
		for i := n; i < total; i++ {
			v[i] = 1
		}
		return v
	}
	cfg := config.Default()
	cfg.ZeroTolerance = 3

	cases := []struct {
		name     string
		ref      []float64
		cand     []float64
		level    Level
		contains string
	}{
		{"close", zeros(10, 20), zeros(12, 20), LevelGood, "looks very similar"},
		{"fewer", zeros(10, 20), zeros(2, 20), LevelWarn, "fewer zeros"},
		{"more", zeros(2, 20), zeros(10, 20), LevelWarn, "more zeros"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Build(cfg, inputs(cfg, map[string][]float64{"step5": tc.ref, "step8": tc.cand}))
			require.NotNil(t, r.Recommendation)
			assert.Equal(t, tc.level, r.Recommendation.Level)
			assert.Contains(t, r.Recommendation.Lines[0], tc.contains)
		})
	}

	cfg.Reference, cfg.Candidate = "", ""
	r := Build(cfg, inputs(cfg, nil))
	assert.Nil(t, r.Recommendation)
}

func TestText_Formatting(t *testing.T) {
	cfg := config.Default()
	r := Build(cfg, inputs(cfg, map[string][]float64{
		"step5": {0, 1500, 2500, 0},
		"step8": {0, 1500, 0, 1200.4},
	}))
	txt := r.Text(TextOptions{Plain: true})

	for _, want := range []string{
		"COMPARING SUBMISSION FILES",
		"[OK] Loaded Step 5 submission (4 rows)",
		"  Mean:             1,000 kg",
		"  Pred == 0:            2 ( 50.0%)",
		"STEP 5 vs STEP 8 COMPARISON (bug fix test)",
		"Prediction differences (Step 8 - Step 5):",
		"  Max decrease:        -2,500 kg",
		"  Diff:   +0\n",
		"  Became 0:     1",
		"Correlation between Step 5 and Step 8: ",
		"[OK] GOOD: Step 5 and Step 8 have same number of zeros",
		"RECOMMENDATION:",
	} {
		assert.True(t, strings.Contains(txt, want), "missing %q in:\n%s", want, txt)
	}
}

func TestText_ZeroShiftDirection(t *testing.T) {
	cfg := config.Default()
	cfg.Pairs = []config.PairSpec{{Base: "step7", Candidate: "step8"}}
	r := Build(cfg, inputs(cfg, map[string][]float64{
		"step7": {0, 0, 0, 5},
		"step8": {1, 2, 0, 5},
	}))
	txt := r.Text(TextOptions{Plain: true})
	assert.Contains(t, txt, "  Diff:   -2 (fewer zeros in Step 8)\n")
	assert.NotContains(t, txt, "-2 more zeros")

	r = Build(cfg, inputs(cfg, map[string][]float64{
		"step7": {1, 2, 0, 5},
		"step8": {0, 0, 0, 5},
	}))
	assert.Contains(t, r.Text(TextOptions{Plain: true}), "  Diff:   +2 (more zeros in Step 8)\n")
}

func TestText_EmptyDatasetPercentages(t *testing.T) {
	cfg := config.Default()
	cfg.Pairs = []config.PairSpec{{Base: "step5", Candidate: "step6", Correlation: true}}
	r := Build(cfg, inputs(cfg, map[string][]float64{"step5": {}, "step6": {}}))
	txt := r.Text(TextOptions{Plain: true})

	assert.Contains(t, txt, "  Identical preds:          0 (   N/A)")
	assert.Contains(t, txt, "Correlation between Step 5 and Step 6: undefined")
}

func TestJSON_UndefinedCorrelationIsNull(t *testing.T) {
	cfg := config.Default()
	r := Build(cfg, inputs(cfg, map[string][]float64{
		"step5": {1, 1, 1},
		"step8": {2, 2, 2},
	}))
	b, err := JSON(r)
	require.NoError(t, err)

	var decoded struct {
		Pairs []struct {
			Correlation *float64 `json:"correlation"`
			Comparison  struct {
				Changed int `json:"changed"`
			} `json:"comparison"`
		} `json:"pairs"`
		Stats []struct {
			Summary struct {
				Std *float64 `json:"std"`
			} `json:"summary"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Len(t, decoded.Pairs, 1)
	assert.Nil(t, decoded.Pairs[0].Correlation)
	assert.Equal(t, 3, decoded.Pairs[0].Comparison.Changed)
	require.Len(t, decoded.Stats, 2)
	require.NotNil(t, decoded.Stats[0].Summary.Std)
	assert.Equal(t, 0.0, *decoded.Stats[0].Summary.Std)
}

func TestRecommendation_UnlabeledDatasetsUseKeys(t *testing.T) {
	cfg := config.Default()
	cfg.Datasets = []config.DatasetSpec{{Key: "run_a", Path: "a.csv"}, {Key: "run_b", Path: "b.csv"}}
	cfg.Pairs = nil
	cfg.Reference, cfg.Candidate = "run_a", "run_b"

	r := Build(cfg, inputs(cfg, map[string][]float64{"run_a": {0, 1}}))
	require.NotNil(t, r.Recommendation)
	assert.Equal(t, "Need both run_a and run_b files to compare!", r.Recommendation.Lines[0])
	assert.Equal(t, "Generate run_b first, then re-run this report", r.Recommendation.Lines[1])
}
