package report

import (
	"encoding/json"
	"math"

	"github.com/KaramelBytes/predcompare-cli/internal/utils"
)

// JSON renders v as indented JSON.
func JSON(v any) ([]byte, error) { return utils.PrettyJSON(v) }

// MarshalJSON encodes the undefined single-value standard deviation as null.
func (s StatsEntry) MarshalJSON() ([]byte, error) {
	type summary struct {
		Count    int      `json:"count"`
		Mean     float64  `json:"mean"`
		Median   float64  `json:"median"`
		Std      *float64 `json:"std"`
		Max      float64  `json:"max"`
		Sum      float64  `json:"sum"`
		Positive int      `json:"positive"`
		Zero     int      `json:"zero"`
	}
	m := s.Summary
	out := struct {
		Key     string  `json:"key"`
		Label   string  `json:"label"`
		Summary summary `json:"summary"`
	}{
		Key:   s.Key,
		Label: s.Label,
		Summary: summary{
			Count: m.Count, Mean: m.Mean, Median: m.Median, Max: m.Max,
			Sum: m.Sum, Positive: m.Positive, Zero: m.Zero,
		},
	}
	if !math.IsNaN(m.Std) {
		std := m.Std
		out.Summary.Std = &std
	}
	return json.Marshal(out)
}
