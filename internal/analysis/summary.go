package analysis

import (
	"github.com/montanaflynn/stats"
)

// Summary holds descriptive statistics for one prediction dataset.
type Summary struct {
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	Std      float64 `json:"std"` // sample (n-1); NaN for a single value
	Max      float64 `json:"max"`
	Sum      float64 `json:"sum"`
	Positive int     `json:"positive"`
	Zero     int     `json:"zero"`
}

// Summarize computes descriptive statistics over data. An empty slice yields
// a zero Summary.
func Summarize(data []float64) Summary {
	s := Summary{Count: len(data)}
	if len(data) == 0 {
		return s
	}
	in := stats.Float64Data(data)
	// Errors only signal empty input, which is handled above.
	s.Mean, _ = in.Mean()
	s.Median, _ = in.Median()
	s.Std, _ = stats.StandardDeviationSample(in)
	s.Max, _ = in.Max()
	s.Sum, _ = in.Sum()
	for _, v := range data {
		switch {
		case v > 0:
			s.Positive++
		case v == 0:
			s.Zero++
		}
	}
	return s
}

// PositivePct is the share of strictly positive values in percent.
func (s Summary) PositivePct() float64 { return pct(s.Positive, s.Count) }

// ZeroPct is the share of exactly-zero values in percent.
func (s Summary) ZeroPct() float64 { return pct(s.Zero, s.Count) }

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100.0 / float64(total)
}
