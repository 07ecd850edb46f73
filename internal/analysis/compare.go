package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Comparison is the elementwise comparison of two aligned datasets A and B.
// Diff holds B - A.
type Comparison struct {
	Len  int       `json:"len"`
	Diff []float64 `json:"-"`

	MeanDiff float64 `json:"mean_diff"`
	MaxDiff  float64 `json:"max_increase"`
	MinDiff  float64 `json:"max_decrease"`

	Identical int `json:"identical"`
	Changed   int `json:"changed"`

	ZerosA        int `json:"zeros_a"`
	ZerosB        int `json:"zeros_b"`
	BecameZero    int `json:"became_zero"`
	BecameNonZero int `json:"became_nonzero"`

	// Correlation is NaN when CorrelationErr is set.
	Correlation    float64 `json:"-"`
	CorrelationErr error   `json:"-"`
}

// Compare computes the difference statistics, zero transitions and Pearson
// correlation between a and b. Both must have the same length; rows are
// matched by position.
func Compare(a, b []float64) (*Comparison, error) {
	if len(a) != len(b) {
		return nil, &LengthMismatchError{A: len(a), B: len(b)}
	}
	n := len(a)
	c := &Comparison{Len: n, Diff: make([]float64, n)}
	floats.SubTo(c.Diff, b, a)
	if n > 0 {
		c.MeanDiff = stat.Mean(c.Diff, nil)
		c.MaxDiff = floats.Max(c.Diff)
		c.MinDiff = floats.Min(c.Diff)
	}
	for i, d := range c.Diff {
		if d == 0 {
			c.Identical++
		} else {
			c.Changed++
		}
		if a[i] == 0 {
			c.ZerosA++
		}
		if b[i] == 0 {
			c.ZerosB++
		}
		switch {
		case a[i] > 0 && b[i] == 0:
			c.BecameZero++
		case a[i] == 0 && b[i] > 0:
			c.BecameNonZero++
		}
	}
	c.Correlation, c.CorrelationErr = Correlation(a, b)
	return c, nil
}

// Correlation returns the Pearson correlation coefficient of a and b. It
// returns NaN and an error wrapping ErrDegenerateInput when either side has
// fewer than two values or zero variance.
func Correlation(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return math.NaN(), &LengthMismatchError{A: len(a), B: len(b)}
	}
	if len(a) < 2 {
		return math.NaN(), fmt.Errorf("correlation needs at least 2 values, got %d: %w", len(a), ErrDegenerateInput)
	}
	if stat.Variance(a, nil) == 0 || stat.Variance(b, nil) == 0 {
		return math.NaN(), fmt.Errorf("correlation undefined for constant input: %w", ErrDegenerateInput)
	}
	r := stat.Correlation(a, b, nil)
	// clamp rounding noise
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r, nil
}

// IdenticalPct is the share of unchanged predictions in percent (0 when empty).
func (c *Comparison) IdenticalPct() float64 { return pct(c.Identical, c.Len) }

// ChangedPct is the share of changed predictions in percent (0 when empty).
func (c *Comparison) ChangedPct() float64 { return pct(c.Changed, c.Len) }

// IdenticalRatio is Identical/Len in [0,1], 0 when empty.
func (c *Comparison) IdenticalRatio() float64 { return pct(c.Identical, c.Len) / 100 }

// ZeroDelta is the change in zero-prediction count from A to B.
func (c *Comparison) ZeroDelta() int { return c.ZerosB - c.ZerosA }

// HasCorrelation reports whether Correlation is defined.
func (c *Comparison) HasCorrelation() bool { return c.CorrelationErr == nil && !math.IsNaN(c.Correlation) }
