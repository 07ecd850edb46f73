package dataset

import (
	"fmt"

	"github.com/KaramelBytes/predcompare-cli/internal/analysis"
)

// AlignStats describes how two datasets were matched.
type AlignStats struct {
	ByKey    bool `json:"by_key"`
	Matched  int  `json:"matched"`
	OnlyBase int  `json:"only_base"`
	OnlyCand int  `json:"only_candidate"`
}

// Align returns value slices for base and cand matched row by row. When both
// datasets carry keys the rows are joined on key in base order and unmatched
// rows are dropped; otherwise rows are matched by position and the lengths
// must agree.
func Align(base, cand *Dataset) (x, y []float64, st AlignStats, err error) {
	if base.Keyed() && cand.Keyed() {
		return alignByKey(base, cand)
	}
	if base.Len() != cand.Len() {
		return nil, nil, st, fmt.Errorf("%s vs %s: %w", base.Label, cand.Label,
			&analysis.LengthMismatchError{A: base.Len(), B: cand.Len()})
	}
	st.Matched = base.Len()
	return base.Values, cand.Values, st, nil
}

func alignByKey(base, cand *Dataset) (x, y []float64, st AlignStats, err error) {
	st.ByKey = true
	idx := make(map[string]int, len(cand.Keys))
	for i, k := range cand.Keys {
		idx[k] = i
	}
	x = make([]float64, 0, base.Len())
	y = make([]float64, 0, base.Len())
	for i, k := range base.Keys {
		j, ok := idx[k]
		if !ok {
			st.OnlyBase++
			continue
		}
		x = append(x, base.Values[i])
		y = append(y, cand.Values[j])
	}
	st.Matched = len(x)
	st.OnlyCand = cand.Len() - st.Matched
	return x, y, st, nil
}
