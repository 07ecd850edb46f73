package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"
)

const ruleWidth = 80

// TextOptions controls the plain-text renderer.
type TextOptions struct {
	// Plain replaces emoji markers with ASCII tags.
	Plain bool
}

// TextOptionsFor picks emoji markers for terminals and ASCII otherwise.
func TextOptionsFor(w io.Writer) TextOptions {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return TextOptions{}
	}
	return TextOptions{Plain: true}
}

func (o TextOptions) marker(l Level) string {
	if o.Plain {
		switch l {
		case LevelGood:
			return "[OK]"
		case LevelWarn:
			return "[WARN]"
		}
		return "[INFO]"
	}
	switch l {
	case LevelGood:
		return "✅"
	case LevelWarn:
		return "⚠️ "
	}
	return "  "
}

func (o TextOptions) missing() string {
	if o.Plain {
		return "[MISSING]"
	}
	return "❌"
}

func (o TextOptions) icon(plain, fancy string) string {
	if o.Plain {
		return plain
	}
	return fancy
}

// Text renders the full report.
func (r *Report) Text(opt TextOptions) string {
	var b strings.Builder
	banner(&b, "COMPARING SUBMISSION FILES")
	for _, l := range r.Loads {
		switch l.Status {
		case StatusLoaded:
			b.WriteString(fmt.Sprintf("%s Loaded %s submission (%s rows)\n", opt.marker(LevelGood), l.Label, comma(l.Rows)))
		case StatusNotFound:
			line := fmt.Sprintf("%s %s file not found", opt.missing(), l.Label)
			if l.Hint != "" {
				line += " (" + l.Hint + ")"
			}
			b.WriteString(line + "\n")
		default:
			b.WriteString(fmt.Sprintf("%s %s could not be loaded: %s\n", opt.missing(), l.Label, l.Error))
		}
	}

	b.WriteString("\n")
	banner(&b, "PREDICTION STATISTICS")
	if len(r.Stats) == 0 {
		b.WriteString("\n(no datasets loaded)\n")
	}
	for _, s := range r.Stats {
		b.WriteString("\n")
		writeSummary(&b, s, r.Unit)
	}

	for _, p := range r.Pairs {
		b.WriteString("\n")
		writePair(&b, p, r.Unit, opt)
	}

	b.WriteString("\n")
	banner(&b, "ANALYSIS COMPLETE")
	if len(r.Insights) > 0 {
		b.WriteString(fmt.Sprintf("\n%s KEY INSIGHTS:\n", opt.icon("*", "💡")))
		for _, in := range r.Insights {
			b.WriteString("   - " + in + "\n")
		}
	}
	if rec := r.Recommendation; rec != nil {
		b.WriteString(fmt.Sprintf("\n%s RECOMMENDATION:\n", opt.icon(">>", "🎯")))
		for _, line := range rec.Lines {
			b.WriteString(fmt.Sprintf("   %s %s\n", opt.marker(rec.Level), line))
		}
	}
	b.WriteString("\n" + strings.Repeat("=", ruleWidth) + "\n")
	return b.String()
}

// SummaryText renders statistics for standalone datasets.
func SummaryText(entries []StatsEntry, unit string) string {
	var b strings.Builder
	banner(&b, "PREDICTION STATISTICS")
	for _, s := range entries {
		b.WriteString("\n")
		writeSummary(&b, s, unit)
	}
	return b.String()
}

// PairText renders one comparison.
func PairText(p PairResult, unit string, opt TextOptions) string {
	var b strings.Builder
	writePair(&b, p, unit, opt)
	return b.String()
}

func banner(b *strings.Builder, title string) {
	rule := strings.Repeat("=", ruleWidth)
	b.WriteString(rule + "\n" + title + "\n" + rule + "\n")
}

func writeSummary(b *strings.Builder, s StatsEntry, unit string) {
	m := s.Summary
	b.WriteString(s.Label + ":\n")
	b.WriteString(fmt.Sprintf("  Mean:        %10s%s\n", num(m.Mean), suffix(unit)))
	b.WriteString(fmt.Sprintf("  Median:      %10s%s\n", num(m.Median), suffix(unit)))
	b.WriteString(fmt.Sprintf("  Std:         %10s%s\n", num(m.Std), suffix(unit)))
	b.WriteString(fmt.Sprintf("  Max:         %10s%s\n", num(m.Max), suffix(unit)))
	b.WriteString(fmt.Sprintf("  Sum:         %10s%s\n", num(m.Sum), suffix(unit)))
	b.WriteString(fmt.Sprintf("  Pred > 0:    %10s (%s)\n", comma(m.Positive), percent(m.PositivePct(), m.Count)))
	b.WriteString(fmt.Sprintf("  Pred == 0:   %10s (%s)\n", comma(m.Zero), percent(m.ZeroPct(), m.Count)))
}

func writePair(b *strings.Builder, p PairResult, unit string, opt TextOptions) {
	title := fmt.Sprintf("%s vs %s COMPARISON", strings.ToUpper(p.Base), strings.ToUpper(p.Candidate))
	if p.Title != "" {
		title += " (" + p.Title + ")"
	}
	banner(b, title)
	if p.Error != "" {
		b.WriteString(fmt.Sprintf("\n%s Cannot compare: %s\n", opt.marker(LevelWarn), p.Error))
		b.WriteString("   Rows must be aligned (same count and order, or a shared id column).\n")
		return
	}
	c := p.Comparison
	if p.Align.ByKey {
		b.WriteString(fmt.Sprintf("\nAligned by id: %s matched, %s only in %s, %s only in %s\n",
			comma(p.Align.Matched), comma(p.Align.OnlyBase), p.Base, comma(p.Align.OnlyCand), p.Candidate))
	}
	b.WriteString(fmt.Sprintf("\nPrediction differences (%s - %s):\n", p.Candidate, p.Base))
	b.WriteString(fmt.Sprintf("  Mean diff:       %10s%s\n", num(c.MeanDiff), suffix(unit)))
	b.WriteString(fmt.Sprintf("  Max increase:    %10s%s\n", num(c.MaxDiff), suffix(unit)))
	b.WriteString(fmt.Sprintf("  Max decrease:    %10s%s\n", num(c.MinDiff), suffix(unit)))
	b.WriteString(fmt.Sprintf("  Identical preds: %10s (%s)\n", comma(c.Identical), percent(c.IdenticalPct(), c.Len)))
	b.WriteString(fmt.Sprintf("  Changed preds:   %10s (%s)\n", comma(c.Changed), percent(c.ChangedPct(), c.Len)))

	b.WriteString("\nZero predictions:\n")
	w := max(len(p.Base), len(p.Candidate)) + 1
	b.WriteString(fmt.Sprintf("  %-*s %s zeros\n", w, p.Base+":", comma(c.ZerosA)))
	b.WriteString(fmt.Sprintf("  %-*s %s zeros\n", w, p.Candidate+":", comma(c.ZerosB)))
	b.WriteString(fmt.Sprintf("  %-*s %s\n", w, "Diff:", zeroShift(c.ZeroDelta(), p.Candidate)))

	b.WriteString("\nPredictions that changed:\n")
	b.WriteString(fmt.Sprintf("  Became 0:     %s\n", comma(c.BecameZero)))
	b.WriteString(fmt.Sprintf("  Became non-0: %s\n", comma(c.BecameNonZero)))

	if p.ShowCorrelation {
		if p.Correlation != nil {
			b.WriteString(fmt.Sprintf("\nCorrelation between %s and %s: %.6f\n", p.Base, p.Candidate, *p.Correlation))
		} else {
			b.WriteString(fmt.Sprintf("\nCorrelation between %s and %s: undefined", p.Base, p.Candidate))
			if c.CorrelationErr != nil {
				b.WriteString(" (" + c.CorrelationErr.Error() + ")")
			}
			b.WriteString("\n")
		}
	}
	for _, n := range p.Notes {
		b.WriteString("\n")
		for i, line := range n.Lines {
			if i == 0 {
				b.WriteString(fmt.Sprintf("%s %s\n", opt.marker(n.Level), line))
				continue
			}
			b.WriteString("   " + line + "\n")
		}
	}
}

// num formats x rounded to an integer with thousands separators.
func num(x float64) string {
	if !finite(x) {
		return "NaN"
	}
	return humanize.Comma(int64(math.Round(x)))
}

func comma(n int) string { return humanize.Comma(int64(n)) }

func signed(n int) string {
	if n >= 0 {
		return "+" + comma(n)
	}
	return comma(n)
}

// zeroShift renders a signed zero-count delta and its direction.
func zeroShift(d int, cand string) string {
	switch {
	case d > 0:
		return fmt.Sprintf("%s (more zeros in %s)", signed(d), cand)
	case d < 0:
		return fmt.Sprintf("%s (fewer zeros in %s)", signed(d), cand)
	}
	return signed(d)
}

// percent renders a share to one decimal, or N/A for an empty dataset.
func percent(p float64, total int) string {
	if total == 0 {
		return "   N/A"
	}
	return fmt.Sprintf("%5.1f%%", p)
}

func suffix(unit string) string {
	if unit == "" {
		return ""
	}
	return " " + unit
}
