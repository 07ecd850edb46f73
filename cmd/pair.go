package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/predcompare-cli/internal/config"
	"github.com/KaramelBytes/predcompare-cli/internal/dataset"
	"github.com/KaramelBytes/predcompare-cli/internal/report"
)

var (
	pairBaseLabel string
	pairCandLabel string
	pairTitle     string
	pairExpect    string
)

var pairCmd = &cobra.Command{
	Use:   "pair <base> <candidate>",
	Short: "Compare two prediction files (diffs are candidate - base)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := datasetOptions()
		if err != nil {
			return err
		}
		base, err := dataset.Load(labelFor(pairBaseLabel, args[0]), args[0], opt)
		if err != nil {
			return err
		}
		cand, err := dataset.Load(labelFor(pairCandLabel, args[1]), args[1], opt)
		if err != nil {
			return err
		}
		spec := cfgpkg.PairSpec{
			Base:        base.Label,
			Candidate:   cand.Label,
			Title:       pairTitle,
			Expect:      pairExpect,
			Correlation: true,
		}
		switch spec.Expect {
		case cfgpkg.ExpectNone, cfgpkg.ExpectNearIdentical, cfgpkg.ExpectSameZeros, cfgpkg.ExpectZerosChanged:
		default:
			return fmt.Errorf("invalid --expect %q (use %s, %s or %s)", spec.Expect,
				cfgpkg.ExpectNearIdentical, cfgpkg.ExpectSameZeros, cfgpkg.ExpectZerosChanged)
		}
		pr, cmpErr := report.ComparePair(cfg, spec, base, cand)
		if cmpErr != nil {
			return fmt.Errorf("cannot compare %s and %s: %w", base.Label, cand.Label, cmpErr)
		}
		return emit(cmd, pr, func(o report.TextOptions) string { return report.PairText(pr, cfg.Unit, o) })
	},
}

// labelFor falls back to the file name without extension.
func labelFor(label, path string) string {
	if label != "" {
		return label
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func init() {
	rootCmd.AddCommand(pairCmd)
	pairCmd.Flags().StringVar(&pairBaseLabel, "base-label", "", "label for the base file (default: file name)")
	pairCmd.Flags().StringVar(&pairCandLabel, "candidate-label", "", "label for the candidate file (default: file name)")
	pairCmd.Flags().StringVar(&pairTitle, "title", "", "title shown next to the comparison header")
	pairCmd.Flags().StringVar(&pairExpect, "expect", "", "expected outcome: near_identical | same_zeros | zeros_changed")
}
