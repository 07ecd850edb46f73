package cmd

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/predcompare-cli/internal/analysis"
	"github.com/KaramelBytes/predcompare-cli/internal/dataset"
	"github.com/KaramelBytes/predcompare-cli/internal/report"
)

var statsCmd = &cobra.Command{
	Use:   "stats <files...>",
	Short: "Print descriptive statistics for prediction files (globs accepted)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		opt, err := datasetOptions()
		if err != nil {
			return err
		}
		entries := make([]report.StatsEntry, 0, len(files))
		for _, path := range files {
			label := labelFor("", path)
			ds, err := dataset.Load(label, path, opt)
			if err != nil {
				return err
			}
			entries = append(entries, report.StatsEntry{Key: path, Label: label, Summary: analysis.Summarize(ds.Values)})
		}
		return emit(cmd, entries, func(report.TextOptions) string { return report.SummaryText(entries, cfg.Unit) })
	},
}

// expandInputs resolves glob patterns, keeping literal paths so that a
// missing file surfaces as a load error. Results are de-duplicated and sorted.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			if hasMeta(arg) {
				continue
			}
			matches = []string{arg}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

func hasMeta(p string) bool {
	for _, r := range p {
		switch r {
		case '*', '?', '[':
			return true
		}
	}
	return false
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
