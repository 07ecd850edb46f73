package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/predcompare-cli/internal/config"
	"github.com/KaramelBytes/predcompare-cli/internal/dataset"
	"github.com/KaramelBytes/predcompare-cli/internal/report"
	"github.com/KaramelBytes/predcompare-cli/internal/utils"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	// Output flags
	flagFormat string
	flagOutput string
	// Input flags (override config if set)
	flagColumn    string
	flagIDColumn  string
	flagDir       string
	flagDelimiter string
	flagDecimal   string
	flagThousands string
	flagSheet     string

	// Loaded configuration
	cfg *cfgpkg.Global
	// cfgErr holds the load failure behind a defaults fallback.
	cfgErr error
)

var rootCmd = &cobra.Command{
	Use:   "predcompare",
	Short: "Compare model prediction files and check whether a fix changed the output",
	Long: `predcompare loads the configured prediction files (one row per entity with a
predicted_weight column), prints descriptive statistics for each, compares the
designated pairs (differences, zero-count shifts, correlation) and closes with
a recommendation. Missing files are reported and skipped.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		opt, err := datasetOptions()
		if err != nil {
			return err
		}
		inputs := loadInputs(cfg, opt)
		rep := report.Build(cfg, inputs)
		return emit(cmd, rep, rep.Text)
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)

	f := rootCmd.PersistentFlags()
	f.StringVar(&cfgFile, "config", "", "config file (default is ~/.predcompare/config.yaml)")
	f.BoolVar(&debug, "debug", false, "enable debug logging")
	f.StringVarP(&flagFormat, "format", "f", "text", "output format: text or json")
	f.StringVarP(&flagOutput, "output", "o", "", "write the report to this path instead of stdout")
	f.StringVar(&flagColumn, "column", "", "prediction column name (overrides config)")
	f.StringVar(&flagIDColumn, "id-column", "", "entity id column used to align rows (overrides config)")
	f.StringVar(&flagDir, "dir", "", "base directory for relative dataset paths (overrides config)")
	f.StringVar(&flagDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (default by extension)")
	f.StringVar(&flagDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	f.StringVar(&flagThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	f.StringVar(&flagSheet, "sheet", "", "XLSX: sheet name to read (default first sheet)")
}

func loadConfig() {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	c, err := cfgpkg.Load(cfgFile)
	cfgErr = err
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Default()
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("column") && flagColumn != "" {
		cfg.Column = flagColumn
	}
	if f.Changed("id-column") {
		cfg.IDColumn = flagIDColumn
	}
	if f.Changed("dir") {
		cfg.Dir = flagDir
	}
	if f.Changed("delimiter") {
		cfg.Delimiter = flagDelimiter
	}
	if f.Changed("sheet") {
		cfg.Sheet = flagSheet
	}
	slog.Debug("config loaded", "datasets", len(cfg.Datasets), "pairs", len(cfg.Pairs), "column", cfg.Column, "dir", cfg.Dir)
}

func datasetOptions() (dataset.Options, error) {
	opt := dataset.DefaultOptions()
	opt.Column = cfg.Column
	opt.IDColumn = cfg.IDColumn
	opt.Sheet = cfg.Sheet
	switch cfg.Delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", cfg.Delimiter)
	}
	// Locale separators
	switch strings.ToLower(strings.TrimSpace(flagDecimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", flagDecimal)
	}
	switch strings.ToLower(strings.TrimSpace(flagThousands)) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", flagThousands)
	}
	return opt, nil
}

// loadInputs loads every configured dataset. Failures are carried in the
// result rather than returned so the report can show them.
func loadInputs(c *cfgpkg.Global, opt dataset.Options) []report.Input {
	inputs := make([]report.Input, 0, len(c.Datasets))
	for _, spec := range c.Datasets {
		path := c.ResolvePath(spec.Path)
		start := time.Now()
		ds, err := dataset.Load(spec.Label, path, opt)
		if err != nil {
			slog.Debug("dataset unavailable", "label", spec.Label, "path", path, "err", err)
		} else {
			slog.Debug("dataset loaded", "label", spec.Label, "path", path, "rows", ds.Len(), "keyed", ds.Keyed(), "elapsed", time.Since(start))
		}
		inputs = append(inputs, report.Input{Spec: spec, Data: ds, Err: err})
	}
	return inputs
}

// emit writes v as JSON or the text rendering, to --output or stdout.
func emit(cmd *cobra.Command, v any, text func(report.TextOptions) string) error {
	var out []byte
	switch flagFormat {
	case "json":
		b, err := report.JSON(v)
		if err != nil {
			return err
		}
		out = b
	case "text", "":
		opt := report.TextOptions{Plain: true}
		if flagOutput == "" {
			opt = report.TextOptionsFor(cmd.OutOrStdout())
		}
		out = []byte(text(opt))
	default:
		return fmt.Errorf("unsupported format %q: must be text or json", flagFormat)
	}
	if flagOutput != "" {
		if err := utils.SafeWriteFile(flagOutput, out); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote report to %s\n", flagOutput)
		return nil
	}
	_, err := cmd.OutOrStdout().Write(out)
	return err
}
