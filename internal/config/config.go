package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Pair expectations understood by the report layer.
const (
	ExpectNone          = ""
	ExpectNearIdentical = "near_identical"
	ExpectSameZeros     = "same_zeros"
	ExpectZerosChanged  = "zeros_changed"
)

// DefaultColumn is the prediction column read from every input file.
const DefaultColumn = "predicted_weight"

// Global configuration structure.
type Global struct {
	Column    string `mapstructure:"column" yaml:"column"`
	IDColumn  string `mapstructure:"id_column" yaml:"id_column"`
	Dir       string `mapstructure:"dir" yaml:"dir"`
	Unit      string `mapstructure:"unit" yaml:"unit"`
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	Sheet     string `mapstructure:"sheet" yaml:"sheet"`

	Datasets []DatasetSpec `mapstructure:"datasets" yaml:"datasets"`
	Pairs    []PairSpec    `mapstructure:"pairs" yaml:"pairs"`

	// Recommendation heuristic
	Reference          string  `mapstructure:"reference" yaml:"reference"`
	Candidate          string  `mapstructure:"candidate" yaml:"candidate"`
	ZeroTolerance      int     `mapstructure:"zero_tolerance" yaml:"zero_tolerance"`
	NearIdenticalRatio float64 `mapstructure:"near_identical_ratio" yaml:"near_identical_ratio"`
}

// DatasetSpec names one prediction file.
type DatasetSpec struct {
	Key         string `mapstructure:"key" yaml:"key"`
	Label       string `mapstructure:"label" yaml:"label"`
	Path        string `mapstructure:"path" yaml:"path"`
	MissingHint string `mapstructure:"missing_hint" yaml:"missing_hint,omitempty"`
}

// PairSpec designates a comparison between two datasets by key.
// Diffs are computed as Candidate - Base.
type PairSpec struct {
	Base        string `mapstructure:"base" yaml:"base"`
	Candidate   string `mapstructure:"candidate" yaml:"candidate"`
	Title       string `mapstructure:"title" yaml:"title,omitempty"`
	Expect      string `mapstructure:"expect" yaml:"expect,omitempty"`
	Correlation bool   `mapstructure:"correlation" yaml:"correlation,omitempty"`
}

// DefaultDatasets returns the four LightGBM submission files the tool was
// written around.
func DefaultDatasets() []DatasetSpec {
	return []DatasetSpec{
		{Key: "step5", Label: "Step 5", Path: "lightgbm_step5_no_calibration.csv"},
		{Key: "step6", Label: "Step 6", Path: "lightgbm_step6_minimal.csv"},
		{Key: "step7", Label: "Step 7", Path: "lightgbm_step7_pruned.csv"},
		{Key: "step8", Label: "Step 8", Path: "lightgbm_step8_bugfix.csv", MissingHint: "run Step 8 first!"},
	}
}

// DefaultPairs returns the comparisons made between the default datasets.
func DefaultPairs() []PairSpec {
	return []PairSpec{
		{Base: "step5", Candidate: "step6"},
		{Base: "step6", Candidate: "step7", Title: "removed features", Expect: ExpectNearIdentical},
		{Base: "step5", Candidate: "step8", Title: "bug fix test", Expect: ExpectSameZeros, Correlation: true},
		{Base: "step7", Candidate: "step8", Title: "only bug fix changed", Expect: ExpectZerosChanged},
	}
}

// Default returns a configuration populated with defaults only.
func Default() *Global {
	return &Global{
		Column:             DefaultColumn,
		Unit:               "kg",
		Datasets:           DefaultDatasets(),
		Pairs:              DefaultPairs(),
		Reference:          "step5",
		Candidate:          "step8",
		ZeroTolerance:      100,
		NearIdenticalRatio: 0.95,
	}
}

// Dataset returns the dataset spec registered under key.
func (c *Global) Dataset(key string) (DatasetSpec, bool) {
	for _, d := range c.Datasets {
		if d.Key == key {
			return d, true
		}
	}
	return DatasetSpec{}, false
}

// ResolvePath joins relative dataset paths onto Dir.
func (c *Global) ResolvePath(p string) string {
	if c.Dir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(expandHome(c.Dir), p)
}

// Validate checks cross references between datasets, pairs and the
// recommendation settings.
func (c *Global) Validate() error {
	seen := map[string]struct{}{}
	for _, d := range c.Datasets {
		if strings.TrimSpace(d.Key) == "" {
			return errors.New("dataset key must not be empty")
		}
		if d.Path == "" {
			return fmt.Errorf("dataset %q: path must not be empty", d.Key)
		}
		if _, dup := seen[d.Key]; dup {
			return fmt.Errorf("duplicate dataset key %q", d.Key)
		}
		seen[d.Key] = struct{}{}
	}
	for i, p := range c.Pairs {
		if _, ok := seen[p.Base]; !ok {
			return fmt.Errorf("pair %d: unknown base dataset %q", i+1, p.Base)
		}
		if _, ok := seen[p.Candidate]; !ok {
			return fmt.Errorf("pair %d: unknown candidate dataset %q", i+1, p.Candidate)
		}
		switch p.Expect {
		case ExpectNone, ExpectNearIdentical, ExpectSameZeros, ExpectZerosChanged:
		default:
			return fmt.Errorf("pair %d: invalid expect %q (use %s, %s or %s)", i+1, p.Expect,
				ExpectNearIdentical, ExpectSameZeros, ExpectZerosChanged)
		}
	}
	if c.Reference != "" {
		if _, ok := seen[c.Reference]; !ok {
			return fmt.Errorf("unknown reference dataset %q", c.Reference)
		}
	}
	if c.Candidate != "" {
		if _, ok := seen[c.Candidate]; !ok {
			return fmt.Errorf("unknown candidate dataset %q", c.Candidate)
		}
	}
	if c.NearIdenticalRatio <= 0 || c.NearIdenticalRatio > 1 {
		return fmt.Errorf("near_identical_ratio must be in (0, 1], got %v", c.NearIdenticalRatio)
	}
	if c.ZeroTolerance < 0 {
		return fmt.Errorf("zero_tolerance must be >= 0, got %d", c.ZeroTolerance)
	}
	return nil
}

// DefaultPath returns ~/.predcompare/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".predcompare", "config.yaml"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.predcompare/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A .env file in the working
// directory is read first and never overrides variables already set.
func Load(cfgFile string) (*Global, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PREDCOMPARE")
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("column", d.Column)
	v.SetDefault("id_column", "")
	v.SetDefault("dir", "")
	v.SetDefault("unit", d.Unit)
	v.SetDefault("delimiter", "")
	v.SetDefault("sheet", "")
	v.SetDefault("zero_tolerance", d.ZeroTolerance)
	v.SetDefault("near_identical_ratio", d.NearIdenticalRatio)
	_ = v.BindEnv("reference")
	_ = v.BindEnv("candidate")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".predcompare"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Default pairs and the recommendation only make sense against the
	// default datasets.
	if len(c.Datasets) == 0 {
		c.Datasets = d.Datasets
		if len(c.Pairs) == 0 {
			c.Pairs = d.Pairs
		}
		if c.Reference == "" && c.Candidate == "" {
			c.Reference, c.Candidate = d.Reference, d.Candidate
		}
	}
	for i := range c.Datasets {
		if c.Datasets[i].Label == "" {
			c.Datasets[i].Label = c.Datasets[i].Key
		}
	}
	if c.Column == "" {
		c.Column = DefaultColumn
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &c, nil
}

func expandHome(dir string) string {
	if !strings.HasPrefix(dir, "~") {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return dir
	}
	dir = strings.TrimPrefix(dir, "~")
	dir = strings.TrimPrefix(dir, string(os.PathSeparator))
	dir = strings.TrimPrefix(dir, "/")
	return filepath.Join(home, dir)
}
