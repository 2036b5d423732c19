// Package config resolves csfgap settings from defaults, an optional config
// file, CSFGAP_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dshills/csfgap/internal/weights"
)

const (
	envPrefix = "CSFGAP"
	appName   = "csfgap"
)

type Config struct {
	MaxScale        float64            `mapstructure:"max_scale"`
	Industry        string             `mapstructure:"industry"`
	TaxonomyPath    string             `mapstructure:"taxonomy_path"`
	HistoryDir      string             `mapstructure:"history_dir"`
	HistoryLimit    int                `mapstructure:"history_limit"`
	LogLevel        string             `mapstructure:"log_level"`
	Redact          bool               `mapstructure:"redact"`
	WatchDebounceMs int                `mapstructure:"watch_debounce_ms"`
	MetricsAddr     string             `mapstructure:"metrics_addr"`
	Weights         map[string]float64 `mapstructure:"weights"`

	// ConfigFile is the file that was read, if any.
	ConfigFile string `mapstructure:"-"`
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"max-scale":     "max_scale",
	"industry":      "industry",
	"taxonomy":      "taxonomy_path",
	"history-dir":   "history_dir",
	"history-limit": "history_limit",
	"log-level":     "log_level",
	"redact":        "redact",
	"metrics-addr":  "metrics_addr",
}

func defaults(v *viper.Viper) {
	v.SetDefault("max_scale", 10.0)
	v.SetDefault("industry", "")
	v.SetDefault("taxonomy_path", "")
	v.SetDefault("history_dir", filepath.Join(".csfgap", "history"))
	v.SetDefault("history_limit", 10)
	v.SetDefault("log_level", "warn")
	v.SetDefault("redact", false)
	v.SetDefault("watch_debounce_ms", 250)
	v.SetDefault("metrics_addr", "")
	v.SetDefault("weights", map[string]float64{})
}

// RegisterFlags adds the global configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "Config file path (yaml|json|toml)")
	fs.Float64("max-scale", 10, "Top of the assessment score range")
	fs.String("industry", "", "Industry weight preset (default: snapshot industry)")
	fs.String("taxonomy", "", "Taxonomy file (default: builtin NIST CSF 2.0)")
	fs.String("history-dir", "", "Directory for archived snapshots")
	fs.Int("history-limit", 10, "Snapshots kept per subject")
	fs.String("log-level", "warn", "Log level (debug|info|warn|error)")
	fs.Bool("redact", false, "Redact secrets from notes in output")
}

// Load resolves the configuration. fs may be nil; otherwise only flags that
// exist in fs are bound.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	defaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var cfgPath string
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			cfgPath = f.Value.String()
		}
	}
	if cfgPath == "" {
		cfgPath = os.Getenv(envPrefix + "_CONFIG")
	}
	if cfgPath != "" {
		if err := readConfigFile(v, cfgPath); err != nil {
			return Config{}, err
		}
	} else if err := readDefaultConfig(v); err != nil {
		return Config{}, err
	}

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("config.Load: bind %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config.Load: unmarshal: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()
	cfg.Weights = normalizeWeights(cfg.Weights)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// normalizeWeights restores upper-case function ids; viper lower-cases map
// keys.
func normalizeWeights(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, w := range in {
		out[strings.ToUpper(k)] = w
	}
	return out
}

func validate(cfg Config) error {
	if !(cfg.MaxScale > 0) || math.IsInf(cfg.MaxScale, 0) {
		return fmt.Errorf("config: max_scale must be > 0, got %v", cfg.MaxScale)
	}
	if cfg.HistoryLimit <= 0 {
		return errors.New("config: history_limit must be > 0")
	}
	if cfg.WatchDebounceMs < 0 {
		return errors.New("config: watch_debounce_ms must be >= 0")
	}
	if err := weights.Map(cfg.Weights).Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func readConfigFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	return nil
}

func readDefaultConfig(v *viper.Viper) error {
	exts := []string{"yaml", "yml", "json", "toml"}
	for _, base := range defaultConfigCandidates() {
		for _, ext := range exts {
			candidate := base + "." + ext
			if _, err := os.Stat(candidate); err == nil {
				return readConfigFile(v, candidate)
			}
		}
	}
	return nil
}

func defaultConfigCandidates() []string {
	var out []string
	if cwd, _ := os.Getwd(); cwd != "" {
		out = append(out, filepath.Join(cwd, appName))
	}
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		if home, _ := os.UserHomeDir(); home != "" {
			xdg = filepath.Join(home, ".config")
		}
	}
	if xdg != "" {
		out = append(out, filepath.Join(xdg, appName, "config"))
	}
	return out
}
