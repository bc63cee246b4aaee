package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/skelstat/skelstat/agent/internal/compute"
	"github.com/skelstat/skelstat/pkg/types"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultSettleDelay = 500 * time.Millisecond
	DefaultLogLevel    = "info"
	DefaultListen      = ":9464"
)

// Config is the top-level configuration for the agent.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	Agent   AgentConfig   `yaml:"agent"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// AgentConfig holds the aggregation settings.
type AgentConfig struct {
	// WatchDir is the directory the host writes per-unit results into.
	WatchDir string `yaml:"watch_dir"`

	// ResultsSuffix identifies per-unit results files.
	ResultsSuffix string `yaml:"results_suffix"`

	// SummarySuffix is appended to the container base name to form the
	// summary file name.
	SummarySuffix string `yaml:"summary_suffix"`

	// RatioLabel is the first field of the ratio row.
	RatioLabel string `yaml:"ratio_label"`

	// SettleDelay is how long a results file must go without writes before
	// it is aggregated.
	SettleDelay time.Duration `yaml:"settle_delay"`

	// StartSuffix names the marker file (<container><suffix>) whose arrival
	// resets that container's summary. Summaries are otherwise only appended.
	StartSuffix string `yaml:"start_suffix"`

	// LogLevel is one of: debug | info | warn | error. Applied on hot reload.
	LogLevel string `yaml:"log_level"`
}

// MetricsConfig controls the Prometheus exposition.
type MetricsConfig struct {
	// Listen is the HTTP address for /metrics and /api/v1/*. Empty disables it.
	Listen string `yaml:"listen"`

	// Textfile, when set, receives the exposition after every unit.
	Textfile string `yaml:"textfile"`
}

// Level returns the slog level named by LogLevel.
func (a AgentConfig) Level() slog.Level {
	switch strings.ToLower(a.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Agent: AgentConfig{
			ResultsSuffix: types.DefaultResultsSuffix,
			SummarySuffix: types.DefaultSummarySuffix,
			RatioLabel:    compute.DefaultLabel,
			SettleDelay:   DefaultSettleDelay,
			StartSuffix:   types.DefaultStartSuffix,
			LogLevel:      DefaultLogLevel,
		},
		Metrics: MetricsConfig{
			Listen: DefaultListen,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	a := cfg.Agent
	if a.WatchDir == "" {
		return fmt.Errorf("agent.watch_dir is required")
	}
	if a.ResultsSuffix == "" {
		return fmt.Errorf("agent.results_suffix must not be empty")
	}
	if a.SummarySuffix == "" {
		return fmt.Errorf("agent.summary_suffix must not be empty")
	}
	if a.SummarySuffix == a.ResultsSuffix {
		return fmt.Errorf("agent.summary_suffix must differ from agent.results_suffix")
	}
	if a.StartSuffix == "" {
		return fmt.Errorf("agent.start_suffix must not be empty")
	}
	if a.StartSuffix == a.ResultsSuffix || a.StartSuffix == a.SummarySuffix {
		return fmt.Errorf("agent.start_suffix must differ from the results and summary suffixes")
	}
	if a.RatioLabel == "" {
		return fmt.Errorf("agent.ratio_label must not be empty")
	}
	if a.SettleDelay < 0 {
		return fmt.Errorf("agent.settle_delay must not be negative")
	}
	switch strings.ToLower(a.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("agent.log_level: unknown level %q", a.LogLevel)
	}
	return nil
}
