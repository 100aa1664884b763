package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	EDGAR       EDGARConfig       `yaml:"edgar" mapstructure:"edgar"`
	Anthropic   AnthropicConfig   `yaml:"anthropic" mapstructure:"anthropic"`
	Alert       AlertConfig       `yaml:"alert" mapstructure:"alert"`
	Precedence  PrecedenceConfig  `yaml:"precedence" mapstructure:"precedence"`
	Investigate InvestigateConfig `yaml:"investigate" mapstructure:"investigate"`
	Learning    LearningConfig    `yaml:"learning" mapstructure:"learning"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// EDGARConfig configures the SEC EDGAR client. UserAgent is mandatory in
// practice: the SEC rejects anonymous automated clients.
type EDGARConfig struct {
	UserAgent      string  `yaml:"user_agent" mapstructure:"user_agent"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries     int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// AlertConfig configures the outbound webhook. Empty URL disables alerts.
type AlertConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// PrecedenceConfig holds conflict-resolution thresholds.
type PrecedenceConfig struct {
	// RankGap is how many precedence ranks an older filing must lead by to
	// override a newer one.
	RankGap int `yaml:"rank_gap" mapstructure:"rank_gap"`
}

// InvestigateConfig holds anomaly-detection thresholds.
type InvestigateConfig struct {
	TemporalGapYears float64 `yaml:"temporal_gap_years" mapstructure:"temporal_gap_years"`
}

// LearningConfig holds recall windows for past learning cases.
type LearningConfig struct {
	LessonWindowDays   int `yaml:"lesson_window_days" mapstructure:"lesson_window_days"`
	StrategyWindowDays int `yaml:"strategy_window_days" mapstructure:"strategy_window_days"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SPACSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.sqlite_path", "spac-sync.db")
	v.SetDefault("edgar.user_agent", "")
	v.SetDefault("edgar.requests_per_sec", 8.0)
	v.SetDefault("edgar.timeout_secs", 30)
	v.SetDefault("edgar.max_retries", 3)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("alert.webhook_url", "")
	v.SetDefault("precedence.rank_gap", 2)
	v.SetDefault("investigate.temporal_gap_years", 2.0)
	v.SetDefault("learning.lesson_window_days", 90)
	v.SetDefault("learning.strategy_window_days", 180)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
