// Package config loads application configuration from file, environment,
// and defaults, and initializes the global logger.
package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Matching MatchingConfig `yaml:"matching" mapstructure:"matching"`
	Limits   LimitsConfig   `yaml:"limits" mapstructure:"limits"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`

	// AliasFile optionally points at a YAML field-alias table merged
	// over the built-in header spellings.
	AliasFile string `yaml:"alias_file" mapstructure:"alias_file"`
}

// MatchingConfig parameterizes the reconciliation engine.
type MatchingConfig struct {
	SimilarityThreshold int    `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	AbsencePolicy       string `yaml:"absence_policy" mapstructure:"absence_policy"`
	RejectDuplicates    bool   `yaml:"reject_duplicates" mapstructure:"reject_duplicates"`
	Workers             int    `yaml:"workers" mapstructure:"workers"`
}

// LimitsConfig caps dataset sizes accepted by the CLI and API. The engine
// still functions past them, just slower; these guard the request layer.
type LimitsConfig struct {
	MaxSourceRecords    int `yaml:"max_source_records" mapstructure:"max_source_records"`
	MaxCandidateRecords int `yaml:"max_candidate_records" mapstructure:"max_candidate_records"`
}

// StoreConfig configures the run-history database.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port               int      `yaml:"port" mapstructure:"port"`
	RateLimitPerMinute int      `yaml:"rate_limit_per_minute" mapstructure:"rate_limit_per_minute"`
	AllowedOrigins     []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// CacheConfig configures the source-index cache.
type CacheConfig struct {
	TTLMinutes int `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config.yaml, and environment.
func Load() (*Config, error) {
	// Local .env is optional; real deployments use the environment.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("RECON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("matching.similarity_threshold", 90)
	v.SetDefault("matching.absence_policy", "lenient")
	v.SetDefault("matching.reject_duplicates", true)
	v.SetDefault("matching.workers", 8)
	v.SetDefault("limits.max_source_records", 100000)
	v.SetDefault("limits.max_candidate_records", 20000)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "recon.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit_per_minute", 60)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("cache.ttl_minutes", 15)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
