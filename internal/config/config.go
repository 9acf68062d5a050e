package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/phenylab/pheno-engine/internal/models"
)

// Config captures the settings required to boot the analysis service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig controls the HTTP listeners.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// StorageConfig locates the sqlite record store.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// AnalysisConfig holds analysis defaults the API applies when a request
// does not override them.
type AnalysisConfig struct {
	LookbackDays   int               `yaml:"lookbackDays"`
	HistoryDays    int               `yaml:"historyDays"`
	PhePerExchange float64           `yaml:"phePerExchange"`
	DailyGoals     models.DailyGoals `yaml:"dailyGoals"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load initialises Config from a YAML file and optional environment
// overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("PHENO_ENGINE_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8089",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{Path: "pheno.db"},
		Analysis: AnalysisConfig{
			LookbackDays:   3,
			HistoryDays:    90,
			PhePerExchange: 50,
			DailyGoals: models.DailyGoals{
				Calories: 1800,
				ProteinG: 25,
				CarbsG:   230,
				FatG:     60,
				PheMg:    300,
			},
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
	}
}

func validate(cfg *Config) error {
	if cfg.Analysis.LookbackDays <= 0 {
		return fmt.Errorf("analysis.lookbackDays must be positive, got %d", cfg.Analysis.LookbackDays)
	}
	if cfg.Analysis.HistoryDays <= 0 {
		return fmt.Errorf("analysis.historyDays must be positive, got %d", cfg.Analysis.HistoryDays)
	}
	if cfg.Analysis.PhePerExchange <= 0 {
		return fmt.Errorf("analysis.phePerExchange must be positive, got %v", cfg.Analysis.PhePerExchange)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PHENO_ENGINE_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("PHENO_ENGINE_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("PHENO_ENGINE_DB_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("PHENO_ENGINE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PHENO_ENGINE_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("PHENO_ENGINE_LOOKBACK_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.LookbackDays = days
		}
	}
	if v := os.Getenv("PHENO_ENGINE_HISTORY_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.HistoryDays = days
		}
	}
	if v := os.Getenv("PHENO_ENGINE_PHE_PER_EXCHANGE"); v != "" {
		if mg, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.PhePerExchange = mg
		}
	}
	if v := os.Getenv("PHENO_ENGINE_DAILY_PHE_MG"); v != "" {
		if mg, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.DailyGoals.PheMg = mg
		}
	}
	if v := os.Getenv("PHENO_ENGINE_GRACEFUL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.GracefulTimeout = d
		}
	}
}
