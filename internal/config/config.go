package config

import (
	"github.com/spf13/viper"
)

// Config stores all configuration for the harvester.
type Config struct {
	PostgresURL string `mapstructure:"POSTGRES_URL"`
	RedisAddr   string `mapstructure:"REDIS_ADDR"`
	ServerPort  string `mapstructure:"SERVER_PORT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	Workers  int `mapstructure:"WORKERS"`
	RunQuota int `mapstructure:"RUN_QUOTA"`

	ResultsDir     string `mapstructure:"RESULTS_DIR"`
	BrandRulesPath string `mapstructure:"BRAND_RULES_PATH"`
	OwnerRulesPath string `mapstructure:"OWNER_RULES_PATH"`

	Headless           bool `mapstructure:"HEADLESS"`
	StepTimeoutSec     int  `mapstructure:"STEP_TIMEOUT_SEC"`
	SettleDelayMs      int  `mapstructure:"SETTLE_DELAY_MS"`
	MaxScrollRounds    int  `mapstructure:"MAX_SCROLL_ROUNDS"`
	SessionMaxListings int  `mapstructure:"SESSION_MAX_LISTINGS"`

	DedupTTLHours  int `mapstructure:"DEDUP_TTL_HOURS"`
	BlockThreshold int `mapstructure:"BLOCK_THRESHOLD"`
	BlockWindowSec int `mapstructure:"BLOCK_WINDOW_SEC"`
	CooldownSec    int `mapstructure:"COOLDOWN_SEC"`
}

// Load reads configuration from file or environment variables.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present.
	// This allows configuration purely through environment variables.
	_ = viper.ReadInConfig()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("WORKERS", 2)
	viper.SetDefault("RUN_QUOTA", 200)
	viper.SetDefault("RESULTS_DIR", "results")
	viper.SetDefault("BRAND_RULES_PATH", "rules/brand_synonyms.json")
	viper.SetDefault("OWNER_RULES_PATH", "rules/owner_phrases.json")
	viper.SetDefault("HEADLESS", true)
	viper.SetDefault("STEP_TIMEOUT_SEC", 90)
	viper.SetDefault("SETTLE_DELAY_MS", 1200)
	viper.SetDefault("MAX_SCROLL_ROUNDS", 6)
	viper.SetDefault("SESSION_MAX_LISTINGS", 25)
	viper.SetDefault("DEDUP_TTL_HOURS", 48)
	viper.SetDefault("BLOCK_THRESHOLD", 3)
	viper.SetDefault("BLOCK_WINDOW_SEC", 600)
	viper.SetDefault("COOLDOWN_SEC", 300)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
