package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
	"github.com/tahcohcat/questagram/internal/progression"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Auth        AuthConfig        `mapstructure:"auth"`
	Log         LogConfig         `mapstructure:"log"`
	Seed        SeedConfig        `mapstructure:"seed"`
	Progression progression.Rules `mapstructure:"progression"`
	Quests      QuestsConfig      `mapstructure:"quests"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`
	LLM         LLMConfig         `mapstructure:"llm"`
	Ollama      OllamaConfig      `mapstructure:"ollama"`
	OpenAI      OpenAIConfig      `mapstructure:"openai"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	SessionSecret string `mapstructure:"session_secret"`
	BcryptCost    int    `mapstructure:"bcrypt_cost"`
	SecureCookie  bool   `mapstructure:"secure_cookie"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// SeedConfig controls the demo adventurers and posts installed on migrate.
type SeedConfig struct {
	Demo bool `mapstructure:"demo"`
}

type QuestsConfig struct {
	RefreshCron string `mapstructure:"refresh_cron"` // empty disables the scheduler
}

type LeaderboardConfig struct {
	CacheSize   int    `mapstructure:"cache_size"`
	RefreshCron string `mapstructure:"refresh_cron"`
}

// LLM provider selection for quest narration
type LLMConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Provider string `mapstructure:"provider"` // "ollama" or "openai"
	Timeout  int    `mapstructure:"timeout"`  // seconds per narration
}

type OpenAIConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	BaseURL   string `mapstructure:"base_url"`   // Optional, defaults to OpenAI API
	MaxTokens int    `mapstructure:"max_tokens"` // Optional, defaults to model's max
	Timeout   int    `mapstructure:"timeout"`
}

type OllamaConfig struct {
	Host    string `mapstructure:"host"`
	Model   string `mapstructure:"model"`
	Timeout int    `mapstructure:"timeout"` // seconds
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:8081", "http://localhost:19006"})

	v.SetDefault("database.path", "./questagram.db")

	v.SetDefault("auth.session_secret", "your-secret-key-change-this-in-production")
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.secure_cookie", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("seed.demo", true)

	v.SetDefault("progression.level_step", progression.DefaultRules.LevelStep)
	v.SetDefault("progression.bonus_multiplier", progression.DefaultRules.BonusMultiplier)
	v.SetDefault("progression.level_up_gold", progression.DefaultRules.LevelUpGold)
	v.SetDefault("progression.level_up_gems", progression.DefaultRules.LevelUpGems)
	v.SetDefault("progression.post_xp", progression.DefaultRules.PostXP)
	v.SetDefault("progression.train_xp", progression.DefaultRules.TrainXP)

	v.SetDefault("quests.refresh_cron", "@every 15m")
	v.SetDefault("leaderboard.cache_size", 128)
	v.SetDefault("leaderboard.refresh_cron", "@hourly")

	v.SetDefault("llm.enabled", false)
	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.timeout", 10)

	v.SetDefault("ollama.host", "http://localhost:11434")
	v.SetDefault("ollama.model", "llama3.2")
	v.SetDefault("ollama.timeout", 30)

	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.timeout", 30)
	v.SetDefault("openai.max_tokens", 300)
}

// Load reads config.yaml from . or ./config, merges config.local.yaml on top
// when present, then applies QUESTAGRAM_* environment overrides.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.BindEnv("openai.api_key", "QUESTAGRAM_OPENAI_API_KEY", "OPENAI_API_KEY")
	v.BindEnv("llm.provider", "LLM_PROVIDER")

	// Allow environment variables
	v.SetEnvPrefix("QUESTAGRAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		// Config file not found, use defaults
	} else {
		// Read local config file for overrides (ignored by git)
		v.SetConfigName("config.local")
		v.MergeInConfig()
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
