package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	LLM       LLMConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    int
	WriteTimeout   int
	BodyLimit      int
	AllowedOrigins string
	IsDevelopment  bool
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled          bool
	Host             string
	Port             int
	Password         string
	DB               int
	SubmissionTTLSec int
	AnalyticsTTLSec  int
}

type LLMConfig struct {
	Model               string
	APIKey              string
	BaseURL             string
	Temperature         float32
	MaxTokens           int
	TimeoutSec          int
	MaxAttempts         int
	FeedbackMaxAttempts int
}

type RateLimitConfig struct {
	Enabled              bool
	MaxRequestsPerMinute int
	Burst                int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/mockprep")

	return load(v)
}

// LoadFile reads configuration from an explicit path. Environment variables
// still override file values.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("MOCKPREP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c.LLM.Temperature <= 0 || c.LLM.Temperature > 1 {
		return fmt.Errorf("llm.temperature must be within (0, 1], got %v", c.LLM.Temperature)
	}
	if c.LLM.FeedbackMaxAttempts < 1 {
		return fmt.Errorf("llm.feedbackMaxAttempts must be at least 1")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 90)
	v.SetDefault("server.bodyLimit", 4194304)
	v.SetDefault("server.allowedOrigins", "*")
	v.SetDefault("server.isDevelopment", false)

	v.SetDefault("sqlite.path", "./data/mockprep.db")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.submissionTTLSec", 300)
	v.SetDefault("redis.analyticsTTLSec", 600)

	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.maxTokens", 4096)
	v.SetDefault("llm.timeoutSec", 60)
	v.SetDefault("llm.maxAttempts", 3)
	v.SetDefault("llm.feedbackMaxAttempts", 1)

	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.maxRequestsPerMinute", 60)
	v.SetDefault("ratelimit.burst", 10)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
}
