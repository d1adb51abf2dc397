package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port                   int    `env:"PORT" envDefault:"8080"`
	DatabaseURL            string `env:"DATABASE_URL,required"`
	RedisURL               string `env:"REDIS_URL,required"`
	EvolutionAPIURL        string `env:"EVOLUTION_API_URL,required"`
	EvolutionAPIKey        string `env:"EVOLUTION_API_KEY"`
	OpenAIAPIURL           string `env:"OPENAI_API_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIAPIKey           string `env:"OPENAI_API_KEY"`
	OpenAIModel            string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	PublicBaseURL          string `env:"PUBLIC_BASE_URL" envDefault:""`
	WebhookRateLimitPerMin int    `env:"WEBHOOK_RATE_LIMIT_PER_MIN" envDefault:"120"`
	LogLevel               string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// WebhookURL is the callback URL registered against newly provisioned
// channel instances. Empty when PUBLIC_BASE_URL is not set.
func (c *Config) WebhookURL() string {
	if c.PublicBaseURL == "" {
		return ""
	}
	return strings.TrimSuffix(c.PublicBaseURL, "/") + "/webhook/messaging"
}

func (c *Config) Validate(isProduction bool) error {
	if isProduction {
		if c.EvolutionAPIKey == "" {
			log.Warn().Msg("EVOLUTION_API_KEY is empty in production: gateway calls will be unauthenticated")
		}
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY must be set in production")
		}
		if c.PublicBaseURL == "" {
			log.Warn().Msg("PUBLIC_BASE_URL is empty in production: webhook self-registration disabled")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.WebhookRateLimitPerMin <= 0 {
		cfg.WebhookRateLimitPerMin = DefaultWebhookRateLimitPerMin
	}
	return &cfg, nil
}
