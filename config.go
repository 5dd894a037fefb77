package careerforge

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/careerforge/careerforge/models/gemini"
	"github.com/careerforge/careerforge/models/openai"
	"github.com/careerforge/careerforge/stores"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds the runtime configuration of the chat server
type Config struct {
	Port      string `env:"PORT" envDefault:"8080"`
	GinMode   string `env:"GIN_MODE" envDefault:"release"`
	StoreType string `env:"STORE_TYPE" envDefault:"sqlite"`
	// DatabaseURL is a file path for sqlite and a DSN for postgres
	DatabaseURL string `env:"DATABASE_URL" envDefault:"careerforge.sqlite"`
	// DBMaxConns caps the postgres pool; zero keeps the driver default
	DBMaxConns int `env:"DB_MAX_CONNS" envDefault:"0"`

	AIProviders        []string      `env:"AI_PROVIDERS" envSeparator:"," envDefault:"gemini,openai"`
	GeminiAPIKey       string        `env:"GEMINI_API_KEY"`
	GeminiModel        string        `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	OpenAIAPIKey       string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL      string        `env:"OPENAI_BASE_URL"`
	OpenAIModel        string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenRouterReferrer string        `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string        `env:"OPENROUTER_TITLE" envDefault:"CareerForge AI"`
	ProviderTimeout    time.Duration `env:"AI_PROVIDER_TIMEOUT" envDefault:"60s"`

	MaxMessageLength   int           `env:"MAX_MESSAGE_LENGTH" envDefault:"4000"`
	MaxDocumentLength  int           `env:"MAX_DOCUMENT_LENGTH" envDefault:"100000"`
	MaxRequestBytes    int64         `env:"MAX_REQUEST_BYTES" envDefault:"1048576"`
	HistoryWindow      int           `env:"HISTORY_WINDOW" envDefault:"20"`
	IdleSessionTimeout time.Duration `env:"IDLE_SESSION_TIMEOUT" envDefault:"24h"`
	JanitorSchedule    string        `env:"JANITOR_SCHEDULE" envDefault:"@every 15m"`
	AttemptRetention   time.Duration `env:"ATTEMPT_RETENTION" envDefault:"720h"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	// Not present in production
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values env tags cannot express
func (c *Config) Validate() error {
	var errs []error
	switch c.StoreType {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("STORE_TYPE must be sqlite or postgres, got %q", c.StoreType))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.MaxMessageLength <= 0 {
		errs = append(errs, errors.New("MAX_MESSAGE_LENGTH must be positive"))
	}
	if c.MaxDocumentLength <= 0 {
		errs = append(errs, errors.New("MAX_DOCUMENT_LENGTH must be positive"))
	}
	if c.MaxRequestBytes <= 0 {
		errs = append(errs, errors.New("MAX_REQUEST_BYTES must be positive"))
	}
	if c.DBMaxConns < 0 {
		errs = append(errs, errors.New("DB_MAX_CONNS must not be negative"))
	}
	if c.HistoryWindow < 0 {
		errs = append(errs, errors.New("HISTORY_WINDOW must not be negative"))
	}
	for _, p := range c.AIProviders {
		switch strings.TrimSpace(p) {
		case "gemini", "openai", "openrouter":
		default:
			errs = append(errs, fmt.Errorf("unknown AI provider %q", p))
		}
	}
	return errors.Join(errs...)
}

// StoreConfig converts the configuration into a store configuration
func (c *Config) StoreConfig(logger *zap.Logger) *stores.StoreConfig {
	sc := stores.NewStoreConfig(c.StoreType, c.DatabaseURL).WithLogger(logger)
	if c.DBMaxConns > 0 {
		sc.WithOption("max_conns", strconv.Itoa(c.DBMaxConns))
	}
	return sc
}

// Providers builds the configured AI providers in fallback order. Providers
// without credentials are skipped.
func (c *Config) Providers(ctx context.Context, logger *zap.Logger) ([]Model, error) {
	var providers []Model
	for _, name := range c.AIProviders {
		switch strings.TrimSpace(name) {
		case "gemini":
			if c.GeminiAPIKey == "" {
				logger.Warn("skipping gemini provider: GEMINI_API_KEY not set")
				continue
			}
			m, err := gemini.New(ctx, c.GeminiAPIKey, c.GeminiModel)
			if err != nil {
				return nil, err
			}
			providers = append(providers, m)
		case "openai", "openrouter":
			if c.OpenAIAPIKey == "" {
				logger.Warn("skipping provider: OPENAI_API_KEY not set", zap.String("provider", name))
				continue
			}
			baseURL := c.OpenAIBaseURL
			if name == "openrouter" && baseURL == "" {
				baseURL = openai.OpenRouterBaseURL
			}
			m, err := openai.New(openai.Options{
				APIKey:   c.OpenAIAPIKey,
				BaseURL:  baseURL,
				Model:    c.OpenAIModel,
				Referrer: c.OpenRouterReferrer,
				Title:    c.OpenRouterTitle,
			})
			if err != nil {
				return nil, err
			}
			providers = append(providers, m)
		}
	}
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}
	return providers, nil
}

// WithSQLiteStore points the configuration at a SQLite file
func (c *Config) WithSQLiteStore(dbPath string) *Config {
	c.StoreType = "sqlite"
	c.DatabaseURL = dbPath
	return c
}

// WithPostgresStore points the configuration at a PostgreSQL database
func (c *Config) WithPostgresStore(host, user, password, dbname string, port int) *Config {
	c.StoreType = "postgres"
	c.DatabaseURL = stores.PostgresDSN(host, user, password, dbname, port)
	return c
}

// WithProviders sets the provider fallback order
func (c *Config) WithProviders(names ...string) *Config {
	c.AIProviders = names
	return c
}
