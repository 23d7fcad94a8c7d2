package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	envPrefix                = "STOREFRONT_"
	defaultEnvFile           = ".env"
	defaultPort              = "8080"
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultShutdownTimeout   = 10 * time.Second
	defaultEnvironment       = "local"
	defaultLogLevel          = "info"
	defaultSessionCookie     = "elevates_session"
	defaultSessionTTL        = 30 * 24 * time.Hour
	defaultTaxRate           = "0.18"
	defaultQuestionsTimeout  = 5 * time.Second
	defaultQuestionsAttempts = 3
	defaultQuestionsInterval = 200 * time.Millisecond
	defaultFocusDelay        = 100 * time.Millisecond
	defaultShopperTTL        = 2 * time.Hour
	defaultShopperSweep      = 5 * time.Minute
	minSessionKeyLength      = 32
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Environment string
	Server      ServerConfig
	Logging     LoggingConfig
	Session     SessionConfig
	Pricing     PricingConfig
	Catalog     CatalogConfig
	Questions   QuestionsConfig
	Overlay     OverlayConfig
	Shopper     ShopperConfig
	Templates   TemplatesConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig selects the zap level.
type LoggingConfig struct {
	Level string
}

// SessionConfig controls the signed session cookie.
type SessionConfig struct {
	CookieName string
	HashKey    string
	BlockKey   string
	Secure     bool
	TTL        time.Duration
}

// PricingConfig holds the tax rate applied at checkout.
type PricingConfig struct {
	TaxRate decimal.Decimal
}

// CatalogConfig points at an optional catalog file overriding the embedded one.
type CatalogConfig struct {
	File string
}

// QuestionsConfig configures the product Q&A backend. An empty BaseURL keeps questions in memory.
type QuestionsConfig struct {
	BaseURL         string
	Timeout         time.Duration
	MaxAttempts     int
	InitialInterval time.Duration
}

// OverlayConfig tunes modal behaviour.
type OverlayConfig struct {
	FocusDelay time.Duration
}

// ShopperConfig bounds how long idle shopper state is kept in memory.
type ShopperConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// TemplatesConfig enables reading templates from disk and re-parsing on each request.
type TemplatesConfig struct {
	Dir    string
	Reload bool
}

// IsProduction reports whether the environment is production.
func (c Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map. Values in the map take precedence over
// system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles configuration from defaults, .env overrides, environment variables and
// the explicit map, in increasing precedence.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		key = envPrefix + key
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	var invalid []string
	taxRate, err := decimal.NewFromString(stringWithDefault(lookup, "TAX_RATE", defaultTaxRate))
	if err != nil {
		invalid = append(invalid, "Pricing.TaxRate")
	}

	env := strings.ToLower(stringWithDefault(lookup, "ENV", defaultEnvironment))
	templatesDir := stringWithDefault(lookup, "TEMPLATES_DIR", "")
	cfg := Config{
		Environment: env,
		Server: ServerConfig{
			Port:            stringWithDefault(lookup, "PORT", defaultPort),
			ReadTimeout:     durationWithDefault(lookup, "READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:    durationWithDefault(lookup, "WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:     durationWithDefault(lookup, "IDLE_TIMEOUT", defaultIdleTimeout),
			ShutdownTimeout: durationWithDefault(lookup, "SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		},
		Logging: LoggingConfig{
			Level: strings.ToLower(stringWithDefault(lookup, "LOG_LEVEL", defaultLogLevel)),
		},
		Session: SessionConfig{
			CookieName: stringWithDefault(lookup, "SESSION_COOKIE", defaultSessionCookie),
			HashKey:    stringWithDefault(lookup, "SESSION_HASH_KEY", ""),
			BlockKey:   stringWithDefault(lookup, "SESSION_BLOCK_KEY", ""),
			Secure:     boolWithDefault(lookup, "SESSION_SECURE", env != defaultEnvironment),
			TTL:        durationWithDefault(lookup, "SESSION_TTL", defaultSessionTTL),
		},
		Pricing: PricingConfig{TaxRate: taxRate},
		Catalog: CatalogConfig{
			File: stringWithDefault(lookup, "CATALOG_FILE", ""),
		},
		Questions: QuestionsConfig{
			BaseURL:         stringWithDefault(lookup, "QUESTIONS_URL", ""),
			Timeout:         durationWithDefault(lookup, "QUESTIONS_TIMEOUT", defaultQuestionsTimeout),
			MaxAttempts:     intWithDefault(lookup, "QUESTIONS_MAX_ATTEMPTS", defaultQuestionsAttempts),
			InitialInterval: durationWithDefault(lookup, "QUESTIONS_INITIAL_INTERVAL", defaultQuestionsInterval),
		},
		Overlay: OverlayConfig{
			FocusDelay: durationWithDefault(lookup, "OVERLAY_FOCUS_DELAY", defaultFocusDelay),
		},
		Shopper: ShopperConfig{
			TTL:           durationWithDefault(lookup, "SHOPPER_TTL", defaultShopperTTL),
			SweepInterval: durationWithDefault(lookup, "SHOPPER_SWEEP_INTERVAL", defaultShopperSweep),
		},
		Templates: TemplatesConfig{
			Dir:    templatesDir,
			Reload: boolWithDefault(lookup, "TEMPLATES_RELOAD", templatesDir != ""),
		},
	}

	if err := validateConfig(cfg, invalid); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config, invalid []string) error {
	missing := append([]string(nil), invalid...)

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if len(invalid) == 0 && (cfg.Pricing.TaxRate.IsNegative() || cfg.Pricing.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1))) {
		missing = append(missing, "Pricing.TaxRate")
	}
	if cfg.Questions.MaxAttempts <= 0 {
		missing = append(missing, "Questions.MaxAttempts")
	}
	if cfg.Overlay.FocusDelay < 0 {
		missing = append(missing, "Overlay.FocusDelay")
	}
	if cfg.Shopper.TTL <= 0 {
		missing = append(missing, "Shopper.TTL")
	}
	if cfg.Shopper.SweepInterval <= 0 {
		missing = append(missing, "Shopper.SweepInterval")
	}
	if cfg.IsProduction() {
		if len(cfg.Session.HashKey) < minSessionKeyLength {
			missing = append(missing, "Session.HashKey")
		}
		if n := len(cfg.Session.BlockKey); n != 0 && n != 16 && n != 24 && n != 32 {
			missing = append(missing, "Session.BlockKey")
		}
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
