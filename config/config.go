package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	HTTP          HTTPConfig          `yaml:"http"`
	JWT           JWTConfig           `yaml:"jwt"`
	Observability ObservabilityConfig `yaml:"observability"`
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
	Wizard        WizardConfig        `yaml:"wizard"`
	Signup        SignupConfig        `yaml:"signup"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL            string        `yaml:"url"`
	NkeySeed       string        `yaml:"nkey_seed"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	// PlatformRate caps gateway requests per second; PlatformBurst is the bucket size.
	PlatformRate  float64 `yaml:"platform_rate"`
	PlatformBurst int     `yaml:"platform_burst"`
}

// HTTPConfig holds the roster API listener settings.
type HTTPConfig struct {
	Address        string   `yaml:"address"`
	RateLimit      float64  `yaml:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	Environment    string `yaml:"environment"`
	LogLevel       string `yaml:"log_level"`
	MetricsAddress string `yaml:"metrics_address"`
}

// SchedulerConfig controls slot math and reminder delivery.
type SchedulerConfig struct {
	// UTCOffset is added to the chosen slot before it is compared with the current time.
	// Nil means the historical -1h correction.
	UTCOffset    *time.Duration `yaml:"utc_offset"`
	ReminderLead time.Duration  `yaml:"reminder_lead"`
	// Backend is "memory" for in-process timers or "river" for durable jobs.
	Backend string `yaml:"backend"`
}

// WizardConfig bounds how long each wizard step waits for an answer.
type WizardConfig struct {
	StepTimeout    time.Duration `yaml:"step_timeout"`
	PrefillTimeout time.Duration `yaml:"prefill_timeout"`
}

// SignupConfig holds self-service signup gates.
type SignupConfig struct {
	// InitiationRoles maps an event kind to the platform role a player needs to sign into a
	// non-backup role of that kind.
	InitiationRoles map[string]string `yaml:"initiation_roles"`
}

const (
	defaultUTCOffset      = -1 * time.Hour
	defaultReminderLead   = 30 * time.Minute
	defaultStepTimeout    = 120 * time.Second
	defaultPrefillTimeout = 300 * time.Second
	defaultRequestTimeout = 5 * time.Second
	defaultJWTTTL         = 24 * time.Hour
)

// LoadConfig loads the configuration from a YAML file.
func LoadConfig(filename string) (*Config, error) {
	// Try reading configuration from the file first
	data, err := os.ReadFile(filename)
	if err != nil {
		// If the file is not found, try loading from environment variables
		return loadConfigFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	var cfg Config

	cfg.Postgres.DSN = os.Getenv("DATABASE_URL")
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	cfg.NATS.URL = os.Getenv("NATS_URL")
	if cfg.NATS.URL == "" {
		return nil, fmt.Errorf("NATS_URL environment variable not set")
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("NATS_NKEY_SEED"); v != "" {
		cfg.NATS.NkeySeed = v
	}
	if err := durationEnv("NATS_REQUEST_TIMEOUT", &cfg.NATS.RequestTimeout); err != nil {
		return err
	}
	if v := os.Getenv("NATS_PLATFORM_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid NATS_PLATFORM_RATE value: %w", err)
		}
		cfg.NATS.PlatformRate = f
	}
	if v := os.Getenv("NATS_PLATFORM_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid NATS_PLATFORM_BURST value: %w", err)
		}
		cfg.NATS.PlatformBurst = n
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid HTTP_RATE_LIMIT value: %w", err)
		}
		cfg.HTTP.RateLimit = f
	}
	if v := os.Getenv("HTTP_RATE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid HTTP_RATE_BURST value: %w", err)
		}
		cfg.HTTP.RateBurst = n
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if err := durationEnv("JWT_DEFAULT_TTL", &cfg.JWT.DefaultTTL); err != nil {
		return err
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("SCHEDULER_UTC_OFFSET"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SCHEDULER_UTC_OFFSET value: %w", err)
		}
		cfg.Scheduler.UTCOffset = &d
	}
	if err := durationEnv("SCHEDULER_REMINDER_LEAD", &cfg.Scheduler.ReminderLead); err != nil {
		return err
	}
	if v := os.Getenv("SCHEDULER_BACKEND"); v != "" {
		cfg.Scheduler.Backend = v
	}
	if err := durationEnv("WIZARD_STEP_TIMEOUT", &cfg.Wizard.StepTimeout); err != nil {
		return err
	}
	if err := durationEnv("WIZARD_PREFILL_TIMEOUT", &cfg.Wizard.PrefillTimeout); err != nil {
		return err
	}
	// SIGNUP_INITIATION_ROLES=trial:123,pvp:456
	if v := os.Getenv("SIGNUP_INITIATION_ROLES"); v != "" {
		roles := make(map[string]string)
		for _, pair := range strings.Split(v, ",") {
			kind, role, ok := strings.Cut(strings.TrimSpace(pair), ":")
			if !ok || kind == "" || role == "" {
				return fmt.Errorf("invalid SIGNUP_INITIATION_ROLES entry %q", pair)
			}
			roles[kind] = role
		}
		cfg.Signup.InitiationRoles = roles
	}
	return nil
}

func durationEnv(name string, dst *time.Duration) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s value: %w", name, err)
	}
	*dst = d
	return nil
}

// SlotOffset returns the configured slot correction.
func (s SchedulerConfig) SlotOffset() time.Duration {
	if s.UTCOffset == nil {
		return defaultUTCOffset
	}
	return *s.UTCOffset
}

func (c *Config) applyDefaults() {
	if c.Scheduler.ReminderLead <= 0 {
		c.Scheduler.ReminderLead = defaultReminderLead
	}
	if c.Scheduler.Backend == "" {
		c.Scheduler.Backend = "memory"
	}
	if c.Wizard.StepTimeout <= 0 {
		c.Wizard.StepTimeout = defaultStepTimeout
	}
	if c.Wizard.PrefillTimeout <= 0 {
		c.Wizard.PrefillTimeout = defaultPrefillTimeout
	}
	if c.NATS.RequestTimeout <= 0 {
		c.NATS.RequestTimeout = defaultRequestTimeout
	}
	if c.NATS.PlatformRate <= 0 {
		c.NATS.PlatformRate = 20
	}
	if c.NATS.PlatformBurst <= 0 {
		c.NATS.PlatformBurst = 10
	}
	if c.JWT.DefaultTTL <= 0 {
		c.JWT.DefaultTTL = defaultJWTTTL
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.RateLimit <= 0 {
		c.HTTP.RateLimit = 5
	}
	if c.HTTP.RateBurst <= 0 {
		c.HTTP.RateBurst = 10
	}
	if c.Observability.LogLevel == "" {
		c.Observability.LogLevel = "info"
	}
}
