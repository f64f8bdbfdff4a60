package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const envPrefix = "GOVERNANCE"

type Config struct {
	ServiceID string `envconfig:"SERVICE_ID"`
	Debug     bool   `envconfig:"DEBUG"`

	HTTPPort int `envconfig:"HTTP_PORT"`
	GRPCPort int `envconfig:"GRPC_PORT"`

	DatabaseDriver string `envconfig:"DB_DRIVER"`
	DatabaseURL    string `envconfig:"DB_URL"`
	MaxDBConns     int32  `envconfig:"DB_MAX_CONNS"`
	RedisURL       string `envconfig:"REDIS_URL"`

	KafkaBrokers       []string `envconfig:"KAFKA_BROKERS"`
	KafkaConsumerGroup string   `envconfig:"KAFKA_CONSUMER_GROUP"`

	JWTPublicKeyPEM string `envconfig:"JWT_PUBLIC_KEY"`
	JWTHMACSecret   string `envconfig:"JWT_HMAC_SECRET"`
	JWTIssuer       string `envconfig:"JWT_ISSUER"`
	JobsBearerToken string `envconfig:"JOBS_TOKEN"`

	PushURL           string        `envconfig:"PUSH_URL"`
	EmailURL          string        `envconfig:"EMAIL_URL"`
	NotifyBearerToken string        `envconfig:"NOTIFY_TOKEN"`
	DispatchTimeout   time.Duration `envconfig:"DISPATCH_TIMEOUT"`

	OutboxPollInterval   time.Duration `envconfig:"OUTBOX_POLL_INTERVAL"`
	OutboxBatchSize      int           `envconfig:"OUTBOX_BATCH_SIZE"`
	ConsumerPollInterval time.Duration `envconfig:"CONSUMER_POLL_INTERVAL"`

	// Zero disables the scheduled job in the worker.
	AnalyzeInterval   time.Duration `envconfig:"ANALYZE_INTERVAL"`
	RotationInterval  time.Duration `envconfig:"ROTATION_INTERVAL"`
	ExpulsionInterval time.Duration `envconfig:"EXPULSION_INTERVAL"`

	BatchPageSize      int           `envconfig:"BATCH_PAGE_SIZE"`
	RiskWorkers        int           `envconfig:"RISK_WORKERS"`
	RiskActivityWindow time.Duration `envconfig:"RISK_ACTIVITY_WINDOW"`
	SnapshotCacheTTL   time.Duration `envconfig:"SNAPSHOT_CACHE_TTL"`

	RotationPeriod  time.Duration `envconfig:"ROTATION_PERIOD"`
	RotationLockTTL time.Duration `envconfig:"ROTATION_LOCK_TTL"`

	ReviewWindow  time.Duration `envconfig:"REVIEW_WINDOW"`
	ReminderAfter time.Duration `envconfig:"REMINDER_AFTER"`

	EventDedupTTL           time.Duration `envconfig:"EVENT_DEDUP_TTL"`
	RestorePointsOnApproval bool          `envconfig:"RESTORE_POINTS_ON_APPROVAL"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`

	TracingExporter string `envconfig:"TRACING_EXPORTER"`
	OTLPEndpoint    string `envconfig:"OTLP_ENDPOINT"`
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
		Debug    bool   `yaml:"debug"`
	} `yaml:"service"`
	Dependencies struct {
		DatabaseDriver     string   `yaml:"database_driver"`
		PostgresURL        string   `yaml:"postgres_url"`
		RedisURL           string   `yaml:"redis_url"`
		KafkaBrokers       []string `yaml:"kafka_brokers"`
		KafkaConsumerGroup string   `yaml:"kafka_consumer_group"`
		PushURL            string   `yaml:"push_url"`
		EmailURL           string   `yaml:"email_url"`
		OTLPEndpoint       string   `yaml:"otlp_endpoint"`
	} `yaml:"dependencies"`
	Auth struct {
		JWTPublicKeyPEM string `yaml:"jwt_public_key"`
		JWTIssuer       string `yaml:"jwt_issuer"`
	} `yaml:"auth"`
	Jobs struct {
		AnalyzeInterval   string `yaml:"analyze_interval"`
		RotationInterval  string `yaml:"rotation_interval"`
		ExpulsionInterval string `yaml:"expulsion_interval"`
		RiskWorkers       int    `yaml:"risk_workers"`
		BatchPageSize     int    `yaml:"batch_page_size"`
	} `yaml:"jobs"`
	Governance struct {
		RiskActivityWindow      string `yaml:"risk_activity_window"`
		RotationPeriod          string `yaml:"rotation_period"`
		ReviewWindow            string `yaml:"review_window"`
		ReminderAfter           string `yaml:"reminder_after"`
		RestorePointsOnApproval *bool  `yaml:"restore_points_on_approval"`
	} `yaml:"governance"`
	HTTP struct {
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"http"`
	Tracing struct {
		Exporter string `yaml:"exporter"`
	} `yaml:"tracing"`
}

func defaultConfig() Config {
	return Config{
		ServiceID:            "M47-Community-Governance-Service",
		HTTPPort:             8080,
		GRPCPort:             9090,
		DatabaseDriver:       "postgres",
		MaxDBConns:           20,
		KafkaConsumerGroup:   "m47-community-governance-service",
		DispatchTimeout:      5 * time.Second,
		OutboxPollInterval:   2 * time.Second,
		OutboxBatchSize:      100,
		ConsumerPollInterval: 2 * time.Second,
		AnalyzeInterval:      time.Hour,
		RotationInterval:     24 * time.Hour,
		ExpulsionInterval:    time.Hour,
		BatchPageSize:        200,
		RiskWorkers:          4,
		RiskActivityWindow:   7 * 24 * time.Hour,
		SnapshotCacheTTL:     5 * time.Minute,
		RotationPeriod:       180 * 24 * time.Hour,
		RotationLockTTL:      30 * time.Second,
		ReviewWindow:         7 * 24 * time.Hour,
		ReminderAfter:        48 * time.Hour,
		EventDedupTTL:        7 * 24 * time.Hour,
	}
}

// LoadConfig layers defaults, the optional YAML file, legacy unprefixed env
// vars and finally GOVERNANCE_* env vars.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := applyFile(&cfg, raw); err != nil {
				return Config{}, err
			}
		case !errors.Is(err, os.ErrNotExist):
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}
	cfg.KafkaBrokers = trimNonEmpty(cfg.KafkaBrokers)
	cfg.CORSAllowedOrigins = trimNonEmpty(cfg.CORSAllowedOrigins)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if f.Service.ID != "" {
		cfg.ServiceID = f.Service.ID
	}
	if f.Service.HTTPPort > 0 {
		cfg.HTTPPort = f.Service.HTTPPort
	}
	if f.Service.GRPCPort > 0 {
		cfg.GRPCPort = f.Service.GRPCPort
	}
	cfg.Debug = cfg.Debug || f.Service.Debug
	if f.Dependencies.DatabaseDriver != "" {
		cfg.DatabaseDriver = f.Dependencies.DatabaseDriver
	}
	if f.Dependencies.PostgresURL != "" {
		cfg.DatabaseURL = f.Dependencies.PostgresURL
	}
	if f.Dependencies.RedisURL != "" {
		cfg.RedisURL = f.Dependencies.RedisURL
	}
	if len(f.Dependencies.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
	}
	if f.Dependencies.KafkaConsumerGroup != "" {
		cfg.KafkaConsumerGroup = f.Dependencies.KafkaConsumerGroup
	}
	if f.Dependencies.PushURL != "" {
		cfg.PushURL = f.Dependencies.PushURL
	}
	if f.Dependencies.EmailURL != "" {
		cfg.EmailURL = f.Dependencies.EmailURL
	}
	if f.Dependencies.OTLPEndpoint != "" {
		cfg.OTLPEndpoint = f.Dependencies.OTLPEndpoint
	}
	if f.Auth.JWTPublicKeyPEM != "" {
		cfg.JWTPublicKeyPEM = f.Auth.JWTPublicKeyPEM
	}
	if f.Auth.JWTIssuer != "" {
		cfg.JWTIssuer = f.Auth.JWTIssuer
	}
	if f.Jobs.RiskWorkers > 0 {
		cfg.RiskWorkers = f.Jobs.RiskWorkers
	}
	if f.Jobs.BatchPageSize > 0 {
		cfg.BatchPageSize = f.Jobs.BatchPageSize
	}
	durations := []struct {
		name  string
		raw   string
		field *time.Duration
	}{
		{"jobs.analyze_interval", f.Jobs.AnalyzeInterval, &cfg.AnalyzeInterval},
		{"jobs.rotation_interval", f.Jobs.RotationInterval, &cfg.RotationInterval},
		{"jobs.expulsion_interval", f.Jobs.ExpulsionInterval, &cfg.ExpulsionInterval},
		{"governance.risk_activity_window", f.Governance.RiskActivityWindow, &cfg.RiskActivityWindow},
		{"governance.rotation_period", f.Governance.RotationPeriod, &cfg.RotationPeriod},
		{"governance.review_window", f.Governance.ReviewWindow, &cfg.ReviewWindow},
		{"governance.reminder_after", f.Governance.ReminderAfter, &cfg.ReminderAfter},
	}
	for _, d := range durations {
		if strings.TrimSpace(d.raw) == "" {
			continue
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return fmt.Errorf("parse %s: %w", d.name, err)
		}
		*d.field = parsed
	}
	if f.Governance.RestorePointsOnApproval != nil {
		cfg.RestorePointsOnApproval = *f.Governance.RestorePointsOnApproval
	}
	if len(f.HTTP.CORSAllowedOrigins) > 0 {
		cfg.CORSAllowedOrigins = f.HTTP.CORSAllowedOrigins
	}
	if f.Tracing.Exporter != "" {
		cfg.TracingExporter = f.Tracing.Exporter
	}
	return nil
}

func (c Config) validate() error {
	switch c.DatabaseDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("missing DB_URL/POSTGRES_URL")
		}
	case "sqlite":
		if c.DatabaseURL == "" {
			return fmt.Errorf("missing %s_DB_URL for sqlite driver", envPrefix)
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.DatabaseDriver)
	}
	switch c.TracingExporter {
	case "", tracingOTLP, tracingStdout:
	default:
		return fmt.Errorf("unsupported tracing exporter %q", c.TracingExporter)
	}
	if c.HTTPPort <= 0 || c.GRPCPort <= 0 {
		return fmt.Errorf("http and grpc ports must be positive")
	}
	if c.OutboxBatchSize <= 0 {
		return fmt.Errorf("outbox batch size must be positive")
	}
	return nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	items := strings.Split(raw, ",")
	return trimNonEmpty(items)
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
