package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App          AppConfig
	Server       ServerConfig
	Database     DatabaseConfig
	JWT          JWTConfig
	Log          LogConfig
	Tracing      TracingConfig
	RateLimit    RateLimitConfig
	Audit        AuditConfig
	Notification NotificationConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Version     string
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host              string
	Port              int
	Name              string
	User              string
	Password          string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	ConnMaxLifetime   time.Duration
	ConnMaxIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	RollbackTimeout   time.Duration
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
	Issuer         string
}

type LogConfig struct {
	Level      string
	Format     string
	OutputPath string
}

type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	SampleRate  float64
}

type RateLimitConfig struct {
	// Global rate limit per IP
	RequestsPerSecond float64
	BurstSize         int
}

type AuditConfig struct {
	BufferSize      int
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// DefaultQueryLimit caps audit reads that do not ask for an explicit limit.
	DefaultQueryLimit int
	// Consecutive store failures before the audit breaker opens.
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

type NotificationConfig struct {
	KafkaEnabled    bool
	KafkaBrokers    []string
	KafkaTopic      string
	BreakerFailures uint32
	BreakerCooldown time.Duration
	QueueSize       int
	PublishTimeout  time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "athletehub-api")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.version", "0.0.0")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "athletehub")
	v.SetDefault("db.user", "athletehub")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "require")
	v.SetDefault("db.max_conns", 25)
	v.SetDefault("db.min_conns", 2)
	v.SetDefault("db.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("db.conn_max_idle_time", 5*time.Minute)
	v.SetDefault("db.health_check_period", time.Minute)
	v.SetDefault("db.rollback_timeout", 5*time.Second)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.access_ttl", 15*time.Minute)
	v.SetDefault("jwt.issuer", "athletehub-api")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "athletehub-api")
	v.SetDefault("tracing.endpoint", "otel-collector:4318")
	v.SetDefault("tracing.sample_rate", 0.1)

	v.SetDefault("rate_limit.rps", 100)
	v.SetDefault("rate_limit.burst", 200)

	v.SetDefault("audit.buffer_size", 10_000)
	v.SetDefault("audit.write_timeout", 5*time.Second)
	v.SetDefault("audit.shutdown_timeout", 10*time.Second)
	v.SetDefault("audit.default_query_limit", 10_000)
	v.SetDefault("audit.breaker_failures", 5)
	v.SetDefault("audit.breaker_cooldown", 30*time.Second)

	v.SetDefault("notification.kafka_enabled", false)
	v.SetDefault("notification.kafka_brokers", []string{"localhost:9092"})
	v.SetDefault("notification.kafka_topic", "athletehub.notifications")
	v.SetDefault("notification.breaker_failures", 5)
	v.SetDefault("notification.breaker_cooldown", 30*time.Second)
	v.SetDefault("notification.queue_size", 512)
	v.SetDefault("notification.publish_timeout", 5*time.Second)
}

// Load reads defaults, an optional CONFIG_FILE and the environment, in that
// order of precedence (environment wins). Keys map to env vars by replacing
// "." with "_", e.g. db.max_conns -> DB_MAX_CONNS.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", path, err)
		}
	}

	cfg := fromViper(v)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Name:        v.GetString("app.name"),
			Environment: v.GetString("app.env"),
			Version:     v.GetString("app.version"),
		},
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Port:            v.GetInt("server.port"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			IdleTimeout:     v.GetDuration("server.idle_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Database: DatabaseConfig{
			Host:              v.GetString("db.host"),
			Port:              v.GetInt("db.port"),
			Name:              v.GetString("db.name"),
			User:              v.GetString("db.user"),
			Password:          v.GetString("db.password"),
			SSLMode:           v.GetString("db.sslmode"),
			MaxConns:          v.GetInt32("db.max_conns"),
			MinConns:          v.GetInt32("db.min_conns"),
			ConnMaxLifetime:   v.GetDuration("db.conn_max_lifetime"),
			ConnMaxIdleTime:   v.GetDuration("db.conn_max_idle_time"),
			HealthCheckPeriod: v.GetDuration("db.health_check_period"),
			RollbackTimeout:   v.GetDuration("db.rollback_timeout"),
		},
		JWT: JWTConfig{
			Secret:         v.GetString("jwt.secret"),
			AccessTokenTTL: v.GetDuration("jwt.access_ttl"),
			Issuer:         v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			OutputPath: v.GetString("log.output"),
		},
		Tracing: TracingConfig{
			Enabled:     v.GetBool("tracing.enabled"),
			ServiceName: v.GetString("tracing.service_name"),
			Endpoint:    v.GetString("tracing.endpoint"),
			SampleRate:  v.GetFloat64("tracing.sample_rate"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: v.GetFloat64("rate_limit.rps"),
			BurstSize:         v.GetInt("rate_limit.burst"),
		},
		Audit: AuditConfig{
			BufferSize:        v.GetInt("audit.buffer_size"),
			WriteTimeout:      v.GetDuration("audit.write_timeout"),
			ShutdownTimeout:   v.GetDuration("audit.shutdown_timeout"),
			DefaultQueryLimit: v.GetInt("audit.default_query_limit"),
			BreakerFailures:   v.GetUint32("audit.breaker_failures"),
			BreakerCooldown:   v.GetDuration("audit.breaker_cooldown"),
		},
		Notification: NotificationConfig{
			KafkaEnabled:    v.GetBool("notification.kafka_enabled"),
			KafkaBrokers:    splitList(v.GetStringSlice("notification.kafka_brokers")),
			KafkaTopic:      v.GetString("notification.kafka_topic"),
			BreakerFailures: v.GetUint32("notification.breaker_failures"),
			BreakerCooldown: v.GetDuration("notification.breaker_cooldown"),
			QueueSize:       v.GetInt("notification.queue_size"),
			PublishTimeout:  v.GetDuration("notification.publish_timeout"),
		},
	}
}

// splitList accepts both repeated values and a single comma-separated env value.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, p := range strings.Split(item, ",") {
			if t := strings.TrimSpace(p); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}

// validate enforces production security requirements.
func validate(cfg *Config) error {
	var errs []string

	if cfg.JWT.Secret == "" {
		errs = append(errs, "JWT_SECRET is required")
	} else if len(cfg.JWT.Secret) < 32 && cfg.App.Environment == "production" {
		errs = append(errs, "JWT_SECRET must be at least 32 characters in production")
	}

	if cfg.Database.Password == "" && cfg.App.Environment != "development" {
		errs = append(errs, "DB_PASSWORD is required in non-development environments")
	}

	if cfg.Database.SSLMode == "disable" && cfg.App.Environment == "production" {
		errs = append(errs, "DB_SSLMODE=disable is not allowed in production")
	}

	if cfg.Audit.BufferSize <= 0 {
		errs = append(errs, "AUDIT_BUFFER_SIZE must be positive")
	}

	if cfg.Audit.DefaultQueryLimit <= 0 {
		errs = append(errs, "AUDIT_DEFAULT_QUERY_LIMIT must be positive")
	}

	if cfg.Notification.KafkaEnabled && len(cfg.Notification.KafkaBrokers) == 0 {
		errs = append(errs, "NOTIFICATION_KAFKA_BROKERS is required when kafka is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
