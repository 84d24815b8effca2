package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingJWTSecret is returned by Load when JWT_SECRET is not supplied.
var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set")

// Config groups the application configuration.
type Config struct {
	App      AppConfig
	HTTP     HTTPConfig
	DB       DBConfig
	JWT      JWTConfig
	RabbitMQ RabbitMQConfig
	Static   StaticConfig
}

// AppConfig holds general settings.
type AppConfig struct {
	Env         string // development, staging, production
	Name        string
	LogLevel    string
	SwaggerFile string
}

// HTTPConfig holds the listener settings.
type HTTPConfig struct {
	Port int
}

// Addr returns the address passed to fiber.App.Listen.
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// DBConfig holds the database settings. Driver is "postgres" or "sqlite".
type DBConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the PostgreSQL connection string.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

// JWTConfig holds the token signing settings.
type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// RabbitMQConfig holds the event broker settings. An empty URL disables events.
type RabbitMQConfig struct {
	URL           string
	Exchange      string
	AuditConsumer bool
}

// Enabled reports whether a broker URL was supplied.
func (c RabbitMQConfig) Enabled() bool {
	return c.URL != ""
}

// StaticConfig holds the read-only static file settings.
type StaticConfig struct {
	ImagesDir string
}

// Load reads the configuration from an optional .env file and the environment.
// Environment variables take precedence over the file.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read .env: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Env:         v.GetString("APP_ENV"),
			Name:        v.GetString("APP_NAME"),
			LogLevel:    v.GetString("LOG_LEVEL"),
			SwaggerFile: v.GetString("SWAGGER_FILE"),
		},
		HTTP: HTTPConfig{
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			Driver:          strings.ToLower(v.GetString("DB_DRIVER")),
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetInt("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			Name:            v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			SQLitePath:      v.GetString("DB_SQLITE_PATH"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			TTL:    v.GetDuration("JWT_TTL"),
		},
		RabbitMQ: RabbitMQConfig{
			URL:           v.GetString("RABBITMQ_URL"),
			Exchange:      v.GetString("RABBITMQ_EXCHANGE"),
			AuditConsumer: v.GetBool("RABBITMQ_AUDIT_CONSUMER"),
		},
		Static: StaticConfig{
			ImagesDir: v.GetString("IMAGES_DIR"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "tienda")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SWAGGER_FILE", "./docs/swagger.json")
	v.SetDefault("HTTP_PORT", 3000)
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "ecommerce")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_SQLITE_PATH", "tienda.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "1h")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("RABBITMQ_EXCHANGE", "tienda.events")
	v.SetDefault("RABBITMQ_AUDIT_CONSUMER", false)
	v.SetDefault("IMAGES_DIR", "./imagenes")
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return ErrMissingJWTSecret
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWT.TTL)
	}
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.DB.MaxOpenConns <= 0 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", c.DB.MaxOpenConns)
	}
	return nil
}
