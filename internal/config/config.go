package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingMailConfig = errors.New("missing mail configuration")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

const (
	DefaultDiagnosticsFile = "diagnostico_score_collection.csv"
	DefaultSMTPHost        = "smtp.gmail.com"
	DefaultSMTPPort        = 465
	DefaultKafkaTopic      = "score-collection-diagnostics"
)

// Config reúne toda la configuración del proceso. Se construye una sola vez en main
// y se pasa explícitamente a quien la necesite.
type Config struct {
	Server  ServerConfig
	Log     LogConfig
	Storage StorageConfig
	Mail    MailConfig
	Kafka   KafkaConfig
}

type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
	App    string
}

type StorageConfig struct {
	DiagnosticsFile string
	// Opcional: espejo en Postgres.
	DatabaseDSN string
}

// MailConfig agrupa EMAIL_USER, EMAIL_PASSWORD y EMAIL_DESTINO más el relay SMTP.
type MailConfig struct {
	User      string
	Password  string
	Recipient string

	Host    string
	Port    int
	Timeout time.Duration

	// Si es true, la ausencia de credenciales impide arrancar.
	Required bool
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// Load lee la configuración del entorno. Se espera que godotenv ya haya cargado el .env.
func Load() (*Config, error) {
	cfg := &Config{
		Server:  loadServerConfig(),
		Log:     loadLogConfig(),
		Storage: loadStorageConfig(),
		Mail:    loadMailConfig(),
		Kafka:   loadKafkaConfig(),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:            getEnvOrDefault("PORT", "8080"),
		ReadTimeout:     getEnvDurationOrDefault("HTTP_READ_TIMEOUT", 5*time.Second),
		WriteTimeout:    getEnvDurationOrDefault("HTTP_WRITE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDurationOrDefault("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Format: getEnvOrDefault("LOG_FORMAT", "text"),
		App:    getEnvOrDefault("APP_NAME", "loan-default-dashboard"),
	}
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		DiagnosticsFile: getEnvOrDefault("DIAGNOSTICS_FILE", DefaultDiagnosticsFile),
		DatabaseDSN:     strings.TrimSpace(os.Getenv("DB_DSN")),
	}
}

func loadMailConfig() MailConfig {
	return MailConfig{
		User:      strings.TrimSpace(os.Getenv("EMAIL_USER")),
		Password:  os.Getenv("EMAIL_PASSWORD"),
		Recipient: strings.TrimSpace(os.Getenv("EMAIL_DESTINO")),
		Host:      getEnvOrDefault("EMAIL_SMTP_HOST", DefaultSMTPHost),
		Port:      getEnvIntOrDefault("EMAIL_SMTP_PORT", DefaultSMTPPort),
		Timeout:   getEnvDurationOrDefault("EMAIL_TIMEOUT", 30*time.Second),
		Required:  getEnvBoolOrDefault("EMAIL_REQUIRED", false),
	}
}

func loadKafkaConfig() KafkaConfig {
	var brokers []string
	for _, b := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return KafkaConfig{
		Brokers: brokers,
		Topic:   getEnvOrDefault("KAFKA_TOPIC", DefaultKafkaTopic),
	}
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Storage.DiagnosticsFile) == "" {
		return fmt.Errorf("%w: DIAGNOSTICS_FILE is empty", ErrInvalidConfig)
	}
	if c.Mail.Port <= 0 || c.Mail.Port > 65535 {
		return fmt.Errorf("%w: EMAIL_SMTP_PORT out of range: %d", ErrInvalidConfig, c.Mail.Port)
	}
	if c.Mail.Required {
		if err := c.Mail.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate falla si falta alguno de los campos obligatorios del envío de e-mail.
func (m MailConfig) Validate() error {
	var missing []string
	if m.User == "" {
		missing = append(missing, "EMAIL_USER")
	}
	if m.Password == "" {
		missing = append(missing, "EMAIL_PASSWORD")
	}
	if m.Recipient == "" {
		missing = append(missing, "EMAIL_DESTINO")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingMailConfig, strings.Join(missing, ", "))
	}
	if strings.TrimSpace(m.Host) == "" {
		return fmt.Errorf("%w: EMAIL_SMTP_HOST is empty", ErrInvalidConfig)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return duration
		}
	}
	return defaultValue
}
