package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppHost  string
	HTTPPort string
	AppEnv   string
	LogLevel string

	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
		SSLMode  string
	}

	// Postmark is the outbound delivery provider. APIURL is overridable so
	// tests can point the relay at a local server.
	Postmark struct {
		APIURL      string
		ServerToken string
		FromEmail   string
		ToEmail     string
	}

	// WebhookAPIKey authenticates the provider's inbound-parse callback
	// (X-Webhook-Key header on POST /parse-email).
	WebhookAPIKey string

	// AI holds the extraction model settings. Provider is "openai" (any
	// OpenAI-compatible endpoint) or "gemini"; empty disables extraction.
	AI struct {
		Provider string
		APIKey   string
		BaseURL  string
		Model    string
	}

	KafkaBrokers     []string
	KafkaTopicTicket string
}

func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := &Config{
		AppHost:  getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort: firstEnv("APP_PORT", "HTTP_PORT", "8097"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.Database = getEnv("DB_DATABASE", "ticket_service")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Postmark.APIURL = getEnv("POSTMARK_API_URL", "https://api.postmarkapp.com")
	cfg.Postmark.ServerToken = getEnv("POSTMARK_SERVER_TOKEN", "")
	cfg.Postmark.FromEmail = getEnv("POSTMARK_FROM_EMAIL", "")
	cfg.Postmark.ToEmail = getEnv("POSTMARK_TO_EMAIL", "")

	cfg.WebhookAPIKey = getEnv("WEBHOOK_API_KEY", "")

	cfg.AI.Provider = getEnv("AI_PROVIDER", "")
	cfg.AI.APIKey = firstEnv("AI_API_KEY", "OPENAI_API_KEY", "")
	cfg.AI.BaseURL = getEnv("AI_BASE_URL", "https://api.openai.com/v1")
	cfg.AI.Model = getEnv("AI_MODEL", "gpt-4o-mini")

	cfg.KafkaBrokers = ParseBrokers(getEnv("KAFKA_BROKERS", ""))
	cfg.KafkaTopicTicket = getEnv("KAFKA_TOPIC_TICKET", "")
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DB.Host == "" || c.DB.Database == "" {
		return errors.New("config: DB_HOST and DB_DATABASE are required")
	}
	if c.AppEnv == "production" && c.DB.Password == "" {
		return errors.New("config: in production DB_PASSWORD is required")
	}
	if c.Postmark.ServerToken != "" && c.Postmark.ToEmail == "" {
		return errors.New("config: POSTMARK_TO_EMAIL is required when POSTMARK_SERVER_TOKEN is set")
	}
	if c.AI.Provider != "" && c.AI.APIKey == "" {
		return errors.New("config: AI_API_KEY is required when AI_PROVIDER is set")
	}
	return nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) DatabaseURL() string {
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

// ParseBrokers splits "host1:9092,host2:9092" into a slice.
func ParseBrokers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	for _, k := range keysAndDef[:len(keysAndDef)-1] {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
