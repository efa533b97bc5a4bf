package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Telegram struct {
		Token         string
		AdminChatID   int64
		YooKassaToken string
	}
	Postgres struct {
		DSN string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
		Prefix   string
	}
	Stripe struct {
		SecretKey     string
		WebhookSecret string
		SuccessURL    string
		CancelURL     string
	}
	OpenAI struct {
		APIKey        string
		TextModel     string
		AdvancedModel string
	}
	Server struct {
		Port string
	}
	Sweep struct {
		Interval  time.Duration
		BatchSize int
	}
	ShutdownTimeout time.Duration
}

// Load reads config.env (if present) and assembles the typed config from
// the environment.
func Load() (*Config, error) {
	_ = godotenv.Load("config.env")

	cfg := &Config{}
	cfg.Telegram.Token = strings.TrimSpace(os.Getenv("BOT_TOKEN"))
	if cfg.Telegram.Token == "" {
		return nil, fmt.Errorf("BOT_TOKEN is not set")
	}
	cfg.Telegram.AdminChatID = getEnvInt64("ADMIN_CHAT_ID", 0)
	cfg.Telegram.YooKassaToken = strings.TrimSpace(os.Getenv("YOOKASSA_PROVIDER_TOKEN"))

	cfg.Postgres.DSN = strings.TrimSpace(os.Getenv("POSTGRES_DSN"))

	cfg.Redis.Addr = getEnvOr("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	cfg.Redis.DB = int(getEnvInt64("REDIS_DB", 0))
	cfg.Redis.Prefix = getEnvOr("REDIS_PREFIX", "nova_bot")

	cfg.Stripe.SecretKey = strings.TrimSpace(os.Getenv("STRIPE_SECRET_KEY"))
	cfg.Stripe.WebhookSecret = strings.TrimSpace(os.Getenv("STRIPE_WEBHOOK_SECRET"))
	cfg.Stripe.SuccessURL = getEnvOr("STRIPE_SUCCESS_URL", "https://t.me/nova_ai_bot")
	cfg.Stripe.CancelURL = getEnvOr("STRIPE_CANCEL_URL", "https://t.me/nova_ai_bot")

	cfg.OpenAI.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	cfg.OpenAI.TextModel = getEnvOr("OPENAI_TEXT_MODEL", "gpt-4o-mini")
	cfg.OpenAI.AdvancedModel = getEnvOr("OPENAI_ADVANCED_MODEL", "gpt-4o")

	cfg.Server.Port = getEnvOr("SERVER_PORT", "8080")

	cfg.Sweep.Interval = getEnvDuration("SWEEP_INTERVAL", time.Hour)
	cfg.Sweep.BatchSize = int(getEnvInt64("SWEEP_BATCH_SIZE", 100))
	cfg.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	return cfg, nil
}

func getEnvOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
