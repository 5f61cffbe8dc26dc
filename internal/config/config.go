package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr         string
	DBDriver     string // postgres or sqlite
	DatabaseURL  string
	SessionName  string
	SessionKey   string
	SessionTTL   time.Duration
	TemplatesDir string
	Admin        AdminSeed
	RateLimits   RateLimits
}

// AdminSeed describes the account created on first boot. Empty Email or
// Password disables seeding.
type AdminSeed struct {
	Email    string
	Username string
	Password string
}

type RateLimits struct {
	VotePerMinute  int
	WritePerMinute int
}

// Load reads .env (if present) and then the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using system environment")
	}

	addr := envString("BOARDLY_ADDR", "")
	if addr == "" {
		addr = ":" + envString("PORT", "8080")
	}

	cfg := Config{
		Addr:         addr,
		DBDriver:     envString("DB_DRIVER", "postgres"),
		DatabaseURL:  envString("DATABASE_URL", ""),
		SessionName:  envString("SESSION_NAME", "boardly_session"),
		SessionKey:   envString("SESSION_SECRET", "secret_key_change_me"),
		SessionTTL:   envDuration("SESSION_TTL", 30*24*time.Hour),
		TemplatesDir: envString("TEMPLATES_DIR", "./web/templates"),
		Admin: AdminSeed{
			Email:    envString("ADMIN_EMAIL", ""),
			Username: envString("ADMIN_USERNAME", "admin"),
			Password: envString("ADMIN_PASSWORD", ""),
		},
		RateLimits: RateLimits{
			VotePerMinute:  envInt("RATE_VOTE_PER_MIN", 120),
			WritePerMinute: envInt("RATE_WRITE_PER_MIN", 30),
		},
	}

	if cfg.DatabaseURL == "" {
		switch cfg.DBDriver {
		case "sqlite":
			cfg.DatabaseURL = "boardly.db"
		default:
			// Fallback for local dev if not set
			cfg.DatabaseURL = "host=localhost user=postgres password=postgres dbname=boardly port=5432 sslmode=disable"
		}
	}

	return cfg
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		slog.Warn("invalid integer in environment, using default", "key", key, "value", v)
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		slog.Warn("invalid duration in environment, using default", "key", key, "value", v)
	}
	return def
}
