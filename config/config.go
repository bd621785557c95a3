package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/phillip/cleanup-sponsorship-go/ratelimit"
	"github.com/phillip/cleanup-sponsorship-go/services"
	"github.com/phillip/cleanup-sponsorship-go/store"
	"github.com/phillip/cleanup-sponsorship-go/utils"
)

type Settings struct {
	Port              string        `env:"PORT" envDefault:"8080"`
	MongoURI          string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	DBName            string        `env:"DB_NAME" envDefault:"cleanup"`
	MongoTransactions bool          `env:"MONGO_TRANSACTIONS" envDefault:"false"`
	JWTSecret         string        `env:"JWT_SECRET,required,notEmpty"`
	JWTTTL            time.Duration `env:"JWT_TTL" envDefault:"24h"`
	CORSOrigins       []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`

	RedisURL          string        `env:"REDIS_URL"`
	SponsorRateLimit  int           `env:"SPONSOR_RATE_LIMIT" envDefault:"5"`
	SponsorRateWindow time.Duration `env:"SPONSOR_RATE_WINDOW" envDefault:"1m"`

	Cloudinary CloudinarySettings `envPrefix:"CLOUDINARY_"`
	Email      EmailSettings
}

type CloudinarySettings struct {
	CloudName string `env:"CLOUD_NAME"`
	APIKey    string `env:"API_KEY"`
	APISecret string `env:"API_SECRET"`
}

func (c CloudinarySettings) Enabled() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

type EmailSettings struct {
	APIURL string `env:"ZEPTO_API_URL"`
	APIKey string `env:"ZEPTO_API_KEY"`
	From   string `env:"EMAIL_FROM"`
}

// Config is what every handler closes over: the settings plus the live
// collaborators built from them.
type Config struct {
	Settings

	Store         store.Store
	Sponsorships  *services.Sponsorships
	Registrations *services.Registrations
	Limiter       ratelimit.Limiter
	Mailer        *utils.Mailer
	Assets        *utils.AssetCleaner // nil when Cloudinary is not configured
	Log           *slog.Logger
	Now           func() time.Time
}

// Load reads an optional .env file, then the process environment.
func Load(envFiles ...string) (*Settings, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var s Settings
	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if s.SponsorRateLimit < 1 {
		return nil, fmt.Errorf("SPONSOR_RATE_LIMIT must be at least 1")
	}
	return &s, nil
}

func (s Settings) SlogLevel() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger returns the JSON logger all services share.
func (s Settings) NewLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: s.SlogLevel()})).
		With(slog.String("service", "cleanup-api"))
}

func (c *Config) Clock() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
