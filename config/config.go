package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"local"`
	Version     string `env:"APP_VERSION" envDefault:"1.0.0"`
	Dsn         string `env:"DSN,required,notEmpty"`

	DBMaxConns        int32         `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns        int32         `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30s"`
	RunMigrations     bool          `env:"RUN_MIGRATIONS" envDefault:"true"`

	LogLevel string `env:"LOG_LEVEL"`
	LogFile  string `env:"LOG_FILE"`

	JwtSecret  string        `env:"JWT_SECRET,required,notEmpty"`
	JwtExpires time.Duration `env:"JWT_EXPIRES" envDefault:"168h"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"5m"`

	CloudinaryCloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`

	BroadcastRadiusMeters float64 `env:"BROADCAST_RADIUS_METERS" envDefault:"1000"`
}

// New loads an optional .env file and parses the environment.
func New() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load(".env")

	return Parse()
}

// Parse reads configuration from the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if cfg.JwtExpires <= 0 {
		return nil, fmt.Errorf("JWT_EXPIRES must be positive")
	}
	return &cfg, nil
}
