package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort string `yaml:"HTTP_PORT" env:"HTTP_PORT" env-default:"8080"`

	MongoURI string `yaml:"MONGO_URI" env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	MongoDB  string `yaml:"MONGO_DB"  env:"MONGO_DB"  env-default:"surveyhub"`

	RedisAddr     string `yaml:"REDIS_ADDR"     env:"REDIS_ADDR"     env-default:"localhost:6379"`
	RedisPassword string `yaml:"REDIS_PASSWORD" env:"REDIS_PASSWORD"`

	LogLevel string `yaml:"LOG_LEVEL" env:"LOG_LEVEL" env-default:"info"`
	LogFile  string `yaml:"LOG_FILE"  env:"LOG_FILE"`

	SessionSecret  string        `yaml:"SESSION_SECRET"   env:"SESSION_SECRET"   env-default:"dev-secret-change-me"`
	SessionTTL     time.Duration `yaml:"SESSION_TTL"      env:"SESSION_TTL"      env-default:"2h"`
	SurveyCacheTTL time.Duration `yaml:"SURVEY_CACHE_TTL" env:"SURVEY_CACHE_TTL" env-default:"5m"`

	Timezone    string   `yaml:"TIMEZONE"             env:"TIMEZONE"             env-default:"Asia/Seoul"`
	CORSOrigins []string `yaml:"CORS_ALLOWED_ORIGINS" env:"CORS_ALLOWED_ORIGINS" env-default:"*" env-separator:","`
}

// New reads the config from the environment. A .env file in the working
// directory is loaded first when present.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	var config Config
	if err := cleanenv.ReadEnv(&config); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &config, nil
}

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(c.Timezone))
	if err != nil {
		return time.UTC
	}
	return loc
}
