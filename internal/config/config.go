// Package config loads settings from .env and the environment.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"portraits/internal/domain/directory"
	"portraits/internal/infrastructure/export"
	"portraits/internal/infrastructure/portraits"
)

// Config holds application configuration.
type Config struct {
	AppEnv   string
	LogLevel string

	AccessKey       string
	BaseURL         string
	APIVersion      string
	Timeout         time.Duration
	RequestInterval time.Duration

	UniversityCSV     string
	OrganizationCSV   string
	DirectoryEncoding directory.Encoding
	RulesFile         string

	TargetYear        int
	OutputDir         string
	OutputCompression export.Compression

	DatabaseURL string
	HTTPAddr    string
}

// Development reports whether APP_ENV selects development logging.
func (c Config) Development() bool {
	return c.AppEnv == "development"
}

// Portraits returns the API client configuration.
func (c Config) Portraits() portraits.Config {
	return portraits.Config{
		BaseURL:   c.BaseURL,
		Version:   c.APIVersion,
		AccessKey: c.AccessKey,
		Timeout:   c.Timeout,
		Interval:  c.RequestInterval,
	}
}

// DirectorySources returns file sources for both directory tables.
func (c Config) DirectorySources() directory.Sources {
	return directory.Sources{
		Universities:  directory.FileSource(c.UniversityCSV, c.DirectoryEncoding),
		Organizations: directory.FileSource(c.OrganizationCSV, c.DirectoryEncoding),
	}
}

// Load reads .env from the working directory when present, then the
// environment. Variables already set take precedence over .env.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}
	return fromEnv()
}

func fromEnv() (Config, error) {
	cfg := Config{
		AppEnv:   getEnv("APP_ENV", "production"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AccessKey:       strings.TrimSpace(getEnv("PORTRAITS_ACCESS_KEY", getEnv("ACCESS_KEY", ""))),
		BaseURL:         getEnv("PORTRAITS_BASE_URL", portraits.DefaultBaseURL),
		APIVersion:      getEnv("PORTRAITS_API_VERSION", portraits.DefaultVersion),
		Timeout:         getEnvDuration("PORTRAITS_TIMEOUT", portraits.DefaultTimeout),
		RequestInterval: getEnvDuration("PORTRAITS_REQUEST_INTERVAL", portraits.DefaultInterval),

		UniversityCSV:   getEnv("UNIV_LIST_CSV", "./Data/UnivList.csv"),
		OrganizationCSV: getEnv("DEPA_LIST_CSV", "./Data/DepaList.csv"),
		RulesFile:       getEnv("RULES_FILE", ""),

		TargetYear: getEnvInt("TARGET_YEAR", 2024),
		OutputDir:  getEnv("OUTPUT_DIR", "."),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
	}

	var err error
	if cfg.DirectoryEncoding, err = directory.ParseEncoding(getEnv("DIRECTORY_ENCODING", "utf-8")); err != nil {
		return Config{}, err
	}
	if cfg.OutputCompression, err = export.ParseCompression(getEnv("OUTPUT_COMPRESSION", "none")); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
