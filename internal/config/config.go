package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath        = "config.yaml"
	DefaultCatalogPath = "./data/files_exploits.csv"
	DefaultAPIKeyEnv   = "API_KEY"
	CatalogEnv         = "EXPLOITSEARCH_CATALOG"
)

type Config struct {
	Server struct {
		Port        int      `yaml:"port" validate:"gte=0,lte=65535"`
		AuthToken   string   `yaml:"authToken"`
		JWTSecret   string   `yaml:"jwtSecret"`
		CORSOrigins []string `yaml:"corsOrigins" validate:"dive,required"`
		RateLimit   struct {
			Capacity int `yaml:"capacity" validate:"gte=0"`
			Refill   int `yaml:"refillPerSecond" validate:"gte=0"`
		} `yaml:"rateLimit"`
	} `yaml:"server"`

	Catalog struct {
		Path string `yaml:"path"`
		// SourceRoot resolves relative exploit file paths
		SourceRoot string `yaml:"sourceRoot"`
	} `yaml:"catalog"`

	AI struct {
		// Provider is "gemini" or "openai"
		Provider  string `yaml:"provider" validate:"omitempty,oneof=gemini openai"`
		Model     string `yaml:"model"`
		BaseURL   string `yaml:"baseURL" validate:"omitempty,url"`
		APIKeyEnv string `yaml:"apiKeyEnv"`
		// APIKey is never read from the file, only from APIKeyEnv
		APIKey string `yaml:"-"`
	} `yaml:"ai"`

	Database struct {
		// Driver is "", "mysql", "postgres" or "sqlite"; empty disables history
		Driver   string `yaml:"driver" validate:"omitempty,oneof=mysql postgres sqlite"`
		DSN      string `yaml:"dsn" validate:"required_if=Driver sqlite"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
		Prefix     string `yaml:"prefix"`
	} `yaml:"minio"`

	Export struct {
		FontPath string `yaml:"fontPath"`
	} `yaml:"export"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	var cfg Config
	cfg.Server.Port = 8080
	cfg.Server.RateLimit.Capacity = 5
	cfg.Server.RateLimit.Refill = 1
	cfg.Catalog.Path = DefaultCatalogPath
	cfg.AI.Provider = "gemini"
	cfg.AI.APIKeyEnv = DefaultAPIKeyEnv
	cfg.Export.FontPath = "fonts/Roboto-VariableFont_wdth,wght.ttf"
	return &cfg
}

// ResolvePath picks the config file: explicit flag, then CONFIG_PATH, then config.yaml.
func ResolvePath(flag string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load baca file config.yaml di atas Default. File yang tidak ada bukan error.
// .env di working directory diload dulu tanpa menimpa env yang sudah ada.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("config: %s not found, using defaults", path)
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(CatalogEnv); v != "" {
		c.Catalog.Path = v
	}
	if c.AI.APIKeyEnv == "" {
		c.AI.APIKeyEnv = DefaultAPIKeyEnv
	}
	c.AI.APIKey = strings.TrimSpace(os.Getenv(c.AI.APIKeyEnv))
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
}

// AIEnabled reports whether an API key is available.
func (c *Config) AIEnabled() bool { return c.AI.APIKey != "" }

// MinioEnabled reports whether report upload is configured.
func (c *Config) MinioEnabled() bool {
	return c.Minio.Endpoint != "" && c.Minio.BucketName != ""
}

// DatabaseDSN returns database.dsn, or builds one from the host settings.
func (c *Config) DatabaseDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	switch c.Database.Driver {
	case "mysql":
		return c.MySQLDSN()
	case "postgres":
		return c.PostgresDSN()
	}
	return ""
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres (lib/pq key=value form)
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}
