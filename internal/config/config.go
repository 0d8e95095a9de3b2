package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey is returned by Validate when no OpenAI key is configured.
var ErrMissingAPIKey = errors.New("OPENAI_API_KEY is not set")

const (
	DefaultModel       = "gpt-4o-mini"
	DefaultMaxTokens   = 1500
	DefaultInputPrice  = 0.00015 / 1000 // USD per token
	DefaultOutputPrice = 0.0006 / 1000  // USD per token
	DefaultCSVPath     = "image_analysis_results.csv"
	DefaultPort        = 8080
	DefaultWatchDir    = "./inbox"
)

type Config struct {
	OpenAI struct {
		APIKey      string  `yaml:"apiKey"`
		BaseURL     string  `yaml:"baseURL"`
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"maxTokens"`
		InputPrice  float64 `yaml:"inputPrice"`
		OutputPrice float64 `yaml:"outputPrice"`
		VerifyKey   bool    `yaml:"verifyKey"`
	} `yaml:"openai"`

	Output struct {
		CSVPath string `yaml:"csvPath"`
	} `yaml:"output"`

	Server struct {
		Port  int    `yaml:"port"`
		Token string `yaml:"token"`
	} `yaml:"server"`

	Watch struct {
		Dir      string `yaml:"dir"`
		Backfill bool   `yaml:"backfill"`
	} `yaml:"watch"`

	// Driver kosong = mirror database dimatikan
	Database struct {
		Driver   string `yaml:"driver"` // mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`
}

// Default returns a config with every default applied.
func Default() *Config {
	var cfg Config
	cfg.OpenAI.VerifyKey = true
	cfg.applyDefaults()
	return &cfg
}

// Load baca .env lalu file config.yaml. A missing config file is not an
// error; defaults and environment overrides still apply.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		c.OpenAI.Model = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.OpenAI.BaseURL = v
	}
	if v := os.Getenv("IMAGESENSE_OUTPUT"); v != "" {
		c.Output.CSVPath = v
	}
	if v := os.Getenv("IMAGESENSE_TOKEN"); v != "" {
		c.Server.Token = v
	}
}

func (c *Config) applyDefaults() {
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = DefaultModel
	}
	if c.OpenAI.MaxTokens <= 0 {
		c.OpenAI.MaxTokens = DefaultMaxTokens
	}
	if c.OpenAI.InputPrice <= 0 {
		c.OpenAI.InputPrice = DefaultInputPrice
	}
	if c.OpenAI.OutputPrice <= 0 {
		c.OpenAI.OutputPrice = DefaultOutputPrice
	}
	if c.Output.CSVPath == "" {
		c.Output.CSVPath = DefaultCSVPath
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Watch.Dir == "" {
		c.Watch.Dir = DefaultWatchDir
	}
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
}

// Validate checks the settings every command needs before touching any image.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.OpenAI.APIKey) == "" {
		return ErrMissingAPIKey
	}
	switch c.Database.Driver {
	case "", "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s (allowed: mysql, postgres)", c.Database.Driver)
	}
	if c.Minio.Enabled && (c.Minio.Endpoint == "" || c.Minio.BucketName == "") {
		return fmt.Errorf("minio enabled but endpoint or bucketName is empty")
	}
	return nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=Local",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq connection string.
func (c *Config) PostgresDSN() string {
	ssl := c.Database.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		ssl,
	)
}
