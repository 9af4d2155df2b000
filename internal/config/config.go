package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/example/nail-salon/internal/color"
)

const (
	DefaultEndpoint      = "http://localhost:5000/process-image"
	DefaultImageFilename = "hand.jpg"
	DefaultStubAddr      = ":5000"
)

// Environment variables read by Load.
const (
	EnvEndpoint      = "NAIL_ENDPOINT"
	EnvAuthSecret    = "NAIL_AUTH_SECRET"
	EnvImageFilename = "NAIL_IMAGE_FILENAME"
	EnvDefaultColor  = "NAIL_DEFAULT_COLOR"
	EnvLogLevel      = "NAIL_LOG_LEVEL"
	EnvStubAddr      = "NAIL_STUB_ADDR"
)

// Config holds everything the client and the stub endpoint need.
type Config struct {
	Endpoint      string      // full URL of the processing endpoint
	AuthSecret    string      // HS256 secret; empty disables bearer tokens
	ImageFilename string      // filename sent with the image part
	DefaultColor  color.Color // selection a new session starts with
	LogLevel      string
	StubAddr      string // listen address of the loopback endpoint
}

// fileConfig mirrors Config in the optional YAML file.
type fileConfig struct {
	Endpoint      string `yaml:"endpoint"`
	AuthSecret    string `yaml:"auth_secret"`
	ImageFilename string `yaml:"image_filename"`
	DefaultColor  string `yaml:"default_color"` // "r,g,b", "#RRGGBB" or palette name
	LogLevel      string `yaml:"log_level"`
	StubAddr      string `yaml:"stub_addr"`
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then the environment. A .env file in the
// working directory is loaded first when present.
func Load(path string) (*Config, error) {
	// Missing .env is fine.
	_ = godotenv.Load()

	var raw fileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("unmarshal yaml: %w", err)
		}
	}

	overlayEnv(&raw)
	return fromRaw(raw)
}

func overlayEnv(raw *fileConfig) {
	set := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(&raw.Endpoint, EnvEndpoint)
	set(&raw.AuthSecret, EnvAuthSecret)
	set(&raw.ImageFilename, EnvImageFilename)
	set(&raw.DefaultColor, EnvDefaultColor)
	set(&raw.LogLevel, EnvLogLevel)
	set(&raw.StubAddr, EnvStubAddr)
}

func fromRaw(raw fileConfig) (*Config, error) {
	cfg := &Config{
		Endpoint:      raw.Endpoint,
		AuthSecret:    raw.AuthSecret,
		ImageFilename: raw.ImageFilename,
		DefaultColor:  color.Default,
		LogLevel:      raw.LogLevel,
		StubAddr:      raw.StubAddr,
	}

	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if err := validateEndpoint(cfg.Endpoint); err != nil {
		return nil, err
	}
	if cfg.ImageFilename == "" {
		cfg.ImageFilename = DefaultImageFilename
	}
	if strings.ContainsAny(cfg.ImageFilename, `/\"`) {
		return nil, fmt.Errorf("image_filename must be a bare file name, got %q", cfg.ImageFilename)
	}
	if raw.DefaultColor != "" {
		c, err := color.Parse(raw.DefaultColor)
		if err != nil {
			return nil, fmt.Errorf("default_color: %w", err)
		}
		cfg.DefaultColor = c
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.StubAddr == "" {
		cfg.StubAddr = DefaultStubAddr
	}
	return cfg, nil
}

func validateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint must use http or https, got %q", endpoint)
	}
	if u.Host == "" {
		return errors.New("endpoint must include a host")
	}
	return nil
}
