package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/natserract/vk/pkg/vk"
)

type Config struct {
	AppID       string
	AppSecret   string
	Mode        string
	AccessToken string
	Timeout     *time.Duration // nil when VK_TIMEOUT is unset
	AuthURL     string
	APIURL      string
	APIVersion  string
}

func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		AppID:       os.Getenv("VK_APP_ID"),
		AppSecret:   os.Getenv("VK_APP_SECRET"),
		Mode:        os.Getenv("VK_MODE"),
		AccessToken: os.Getenv("VK_ACCESS_TOKEN"),
		AuthURL:     getEnv("VK_AUTH_URL", vk.AuthURL),
		APIURL:      getEnv("VK_API_URL", vk.APIURL),
		APIVersion:  getEnv("VK_API_VERSION", vk.APIVersion),
	}

	if raw := os.Getenv("VK_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("VK_TIMEOUT is not a valid duration: %w", err)
		}
		cfg.Timeout = &d
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.AppID == "" {
		return fmt.Errorf("VK_APP_ID is required")
	}
	if c.AppSecret == "" {
		return fmt.Errorf("VK_APP_SECRET is required")
	}
	if c.Timeout != nil && *c.Timeout < 0 {
		return fmt.Errorf("VK_TIMEOUT must not be negative, got %s", *c.Timeout)
	}
	// Mode and AccessToken are optional; an unknown mode falls back to oauth
	return nil
}

// Credentials converts the loaded settings into client credentials.
func (c *Config) Credentials() *vk.Credentials {
	return &vk.Credentials{
		AppID:     c.AppID,
		AppSecret: c.AppSecret,
		Mode:      vk.Mode(c.Mode),
	}
}

// ClientOptions returns the client options implied by the loaded settings.
func (c *Config) ClientOptions() []vk.Option {
	opts := []vk.Option{
		vk.WithAuthURL(c.AuthURL),
		vk.WithAPIURL(c.APIURL),
		vk.WithAPIVersion(c.APIVersion),
	}
	if c.Timeout != nil {
		opts = append(opts, vk.WithTimeout(*c.Timeout))
	}
	return opts
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
