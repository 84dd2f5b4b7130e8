package config

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ClientConfig drives cmd/loanctl. Keys carry the LOANCTL_ prefix.
type ClientConfig struct {
	APIURL        string
	PublicBaseURL string
	AdminPassword string
	Timeout       time.Duration
	LogLevel      string
	AppEnv        string
}

func clientDefaults(v *viper.Viper) {
	v.SetDefault("API_URL", "http://localhost:8080")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:3000")
	v.SetDefault("TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "warn")
	v.SetDefault("APP_ENV", "development")
}

// LoadClient reads .env (when present) and LOANCTL_* variables.
func LoadClient() *ClientConfig {
	_ = godotenv.Load()
	v := viper.New()
	v.SetEnvPrefix("LOANCTL")
	v.AutomaticEnv()
	clientDefaults(v)
	return &ClientConfig{
		APIURL:        strings.TrimRight(v.GetString("API_URL"), "/"),
		PublicBaseURL: strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		AdminPassword: v.GetString("ADMIN_PASSWORD"),
		Timeout:       v.GetDuration("TIMEOUT"),
		LogLevel:      v.GetString("LOG_LEVEL"),
		AppEnv:        strings.ToLower(v.GetString("APP_ENV")),
	}
}

func (c *ClientConfig) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("invalid LOANCTL_API_URL")
	}
	if c.Timeout <= 0 {
		return errors.New("LOANCTL_TIMEOUT must be positive")
	}
	return nil
}
