package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Keys mirror the environment variable names so flags, .env and the process
// environment share one namespace.
const (
	KeyAppName            = "APP_NAME"
	KeyDebug              = "DEBUG"
	KeyLogLevel           = "LOG_LEVEL"
	KeyLogFormat          = "LOG_FORMAT"
	KeyHost               = "HOST"
	KeyPort               = "PORT"
	KeyBaseURL            = "BASE_URL"
	KeyFrontendURL        = "FRONTEND_URL"
	KeyGoogleClientID     = "GOOGLE_CLIENT_ID"
	KeyGoogleClientSecret = "GOOGLE_CLIENT_SECRET"
	KeyGoogleTokenPath    = "GOOGLE_TOKEN_PATH"
	KeyTLSCertFile        = "TLS_CERT_FILE"
	KeyTLSKeyFile         = "TLS_KEY_FILE"
	KeyStaticDir          = "STATIC_DIR"
	KeyAssetsDir          = "ASSETS_DIR"
	KeyCORSOrigins        = "CORS_ALLOWED_ORIGINS"
	KeyRateLimitRPS       = "RATE_LIMIT_RPS"
	KeyRateLimitBurst     = "RATE_LIMIT_BURST"
	KeyRequestTimeout     = "REQUEST_TIMEOUT"
	KeyMetricsEnabled     = "METRICS_ENABLED"
	KeyMetricsAddr        = "METRICS_ADDR"
)

// DefaultEnvFile is read when no other file is given.
const DefaultEnvFile = ".env"

// CallbackPath is the OAuth redirect target shared by the Tasks and Calendar flows.
const CallbackPath = "/api/tasks/auth/callback"

// Settings holds the runtime configuration of the gateway
type Settings struct {
	AppName   string `mapstructure:"APP_NAME"`
	Debug     bool   `mapstructure:"DEBUG"`
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	Host        string `mapstructure:"HOST"`
	Port        int    `mapstructure:"PORT"`
	BaseURL     string `mapstructure:"BASE_URL"`
	FrontendURL string `mapstructure:"FRONTEND_URL"`

	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleTokenPath    string `mapstructure:"GOOGLE_TOKEN_PATH"`

	TLSCertFile string `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile  string `mapstructure:"TLS_KEY_FILE"`

	StaticDir   string `mapstructure:"STATIC_DIR"`
	AssetsDir   string `mapstructure:"ASSETS_DIR"`
	CORSOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`

	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	MetricsEnabled bool   `mapstructure:"METRICS_ENABLED"`
	MetricsAddr    string `mapstructure:"METRICS_ADDR"`
}

// New returns a viper instance with every key registered and defaulted.
// Callers bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyAppName, "szymon")
	v.SetDefault(KeyDebug, true)
	v.SetDefault(KeyLogLevel, "")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyHost, "0.0.0.0")
	v.SetDefault(KeyPort, 2137)
	v.SetDefault(KeyBaseURL, "")
	v.SetDefault(KeyFrontendURL, "http://localhost:5173")
	v.SetDefault(KeyGoogleClientID, "")
	v.SetDefault(KeyGoogleClientSecret, "")
	v.SetDefault(KeyGoogleTokenPath, ".google_token.json")
	v.SetDefault(KeyTLSCertFile, "certs/cert.pem")
	v.SetDefault(KeyTLSKeyFile, "certs/key.pem")
	v.SetDefault(KeyStaticDir, "frontend/dist")
	v.SetDefault(KeyAssetsDir, "assets")
	v.SetDefault(KeyCORSOrigins, "")
	v.SetDefault(KeyRateLimitRPS, 0)
	v.SetDefault(KeyRateLimitBurst, 20)
	v.SetDefault(KeyRequestTimeout, 30*time.Second)
	v.SetDefault(KeyMetricsEnabled, false)
	v.SetDefault(KeyMetricsAddr, ":9090")

	v.AutomaticEnv()

	return v
}

// Load reads envFile into the process environment (a missing file is not an error)
// and decodes the settings from v. Existing environment variables win over the file.
func Load(v *viper.Viper, envFile string) (*Settings, error) {
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}

	if s.LogLevel == "" {
		s.LogLevel = "info"
		if s.Debug {
			s.LogLevel = "debug"
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

// Validate reports the first invalid setting.
func (s *Settings) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("invalid %s %d: must be between 1 and 65535", KeyPort, s.Port)
	}
	if s.BaseURL != "" {
		u, err := url.Parse(s.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid %s %q: must be an absolute http(s) URL", KeyBaseURL, s.BaseURL)
		}
	}
	if s.RateLimitRPS < 0 {
		return fmt.Errorf("invalid %s %v: must not be negative", KeyRateLimitRPS, s.RateLimitRPS)
	}
	if s.RateLimitBurst < 0 {
		return fmt.Errorf("invalid %s %d: must not be negative", KeyRateLimitBurst, s.RateLimitBurst)
	}
	if s.RequestTimeout < 0 {
		return fmt.Errorf("invalid %s %v: must not be negative", KeyRequestTimeout, s.RequestTimeout)
	}
	switch s.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid %s %q: must be text or json", KeyLogFormat, s.LogFormat)
	}
	return nil
}

// GoogleConfigured reports whether OAuth client credentials are present.
func (s *Settings) GoogleConfigured() bool {
	return s.GoogleClientID != "" && s.GoogleClientSecret != ""
}

// TLSEnabled reports whether both the certificate and key files exist.
func (s *Settings) TLSEnabled() bool {
	return fileExists(s.TLSCertFile) && fileExists(s.TLSKeyFile)
}

// PublicURL is the externally visible base URL of the gateway.
func (s *Settings) PublicURL() string {
	if s.BaseURL != "" {
		return strings.TrimRight(s.BaseURL, "/")
	}
	scheme := "http"
	if s.TLSEnabled() {
		scheme = "https"
	}
	return fmt.Sprintf("%s://localhost:%d", scheme, s.Port)
}

// RedirectURL is the OAuth callback registered with Google.
func (s *Settings) RedirectURL() string {
	return s.PublicURL() + CallbackPath
}

// Addr is the listen address of the HTTP server.
func (s *Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AllowedOrigins returns the CORS origins, defaulting to the frontend URL.
func (s *Settings) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(s.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 && s.FrontendURL != "" {
		origins = []string{s.FrontendURL}
	}
	return origins
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
