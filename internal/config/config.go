package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds every runtime setting. Values come from defaults, then an
// optional TOML file named by CONFIG_FILE, then the environment.
type Config struct {
	AppEnv                     string   `toml:"app_env"`
	AppName                    string   `toml:"app_name"`
	APIPrefix                  string   `toml:"api_prefix"`
	AppPort                    string   `toml:"app_port"`
	DatabaseDriver             string   `toml:"database_driver"`
	DatabaseURL                string   `toml:"database_url"`
	SQLitePath                 string   `toml:"sqlite_path"`
	JWTSecret                  string   `toml:"jwt_secret"`
	JWTAlgorithm               string   `toml:"jwt_algorithm"`
	JWTIssuer                  string   `toml:"jwt_issuer"`
	TokenTTLHours              int      `toml:"token_ttl_hours"`
	CORSAllowOrigins           []string `toml:"cors_allow_origins"`
	OpenRouterAPIKey           string   `toml:"openrouter_api_key"`
	OpenRouterModel            string   `toml:"openrouter_model"`
	OpenRouterBaseURL          string   `toml:"openrouter_base_url"`
	AITimeoutSeconds           int      `toml:"ai_timeout_seconds"`
	AISuggestionTimeoutSeconds int      `toml:"ai_suggestion_timeout_seconds"`
	AIMock                     bool     `toml:"ai_mock"`
	RequestTimeoutSeconds      int      `toml:"request_timeout_seconds"`
	LogLevel                   string   `toml:"log_level"`
	LogFormat                  string   `toml:"log_format"`
}

func Defaults() Config {
	return Config{
		AppEnv:         "local",
		AppName:        "Mindi API",
		APIPrefix:      "/api",
		AppPort:        "5000",
		DatabaseDriver: DriverSQLite,
		DatabaseURL:    "",
		SQLitePath:     "mindi.db",
		JWTSecret:      "",
		JWTAlgorithm:   "HS256",
		JWTIssuer:      "mindi",
		TokenTTLHours:  24 * 7,
		CORSAllowOrigins: []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
			"http://localhost:3000",
		},
		OpenRouterAPIKey:           "",
		OpenRouterModel:            "x-ai/grok-4.1-fast:free",
		OpenRouterBaseURL:          "https://openrouter.ai/api/v1",
		AITimeoutSeconds:           30,
		AISuggestionTimeoutSeconds: 20,
		AIMock:                     false,
		RequestTimeoutSeconds:      45,
		LogLevel:                   "info",
		LogFormat:                  "text",
	}
}

func Load() (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Defaults()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := ReadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

// ReadFile overlays the keys present in the TOML file at path onto cfg.
// Unknown keys are rejected.
func ReadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	if err := Decode(f, cfg); err != nil {
		return fmt.Errorf("reading config from %s: %w", path, err)
	}
	return nil
}

func Decode(r io.Reader, cfg *Config) error {
	meta, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return fmt.Errorf("decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// Write encodes cfg as TOML with secrets blanked.
func Write(w io.Writer, cfg Config) error {
	redacted := cfg
	if redacted.JWTSecret != "" {
		redacted.JWTSecret = "<redacted>"
	}
	if redacted.OpenRouterAPIKey != "" {
		redacted.OpenRouterAPIKey = "<redacted>"
	}
	if err := toml.NewEncoder(w).Encode(redacted); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.AppEnv = getEnv("APP_ENV", cfg.AppEnv)
	cfg.AppName = getEnv("APP_NAME", cfg.AppName)
	cfg.APIPrefix = getEnv("API_PREFIX", cfg.APIPrefix)
	cfg.AppPort = getEnv("APP_PORT", cfg.AppPort)
	cfg.DatabaseDriver = strings.ToLower(getEnv("DATABASE_DRIVER", cfg.DatabaseDriver))
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.SQLitePath = getEnv("SQLITE_PATH", cfg.SQLitePath)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTAlgorithm = getEnv("JWT_ALGORITHM", cfg.JWTAlgorithm)
	cfg.JWTIssuer = getEnv("JWT_ISSUER", cfg.JWTIssuer)
	cfg.TokenTTLHours = getEnvInt("TOKEN_TTL_HOURS", cfg.TokenTTLHours)
	cfg.CORSAllowOrigins = getEnvCSV("CORS_ALLOW_ORIGINS", cfg.CORSAllowOrigins)
	cfg.OpenRouterAPIKey = getEnv("OPENROUTER_API_KEY", cfg.OpenRouterAPIKey)
	cfg.OpenRouterModel = getEnv("OPENROUTER_MODEL", cfg.OpenRouterModel)
	cfg.OpenRouterBaseURL = getEnv("OPENROUTER_BASE_URL", cfg.OpenRouterBaseURL)
	cfg.AITimeoutSeconds = getEnvInt("AI_TIMEOUT_SECONDS", cfg.AITimeoutSeconds)
	cfg.AISuggestionTimeoutSeconds = getEnvInt("AI_SUGGESTION_TIMEOUT_SECONDS", cfg.AISuggestionTimeoutSeconds)
	cfg.AIMock = getEnvBool("AI_MOCK", cfg.AIMock)
	cfg.RequestTimeoutSeconds = getEnvInt("REQUEST_TIMEOUT_SECONDS", cfg.RequestTimeoutSeconds)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
}

func (c Config) Validate() error {
	switch strings.TrimSpace(c.DatabaseDriver) {
	case DriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	case DriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return errors.New("SQLITE_PATH is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("DATABASE_DRIVER %q is not supported; use postgres or sqlite", c.DatabaseDriver)
	}
	secret := strings.TrimSpace(c.JWTSecret)
	if secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if secret == "change-me-in-production" {
		return errors.New("JWT_SECRET must not use insecure default value")
	}
	if len(secret) < 16 {
		return errors.New("JWT_SECRET is too short; use at least 16 characters")
	}
	switch strings.TrimSpace(c.JWTAlgorithm) {
	case "HS256", "HS384", "HS512":
	case "":
		return errors.New("JWT_ALGORITHM is required")
	default:
		return fmt.Errorf("JWT_ALGORITHM %q is not supported; use an HMAC algorithm", c.JWTAlgorithm)
	}
	if c.TokenTTLHours <= 0 {
		return errors.New("TOKEN_TTL_HOURS must be positive")
	}
	if c.AITimeoutSeconds <= 0 || c.AISuggestionTimeoutSeconds <= 0 {
		return errors.New("AI timeouts must be positive")
	}
	if !c.AIMock && strings.TrimSpace(c.OpenRouterBaseURL) == "" {
		return errors.New("OPENROUTER_BASE_URL is required")
	}
	return nil
}

func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

func (c Config) AITimeout() time.Duration {
	return time.Duration(c.AITimeoutSeconds) * time.Second
}

func (c Config) AISuggestionTimeout() time.Duration {
	return time.Duration(c.AISuggestionTimeoutSeconds) * time.Second
}

func (c Config) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvCSV(key string, fallback []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, item := range parts {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return fallback
	}
	return result
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}
