package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort string
	AppEnv  string

	// JWT
	JWTSecret     string
	JWTIssuer     string
	JWTAudience   string
	TokenTTLHours int

	// Database
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	// Redis for caching / token blacklist / one-time tokens
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string

	// Logging
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool

	// HTTP
	AllowedOrigins     []string
	RateLimitPerMinute int

	// Uploads
	UploadDir      string
	MaxUploadBytes int64
	BaseURL        string

	// SMTP for password reset mail
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTLS      bool

	// One-time tokens (password reset, email verification)
	ResetTokenTTLMinutes int
}

var cfg AppConfig
var loaded bool

// Load reads the application configuration from the environment, with an
// optional .env file for local development. It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	// Best-effort: a missing .env is fine in containerized deployments.
	_ = godotenv.Load()

	cfg = AppConfig{
		AppPort: getEnv("APP_PORT", "8080"),
		AppEnv:  getEnv("APP_ENV", "development"),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTIssuer:     getEnv("JWT_ISSUER", "gopress"),
		JWTAudience:   getEnv("JWT_AUDIENCE", "gopress-api"),
		TokenTTLHours: getEnvInt("TOKEN_TTL_HOURS", 168),

		DatabaseURI: os.Getenv("DATABASE_URI"),
		DBHost:      getEnv("DB_HOST", "127.0.0.1"),
		DBPort:      getEnv("DB_PORT", "3306"),
		DBUser:      getEnv("DB_USER", "gopress"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      getEnv("DB_NAME", "gopress"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnvInt("REDIS_PORT", 6379),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogPath:       getEnv("LOG_PATH", "logs/gopress.log"),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 7),
		LogCompress:   getEnvBool("LOG_COMPRESS", true),

		AllowedOrigins:     splitCSV(getEnv("ALLOWED_ORIGINS", "*")),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		UploadDir:      getEnv("UPLOAD_DIR", "static/uploads"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 5)) * 1024 * 1024,
		BaseURL:        getEnv("BASE_URL", "http://localhost:8080"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Gopress"),
		SMTPTLS:      getEnvBool("SMTP_TLS", true),

		ResetTokenTTLMinutes: getEnvInt("RESET_TOKEN_TTL_MINUTES", 30),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// SetForTesting overrides the cached configuration. Test helper only.
func SetForTesting(c AppConfig) {
	cfg = c
	loaded = true
}

// IsDevelopment reports whether the app runs in a development environment.
// Error responses include internal detail only in this mode.
func (c AppConfig) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
