// File: internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const developmentJWTSecret = "development-secret-key-change-in-production"

type Config struct {
	ServerPort  string
	Environment string

	// Sessions
	JWTSecretKey       string
	JWTIssuer          string
	SessionTTL         time.Duration
	SessionMaxLifetime time.Duration

	// OTP challenges
	OTPTTL               time.Duration
	OTPMaxAttempts       int
	OTPRetention         time.Duration
	OTPHashKey           string
	OTPStore             string
	OTPRequestsPerWindow int
	OTPRequestWindow     time.Duration

	// Persistence
	DBDriver    string
	DatabaseURL string
	RedisURL    string

	// Course catalog
	CatalogBaseURL string
	CatalogTimeout time.Duration
	PlanSubjects   []string

	// Language model
	OpenAIAPIKey         string
	OpenAIBaseURL        string
	OpenAIModel          string
	OpenAIEmbeddingModel string
	LLMTimeout           time.Duration

	// Email delivery
	EmailProvider string
	ResendAPIKey  string
	MailFrom      string
	MailFromName  string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string

	CORSOrigins []string
	// TrustedProxies are CIDRs or addresses allowed to set X-Forwarded-For.
	TrustedProxies []string
}

// Load reads configuration from environment variables or .env file.
func Load() *Config {
	cfg, err := load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

func load() (*Config, error) {
	env := getEnv("ENV", "development")
	if !isProduction(env) {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found; continuing with environment variables")
		}
	}

	cfg := &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		Environment: env,

		JWTSecretKey:       getEnv("JWT_SECRET_KEY", ""),
		JWTIssuer:          getEnv("JWT_ISSUER", "neu-scheduler"),
		SessionTTL:         getEnvAsDuration("SESSION_TTL", 30*time.Minute),
		SessionMaxLifetime: getEnvAsDuration("SESSION_MAX_LIFETIME", 24*time.Hour),

		OTPTTL:               getEnvAsDuration("OTP_TTL", 10*time.Minute),
		OTPMaxAttempts:       getEnvAsInt("OTP_MAX_ATTEMPTS", 5),
		OTPRetention:         getEnvAsDuration("OTP_RETENTION", 10*time.Minute),
		OTPHashKey:           getEnv("OTP_HASH_KEY", ""),
		OTPStore:             strings.ToLower(getEnv("OTP_STORE", "memory")),
		OTPRequestsPerWindow: getEnvAsInt("OTP_REQUESTS_PER_WINDOW", 5),
		OTPRequestWindow:     getEnvAsDuration("OTP_REQUEST_WINDOW", 15*time.Minute),

		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DatabaseURL: getEnv("DATABASE_URL", "scheduler.db"),
		RedisURL:    getEnv("REDIS_URL", ""),

		CatalogBaseURL: strings.TrimRight(getEnv("API_BASE_URL", "https://nubanner.neu.edu/StudentRegistrationSsb/ssb"), "/"),
		CatalogTimeout: getEnvAsDuration("CATALOG_TIMEOUT", 30*time.Second),
		PlanSubjects:   getEnvAsList("PLAN_SUBJECTS", []string{"CS", "DS", "IS", "MATH", "PHYS", "EECE", "PHIL", "ENGW", "ECON", "STAT"}),

		OpenAIAPIKey:         getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIEmbeddingModel: getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
		LLMTimeout:           getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),

		EmailProvider: strings.ToLower(getEnv("EMAIL_PROVIDER", "log")),
		ResendAPIKey:  getEnv("RESEND_API_KEY", ""),
		MailFrom:      getEnv("MAIL_FROM", "no-reply@neu-scheduler.local"),
		MailFromName:  getEnv("MAIL_FROM_NAME", "NEU Course Scheduler"),
		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),

		CORSOrigins: getEnvAsList("CORS_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"}),
		TrustedProxies: getEnvAsList("TRUSTED_PROXIES", nil),
	}

	// Validation for production environments
	if isProduction(env) {
		missing := []string{}
		if cfg.JWTSecretKey == "" {
			missing = append(missing, "JWT_SECRET_KEY")
		}
		switch cfg.EmailProvider {
		case "resend":
			if cfg.ResendAPIKey == "" {
				missing = append(missing, "RESEND_API_KEY")
			}
		case "smtp":
			if cfg.SMTPHost == "" {
				missing = append(missing, "SMTP_HOST")
			}
		}
		if cfg.OTPStore == "redis" && cfg.RedisURL == "" {
			missing = append(missing, "REDIS_URL")
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("missing required production environment variables: %v", missing)
		}
	}

	if cfg.JWTSecretKey == "" {
		log.Println("Warning: JWT_SECRET_KEY not set, using the development secret")
		cfg.JWTSecretKey = developmentJWTSecret
	}
	if cfg.OTPHashKey == "" {
		cfg.OTPHashKey = cfg.JWTSecretKey
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch c.OTPStore {
	case "memory", "redis", "sql":
	default:
		return fmt.Errorf("OTP_STORE must be one of memory, redis, sql (got %q)", c.OTPStore)
	}
	switch c.EmailProvider {
	case "resend", "smtp", "log":
	default:
		return fmt.Errorf("EMAIL_PROVIDER must be one of resend, smtp, log (got %q)", c.EmailProvider)
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres (got %q)", c.DBDriver)
	}
	if c.OTPMaxAttempts < 1 {
		return fmt.Errorf("OTP_MAX_ATTEMPTS must be at least 1")
	}
	if c.OTPTTL <= 0 || c.SessionTTL <= 0 {
		return fmt.Errorf("OTP_TTL and SESSION_TTL must be positive")
	}
	if c.SessionMaxLifetime < c.SessionTTL {
		return fmt.Errorf("SESSION_MAX_LIFETIME must not be shorter than SESSION_TTL")
	}
	return nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return isProduction(c.Environment)
}

func isProduction(env string) bool {
	return strings.ToLower(env) == "production"
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an env var as an integer, with a fallback.
func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as integer. Using default value.", key)
		return defaultValue
	}
	return intValue
}

// getEnvAsDuration accepts Go durations ("90s", "10m"); a bare number is read as minutes.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	if minutes, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(minutes) * time.Minute
	}
	d, err := time.ParseDuration(strValue)
	if err != nil {
		log.Printf("Warning: could not parse env var %s as duration. Using default value.", key)
		return defaultValue
	}
	return d
}

func getEnvAsList(key string, defaultValue []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
