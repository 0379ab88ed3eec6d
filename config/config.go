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

const (
	AuthProviderJWT      = "jwt"
	AuthProviderFirebase = "firebase"

	EmailProviderSMTP = "smtp"
	EmailProviderSES  = "ses"
	EmailProviderNone = "none"

	// MaxPushBatchSize is the FCM multicast limit.
	MaxPushBatchSize = 500
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Firebase  FirebaseConfig
	Push      PushConfig
	Email     EmailConfig
	Invite    InviteConfig
	Locations LocationConfig
	App       AppConfig
}

type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	DispatchTTL time.Duration
}

type AuthConfig struct {
	Provider  string
	JWTSecret string
}

type FirebaseConfig struct {
	CredentialsPath string
}

type PushConfig struct {
	Enabled   bool
	BatchSize int
	Timeout   time.Duration
}

type EmailConfig struct {
	Provider      string
	From          string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	AWSRegion     string
	Timeout       time.Duration
	RatePerSecond float64
	Concurrency   int
}

type InviteConfig struct {
	TTL time.Duration
}

type LocationConfig struct {
	HistoryRetention time.Duration
	RetentionCron    string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ShutdownTimeout: time.Duration(getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 10)) * time.Second,
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Name:         getEnv("DB_NAME", "shesecure"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		},
		Redis: RedisConfig{
			Addr:        getEnv("REDIS_ADDR", "localhost:6379"),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvAsInt("REDIS_DB", 0),
			DispatchTTL: time.Duration(getEnvAsInt("SOS_DISPATCH_TTL_HOURS", 168)) * time.Hour,
		},
		Auth: AuthConfig{
			Provider:  strings.ToLower(getEnv("AUTH_PROVIDER", AuthProviderJWT)),
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		},
		Push: PushConfig{
			Enabled:   getEnvAsBool("PUSH_ENABLED", true),
			BatchSize: getEnvAsInt("PUSH_BATCH_SIZE", MaxPushBatchSize),
			Timeout:   time.Duration(getEnvAsInt("PUSH_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Email: EmailConfig{
			Provider:      strings.ToLower(getEnv("EMAIL_PROVIDER", EmailProviderSMTP)),
			From:          getEnv("EMAIL_FROM", ""),
			SMTPHost:      getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:      getEnvAsInt("SMTP_PORT", 587),
			SMTPUsername:  getEnv("SMTP_USERNAME", ""),
			SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
			AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
			Timeout:       time.Duration(getEnvAsInt("EMAIL_TIMEOUT_SECONDS", 10)) * time.Second,
			RatePerSecond: getEnvAsFloat("EMAIL_RATE_PER_SECOND", 10),
			Concurrency:   getEnvAsInt("EMAIL_CONCURRENCY", 8),
		},
		Invite: InviteConfig{
			TTL: time.Duration(getEnvAsInt("INVITE_TTL_HOURS", 48)) * time.Hour,
		},
		Locations: LocationConfig{
			HistoryRetention: time.Duration(getEnvAsInt("LOCATION_HISTORY_RETENTION_DAYS", 0)) * 24 * time.Hour,
			RetentionCron:    getEnv("LOCATION_RETENTION_CRON", "0 30 3 * * *"),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	switch c.Auth.Provider {
	case AuthProviderJWT:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required when AUTH_PROVIDER=jwt")
		}
	case AuthProviderFirebase:
		if c.Firebase.CredentialsPath == "" {
			return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required when AUTH_PROVIDER=firebase")
		}
	default:
		return fmt.Errorf("AUTH_PROVIDER must be %q or %q, got %q", AuthProviderJWT, AuthProviderFirebase, c.Auth.Provider)
	}

	if c.Push.Enabled {
		if c.Firebase.CredentialsPath == "" {
			return fmt.Errorf("FIREBASE_CREDENTIALS_PATH is required when PUSH_ENABLED=true")
		}
		if c.Push.BatchSize <= 0 || c.Push.BatchSize > MaxPushBatchSize {
			return fmt.Errorf("PUSH_BATCH_SIZE must be between 1 and %d", MaxPushBatchSize)
		}
	}

	switch c.Email.Provider {
	case EmailProviderSMTP:
		if c.Email.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required when EMAIL_PROVIDER=smtp")
		}
		if c.Email.From == "" {
			c.Email.From = c.Email.SMTPUsername
		}
	case EmailProviderSES:
		if c.Email.AWSRegion == "" {
			return fmt.Errorf("AWS_REGION is required when EMAIL_PROVIDER=ses")
		}
	case EmailProviderNone:
	default:
		return fmt.Errorf("EMAIL_PROVIDER must be one of smtp, ses, none; got %q", c.Email.Provider)
	}
	if c.Email.Provider != EmailProviderNone && c.Email.From == "" {
		return fmt.Errorf("EMAIL_FROM is required when email delivery is enabled")
	}
	if c.Email.Concurrency <= 0 {
		return fmt.Errorf("EMAIL_CONCURRENCY must be positive")
	}

	if c.Invite.TTL <= 0 {
		return fmt.Errorf("INVITE_TTL_HOURS must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid number for %s, using default: %v", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %t", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
