package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the single, explicitly constructed configuration object. main
// builds it once and hands the relevant slice to each component.
type Config struct {
	Server       Server
	Database     DatabaseConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Gateway      GatewayConfig
	Email        EmailConfig
	WhatsApp     WhatsAppConfig
	Artifacts    ArtifactConfig
	Admin        AdminConfig
	Registration RegistrationConfig
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig selects and configures the registration stores.
// Backend is "memory" or "postgres".
type DatabaseConfig struct {
	Backend         string
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig enables the Redis provisional store and the distributed lock.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig enables the Kafka-backed notification queue when Brokers is set.
type KafkaConfig struct {
	Brokers           []string
	NotificationTopic string
	ConsumerGroup     string
	Partitions        int32
	ReplicationFactor int16
}

// GatewayConfig holds the payment gateway credentials.
type GatewayConfig struct {
	BaseURL               string
	KeyID                 string
	KeySecret             string
	WebhookSecret         string
	Currency              string
	Timeout               time.Duration
	VerifyClientSignature bool
}

// EmailConfig configures the email provider. Provider is "smtp" or "log".
type EmailConfig struct {
	Provider   string
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	FromName   string
	AdminEmail string
	Timeout    time.Duration
}

// WhatsAppConfig configures the WhatsApp provider. Provider is "interakt" or "log".
type WhatsAppConfig struct {
	Provider     string
	BaseURL      string
	APIKey       string
	CountryCode  string
	TemplateName string
	LanguageCode string
	Timeout      time.Duration
}

// ArtifactConfig controls where rendered cards and certificates live.
type ArtifactConfig struct {
	Dir          string
	BaseURL      string
	URLPath      string
	EventTitle   string
	EventDates   string
	EventVenue   string
	TemplatePath string
}

// AdminConfig holds the admin credential and token settings.
type AdminConfig struct {
	Username     string
	Password     string
	PasswordHash string
	TokenSecret  string
	TokenTTL     time.Duration
}

// RegistrationConfig holds lifecycle policy for registrations.
type RegistrationConfig struct {
	ProvisionalRetention time.Duration
	SweepInterval        time.Duration
	LockTTL              time.Duration
	NotificationBuffer   int
	NotificationRetries  int
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            envString("CONFREG_ADDR", ":5000"),
			LogLevel:        envString("LOG_LEVEL", "info"),
			RequestTimeout:  envDuration("REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  envList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Backend:         envString("DB_BACKEND", "memory"),
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:           envList("KAFKA_BROKERS", nil),
			NotificationTopic: envString("KAFKA_NOTIFICATION_TOPIC", "confreg.notifications"),
			ConsumerGroup:     envString("KAFKA_CONSUMER_GROUP", "confreg-notifier"),
			Partitions:        int32(envInt("KAFKA_PARTITIONS", 3)),
			ReplicationFactor: int16(envInt("KAFKA_REPLICATION_FACTOR", 1)),
		},
		Gateway: GatewayConfig{
			BaseURL:               envString("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
			KeyID:                 os.Getenv("RAZORPAY_KEY_ID"),
			KeySecret:             os.Getenv("RAZORPAY_KEY_SECRET"),
			WebhookSecret:         os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
			Currency:              envString("RAZORPAY_CURRENCY", "INR"),
			Timeout:               envDuration("RAZORPAY_TIMEOUT", 10*time.Second),
			VerifyClientSignature: envBool("RAZORPAY_VERIFY_CLIENT_SIGNATURE", true),
		},
		Email: EmailConfig{
			Provider:   envString("EMAIL_PROVIDER", "log"),
			Host:       os.Getenv("SMTP_HOST"),
			Port:       envInt("SMTP_PORT", 465),
			Username:   os.Getenv("EMAIL_USER"),
			Password:   os.Getenv("EMAIL_PASS"),
			From:       envString("SMTP_FROM", os.Getenv("EMAIL_USER")),
			FromName:   envString("SMTP_FROM_NAME", "TGSDC Support"),
			AdminEmail: envString("ADMIN_EMAIL", os.Getenv("EMAIL_USER")),
			Timeout:    envDuration("SMTP_TIMEOUT", 10*time.Second),
		},
		WhatsApp: WhatsAppConfig{
			Provider:     envString("WHATSAPP_PROVIDER", "log"),
			BaseURL:      envString("INTERAKT_BASE_URL", "https://api.interakt.ai"),
			APIKey:       os.Getenv("INTERAKT_API_KEY"),
			CountryCode:  envString("WHATSAPP_COUNTRY_CODE", "91"),
			TemplateName: envString("WHATSAPP_TEMPLATE", "tgsdc_entry_ticket"),
			LanguageCode: envString("WHATSAPP_LANGUAGE", "en"),
			Timeout:      envDuration("WHATSAPP_TIMEOUT", 10*time.Second),
		},
		Artifacts: ArtifactConfig{
			Dir:          envString("ARTIFACT_DIR", "public/qrcodes"),
			BaseURL:      envString("BASE_URL", "http://localhost:5000"),
			URLPath:      envString("ARTIFACT_URL_PATH", "/qrcodes"),
			EventTitle:   envString("EVENT_TITLE", "10th Telangana State Dental Conference"),
			EventDates:   envString("EVENT_DATES", "24 - 25 January 2026"),
			EventVenue:   envString("EVENT_VENUE", "Sevalal Banjara Bhavan, Banjara Hills, Hyderabad"),
			TemplatePath: os.Getenv("CERTIFICATE_TEMPLATE"),
		},
		Admin: AdminConfig{
			Username:     envString("ADMIN_USER", "admin"),
			Password:     envString("ADMIN_PASSWORD", "admin123"),
			PasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
			// Use a default for development - should be overridden in production
			TokenSecret: envString("ADMIN_TOKEN_SECRET", "dev-secret-key-change-in-production"),
			TokenTTL:    envDuration("ADMIN_TOKEN_TTL", 12*time.Hour),
		},
		Registration: RegistrationConfig{
			ProvisionalRetention: envDuration("PROVISIONAL_RETENTION", 24*time.Hour),
			SweepInterval:        envDuration("SWEEP_INTERVAL", 15*time.Minute),
			LockTTL:              envDuration("REGISTRATION_LOCK_TTL", 15*time.Second),
			NotificationBuffer:   envInt("NOTIFICATION_BUFFER", 256),
			NotificationRetries:  envInt("NOTIFICATION_RETRIES", 3),
		},
	}
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func envList(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
