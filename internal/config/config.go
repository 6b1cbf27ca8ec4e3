package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env           string
	Port          string
	LogLevel      string
	SessionSecret string
	DatabaseURL   string // postgres DSN, or "sqlite:<path>"
	RedisURL      string
	TraceEndpoint string // OTLP/HTTP collector host:port; tracing disabled when empty

	MailTransport      string // brevo | sendgrid | kafka | log
	MailFrom           string
	SendinblueAPIKey   string // SENDINBLUE_API_KEY (Brevo)
	SendgridAPIKey     string
	KafkaBroker        string
	KafkaTopic         string
	KafkaUsername      string
	KafkaPassword      string
	InvitationTemplate string
	InvitationSubject  string
	MailMaxAttempts    int
	MailPollInterval   time.Duration

	BillingProvider string // stripe | local
	StripeSecretKey string

	NewUserTTL         time.Duration
	DefaultInvitations int
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATABASE_URL", "sqlite:hub.db")
	viper.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	viper.SetDefault("MAIL_TRANSPORT", "log")
	viper.SetDefault("MAIL_FROM", "noreply@example.com")
	viper.SetDefault("KAFKA_TOPIC", "mail.outbound")
	viper.SetDefault("INVITATION_TEMPLATE", "{{.Key}}")
	viper.SetDefault("INVITATION_SUBJECT", "You have been invited")
	viper.SetDefault("MAIL_MAX_ATTEMPTS", 5)
	viper.SetDefault("MAIL_POLL_INTERVAL", "30s")
	viper.SetDefault("BILLING_PROVIDER", "local")
	viper.SetDefault("NEW_USER_TTL", "72h")
	viper.SetDefault("DEFAULT_INVITATIONS", 0)

	return &Config{
		Env:                viper.GetString("APP_ENV"),
		Port:               viper.GetString("PORT"),
		LogLevel:           viper.GetString("LOG_LEVEL"),
		SessionSecret:      viper.GetString("SESSION_SECRET"),
		DatabaseURL:        viper.GetString("DATABASE_URL"),
		RedisURL:           viper.GetString("REDIS_URL"),
		TraceEndpoint:      viper.GetString("TRACE_ENDPOINT"),
		MailTransport:      strings.ToLower(viper.GetString("MAIL_TRANSPORT")),
		MailFrom:           viper.GetString("MAIL_FROM"),
		SendinblueAPIKey:   viper.GetString("SENDINBLUE_API_KEY"),
		SendgridAPIKey:     viper.GetString("SENDGRID_API_KEY"),
		KafkaBroker:        viper.GetString("KAFKA_BROKER"),
		KafkaTopic:         viper.GetString("KAFKA_TOPIC"),
		KafkaUsername:      viper.GetString("KAFKA_USERNAME"),
		KafkaPassword:      viper.GetString("KAFKA_PASSWORD"),
		InvitationTemplate: viper.GetString("INVITATION_TEMPLATE"),
		InvitationSubject:  viper.GetString("INVITATION_SUBJECT"),
		MailMaxAttempts:    viper.GetInt("MAIL_MAX_ATTEMPTS"),
		MailPollInterval:   viper.GetDuration("MAIL_POLL_INTERVAL"),
		BillingProvider:    strings.ToLower(viper.GetString("BILLING_PROVIDER")),
		StripeSecretKey:    viper.GetString("STRIPE_SECRET_KEY"),
		NewUserTTL:         viper.GetDuration("NEW_USER_TTL"),
		DefaultInvitations: viper.GetInt("DEFAULT_INVITATIONS"),
	}, nil
}
