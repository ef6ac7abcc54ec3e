package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	JWTSecret              string
	SessionTTL             time.Duration
	CookieSecure           bool
	RazorpayKeyID          string
	RazorpayKeySecret      string
	AdmissionFee           int64
	AdmissionCurrency      string
	AdmissionTTL           time.Duration
	OTPTTL                 time.Duration
	OTPResendCooldown      time.Duration
	SendgridAPIKey         string
	MailFromName           string
	MailFromAddress        string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	UploadMaxMB            int
	NATSURL                string
	KafkaBrokers           []string
	KafkaTopic             string
	EventsSubject          string
	AdminEmail             string
	AdminPassword          string
	CORSAllowOrigins       []string
	OTPRateLimit           int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("RT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "RiseTutor API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("session.ttl", "1h")
	v.SetDefault("admission.fee", 50000)
	v.SetDefault("admission.currency", "INR")
	v.SetDefault("admission.ttl", "30m")
	v.SetDefault("otp.ttl", "10m")
	v.SetDefault("otp.resend_cooldown", "30s")
	v.SetDefault("mail.from_name", "RiseTutor Admissions")
	v.SetDefault("cloudinary.folder", "risetutor")
	v.SetDefault("upload.max_mb", 5)
	v.SetDefault("kafka.topic", "risetutor.events")
	v.SetDefault("events.subject", "risetutor")
	v.SetDefault("otp.rate_limit", 10)

	sessionTTL, err := parseDuration(v, "session.ttl")
	if err != nil {
		return Config{}, err
	}
	admissionTTL, err := parseDuration(v, "admission.ttl")
	if err != nil {
		return Config{}, err
	}
	otpTTL, err := parseDuration(v, "otp.ttl")
	if err != nil {
		return Config{}, err
	}
	cooldown, err := parseDuration(v, "otp.resend_cooldown")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		SessionTTL:             sessionTTL,
		CookieSecure:           v.GetBool("cookie.secure"),
		RazorpayKeyID:          v.GetString("razorpay.key_id"),
		RazorpayKeySecret:      v.GetString("razorpay.key_secret"),
		AdmissionFee:           v.GetInt64("admission.fee"),
		AdmissionCurrency:      strings.ToUpper(v.GetString("admission.currency")),
		AdmissionTTL:           admissionTTL,
		OTPTTL:                 otpTTL,
		OTPResendCooldown:      cooldown,
		SendgridAPIKey:         v.GetString("sendgrid.api_key"),
		MailFromName:           v.GetString("mail.from_name"),
		MailFromAddress:        v.GetString("mail.from_address"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		UploadMaxMB:            v.GetInt("upload.max_mb"),
		NATSURL:                v.GetString("nats.url"),
		KafkaBrokers:           splitList(v.GetString("kafka.brokers")),
		KafkaTopic:             v.GetString("kafka.topic"),
		EventsSubject:          v.GetString("events.subject"),
		AdminEmail:             strings.ToLower(strings.TrimSpace(v.GetString("admin.email"))),
		AdminPassword:          v.GetString("admin.password"),
		CORSAllowOrigins:       splitList(v.GetString("cors.allow_origins")),
		OTPRateLimit:           v.GetInt("otp.rate_limit"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.RazorpayKeyID == "" || cfg.RazorpayKeySecret == "" {
		return Config{}, fmt.Errorf("razorpay credentials must be provided")
	}

	if cfg.AdmissionFee <= 0 {
		return Config{}, fmt.Errorf("admission fee must be positive")
	}

	if cfg.UploadMaxMB <= 0 {
		cfg.UploadMaxMB = 5
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return value, nil
}

func splitList(input string) []string {
	parts := strings.Split(input, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
