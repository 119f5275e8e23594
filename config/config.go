package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Mongo      MongoConfig      `yaml:"mongo"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Redis      RedisConfig      `yaml:"redis"`
	Mail       MailConfig       `yaml:"mail"`
	CargoTrack CargoTrackConfig `yaml:"cargotrack"`
}

// DatabaseConfig is the Postgres instance holding the notification outbox.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) ConnString() string {
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.Username, d.Password, d.Host, d.Port, d.DBName, sslMode)
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type KafkaConfig struct {
	Host                       string `yaml:"host"`
	Port                       int    `yaml:"port"`
	NotificationsTopicName     string `yaml:"notifications_topic_name"`
	NotificationsConsumerGroup string `yaml:"notifications_consumer_group"`
}

func (k KafkaConfig) Brokers() []string {
	return []string{fmt.Sprintf("%s:%d", k.Host, k.Port)}
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type MailConfig struct {
	Provider   string `yaml:"provider"` // "fake" | "brevo" | "ses" | "gmail"
	FromEmail  string `yaml:"from_email"`
	FromName   string `yaml:"from_name"`
	AdminEmail string `yaml:"admin_email"`

	BrevoBaseURL string `yaml:"brevo_base_url"`
	BrevoAPIKey  string `yaml:"brevo_api_key"`

	SESRegion    string `yaml:"ses_region"`
	SESAccessKey string `yaml:"ses_access_key"`
	SESSecretKey string `yaml:"ses_secret_key"`

	GmailClientID     string `yaml:"gmail_client_id"`
	GmailClientSecret string `yaml:"gmail_client_secret"`
	GmailRefreshToken string `yaml:"gmail_refresh_token"`
}

type CargoTrackConfig struct {
	Env            string   `yaml:"env"` // "dev" switches the logger to console output
	HTTPAddr       string   `yaml:"http_addr"`
	APIPrefix      string   `yaml:"api_prefix"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	TrackingCacheTTLSeconds      int `yaml:"tracking_cache_ttl_seconds"`
	PublicFormRateLimitPerMinute int `yaml:"public_form_rate_limit_per_minute"`

	// "kafka" publishes to the notify-worker, "direct" sends from the API process,
	// "off" drops notifications.
	NotifyMode        string `yaml:"notify_mode"`
	NotifyConcurrency int    `yaml:"notify_concurrency"`

	WorkerHTTPAddr            string `yaml:"worker_http_addr"`
	WorkerPollIntervalSeconds int    `yaml:"worker_poll_interval_seconds"`
	WorkerBatchSize           int    `yaml:"worker_batch_size"`
	WorkerConcurrency         int    `yaml:"worker_concurrency"`
	WorkerLeaseSeconds        int    `yaml:"worker_lease_seconds"`
	WorkerMaxAttempts         int    `yaml:"worker_max_attempts"`
	WorkerRateLimitPerMinute  int    `yaml:"worker_rate_limit_per_minute"`

	WorkerBackoff1Seconds int `yaml:"worker_backoff_1_seconds"`
	WorkerBackoff2Seconds int `yaml:"worker_backoff_2_seconds"`
	WorkerBackoff3Seconds int `yaml:"worker_backoff_3_seconds"`
	WorkerBackoff4Seconds int `yaml:"worker_backoff_4_seconds"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()
	config.applyEnv()

	return &config, nil
}

// applyEnv lets deployments keep secrets out of the YAML file.
func (c *Config) applyEnv() {
	c.Mongo.URI = getEnv("MONGODB_URI", c.Mongo.URI)
	c.Mongo.Database = getEnv("MONGODB_DATABASE", c.Mongo.Database)
	c.Mongo.Username = getEnv("MONGODB_USERNAME", c.Mongo.Username)
	c.Mongo.Password = getEnv("MONGODB_PASSWORD", c.Mongo.Password)

	c.Database.Password = getEnv("POSTGRES_PASSWORD", c.Database.Password)
	c.Redis.Host = getEnv("REDIS_HOST", c.Redis.Host)
	c.Redis.Port = getEnvAsInt("REDIS_PORT", c.Redis.Port)
	c.Kafka.Host = getEnv("KAFKA_HOST", c.Kafka.Host)
	c.Kafka.Port = getEnvAsInt("KAFKA_PORT", c.Kafka.Port)

	c.Mail.Provider = getEnv("MAIL_PROVIDER", c.Mail.Provider)
	c.Mail.FromEmail = getEnv("MAIL_FROM_EMAIL", c.Mail.FromEmail)
	c.Mail.AdminEmail = getEnv("ADMIN_EMAIL", c.Mail.AdminEmail)
	c.Mail.BrevoAPIKey = getEnv("BREVO_API_KEY", c.Mail.BrevoAPIKey)
	c.Mail.SESAccessKey = getEnv("AWS_ACCESS_KEY_ID", c.Mail.SESAccessKey)
	c.Mail.SESSecretKey = getEnv("AWS_SECRET_ACCESS_KEY", c.Mail.SESSecretKey)
	c.Mail.SESRegion = getEnv("AWS_REGION", c.Mail.SESRegion)
	c.Mail.GmailClientID = getEnv("GMAIL_CLIENT_ID", c.Mail.GmailClientID)
	c.Mail.GmailClientSecret = getEnv("GMAIL_CLIENT_SECRET", c.Mail.GmailClientSecret)
	c.Mail.GmailRefreshToken = getEnv("GMAIL_REFRESH_TOKEN", c.Mail.GmailRefreshToken)

	c.CargoTrack.HTTPAddr = getEnv("HTTP_ADDR", c.CargoTrack.HTTPAddr)
	c.CargoTrack.NotifyMode = getEnv("NOTIFY_MODE", c.CargoTrack.NotifyMode)
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.CargoTrack.AllowedOrigins = strings.Split(v, ",")
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
