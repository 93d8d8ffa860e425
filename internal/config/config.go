package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	SMTP     SMTPConfig
	Calendar CalendarConfig
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeoutSeconds"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL          string `mapstructure:"url"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type CalendarConfig struct {
	// TenantID is the practice this deployment serves. The background
	// synchronizer keeps one working set per deployment.
	TenantID            string `mapstructure:"tenant_id"`
	FetchTimeoutSeconds int    `mapstructure:"fetch_timeout_seconds"`
}

// secretOverrides carries the values that must never live in the YAML
// file. Set via VETDESK_* environment variables.
type secretOverrides struct {
	DBPassword   string `envconfig:"DB_PASSWORD"`
	JWTSecret    string `envconfig:"JWT_SECRET"`
	RedisURL     string `envconfig:"REDIS_URL"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var secrets secretOverrides
	if err := envconfig.Process("VETDESK", &secrets); err != nil {
		return nil, fmt.Errorf("failed to read environment overrides: %w", err)
	}
	if secrets.DBPassword != "" {
		config.Database.Password = secrets.DBPassword
	}
	if secrets.JWTSecret != "" {
		config.JWT.Secret = secrets.JWTSecret
	}
	if secrets.RedisURL != "" {
		config.Redis.URL = secrets.RedisURL
	}
	if secrets.SMTPPassword != "" {
		config.SMTP.Password = secrets.SMTPPassword
	}

	return &config, nil
}
