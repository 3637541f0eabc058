/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the marketplace service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort               string `mapstructure:"SERVER_PORT"`
	DatabaseURL              string `mapstructure:"DATABASE_URL"`
	RedisURL                 string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix     string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL              string `mapstructure:"RABBITMQ_URL"`
	NotificationExchange     string `mapstructure:"NOTIFICATION_EXCHANGE"`
	NotificationSweepSeconds int    `mapstructure:"NOTIFICATION_SWEEP_SECONDS"`
	GatewayAPIBaseURL        string `mapstructure:"GATEWAY_API_BASE_URL"`
	GatewayAPIKey            string `mapstructure:"GATEWAY_API_KEY"`
	GatewayCurrency          string `mapstructure:"GATEWAY_CURRENCY"`
	JWKSURL                  string `mapstructure:"JWKS_URL"`
	AllowedOrigins           string `mapstructure:"ALLOWED_ORIGINS"`
	AllowResubmission        bool   `mapstructure:"ALLOW_RESUBMISSION"`
	WorkerStartingCoins      int64  `mapstructure:"WORKER_STARTING_COINS"`
	BuyerStartingCoins       int64  `mapstructure:"BUYER_STARTING_COINS"`
	BestWorkersLimit         int    `mapstructure:"BEST_WORKERS_LIMIT"`
	SubmitRateLimitPerMinute int    `mapstructure:"SUBMIT_RATE_LIMIT_PER_MINUTE"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("NOTIFICATION_EXCHANGE", "worknest.events")
	viper.SetDefault("NOTIFICATION_SWEEP_SECONDS", 5)
	viper.SetDefault("GATEWAY_CURRENCY", "usd")
	viper.SetDefault("ALLOWED_ORIGINS", "*")
	viper.SetDefault("ALLOW_RESUBMISSION", false)
	viper.SetDefault("WORKER_STARTING_COINS", 10)
	viper.SetDefault("BUYER_STARTING_COINS", 50)
	viper.SetDefault("BEST_WORKERS_LIMIT", 6)
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "worknest:rate_limit")
	viper.SetDefault("SUBMIT_RATE_LIMIT_PER_MINUTE", 30)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL", "REDIS_URL", "WORKNEST_REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("NOTIFICATION_EXCHANGE")
	_ = viper.BindEnv("NOTIFICATION_SWEEP_SECONDS")
	_ = viper.BindEnv("GATEWAY_API_BASE_URL")
	_ = viper.BindEnv("GATEWAY_API_KEY")
	_ = viper.BindEnv("GATEWAY_CURRENCY")
	_ = viper.BindEnv("JWKS_URL")
	_ = viper.BindEnv("ALLOWED_ORIGINS")
	_ = viper.BindEnv("ALLOW_RESUBMISSION")
	_ = viper.BindEnv("WORKER_STARTING_COINS")
	_ = viper.BindEnv("BUYER_STARTING_COINS")
	_ = viper.BindEnv("BEST_WORKERS_LIMIT")
	_ = viper.BindEnv("SUBMIT_RATE_LIMIT_PER_MINUTE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "worknest:rate_limit"
	}
	config.NotificationExchange = strings.TrimSpace(config.NotificationExchange)
	if config.NotificationExchange == "" {
		config.NotificationExchange = "worknest.events"
	}

	if config.WorkerStartingCoins < 0 {
		log.Printf("level=warn component=config msg=\"negative worker starting coins configured; coercing to zero\" coins=%d", config.WorkerStartingCoins)
		config.WorkerStartingCoins = 0
	}
	if config.BuyerStartingCoins < 0 {
		log.Printf("level=warn component=config msg=\"negative buyer starting coins configured; coercing to zero\" coins=%d", config.BuyerStartingCoins)
		config.BuyerStartingCoins = 0
	}
	if config.BestWorkersLimit <= 0 {
		config.BestWorkersLimit = 6
	}
	if config.NotificationSweepSeconds <= 0 {
		config.NotificationSweepSeconds = 5
	}
	if config.SubmitRateLimitPerMinute < 0 {
		config.SubmitRateLimitPerMinute = 0
	}

	return
}

// Origins splits the configured comma-separated origin list.
func (c Config) Origins() []string {
	parts := strings.Split(c.AllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		out = []string{"*"}
	}
	return out
}
