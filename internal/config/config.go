/**
 * @description
 * Configuration management for the dunning service.
 */
package config

import (
	"errors"
	"os"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	ServerPort                string `mapstructure:"SERVER_PORT"`
	DatabaseURL               string `mapstructure:"DATABASE_URL"`
	RabbitMQURL               string `mapstructure:"RABBITMQ_URL"`
	NotificationGatewayURL    string `mapstructure:"NOTIFICATION_GATEWAY_URL"`
	NotificationGatewayAPIKey string `mapstructure:"NOTIFICATION_GATEWAY_API_KEY"`
	InternalAPIKey            string `mapstructure:"INTERNAL_API_KEY"`
	AdminJWKSURL              string `mapstructure:"ADMIN_JWKS_URL"`
	DunningCron               string `mapstructure:"DUNNING_CRON"`
	PrepaidLookaheadDays      int    `mapstructure:"PREPAID_LOOKAHEAD_DAYS"`
	BusinessTimezone          string `mapstructure:"BUSINESS_TIMEZONE"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("SERVER_PORT", "8080")
	// 1 AM daily, after the nightly billing close.
	viper.SetDefault("DUNNING_CRON", "0 1 * * *")
	viper.SetDefault("PREPAID_LOOKAHEAD_DAYS", 10)
	viper.SetDefault("BUSINESS_TIMEZONE", "UTC")
	viper.AutomaticEnv()

	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("NOTIFICATION_GATEWAY_URL")
	_ = viper.BindEnv("NOTIFICATION_GATEWAY_API_KEY")
	_ = viper.BindEnv("INTERNAL_API_KEY")
	_ = viper.BindEnv("ADMIN_JWKS_URL")
	_ = viper.BindEnv("DUNNING_CRON")
	_ = viper.BindEnv("PREPAID_LOOKAHEAD_DAYS")
	_ = viper.BindEnv("BUSINESS_TIMEZONE")

	if err = viper.Unmarshal(&config); err != nil {
		return
	}
	if port := os.Getenv("PORT"); port != "" {
		config.ServerPort = port
	}
	if config.DatabaseURL == "" {
		err = errors.New("DATABASE_URL is required")
	}
	return
}
