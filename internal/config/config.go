package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	AppName  string `mapstructure:"APP_NAME"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// PostgreSQL configuration
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     int    `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSL_MODE"`

	// RabbitMQ configuration. Publishing is optional; an empty URL
	// disables the event bus entirely.
	RabbitMQURL      string `mapstructure:"RABBITMQ_URL"`
	ExchangeName     string `mapstructure:"EXCHANGE_NAME"`
	ExchangeType     string `mapstructure:"EXCHANGE_TYPE"`
	CountRoutingKey  string `mapstructure:"COUNT_ROUTING_KEY"`
	AvailRoutingKey  string `mapstructure:"AVAILABILITY_ROUTING_KEY"`
	PublishesEnabled bool   `mapstructure:"PUBLISHES_ENABLED"`
}

// DatabaseDSN assembles the pgx connection string from the DB_* fields.
func (c Config) DatabaseDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("app")
	viper.SetConfigType("env")

	viper.AutomaticEnv()

	viper.SetDefault("APP_NAME", "hagrid")
	viper.SetDefault("LOG_LEVEL", "info")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", 5432)
	viper.SetDefault("DB_USER", "hagrid")
	viper.SetDefault("DB_PASSWORD", "hagrid")
	viper.SetDefault("DB_NAME", "hagrid")
	viper.SetDefault("DB_SSL_MODE", "disable")

	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("EXCHANGE_NAME", "events.counting")
	viper.SetDefault("EXCHANGE_TYPE", "topic")
	viper.SetDefault("COUNT_ROUTING_KEY", "counting.count.recorded")
	viper.SetDefault("AVAILABILITY_ROUTING_KEY", "counting.availability.changed")
	viper.SetDefault("PUBLISHES_ENABLED", false)

	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Info().Msg("No config file found, using environment variables and defaults.")
			err = nil
		} else {
			log.Error().Err(err).Msg("Error reading config file")
			return
		}
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	err = viper.Unmarshal(&config)
	return
}
