package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/plutushq/leadstream/internal/logger"
	"github.com/plutushq/leadstream/internal/tracing"
)

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:        &AppConfig{},
		KafkaConfig:      &KafkaConfig{},
		SalesforceConfig: &SalesforceConfig{},
		HubSpotConfig:    &HubSpotConfig{},
		ScraperConfig:    &ScraperConfig{},
		Logger:           &logger.Config{},
		Tracing:          &tracing.JaegerConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		return nil, err
	}

	return config, nil
}
