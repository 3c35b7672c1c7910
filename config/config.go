package config

import (
	"github.com/plutushq/leadstream/internal/logger"
	"github.com/plutushq/leadstream/internal/tracing"
)

type Config struct {
	AppConfig        *AppConfig
	KafkaConfig      *KafkaConfig
	SalesforceConfig *SalesforceConfig
	HubSpotConfig    *HubSpotConfig
	ScraperConfig    *ScraperConfig
	Logger           *logger.Config
	Tracing          *tracing.JaegerConfig
}

type AppConfig struct {
	Env             string `env:"ENV" envDefault:"dev"`
	DefaultCampaign string `env:"DEFAULT_CAMPAIGN" envDefault:"default"`
}

type KafkaConfig struct {
	Bootstrap []string `env:"KAFKA_BOOTSTRAP" envDefault:"localhost:19092" envSeparator:","`
	ClientID  string   `env:"KAFKA_CLIENT_ID" envDefault:"plutus-crm-mkt"`
}

type SalesforceConfig struct {
	BaseURL       string `env:"SF_BASE_URL"`
	ClientID      string `env:"SF_CLIENT_ID"`
	ClientSecret  string `env:"SF_CLIENT_SECRET"`
	Username      string `env:"SF_USERNAME"`
	Password      string `env:"SF_PASSWORD"`
	SecurityToken string `env:"SF_SECURITY_TOKEN"`
	APIVersion    string `env:"SF_API_VERSION" envDefault:"v60.0"`
}

type HubSpotConfig struct {
	BaseURL     string `env:"HS_BASE_URL" envDefault:"https://api.hubapi.com"`
	AccessToken string `env:"HS_ACCESS_TOKEN"`
}

type ScraperConfig struct {
	SourcesFile  string `env:"SOURCES_YAML" envDefault:"configs/sources.yaml"`
	UserAgent    string `env:"SCRAPER_USER_AGENT" envDefault:"PlutusBot/1.0"`
	CronSchedule string `env:"CRON_SCHEDULE_SCRAPER"`
}
