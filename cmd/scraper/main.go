package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/opentracing/opentracing-go"

	"github.com/plutushq/leadstream/config"
	"github.com/plutushq/leadstream/internal/cron"
	"github.com/plutushq/leadstream/internal/logger"
	"github.com/plutushq/leadstream/internal/tracing"
	"github.com/plutushq/leadstream/services/events"
	"github.com/plutushq/leadstream/services/scraper"
)

func main() {
	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Config initialization failed: %v", err)
	}

	appLogger := logger.NewAppLogger(cfg.Logger)
	appLogger.InitLogger()

	tracer, closer, err := tracing.NewJaegerTracer(cfg.Tracing, appLogger)
	if err != nil {
		appLogger.Fatalf("Could not initialize jaeger tracer: %v", err)
	}
	defer closer.Close()
	opentracing.SetGlobalTracer(tracer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	publisher, err := events.NewKafkaPublisher(events.PublisherConfig{
		Brokers:  cfg.KafkaConfig.Bootstrap,
		ClientID: cfg.KafkaConfig.ClientID,
	}, appLogger)
	if err != nil {
		appLogger.Fatalf("Publisher initialization failed: %v", err)
	}
	defer publisher.Close()

	scraperService := scraper.NewScraperService(cfg.ScraperConfig, publisher, appLogger)

	// Without a schedule the scraper performs a single ingestion pass and
	// exits; with one it keeps running until signalled.
	if cfg.ScraperConfig.CronSchedule == "" {
		appLogger.Info("Scraper starting single ingestion pass...")
		if err := scraperService.RunPass(ctx); err != nil {
			appLogger.Fatalf("Ingestion pass failed: %v", err)
		}
		appLogger.Info("Ingestion pass complete")
		return
	}

	cronManager := cron.NewCronManager(appLogger)
	err = cronManager.AddJob(cron.GroupScraper, "ingestion_pass", cfg.ScraperConfig.CronSchedule, func() {
		if err := scraperService.RunPass(context.Background()); err != nil {
			appLogger.Errorf("Scheduled ingestion pass failed: %v", err)
		}
	})
	if err != nil {
		appLogger.Fatalf("Could not schedule ingestion pass: %v", err)
	}

	appLogger.Info("Scraper starting up...")
	cronManager.Start()
	<-ctx.Done()
	cronManager.Stop()
	appLogger.Info("Shutdown complete")
}
