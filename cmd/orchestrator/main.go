package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/plutushq/leadstream/config"
	"github.com/plutushq/leadstream/internal/logger"
	"github.com/plutushq/leadstream/internal/tracing"
	"github.com/plutushq/leadstream/services/campaign"
	"github.com/plutushq/leadstream/services/crm"
	"github.com/plutushq/leadstream/services/events"
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

	// Timeline enrichment goes to HubSpot; it is best-effort and never
	// blocks enrollment.
	timelineCRM := crm.NewHubSpotProvider(cfg.HubSpotConfig, appLogger)
	listener := campaign.NewOrchestratorListener(publisher, timelineCRM, cfg.AppConfig.DefaultCampaign, appLogger)

	consumer, err := events.NewKafkaConsumer(events.ConsumerConfig{
		Brokers:  cfg.KafkaConfig.Bootstrap,
		ClientID: cfg.KafkaConfig.ClientID,
	}, listener, publisher, appLogger)
	if err != nil {
		appLogger.Fatalf("Consumer initialization failed: %v", err)
	}
	defer consumer.Close()

	appLogger.Info("Marketing orchestrator starting up...")
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Fatalf("Consumer loop failed: %v", err)
	}
	appLogger.Info("Shutdown complete")
}
