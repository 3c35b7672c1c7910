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
	"github.com/plutushq/leadstream/interfaces"
	"github.com/plutushq/leadstream/internal/logger"
	"github.com/plutushq/leadstream/internal/tracing"
	"github.com/plutushq/leadstream/services/crm"
	"github.com/plutushq/leadstream/services/crmsync"
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

	providers := []interfaces.CRMProvider{
		crm.NewSalesforceProvider(cfg.SalesforceConfig, appLogger),
		crm.NewHubSpotProvider(cfg.HubSpotConfig, appLogger),
	}
	listener := crmsync.NewCrmSyncListener(providers, publisher, appLogger)

	consumer, err := events.NewKafkaConsumer(events.ConsumerConfig{
		Brokers:  cfg.KafkaConfig.Bootstrap,
		ClientID: cfg.KafkaConfig.ClientID,
	}, listener, publisher, appLogger)
	if err != nil {
		appLogger.Fatalf("Consumer initialization failed: %v", err)
	}
	defer consumer.Close()

	appLogger.Info("CRM sync starting up...")
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Fatalf("Consumer loop failed: %v", err)
	}
	appLogger.Info("Shutdown complete")
}
