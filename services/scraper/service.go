package scraper

import (
	"context"
	"os"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/plutushq/leadstream/config"
	"github.com/plutushq/leadstream/interfaces"
	"github.com/plutushq/leadstream/internal/logger"
	"github.com/plutushq/leadstream/internal/tracing"
	"github.com/plutushq/leadstream/services/events"
	"github.com/plutushq/leadstream/services/scraper/sources"
)

// SourceDefinitions is the on-disk shape of the sources file.
type SourceDefinitions struct {
	BusinessDirectories []sources.DirectoryConfig    `yaml:"business_directories"`
	GovContracts        []sources.GovContractsConfig `yaml:"gov_contracts"`
}

// ScraperService drives the configured lead sources and publishes every
// discovered lead to lead.scraped.
type ScraperService struct {
	cfg       *config.ScraperConfig
	publisher interfaces.EventPublisher
	logger    logger.Logger
}

func NewScraperService(cfg *config.ScraperConfig, publisher interfaces.EventPublisher, log logger.Logger) *ScraperService {
	return &ScraperService{
		cfg:       cfg,
		publisher: publisher,
		logger:    log,
	}
}

// LoadSources reads the source-definition file and builds one adapter per
// entry. Adding a source kind means adding an adapter, not touching the
// pipeline.
func (s *ScraperService) LoadSources() ([]interfaces.LeadSource, error) {
	raw, err := os.ReadFile(s.cfg.SourcesFile)
	if err != nil {
		return nil, errors.Wrapf(err, "read sources file %s", s.cfg.SourcesFile)
	}

	var definitions SourceDefinitions
	if err := yaml.Unmarshal(raw, &definitions); err != nil {
		return nil, errors.Wrapf(err, "parse sources file %s", s.cfg.SourcesFile)
	}

	var leadSources []interfaces.LeadSource
	for _, directoryCfg := range definitions.BusinessDirectories {
		leadSources = append(leadSources, sources.NewDirectorySource(directoryCfg, s.cfg.UserAgent, s.logger))
	}
	for _, govCfg := range definitions.GovContracts {
		leadSources = append(leadSources, sources.NewGovContractsSource(govCfg, s.cfg.UserAgent, s.logger))
	}
	return leadSources, nil
}

// RunPass executes one ingestion pass over every configured source. A failing
// source is logged and skipped; the pass itself fails only when the source
// definitions cannot be loaded.
func (s *ScraperService) RunPass(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ScraperService.RunPass")
	defer span.Finish()
	span.SetTag(tracing.SpanTagComponent, tracing.SpanTagComponentCronJob)

	leadSources, err := s.LoadSources()
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	published := 0
	for _, source := range leadSources {
		leads, err := source.Fetch(ctx)
		if err != nil {
			s.logger.Errorf("source %s failed: %v", source.Name(), err)
			tracing.TraceErr(span, err)
			continue
		}

		for _, lead := range leads {
			if err := s.publisher.Publish(ctx, events.TopicLeadScraped, lead); err != nil {
				s.logger.Errorf("publish failed for lead %s from %s: %v", lead.Email, source.Name(), err)
				tracing.TraceErr(span, err)
				continue
			}
			published++
		}
	}

	s.logger.Infof("ingestion pass complete, published %d leads from %d sources", published, len(leadSources))
	span.LogKV("result.published", published)
	return nil
}
