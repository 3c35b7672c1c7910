package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plutushq/leadstream/config"
	"github.com/plutushq/leadstream/dto"
	"github.com/plutushq/leadstream/internal/logger"
	"github.com/plutushq/leadstream/services/events"
)

func testLogger() logger.Logger {
	log := logger.NewAppLogger(&logger.Config{DevMode: true, Encoder: "console"})
	log.InitLogger()
	return log
}

type capturePublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads []any
}

func (p *capturePublisher) Publish(ctx context.Context, topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *capturePublisher) Close() error {
	return nil
}

func writeSourcesFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScraperService_LoadSources(t *testing.T) {
	path := writeSourcesFile(t, `
business_directories:
  - name: acme-directory
    url: https://directory.example.com/companies
    throttle_ms: 500
    css_selectors:
      row: "table.listing tr.company"
      company: "td.name a"
      email: "td.contact a"
gov_contracts:
  - name: sam-gov-awards
    base_url: https://api.sam.gov/opportunities/v2/search
    api_key_env: SAM_API_KEY
    params:
      ptype: award
`)

	service := NewScraperService(&config.ScraperConfig{SourcesFile: path, UserAgent: "PlutusBot/1.0"}, &capturePublisher{}, testLogger())
	leadSources, err := service.LoadSources()
	require.NoError(t, err)
	require.Len(t, leadSources, 2)
	assert.Equal(t, "acme-directory", leadSources[0].Name())
	assert.Equal(t, "sam-gov-awards", leadSources[1].Name())
}

func TestScraperService_LoadSourcesMissingFile(t *testing.T) {
	service := NewScraperService(&config.ScraperConfig{SourcesFile: "does/not/exist.yaml"}, &capturePublisher{}, testLogger())
	_, err := service.LoadSources()
	require.Error(t, err)
}

func TestScraperService_RunPassPublishesLeads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"opportunitiesData": [{"awardee": "Acme Corp", "contactEmail": "bids@acme.com", "noticeId": "N-001"}]}`))
	}))
	defer server.Close()

	path := writeSourcesFile(t, fmt.Sprintf(`
gov_contracts:
  - name: sam-gov-awards
    base_url: %s
`, server.URL))

	publisher := &capturePublisher{}
	service := NewScraperService(&config.ScraperConfig{SourcesFile: path, UserAgent: "PlutusBot/1.0"}, publisher, testLogger())

	require.NoError(t, service.RunPass(context.Background()))

	require.Len(t, publisher.payloads, 1)
	assert.Equal(t, events.TopicLeadScraped, publisher.topics[0])

	lead, ok := publisher.payloads[0].(dto.LeadEvent)
	require.True(t, ok)
	assert.Equal(t, "bids@acme.com", lead.Email)
	assert.Equal(t, "gov_award", lead.Source)
}

func TestScraperService_RunPassFailsWithoutDefinitions(t *testing.T) {
	service := NewScraperService(&config.ScraperConfig{SourcesFile: "does/not/exist.yaml"}, &capturePublisher{}, testLogger())
	require.Error(t, service.RunPass(context.Background()))
}
