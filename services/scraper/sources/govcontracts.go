package sources

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/plutushq/leadstream/dto"
	"github.com/plutushq/leadstream/interfaces"
	"github.com/plutushq/leadstream/internal/logger"
	"github.com/plutushq/leadstream/internal/rest"
	"github.com/plutushq/leadstream/internal/utils"
)

const (
	SourceGovAward      = "gov_award"
	defaultAPIKeyEnvVar = "SAM_API_KEY"
)

type GovContractsConfig struct {
	Name      string            `yaml:"name"`
	BaseURL   string            `yaml:"base_url"`
	Params    map[string]string `yaml:"params"`
	APIKeyEnv string            `yaml:"api_key_env"`
}

// govContractsSource fetches awarded opportunities from an official
// contract-award API (SAM.gov shape). The API key is read from the env var
// named in the source definition.
type govContractsSource struct {
	cfg    GovContractsConfig
	client *rest.Client
	logger logger.Logger
}

func NewGovContractsSource(cfg GovContractsConfig, userAgent string, log logger.Logger) interfaces.LeadSource {
	return &govContractsSource{
		cfg:    cfg,
		client: rest.NewClient(20 * time.Second).WithUserAgent(userAgent),
		logger: log,
	}
}

func (g *govContractsSource) Name() string {
	return g.cfg.Name
}

func (g *govContractsSource) Fetch(ctx context.Context) ([]dto.LeadEvent, error) {
	query := url.Values{}
	for key, value := range g.cfg.Params {
		query.Set(key, value)
	}

	apiKeyEnv := g.cfg.APIKeyEnv
	if apiKeyEnv == "" {
		apiKeyEnv = defaultAPIKeyEnvVar
	}
	if apiKey := os.Getenv(apiKeyEnv); apiKey != "" {
		query.Set("api_key", apiKey)
	}

	var response struct {
		OpportunitiesData []struct {
			Awardee      string `json:"awardee"`
			ContactEmail string `json:"contactEmail"`
			NoticeID     string `json:"noticeId"`
		} `json:"opportunitiesData"`
	}
	err := g.client.DoJSON(ctx, rest.Request{
		Method: http.MethodGet,
		URL:    g.cfg.BaseURL,
		Query:  query,
	}, &response)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch awards from %s", g.cfg.BaseURL)
	}

	var leads []dto.LeadEvent
	for _, item := range response.OpportunitiesData {
		if item.ContactEmail == "" {
			continue
		}
		email, err := utils.ValidateEmailAddress(item.ContactEmail)
		if err != nil {
			g.logger.Debugf("skipping award %s with invalid contact email", item.NoticeID)
			continue
		}
		company := item.Awardee
		if company == "" {
			company = "Unknown Firm"
		}
		leads = append(leads, dto.LeadEvent{
			Email:      email,
			Company:    &company,
			Source:     SourceGovAward,
			Attributes: map[string]any{"noticeId": item.NoticeID},
		})
	}

	g.logger.Infof("fetched %d award leads from %s", len(leads), g.cfg.BaseURL)
	return leads, nil
}
