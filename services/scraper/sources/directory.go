package sources

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"

	"github.com/plutushq/leadstream/dto"
	"github.com/plutushq/leadstream/interfaces"
	"github.com/plutushq/leadstream/internal/logger"
	"github.com/plutushq/leadstream/internal/utils"
)

const SourceBusinessDirectory = "business_directory"

type SelectorConfig struct {
	Row     string `yaml:"row"`
	Company string `yaml:"company"`
	Email   string `yaml:"email"`
}

type DirectoryConfig struct {
	Name       string          `yaml:"name"`
	URL        string          `yaml:"url"`
	ThrottleMs int             `yaml:"throttle_ms"`
	Selectors  *SelectorConfig `yaml:"css_selectors"`
}

// directorySource scrapes a simple HTML listing page using CSS selectors.
// Use only on sites that permit crawling.
type directorySource struct {
	cfg       DirectoryConfig
	client    *http.Client
	userAgent string
	logger    logger.Logger
}

func NewDirectorySource(cfg DirectoryConfig, userAgent string, log logger.Logger) interfaces.LeadSource {
	return &directorySource{
		cfg:       cfg,
		client:    &http.Client{Timeout: 20 * time.Second},
		userAgent: userAgent,
		logger:    log,
	}
}

func (d *directorySource) Name() string {
	return d.cfg.Name
}

func (d *directorySource) Fetch(ctx context.Context) ([]dto.LeadEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.cfg.URL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build directory request")
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch directory %s", d.cfg.URL)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, errors.Errorf("directory %s returned status %d", d.cfg.URL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "parse directory page")
	}

	var leads []dto.LeadEvent
	if d.cfg.Selectors != nil {
		doc.Find(d.cfg.Selectors.Row).Each(func(_ int, row *goquery.Selection) {
			email := ""
			if href, ok := row.Find(d.cfg.Selectors.Email).First().Attr("href"); ok {
				email = strings.TrimPrefix(href, "mailto:")
			}
			if email == "" {
				return
			}
			email, err := utils.ValidateEmailAddress(email)
			if err != nil {
				d.logger.Debugf("skipping %s row with invalid email", d.cfg.Name)
				return
			}

			var company *string
			if name := strings.TrimSpace(row.Find(d.cfg.Selectors.Company).First().Text()); name != "" {
				company = &name
			}

			leads = append(leads, dto.LeadEvent{
				Email:      email,
				Company:    company,
				Source:     SourceBusinessDirectory,
				Attributes: map[string]any{"directory": d.cfg.Name},
			})
		})
	}

	// Politeness throttle between page fetches.
	if d.cfg.ThrottleMs > 0 {
		select {
		case <-time.After(time.Duration(d.cfg.ThrottleMs) * time.Millisecond):
		case <-ctx.Done():
			return leads, ctx.Err()
		}
	}

	d.logger.Infof("scraped %d leads from %s", len(leads), d.cfg.URL)
	return leads, nil
}
