package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/plutushq/leadstream/config"
	"github.com/plutushq/leadstream/interfaces"
	"github.com/plutushq/leadstream/internal/logger"
	"github.com/plutushq/leadstream/internal/rest"
	"github.com/plutushq/leadstream/internal/tracing"
)

// Password-grant tokens carry no expires_in, so the holder refreshes on a
// fixed interval well inside the org session timeout.
const salesforceTokenTTL = 30 * time.Minute

type salesforceProvider struct {
	cfg    *config.SalesforceConfig
	client *rest.Client
	logger logger.Logger

	// Token holder is scoped to this client instance, refreshed before use
	// once expired.
	tokenMutex  sync.Mutex
	accessToken string
	instanceURL string
	tokenExpiry time.Time
}

func NewSalesforceProvider(cfg *config.SalesforceConfig, log logger.Logger) interfaces.CRMProvider {
	return &salesforceProvider{
		cfg:    cfg,
		client: rest.NewClient(rest.DefaultTimeout),
		logger: log,
	}
}

func (s *salesforceProvider) Name() string {
	return ProviderSalesforce
}

func (s *salesforceProvider) UpsertLead(ctx context.Context, email string, company *string, attributes map[string]any) (*interfaces.UpsertResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SalesforceProvider.UpsertLead")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(span)
	span.LogKV("email", email)

	instance, headers, err := s.authorize(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	leadID, err := s.findLeadByEmail(ctx, instance, headers, email)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	payload := map[string]any{
		"Company":    companyName(company, attributes, "Unknown"),
		"Email":      email,
		"Status":     "Open - Not Contacted",
		"LeadSource": stringAttr(attributes, "source", "Web"),
	}

	if leadID != "" {
		err = s.client.DoJSON(ctx, rest.Request{
			Method:  http.MethodPatch,
			URL:     fmt.Sprintf("%s/services/data/%s/sobjects/Lead/%s", instance, s.cfg.APIVersion, leadID),
			Headers: headers,
			Body:    payload,
		}, nil)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, errors.Wrap(err, "update salesforce lead")
		}
		span.LogKV("result.updated", leadID)
		return &interfaces.UpsertResult{ProviderID: leadID, Created: false}, nil
	}

	var created struct {
		ID string `json:"id"`
	}
	err = s.client.DoJSON(ctx, rest.Request{
		Method:  http.MethodPost,
		URL:     fmt.Sprintf("%s/services/data/%s/sobjects/Lead", instance, s.cfg.APIVersion),
		Headers: headers,
		Body:    payload,
	}, &created)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "create salesforce lead")
	}
	span.LogKV("result.created", created.ID)
	return &interfaces.UpsertResult{ProviderID: created.ID, Created: true}, nil
}

func (s *salesforceProvider) AddTimelineEvent(ctx context.Context, email string, text string, properties map[string]any) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SalesforceProvider.AddTimelineEvent")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(span)
	span.LogKV("email", email)

	instance, headers, err := s.authorize(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	leadID, err := s.findLeadByEmail(ctx, instance, headers, email)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if leadID == "" {
		// No lead to annotate.
		return nil
	}

	description, err := json.Marshal(properties)
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "marshal task description")
	}

	task := map[string]any{
		"Subject":     text,
		"WhoId":       leadID,
		"Description": truncate(string(description), 32000),
	}
	err = s.client.DoJSON(ctx, rest.Request{
		Method:  http.MethodPost,
		URL:     fmt.Sprintf("%s/services/data/%s/sobjects/Task", instance, s.cfg.APIVersion),
		Headers: headers,
		Body:    task,
	}, nil)
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "create salesforce task")
	}
	return nil
}

func (s *salesforceProvider) findLeadByEmail(ctx context.Context, instance string, headers map[string]string, email string) (string, error) {
	soql := fmt.Sprintf("SELECT Id, Email FROM Lead WHERE Email='%s' LIMIT 1", escapeSOQL(email))
	query := url.Values{}
	query.Set("q", soql)

	var result struct {
		Records []struct {
			ID string `json:"Id"`
		} `json:"records"`
	}
	err := s.client.DoJSON(ctx, rest.Request{
		Method:  http.MethodGet,
		URL:     fmt.Sprintf("%s/services/data/%s/query/", instance, s.cfg.APIVersion),
		Query:   query,
		Headers: headers,
	}, &result)
	if err != nil {
		return "", errors.Wrap(err, "salesforce lead lookup")
	}
	if len(result.Records) == 0 {
		return "", nil
	}
	return result.Records[0].ID, nil
}

// authorize returns the instance URL and bearer headers, refreshing the
// cached token when expired.
func (s *salesforceProvider) authorize(ctx context.Context) (string, map[string]string, error) {
	s.tokenMutex.Lock()
	defer s.tokenMutex.Unlock()

	if s.accessToken == "" || !time.Now().Before(s.tokenExpiry) {
		form := url.Values{}
		form.Set("grant_type", "password")
		form.Set("client_id", s.cfg.ClientID)
		form.Set("client_secret", s.cfg.ClientSecret)
		form.Set("username", s.cfg.Username)
		form.Set("password", s.cfg.Password+s.cfg.SecurityToken)

		var token struct {
			AccessToken string `json:"access_token"`
			InstanceURL string `json:"instance_url"`
		}
		err := s.client.DoJSON(ctx, rest.Request{
			Method: http.MethodPost,
			URL:    strings.TrimRight(s.cfg.BaseURL, "/") + "/services/oauth2/token",
			Form:   form,
		}, &token)
		if err != nil {
			return "", nil, errors.Wrap(err, "salesforce oauth token")
		}

		s.accessToken = token.AccessToken
		s.instanceURL = strings.TrimRight(token.InstanceURL, "/")
		s.tokenExpiry = time.Now().Add(salesforceTokenTTL)
	}

	return s.instanceURL, map[string]string{"Authorization": "Bearer " + s.accessToken}, nil
}

func escapeSOQL(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(value, "'", `\'`)
}
