package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/plutushq/leadstream/config"
	"github.com/plutushq/leadstream/interfaces"
	"github.com/plutushq/leadstream/internal/logger"
	"github.com/plutushq/leadstream/internal/rest"
	"github.com/plutushq/leadstream/internal/tracing"
)

type hubspotProvider struct {
	cfg    *config.HubSpotConfig
	client *rest.Client
	logger logger.Logger
}

func NewHubSpotProvider(cfg *config.HubSpotConfig, log logger.Logger) interfaces.CRMProvider {
	return &hubspotProvider{
		cfg:    cfg,
		client: rest.NewClient(rest.DefaultTimeout),
		logger: log,
	}
}

func (h *hubspotProvider) Name() string {
	return ProviderHubSpot
}

func (h *hubspotProvider) UpsertLead(ctx context.Context, email string, company *string, attributes map[string]any) (*interfaces.UpsertResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "HubSpotProvider.UpsertLead")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(span)
	span.LogKV("email", email)

	body := map[string]any{
		"properties": map[string]string{
			"email":         email,
			"company":       companyName(company, attributes, ""),
			"plutus_source": stringAttr(attributes, "source", "webscrape"),
		},
	}

	var created struct {
		ID string `json:"id"`
	}
	err := h.client.DoJSON(ctx, rest.Request{
		Method:  http.MethodPost,
		URL:     h.cfg.BaseURL + "/crm/v3/objects/contacts",
		Headers: h.headers(),
		Body:    body,
	}, &created)
	if err == nil {
		span.LogKV("result.created", created.ID)
		return &interfaces.UpsertResult{ProviderID: created.ID, Created: true}, nil
	}

	// 409 means a contact with this email already exists: look it up and
	// patch it so the second upsert for an email reports updated.
	if !rest.IsStatus(err, http.StatusConflict) {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "create hubspot contact")
	}

	contactID, err := h.searchContactByEmail(ctx, email)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if contactID == "" {
		err = errors.New("hubspot reported a conflict but no contact matched the email")
		tracing.TraceErr(span, err)
		return nil, err
	}

	err = h.client.DoJSON(ctx, rest.Request{
		Method:  http.MethodPatch,
		URL:     h.cfg.BaseURL + "/crm/v3/objects/contacts/" + contactID,
		Headers: h.headers(),
		Body:    body,
	}, nil)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "update hubspot contact")
	}
	span.LogKV("result.updated", contactID)
	return &interfaces.UpsertResult{ProviderID: contactID, Created: false}, nil
}

func (h *hubspotProvider) AddTimelineEvent(ctx context.Context, email string, text string, properties map[string]any) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "HubSpotProvider.AddTimelineEvent")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(span)
	span.LogKV("email", email)

	contactID, err := h.searchContactByEmail(ctx, email)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	if contactID == "" {
		// No contact to annotate.
		return nil
	}

	propertiesJSON, err := json.Marshal(properties)
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "marshal note properties")
	}

	note := map[string]any{
		"properties": map[string]string{
			"hs_note_body": fmt.Sprintf("%s: %s", text, truncate(string(propertiesJSON), 3000)),
		},
	}
	var createdNote struct {
		ID string `json:"id"`
	}
	err = h.client.DoJSON(ctx, rest.Request{
		Method:  http.MethodPost,
		URL:     h.cfg.BaseURL + "/crm/v3/objects/notes",
		Headers: h.headers(),
		Body:    note,
	}, &createdNote)
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "create hubspot note")
	}

	err = h.client.DoJSON(ctx, rest.Request{
		Method: http.MethodPut,
		URL: fmt.Sprintf("%s/crm/v4/objects/notes/%s/associations/contacts/%s/note_to_contact",
			h.cfg.BaseURL, createdNote.ID, contactID),
		Headers: h.headers(),
	}, nil)
	if err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "associate hubspot note")
	}
	return nil
}

func (h *hubspotProvider) searchContactByEmail(ctx context.Context, email string) (string, error) {
	search := map[string]any{
		"filterGroups": []map[string]any{
			{
				"filters": []map[string]string{
					{"propertyName": "email", "operator": "EQ", "value": email},
				},
			},
		},
	}

	var result struct {
		Results []struct {
			ID string `json:"id"`
		} `json:"results"`
	}
	err := h.client.DoJSON(ctx, rest.Request{
		Method:  http.MethodPost,
		URL:     h.cfg.BaseURL + "/crm/v3/objects/contacts/search",
		Headers: h.headers(),
		Body:    search,
	}, &result)
	if err != nil {
		return "", errors.Wrap(err, "hubspot contact search")
	}
	if len(result.Results) == 0 {
		return "", nil
	}
	return result.Results[0].ID, nil
}

func (h *hubspotProvider) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + h.cfg.AccessToken}
}
