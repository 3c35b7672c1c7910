package crmsync

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/plutushq/leadstream/dto"
	"github.com/plutushq/leadstream/interfaces"
	"github.com/plutushq/leadstream/internal/logger"
	"github.com/plutushq/leadstream/internal/tracing"
	"github.com/plutushq/leadstream/internal/utils"
	"github.com/plutushq/leadstream/services/crm"
	"github.com/plutushq/leadstream/services/events"
)

const DefaultProviderTimeout = 15 * time.Second

// CrmSyncListener reconciles scraped leads into every configured CRM.
// Provider failures are partial by design: a lead that fails against every
// provider still produces a CrmUpserted event with no ids set, and the source
// message is still committed, so a provider outage never blocks the pipeline.
type CrmSyncListener struct {
	events.BaseEventListener
	providers       []interfaces.CRMProvider
	publisher       interfaces.EventPublisher
	logger          logger.Logger
	providerTimeout time.Duration
}

func NewCrmSyncListener(providers []interfaces.CRMProvider, publisher interfaces.EventPublisher, log logger.Logger) interfaces.EventListener {
	return &CrmSyncListener{
		BaseEventListener: events.NewBaseEventListener(events.TopicLeadScraped, events.GroupCrmSync),
		providers:         providers,
		publisher:         publisher,
		logger:            log,
		providerTimeout:   DefaultProviderTimeout,
	}
}

func (l *CrmSyncListener) Handle(ctx context.Context, msg dto.Message) error {
	ctx, span := tracing.StartKafkaMessageTracerSpanWithHeader(ctx, "CrmSyncListener.Handle", msg.Headers[events.HeaderUberTraceID])
	defer span.Finish()
	tracing.SetDefaultListenerSpanTags(span)
	tracing.TagTopic(span, msg.Topic)

	lead, err := events.DecodeMessage[dto.LeadEvent](msg)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	// A malformed address is a handler failure, not data to forward: the
	// record retries and ends in the dead-letter topic, never in a CRM.
	email, err := utils.ValidateEmailAddress(lead.Email)
	if err != nil {
		err = errors.Wrapf(err, "lead %q", lead.Email)
		tracing.TraceErr(span, err)
		return err
	}
	lead.Email = email
	span.LogKV("email", lead.Email)

	attributes := make(map[string]any, len(lead.Attributes)+1)
	for key, value := range lead.Attributes {
		attributes[key] = value
	}
	attributes["source"] = lead.Source

	// Providers are attempted concurrently and independently, each under its
	// own timeout; one failing never cancels the others.
	results := make([]*interfaces.UpsertResult, len(l.providers))
	var wg sync.WaitGroup
	for i, provider := range l.providers {
		wg.Add(1)
		go func(i int, provider interfaces.CRMProvider) {
			defer wg.Done()
			defer tracing.RecoverAndLog(l.logger)
			callCtx, cancel := context.WithTimeout(ctx, l.providerTimeout)
			defer cancel()

			result, err := provider.UpsertLead(callCtx, lead.Email, lead.Company, attributes)
			if err != nil {
				l.logger.Warnf("%s upsert failed for %s: %v", provider.Name(), lead.Email, err)
				return
			}
			results[i] = result
		}(i, provider)
	}
	wg.Wait()

	upserted := dto.CrmUpserted{
		Email:      lead.Email,
		Attributes: attributes,
	}
	for i, provider := range l.providers {
		if results[i] == nil {
			continue
		}
		providerID := results[i].ProviderID
		switch provider.Name() {
		case crm.ProviderSalesforce:
			upserted.SalesforceLeadID = &providerID
		case crm.ProviderHubSpot:
			upserted.HubspotContactID = &providerID
		}
	}
	tracing.LogObjectAsJson(span, "crmUpserted", upserted)

	// A failed publish fails the handler so the source offset stays
	// uncommitted and the lead is redelivered.
	if err := l.publisher.Publish(ctx, events.TopicCrmUpserted, upserted); err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}
