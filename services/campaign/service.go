package campaign

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/plutushq/leadstream/dto"
	"github.com/plutushq/leadstream/interfaces"
	"github.com/plutushq/leadstream/internal/logger"
	"github.com/plutushq/leadstream/internal/tracing"
	"github.com/plutushq/leadstream/internal/utils"
	"github.com/plutushq/leadstream/services/events"
)

const DefaultTimelineTimeout = 10 * time.Second

// OrchestratorListener enrolls reconciled leads into the active experiment.
// The marketing event is pipeline-critical; the CRM timeline note is
// observability only and its failure never fails the handler.
type OrchestratorListener struct {
	events.BaseEventListener
	publisher       interfaces.EventPublisher
	timelineCRM     interfaces.CRMProvider
	logger          logger.Logger
	campaignName    string
	arms            []string
	timelineTimeout time.Duration
}

func NewOrchestratorListener(publisher interfaces.EventPublisher, timelineCRM interfaces.CRMProvider, campaignName string, log logger.Logger) interfaces.EventListener {
	return &OrchestratorListener{
		BaseEventListener: events.NewBaseEventListener(events.TopicCrmUpserted, events.GroupMktOrchestrator),
		publisher:         publisher,
		timelineCRM:       timelineCRM,
		logger:            log,
		campaignName:      campaignName,
		arms:              DefaultArms,
		timelineTimeout:   DefaultTimelineTimeout,
	}
}

func (l *OrchestratorListener) Handle(ctx context.Context, msg dto.Message) error {
	ctx, span := tracing.StartKafkaMessageTracerSpanWithHeader(ctx, "OrchestratorListener.Handle", msg.Headers[events.HeaderUberTraceID])
	defer span.Finish()
	tracing.SetDefaultListenerSpanTags(span)
	tracing.TagTopic(span, msg.Topic)

	upserted, err := events.DecodeMessage[dto.CrmUpserted](msg)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	email, err := utils.ValidateEmailAddress(upserted.Email)
	if err != nil {
		err = errors.Wrapf(err, "crm upserted %q", upserted.Email)
		tracing.TraceErr(span, err)
		return err
	}
	upserted.Email = email

	variant := AssignVariant(l.campaignName, upserted.Email, l.arms)
	l.logger.Infof("assigning variant %s to %s for campaign %s", variant, upserted.Email, l.campaignName)
	span.LogKV("email", upserted.Email, "variant", variant)

	// Carry the originating payload for downstream traceability.
	var origin map[string]any
	if err := json.Unmarshal(msg.Value, &origin); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "decode crm upserted payload")
	}

	marketingEvent := dto.MarketingEvent{
		Email:    upserted.Email,
		Campaign: l.campaignName,
		Variant:  variant,
		Info:     map[string]any{"crm": origin},
	}
	if err := l.publisher.Publish(ctx, events.TopicMarketingEvent, marketingEvent); err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	// Best-effort timeline enrichment; failures are logged and swallowed.
	if l.timelineCRM != nil {
		timelineCtx, cancel := context.WithTimeout(ctx, l.timelineTimeout)
		defer cancel()
		err := l.timelineCRM.AddTimelineEvent(timelineCtx, upserted.Email,
			"Enrolled in "+l.campaignName, map[string]any{"variant": variant})
		if err != nil {
			l.logger.Warnf("timeline annotation failed for %s: %v", upserted.Email, err)
			tracing.TraceErr(span, err)
		}
	}
	return nil
}
