package events

import "time"

const (
	// Topics
	TopicLeadScraped    = "lead.scraped"
	TopicCrmUpserted    = "crm.upserted"
	TopicMarketingEvent = "marketing.event"

	// Consumer groups
	GroupCrmSync         = "crm-sync"
	GroupMktOrchestrator = "mkt-orchestrator"

	// Dead-letter topics are the source topic plus this suffix.
	DeadLetterSuffix = ".dlq"

	// Record headers
	HeaderCorrelationID = "correlation-id"
	HeaderEventType     = "event-type"
	HeaderPublishedAt   = "published-at"
	HeaderUberTraceID   = "uber-trace-id"
	HeaderOriginalTopic = "original-topic"
	HeaderErrorMessage  = "error-message"
	HeaderRetryCount    = "retry-count"
	HeaderFailedAt      = "failed-at"

	// Default configurations
	DefaultPublishTimeout    = 5 * time.Second
	DefaultMaxHandlerRetries = 3
	DefaultRetryBackoffMin   = 500 * time.Millisecond
	DefaultRetryBackoffMax   = 10 * time.Second
	DefaultStartupTimeout    = 10 * time.Second
)

func DeadLetterTopic(topic string) string {
	return topic + DeadLetterSuffix
}
