package dto

// LeadEvent is the payload published to lead.scraped by the scraper.
// Email is the identity key for a lead across the whole pipeline; events are
// immutable once published and corrections arrive as new events for the same
// email.
type LeadEvent struct {
	Email      string         `json:"email"`
	Company    *string        `json:"company"`
	Source     string         `json:"source"`
	Attributes map[string]any `json:"attributes"`
}

// CrmUpserted is the payload published to crm.upserted after a best-effort
// reconciliation against every configured CRM provider. A nil provider id
// means that provider's upsert failed; consumers must treat missing ids as a
// valid state, not an error.
type CrmUpserted struct {
	Email            string         `json:"email"`
	SalesforceLeadID *string        `json:"salesforce_lead_id"`
	HubspotContactID *string        `json:"hubspot_contact_id"`
	Attributes       map[string]any `json:"attributes"`
}

// MarketingEvent is the payload published to marketing.event. Info carries the
// originating CrmUpserted for traceability.
type MarketingEvent struct {
	Email    string         `json:"email"`
	Campaign string         `json:"campaign"`
	Variant  string         `json:"variant"`
	Info     map[string]any `json:"info"`
}
