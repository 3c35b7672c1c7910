package interfaces

import "context"

// UpsertResult reports which branch an idempotent upsert took and the
// provider-assigned record id.
type UpsertResult struct {
	ProviderID string
	Created    bool
}

// CRMProvider is the capability set a CRM integration must offer. Upserts are
// idempotent by email: an existing record is updated, otherwise one is
// created. AddTimelineEvent treats a missing record as a silent no-op.
type CRMProvider interface {
	Name() string
	UpsertLead(ctx context.Context, email string, company *string, attributes map[string]any) (*UpsertResult, error)
	AddTimelineEvent(ctx context.Context, email string, text string, properties map[string]any) error
}
