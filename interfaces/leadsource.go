package interfaces

import (
	"context"

	"github.com/plutushq/leadstream/dto"
)

// LeadSource produces zero or more lead records from one ingestion origin.
type LeadSource interface {
	Name() string
	Fetch(ctx context.Context) ([]dto.LeadEvent, error)
}
