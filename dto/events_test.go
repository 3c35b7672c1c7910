package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadEvent_RoundTrip(t *testing.T) {
	company := "Acme"
	original := LeadEvent{
		Email:      "a@x.com",
		Company:    &company,
		Source:     "business_directory",
		Attributes: map[string]any{"directory": "acme-directory"},
	}

	encoded, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded LeadEvent
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, original, decoded)
}

func TestLeadEvent_RoundTripEmptyAttributes(t *testing.T) {
	original := LeadEvent{
		Email:      "a@x.com",
		Source:     "gov_award",
		Attributes: map[string]any{},
	}

	encoded, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded LeadEvent
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, original, decoded)
	assert.NotNil(t, decoded.Attributes)
	assert.Nil(t, decoded.Company)
}

func TestCrmUpserted_RoundTrip(t *testing.T) {
	salesforceID := "00Q1"
	original := CrmUpserted{
		Email:            "a@x.com",
		SalesforceLeadID: &salesforceID,
		Attributes:       map[string]any{"source": "business_directory"},
	}

	encoded, err := json.Marshal(original)
	require.NoError(t, err)
	// A failed provider is serialized as an explicit null, not omitted.
	assert.Contains(t, string(encoded), `"hubspot_contact_id":null`)

	var decoded CrmUpserted
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, original, decoded)
}

func TestMarketingEvent_RoundTrip(t *testing.T) {
	original := MarketingEvent{
		Email:    "a@x.com",
		Campaign: "default",
		Variant:  "A",
		Info:     map[string]any{"crm": map[string]any{"email": "a@x.com"}},
	}

	encoded, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded MarketingEvent
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, original, decoded)
}
