package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const awardsResponse = `{
  "opportunitiesData": [
    {"awardee": "Acme Corp", "contactEmail": "bids@acme.com", "noticeId": "N-001"},
    {"awardee": "Silent Partner LLC", "contactEmail": "", "noticeId": "N-002"},
    {"awardee": "", "contactEmail": "ops@mystery.gov", "noticeId": "N-003"},
    {"awardee": "Typo Industries", "contactEmail": "not an email", "noticeId": "N-004"}
  ]
}`

func TestGovContractsSource_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "award", r.URL.Query().Get("ptype"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		w.Write([]byte(awardsResponse))
	}))
	defer server.Close()

	t.Setenv("TEST_SAM_API_KEY", "test-key")

	source := NewGovContractsSource(GovContractsConfig{
		Name:      "sam-gov-awards",
		BaseURL:   server.URL,
		Params:    map[string]string{"ptype": "award"},
		APIKeyEnv: "TEST_SAM_API_KEY",
	}, "PlutusBot/1.0", testLogger())

	leads, err := source.Fetch(context.Background())
	require.NoError(t, err)

	// Awards without a contact email or with a malformed one are skipped; a
	// missing awardee gets a placeholder company.
	require.Len(t, leads, 2)

	assert.Equal(t, "bids@acme.com", leads[0].Email)
	require.NotNil(t, leads[0].Company)
	assert.Equal(t, "Acme Corp", *leads[0].Company)
	assert.Equal(t, SourceGovAward, leads[0].Source)
	assert.Equal(t, map[string]any{"noticeId": "N-001"}, leads[0].Attributes)

	assert.Equal(t, "ops@mystery.gov", leads[1].Email)
	require.NotNil(t, leads[1].Company)
	assert.Equal(t, "Unknown Firm", *leads[1].Company)
}

func TestGovContractsSource_NoAPIKeyConfigured(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("api_key"))
		w.Write([]byte(`{"opportunitiesData": []}`))
	}))
	defer server.Close()

	t.Setenv("TEST_SAM_API_KEY", "")

	source := NewGovContractsSource(GovContractsConfig{
		Name:      "sam-gov-awards",
		BaseURL:   server.URL,
		APIKeyEnv: "TEST_SAM_API_KEY",
	}, "PlutusBot/1.0", testLogger())

	leads, err := source.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, leads)
}
