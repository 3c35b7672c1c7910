package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plutushq/leadstream/internal/logger"
)

func testLogger() logger.Logger {
	log := logger.NewAppLogger(&logger.Config{DevMode: true, Encoder: "console"})
	log.InitLogger()
	return log
}

const directoryPage = `
<html><body>
<table class="listing">
  <tr class="company">
    <td class="name"><a href="/acme">Acme Corp</a></td>
    <td class="contact"><a href="mailto:info@acme.com">email us</a></td>
  </tr>
  <tr class="company">
    <td class="name"><a href="/nomail">NoMail Inc</a></td>
    <td class="contact"><span>call us</span></td>
  </tr>
  <tr class="company">
    <td class="name"></td>
    <td class="contact"><a href="mailto:hello@anon.io">email</a></td>
  </tr>
  <tr class="company">
    <td class="name"><a href="/broken">Broken Markup Ltd</a></td>
    <td class="contact"><a href="mailto:not an email">email</a></td>
  </tr>
</table>
</body></html>`

func directoryConfig(url string) DirectoryConfig {
	return DirectoryConfig{
		Name: "acme-directory",
		URL:  url,
		Selectors: &SelectorConfig{
			Row:     "table.listing tr.company",
			Company: "td.name a",
			Email:   "td.contact a",
		},
	}
}

func TestDirectorySource_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PlutusBot/1.0", r.Header.Get("User-Agent"))
		w.Write([]byte(directoryPage))
	}))
	defer server.Close()

	source := NewDirectorySource(directoryConfig(server.URL), "PlutusBot/1.0", testLogger())
	leads, err := source.Fetch(context.Background())
	require.NoError(t, err)

	// Rows without a mailto link or with a malformed address are skipped; a
	// missing company name is not disqualifying.
	require.Len(t, leads, 2)

	assert.Equal(t, "info@acme.com", leads[0].Email)
	require.NotNil(t, leads[0].Company)
	assert.Equal(t, "Acme Corp", *leads[0].Company)
	assert.Equal(t, SourceBusinessDirectory, leads[0].Source)
	assert.Equal(t, map[string]any{"directory": "acme-directory"}, leads[0].Attributes)

	assert.Equal(t, "hello@anon.io", leads[1].Email)
	assert.Nil(t, leads[1].Company)
}

func TestDirectorySource_FetchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	source := NewDirectorySource(directoryConfig(server.URL), "PlutusBot/1.0", testLogger())
	_, err := source.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestDirectorySource_NoSelectorsYieldsNoLeads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(directoryPage))
	}))
	defer server.Close()

	cfg := directoryConfig(server.URL)
	cfg.Selectors = nil
	source := NewDirectorySource(cfg, "PlutusBot/1.0", testLogger())

	leads, err := source.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, leads)
}
