package crm

// Provider names, also used as the fixed reconciliation order in CRM sync.
const (
	ProviderSalesforce = "salesforce"
	ProviderHubSpot    = "hubspot"
)

func stringAttr(attributes map[string]any, key, fallback string) string {
	if value, ok := attributes[key].(string); ok && value != "" {
		return value
	}
	return fallback
}

func companyName(company *string, attributes map[string]any, fallback string) string {
	if company != nil && *company != "" {
		return *company
	}
	return stringAttr(attributes, "company", fallback)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
