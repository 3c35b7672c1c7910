package campaign

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssignVariant_Deterministic(t *testing.T) {
	first := AssignVariant("campaign-x", "user@example.com", nil)
	second := AssignVariant("campaign-x", "user@example.com", nil)

	assert.Equal(t, first, second)
}

func TestAssignVariant_PinnedAssignments(t *testing.T) {
	// Expected arms were computed once from the sha256 digest and pinned;
	// a change here means assignments shifted across deployments.
	tests := []struct {
		campaign string
		email    string
		arms     []string
		expected string
	}{
		{"default", "a@x.com", []string{"A", "B"}, "A"},
		{"campaign-x", "user@example.com", []string{"A", "B"}, "B"},
		{"summer-launch", "lead@acme.io", []string{"A", "B"}, "A"},
		{"q4", "ops@example.org", []string{"control", "blue", "green"}, "blue"},
	}

	for _, tt := range tests {
		t.Run(tt.campaign+"/"+tt.email, func(t *testing.T) {
			assert.Equal(t, tt.expected, AssignVariant(tt.campaign, tt.email, tt.arms))
		})
	}
}

func TestAssignVariant_DefaultArms(t *testing.T) {
	variant := AssignVariant("default", "a@x.com", nil)

	assert.Equal(t, AssignVariant("default", "a@x.com", DefaultArms), variant)
	assert.Contains(t, DefaultArms, variant)
}

func TestAssignVariant_IndexAlwaysInRange(t *testing.T) {
	arms := []string{"one", "two", "three", "four", "five"}

	for i := 0; i < 500; i++ {
		email := fmt.Sprintf("user%d@example.com", i)
		variant := AssignVariant("range-check", email, arms)
		assert.Contains(t, arms, variant)
	}
}
