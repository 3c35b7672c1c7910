package campaign

import (
	"crypto/sha256"
	"math/big"
)

// DefaultArms is the two-arm split used when a campaign configures none.
var DefaultArms = []string{"A", "B"}

// AssignVariant deterministically maps (campaign, email) to one experiment
// arm. The sha256 digest of "campaign:email" is taken as an unsigned big
// integer modulo the number of arms, so the same pair yields the same arm
// across processes, restarts, and redeliveries. That determinism is what
// makes reprocessing a duplicate event harmless: it produces an identical
// assignment rather than a second, conflicting one.
func AssignVariant(campaignName, email string, arms []string) string {
	if len(arms) == 0 {
		arms = DefaultArms
	}
	digest := sha256.Sum256([]byte(campaignName + ":" + email))
	index := new(big.Int).Mod(
		new(big.Int).SetBytes(digest[:]),
		big.NewInt(int64(len(arms))),
	)
	return arms[index.Int64()]
}
