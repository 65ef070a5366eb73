package scheduling

import (
	"github.com/kidusm001/multi-fleet-managment-sub007/internal/models"
)

// Resequence reassigns Seq = 1..n over the stops in the order given. It runs
// on every create and stop-set mutation so sequences stay a contiguous
// permutation without a separate repair pass. Idempotent on ordered input.
func Resequence(stops []models.Stop) []models.Stop {
	for i := range stops {
		stops[i].Seq = i + 1
	}
	return stops
}
