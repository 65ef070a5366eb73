package scheduling

import (
	"sort"
)

// VehicleLoad is an occupancy snapshot for one candidate vehicle. The
// optimizer never queries storage itself; results are only as fresh as the
// caller's snapshot.
type VehicleLoad struct {
	VehicleID uint    `json:"vehicle_id"`
	Capacity  int     `json:"capacity"`
	Occupied  int     `json:"occupied"`
	Score     float64 `json:"score"`
}

// CanAccept is the hard capacity gate: occupied + additional must fit within
// capacity. Candidates failing it are excluded before ranking, never ranked
// and rejected later.
func CanAccept(load VehicleLoad, additional int) bool {
	if load.Capacity <= 0 {
		return false
	}
	return load.Occupied+additional <= load.Capacity
}

// LoadFactor scores a candidate as the free share of its capacity, as a
// percentage. Higher ranks first, preferring the least-loaded vehicle.
func LoadFactor(load VehicleLoad) float64 {
	if load.Capacity <= 0 {
		return 0
	}
	return (1 - float64(load.Occupied)/float64(load.Capacity)) * 100
}

// Rank filters candidates through CanAccept(additional) and orders the
// survivors by load factor descending, breaking ties by lowest vehicle ID
// so results are deterministic.
func Rank(candidates []VehicleLoad, additional int) []VehicleLoad {
	ranked := make([]VehicleLoad, 0, len(candidates))
	for _, c := range candidates {
		if !CanAccept(c, additional) {
			continue
		}
		c.Score = LoadFactor(c)
		ranked = append(ranked, c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].VehicleID < ranked[j].VehicleID
	})
	return ranked
}
