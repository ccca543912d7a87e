// README: Driver scoring and ranking (pure, deterministic).
package allocation

import (
	"sort"
	"time"

	"github.com/rachana28/DHAPP-BACKEND/internal/modules/driver"
)

// Candidate is one available driver together with the history the score
// depends on. Scoring reads nothing else, so rankings can be re-derived in
// tests from plain values.
type Candidate struct {
	Driver driver.Driver
	// LastTripAt is the booking time of the driver's most recent trip,
	// nil when the driver has never been assigned one.
	LastTripAt *time.Time
	// PendingOffers counts the driver's pending offers across all trips.
	PendingOffers int
}

const loadPenaltyPerOffer = 25.0

// Score computes the desirability of a candidate at a point in time.
//
// Rating dominates; drivers who have waited long for work get a recency
// bonus, with never-assigned drivers treated as having waited longest; each
// pending offer elsewhere costs a flat penalty so busy drivers make room
// for others. Scores can go negative, ordering still applies.
func Score(c Candidate, now time.Time) float64 {
	score := c.Driver.Rating * 10

	if c.LastTripAt == nil {
		score += 50
	} else {
		switch hours := now.Sub(*c.LastTripAt).Hours(); {
		case hours > 168:
			score += 40
		case hours > 72:
			score += 30
		case hours > 24:
			score += 20
		case hours > 4:
			score += 10
		}
	}

	score -= loadPenaltyPerOffer * float64(c.PendingOffers)
	return score
}

// Rank orders candidates by descending score. Ties keep the input order,
// which the stores guarantee to be stable (creation order).
func Rank(cands []Candidate, now time.Time) []Candidate {
	ranked := make([]Candidate, len(cands))
	copy(ranked, cands)
	sort.SliceStable(ranked, func(i, j int) bool {
		return Score(ranked[i], now) > Score(ranked[j], now)
	})
	return ranked
}
