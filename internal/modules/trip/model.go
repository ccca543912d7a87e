// README: Trip aggregate, offer records, and status definitions.
package trip

import (
	"time"

	"github.com/rachana28/DHAPP-BACKEND/internal/modules/driver"
	"github.com/rachana28/DHAPP-BACKEND/internal/types"
)

type Status string

const (
	StatusSearching          Status = "searching"
	StatusAccepted           Status = "accepted"
	StatusInProgress         Status = "in_progress"
	StatusCompleted          Status = "completed"
	StatusCancelled          Status = "cancelled"
	StatusNoDriversFound     Status = "no_drivers_found"
	StatusNoDriversAvailable Status = "no_drivers_available"
)

// Terminal reports whether the status admits no further engine mutation.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoDriversFound, StatusNoDriversAvailable:
		return true
	}
	return false
}

// AllowedTransitions represents the trip state flow as code. The searching
// branch is owned by the allocation engine; accepted onwards is the normal
// service flow driven by the assigned driver.
var AllowedTransitions = map[Status][]Status{
	StatusSearching:  {StatusAccepted, StatusCancelled, StatusNoDriversFound, StatusNoDriversAvailable},
	StatusAccepted:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Trip struct {
	ID          types.ID
	RiderID     types.ID
	DriverID    *types.ID
	Fleet       driver.Fleet
	VehicleType string
	Status      Status
	CreatedAt   time.Time
	AcceptedAt  *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferRejected OfferStatus = "rejected"
)

// Offer proposes one trip to one driver at one escalation tier. Tiers are
// 1-based and contiguous per trip; pending offers only ever exist on the
// current (max) tier.
type Offer struct {
	ID        types.ID
	TripID    types.ID
	DriverID  types.ID
	Tier      int
	Status    OfferStatus
	CreatedAt time.Time
}
