// README: Driver records and status definitions.
package driver

import (
	"time"

	"github.com/rachana28/DHAPP-BACKEND/internal/types"
)

type Status string

const (
	StatusAvailable       Status = "available"
	StatusOnTrip          Status = "on_trip"
	StatusBanned          Status = "banned"
	StatusPendingApproval Status = "pending_approval"
	StatusRejected        Status = "rejected"
)

// Fleet distinguishes the two driver pools served by the same allocation
// engine: regular ride drivers and tow-truck drivers.
type Fleet string

const (
	FleetRide Fleet = "ride"
	FleetTow  Fleet = "tow"
)

type Driver struct {
	ID            types.ID
	UserID        types.ID
	Name          string
	Phone         string
	LicenseNumber string
	Fleet         Fleet
	VehicleType   string
	Status        Status
	Rating        float64
	CreatedAt     time.Time
}

// ValidStatus reports whether s is one of the known driver statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusAvailable, StatusOnTrip, StatusBanned, StatusPendingApproval, StatusRejected:
		return true
	}
	return false
}
