// README: Driver service: profile reads and availability toggling.
package driver

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rachana28/DHAPP-BACKEND/internal/types"
)

var ErrBadRequest = errors.New("bad request")

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

type RegisterCommand struct {
	UserID        types.ID
	Name          string
	Phone         string
	LicenseNumber string
	Fleet         Fleet
	VehicleType   string
}

func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*Driver, error) {
	if cmd.UserID == "" || cmd.Name == "" || cmd.LicenseNumber == "" {
		return nil, ErrBadRequest
	}
	if cmd.Fleet != FleetRide && cmd.Fleet != FleetTow {
		return nil, ErrBadRequest
	}
	if cmd.Fleet == FleetRide && cmd.VehicleType == "" {
		return nil, ErrBadRequest
	}
	d := &Driver{
		ID:            types.ID(uuid.NewString()),
		UserID:        cmd.UserID,
		Name:          cmd.Name,
		Phone:         cmd.Phone,
		LicenseNumber: cmd.LicenseNumber,
		Fleet:         cmd.Fleet,
		VehicleType:   cmd.VehicleType,
		Status:        StatusPendingApproval,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Driver, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) GetByUser(ctx context.Context, userID types.ID) (*Driver, error) {
	return s.store.GetByUser(ctx, userID)
}

func (s *Service) List(ctx context.Context, fleet Fleet) ([]Driver, error) {
	return s.store.List(ctx, fleet)
}

// SetAvailability lets a driver flip between available and on_trip. The
// moderation statuses (banned, pending_approval, rejected) are admin-only
// and cannot be self-assigned.
func (s *Service) SetAvailability(ctx context.Context, id types.ID, status Status) error {
	if status != StatusAvailable && status != StatusOnTrip {
		return ErrBadRequest
	}
	cur, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if cur.Status != StatusAvailable && cur.Status != StatusOnTrip {
		return ErrBadRequest
	}
	return s.store.SetStatus(ctx, id, status)
}
