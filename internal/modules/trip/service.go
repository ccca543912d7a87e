// README: Trip service for the post-acceptance flow (start, complete, reads).
package trip

import (
	"context"
	"errors"

	"github.com/rachana28/DHAPP-BACKEND/internal/types"
)

var (
	ErrInvalidState = errors.New("invalid state transition")
	ErrConflict     = errors.New("trip state conflict")
	ErrForbidden    = errors.New("not allowed")
)

// Service covers the part of the trip lifecycle downstream of acceptance.
// Everything in the searching state belongs to the allocation engine.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Trip, error) {
	return s.store.GetTrip(ctx, id)
}

func (s *Service) ListByRider(ctx context.Context, riderID types.ID) ([]Trip, error) {
	return s.store.ListByRider(ctx, riderID)
}

func (s *Service) ListByDriver(ctx context.Context, driverID types.ID) ([]Trip, error) {
	return s.store.ListByDriver(ctx, driverID)
}

// Start moves an accepted trip to in_progress. Only the assigned driver may
// start it.
func (s *Service) Start(ctx context.Context, id, driverID types.ID) error {
	return s.advance(ctx, id, driverID, StatusAccepted, StatusInProgress)
}

// Complete moves an in-progress trip to completed.
func (s *Service) Complete(ctx context.Context, id, driverID types.ID) error {
	return s.advance(ctx, id, driverID, StatusInProgress, StatusCompleted)
}

func (s *Service) advance(ctx context.Context, id, driverID types.ID, from, to Status) error {
	t, err := s.store.GetTrip(ctx, id)
	if err != nil {
		return err
	}
	if t.DriverID == nil || *t.DriverID != driverID {
		return ErrForbidden
	}
	if !CanTransition(t.Status, to) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateTripStatus(ctx, id, from, to, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}
