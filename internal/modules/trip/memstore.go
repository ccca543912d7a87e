// README: In-memory trip/offer store for tests and local runs without Postgres.
package trip

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rachana28/DHAPP-BACKEND/internal/types"
)

// MemStore mirrors the PGStore semantics: CAS status updates, tier-ordered
// offer listings, and uniqueness of (trip, driver, tier).
type MemStore struct {
	mu     sync.Mutex
	trips  map[types.ID]*Trip
	offers map[types.ID]*Offer
	order  []types.ID // trip insertion order
}

func NewMemStore() *MemStore {
	return &MemStore{
		trips:  make(map[types.ID]*Trip),
		offers: make(map[types.ID]*Offer),
	}
}

func (m *MemStore) CreateTrip(_ context.Context, t *Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.trips[t.ID] = &cp
	m.order = append(m.order, t.ID)
	return nil
}

func (m *MemStore) GetTrip(_ context.Context, id types.ID) (*Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MemStore) UpdateTripStatus(_ context.Context, id types.ID, from, to Status, driverID *types.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok || t.Status != from {
		return false, nil
	}
	t.Status = to
	if driverID != nil {
		d := *driverID
		t.DriverID = &d
	}
	now := time.Now().UTC()
	switch to {
	case StatusAccepted:
		t.AcceptedAt = &now
	case StatusCompleted:
		t.CompletedAt = &now
	case StatusCancelled, StatusNoDriversAvailable:
		t.CancelledAt = &now
	}
	return true, nil
}

func (m *MemStore) ListByStatus(_ context.Context, status Status) ([]Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Trip
	for _, id := range m.order {
		if t := m.trips[id]; t.Status == status {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *MemStore) ListByRider(_ context.Context, riderID types.ID) ([]Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Trip
	for _, id := range m.order {
		if t := m.trips[id]; t.RiderID == riderID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *MemStore) ListByDriver(_ context.Context, driverID types.ID) ([]Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Trip
	for _, id := range m.order {
		if t := m.trips[id]; t.DriverID != nil && *t.DriverID == driverID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *MemStore) CreateOffers(_ context.Context, offers []*Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range offers {
		for _, existing := range m.offers {
			if existing.TripID == o.TripID && existing.DriverID == o.DriverID && existing.Tier == o.Tier {
				return errOfferExists(o)
			}
		}
	}
	for _, o := range offers {
		cp := *o
		m.offers[o.ID] = &cp
	}
	return nil
}

func (m *MemStore) GetOffer(_ context.Context, id types.ID) (*Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offers[id]
	if !ok {
		return nil, ErrOfferNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *MemStore) UpdateOfferStatus(_ context.Context, id types.ID, from, to OfferStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offers[id]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	return true, nil
}

func (m *MemStore) ListOffersByTrip(_ context.Context, tripID types.ID) ([]Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Offer
	for _, o := range m.offers {
		if o.TripID == tripID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tier != out[j].Tier {
			return out[i].Tier < out[j].Tier
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemStore) ListPendingOffersByDriver(_ context.Context, driverID types.ID) ([]Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Offer
	for _, o := range m.offers {
		if o.DriverID == driverID && o.Status == OfferPending {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemStore) DeletePendingOffers(_ context.Context, tripID types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, o := range m.offers {
		if o.TripID == tripID && o.Status == OfferPending {
			delete(m.offers, id)
		}
	}
	return nil
}

func (m *MemStore) DeleteOffersExcept(_ context.Context, tripID, keepOfferID types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, o := range m.offers {
		if o.TripID == tripID && id != keepOfferID {
			delete(m.offers, id)
		}
	}
	return nil
}

func (m *MemStore) DeleteOffers(_ context.Context, tripID types.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, o := range m.offers {
		if o.TripID == tripID {
			delete(m.offers, id)
		}
	}
	return nil
}

func (m *MemStore) LastTripAt(_ context.Context, driverID types.ID) (*time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *time.Time
	for _, t := range m.trips {
		if t.DriverID == nil || *t.DriverID != driverID {
			continue
		}
		created := t.CreatedAt
		if latest == nil || created.After(*latest) {
			latest = &created
		}
	}
	return latest, nil
}

func (m *MemStore) CountPendingOffers(_ context.Context, driverID types.ID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, o := range m.offers {
		if o.DriverID == driverID && o.Status == OfferPending {
			n++
		}
	}
	return n, nil
}

type offerExistsError struct {
	tripID, driverID types.ID
	tier             int
}

func errOfferExists(o *Offer) error {
	return &offerExistsError{tripID: o.TripID, driverID: o.DriverID, tier: o.Tier}
}

func (e *offerExistsError) Error() string {
	return "offer already exists for trip " + string(e.tripID) + " driver " + string(e.driverID)
}
