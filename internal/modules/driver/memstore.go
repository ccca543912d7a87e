// README: In-memory driver store for tests and local runs without Postgres.
package driver

import (
	"context"
	"sync"

	"github.com/rachana28/DHAPP-BACKEND/internal/types"
)

// MemStore keeps drivers in insertion order so ranking ties stay stable,
// matching the ORDER BY created_at, id of the Postgres store.
type MemStore struct {
	mu      sync.RWMutex
	drivers map[types.ID]*Driver
	order   []types.ID
}

func NewMemStore() *MemStore {
	return &MemStore{drivers: make(map[types.ID]*Driver)}
}

func (m *MemStore) Create(_ context.Context, d *Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.drivers[d.ID] = &cp
	m.order = append(m.order, d.ID)
	return nil
}

func (m *MemStore) Get(_ context.Context, id types.ID) (*Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drivers[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *MemStore) GetByUser(_ context.Context, userID types.ID) (*Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.order {
		if d := m.drivers[id]; d.UserID == userID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemStore) List(_ context.Context, fleet Fleet) ([]Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Driver
	for _, id := range m.order {
		if d := m.drivers[id]; d.Fleet == fleet {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *MemStore) ListAvailable(_ context.Context, fleet Fleet, vehicleType string) ([]Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Driver
	for _, id := range m.order {
		d := m.drivers[id]
		if d.Fleet != fleet || d.Status != StatusAvailable {
			continue
		}
		if vehicleType != "" && d.VehicleType != vehicleType {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (m *MemStore) SetStatus(_ context.Context, id types.ID, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drivers[id]
	if !ok {
		return ErrNotFound
	}
	d.Status = status
	return nil
}
