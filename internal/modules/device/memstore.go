// README: In-memory device store for tests.
package device

import (
	"context"
	"sync"

	"github.com/rachana28/DHAPP-BACKEND/internal/types"
)

type MemStore struct {
	mu      sync.Mutex
	byToken map[string]*Device
}

func NewMemStore() *MemStore {
	return &MemStore{byToken: make(map[string]*Device)}
}

func (m *MemStore) Register(_ context.Context, d *Device) error {
	if d.Token == "" {
		return ErrBadToken
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.byToken[d.Token] = &cp
	return nil
}

func (m *MemStore) ListByUsers(_ context.Context, userIDs []types.ID) ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[types.ID]bool, len(userIDs))
	for _, id := range userIDs {
		want[id] = true
	}
	var out []Device
	for _, d := range m.byToken {
		if want[d.UserID] {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *MemStore) DeleteToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byToken, token)
	return nil
}
