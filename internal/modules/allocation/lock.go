// README: Striped per-trip mutex serializing accept, cancel, and escalation.
package allocation

import (
	"hash/fnv"
	"sync"

	"github.com/rachana28/DHAPP-BACKEND/internal/types"
)

const lockStripes = 64

// tripLocks hands out an exclusive lock per trip identity. Two trips may
// share a stripe; that costs throughput, never correctness.
type tripLocks struct {
	stripes [lockStripes]sync.Mutex
}

func newTripLocks() *tripLocks {
	return &tripLocks{}
}

// Lock acquires the stripe for the trip and returns its unlock func.
func (l *tripLocks) Lock(id types.ID) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	m := &l.stripes[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}
