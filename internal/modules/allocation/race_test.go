// README: Concurrency test: many drivers race to accept the same trip.
package allocation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rachana28/DHAPP-BACKEND/internal/modules/driver"
	"github.com/rachana28/DHAPP-BACKEND/internal/modules/trip"
	"github.com/rachana28/DHAPP-BACKEND/internal/types"
)

// Run with -race. Every driver in the first tier accepts at once; exactly
// one must win and the rest must observe Conflict.
func TestConcurrentAcceptSingleWinner(t *testing.T) {
	for round := 0; round < 20; round++ {
		e, trips, drivers := testEngine(t)
		ctx := context.Background()
		for i := 1; i <= 3; i++ {
			seedDriver(t, drivers, fmt.Sprintf("d%d", i), driver.FleetRide, "SUV", 0)
		}
		req, err := e.CreateRequest(ctx, CreateCommand{RiderID: "rider1", Fleet: driver.FleetRide, VehicleType: "SUV"})
		if err != nil {
			t.Fatalf("create request: %v", err)
		}

		offers, err := trips.ListOffersByTrip(ctx, req.ID)
		if err != nil {
			t.Fatalf("list offers: %v", err)
		}

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			winners   []types.ID
			conflicts int
		)
		for _, o := range offers {
			wg.Add(1)
			go func(o trip.Offer) {
				defer wg.Done()
				_, err := e.Accept(ctx, o.ID, o.DriverID)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					winners = append(winners, o.DriverID)
				case errors.Is(err, ErrConflict):
					conflicts++
				default:
					t.Errorf("unexpected accept error: %v", err)
				}
			}(o)
		}
		wg.Wait()

		if len(winners) != 1 || conflicts != len(offers)-1 {
			t.Fatalf("round %d: winners=%v conflicts=%d, want exactly one winner", round, winners, conflicts)
		}

		got, err := trips.GetTrip(ctx, req.ID)
		if err != nil {
			t.Fatalf("get trip: %v", err)
		}
		if got.Status != trip.StatusAccepted || got.DriverID == nil || *got.DriverID != winners[0] {
			t.Fatalf("round %d: trip %+v, want accepted by %s", round, got, winners[0])
		}

		remaining, _ := trips.ListOffersByTrip(ctx, req.ID)
		if len(remaining) != 1 || remaining[0].Status != trip.OfferAccepted {
			t.Fatalf("round %d: offers after race = %+v", round, remaining)
		}
	}
}

// A rejection-triggered escalation racing a sweep must not produce two
// tier batches for the same trip.
func TestConcurrentEscalationSingleTier(t *testing.T) {
	e, trips, drivers := testEngine(t)
	ctx := context.Background()
	for i := 1; i <= 6; i++ {
		seedDriver(t, drivers, fmt.Sprintf("d%d", i), driver.FleetRide, "SUV", 0)
	}
	req, err := e.CreateRequest(ctx, CreateCommand{RiderID: "rider1", Fleet: driver.FleetRide, VehicleType: "SUV"})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	initial, err := trips.ListOffersByTrip(ctx, req.ID)
	if err != nil {
		t.Fatalf("list offers: %v", err)
	}

	var wg sync.WaitGroup
	for _, o := range initial {
		wg.Add(1)
		go func(o trip.Offer) {
			defer wg.Done()
			if err := e.Reject(ctx, o.ID, o.DriverID); err != nil {
				t.Errorf("reject: %v", err)
			}
		}(o)
	}
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.RunSweep(ctx); err != nil {
				t.Errorf("sweep: %v", err)
			}
		}()
	}
	wg.Wait()

	offers, err := trips.ListOffersByTrip(ctx, req.ID)
	if err != nil {
		t.Fatalf("list offers: %v", err)
	}
	pendingTiers := map[int]int{}
	for _, o := range offers {
		if o.Status == trip.OfferPending {
			pendingTiers[o.Tier]++
		}
	}
	if len(pendingTiers) > 1 {
		t.Fatalf("pending offers span tiers %v, want a single current tier", pendingTiers)
	}
	if n := pendingTiers[2]; n != 0 && n != 3 {
		t.Fatalf("tier 2 has %d pending offers, want 0 or a full batch of 3", n)
	}
}
