// README: Allocation engine: tiered offer creation, escalation, and the race-safe accept path.
package allocation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rachana28/DHAPP-BACKEND/internal/config"
	"github.com/rachana28/DHAPP-BACKEND/internal/modules/driver"
	"github.com/rachana28/DHAPP-BACKEND/internal/modules/trip"
	"github.com/rachana28/DHAPP-BACKEND/internal/notify"
	"github.com/rachana28/DHAPP-BACKEND/internal/observability"
	"github.com/rachana28/DHAPP-BACKEND/internal/types"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("not allowed")
	// ErrConflict is the expected outcome of losing a race (offer already
	// resolved, trip already taken). Callers treat it as a normal result.
	ErrConflict = errors.New("already resolved by another actor")
	ErrInvalid  = errors.New("invalid request")
)

// Engine drives the lifecycle of a trip while it is searching for a
// driver: scoring and ranking candidates, writing tier offers, escalating
// stalled tiers, and arbitrating concurrent acceptance attempts.
//
// All mutations of a searching trip go through the per-trip lock, so at
// most one of accept / reject-escalation / sweep-escalation / cancel runs
// for a given trip at a time.
type Engine struct {
	trips    trip.Store
	drivers  driver.Store
	notifier notify.Notifier
	cfg      config.AllocationConfig
	locks    *tripLocks
	log      *zap.Logger
	now      func() time.Time
}

func NewEngine(trips trip.Store, drivers driver.Store, notifier notify.Notifier, cfg config.AllocationConfig, log *zap.Logger) *Engine {
	return &Engine{
		trips:    trips,
		drivers:  drivers,
		notifier: notifier,
		cfg:      cfg,
		locks:    newTripLocks(),
		log:      log,
		now:      time.Now,
	}
}

type CreateCommand struct {
	RiderID     types.ID
	Fleet       driver.Fleet
	VehicleType string
}

// notice is a notification prepared while holding the trip lock and sent
// only after the lock is released.
type notice struct {
	userIDs []types.ID
	title   string
	body    string
	data    map[string]string
}

// CreateRequest creates a searching trip and its tier-1 offers. When the
// very first ranking yields no candidates at all the trip comes back
// already terminal with status no_drivers_found.
func (e *Engine) CreateRequest(ctx context.Context, cmd CreateCommand) (*trip.Trip, error) {
	if cmd.RiderID == "" {
		return nil, ErrInvalid
	}
	if cmd.Fleet != driver.FleetRide && cmd.Fleet != driver.FleetTow {
		return nil, ErrInvalid
	}
	if cmd.Fleet == driver.FleetRide && cmd.VehicleType == "" {
		return nil, ErrInvalid
	}

	t := &trip.Trip{
		ID:          types.ID(uuid.NewString()),
		RiderID:     cmd.RiderID,
		Fleet:       cmd.Fleet,
		VehicleType: cmd.VehicleType,
		Status:      trip.StatusSearching,
		CreatedAt:   e.now().UTC(),
	}
	if err := e.trips.CreateTrip(ctx, t); err != nil {
		return nil, err
	}
	observability.TripsCreatedTotal.WithLabelValues(string(cmd.Fleet)).Inc()

	ranked, err := e.rankFleet(ctx, cmd.Fleet, cmd.VehicleType)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		if _, err := e.trips.UpdateTripStatus(ctx, t.ID, trip.StatusSearching, trip.StatusNoDriversFound, nil); err != nil {
			return nil, err
		}
		t.Status = trip.StatusNoDriversFound
		return t, nil
	}

	batch := ranked[:min(e.cfg.TierSize, len(ranked))]
	n, err := e.createTierOffers(ctx, t, batch, 1)
	if err != nil {
		return nil, err
	}
	e.send(ctx, n)
	return t, nil
}

// OfferView is a pending offer with its trip embedded for display.
type OfferView struct {
	Offer trip.Offer
	Trip  trip.Trip
}

func (e *Engine) PendingOffers(ctx context.Context, driverID types.ID) ([]OfferView, error) {
	offers, err := e.trips.ListPendingOffersByDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	views := make([]OfferView, 0, len(offers))
	for _, o := range offers {
		t, err := e.trips.GetTrip(ctx, o.TripID)
		if err != nil {
			if errors.Is(err, trip.ErrNotFound) {
				continue
			}
			return nil, err
		}
		views = append(views, OfferView{Offer: o, Trip: *t})
	}
	return views, nil
}

// Accept commits exactly one driver to a trip. All concurrent attempts for
// the same trip serialize on the trip lock; every attempt after the first
// winner observes a non-searching status and fails with ErrConflict.
func (e *Engine) Accept(ctx context.Context, offerID, driverID types.ID) (types.ID, error) {
	o, err := e.trips.GetOffer(ctx, offerID)
	if err != nil {
		if errors.Is(err, trip.ErrOfferNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	if o.DriverID != driverID {
		return "", ErrForbidden
	}
	if o.Status != trip.OfferPending {
		return "", ErrConflict
	}

	t, err := e.acceptUnderLock(ctx, o, driverID)
	if err != nil {
		return "", err
	}

	if err := e.drivers.SetStatus(ctx, driverID, driver.StatusOnTrip); err != nil {
		e.log.Warn("mark driver on_trip", zap.String("driver_id", string(driverID)), zap.Error(err))
	}
	observability.AcceptsTotal.Inc()
	e.send(ctx, e.acceptedNotice(ctx, t, driverID))
	return t.ID, nil
}

func (e *Engine) acceptUnderLock(ctx context.Context, o *trip.Offer, driverID types.ID) (*trip.Trip, error) {
	unlock := e.locks.Lock(o.TripID)
	defer unlock()

	t, err := e.trips.GetTrip(ctx, o.TripID)
	if err != nil {
		if errors.Is(err, trip.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if t.Status != trip.StatusSearching {
		observability.AcceptConflictsTotal.Inc()
		return nil, ErrConflict
	}

	// The offer may have been superseded by an escalation between the
	// unlocked read and here; the swap fails in that case.
	ok, err := e.trips.UpdateOfferStatus(ctx, o.ID, trip.OfferPending, trip.OfferAccepted)
	if err != nil {
		return nil, err
	}
	if !ok {
		observability.AcceptConflictsTotal.Inc()
		return nil, ErrConflict
	}

	ok, err = e.trips.UpdateTripStatus(ctx, t.ID, trip.StatusSearching, trip.StatusAccepted, &driverID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	if err := e.trips.DeleteOffersExcept(ctx, t.ID, o.ID); err != nil {
		return nil, err
	}

	t.Status = trip.StatusAccepted
	t.DriverID = &driverID
	return t, nil
}

// Reject marks the offer rejected and immediately runs the escalation
// check so a fully rejected tier does not wait for the next sweep.
// Already-resolved offers fail with ErrConflict and nothing is mutated.
func (e *Engine) Reject(ctx context.Context, offerID, driverID types.ID) error {
	o, err := e.trips.GetOffer(ctx, offerID)
	if err != nil {
		if errors.Is(err, trip.ErrOfferNotFound) {
			return ErrNotFound
		}
		return err
	}
	if o.DriverID != driverID {
		return ErrForbidden
	}

	ok, err := e.trips.UpdateOfferStatus(ctx, offerID, trip.OfferPending, trip.OfferRejected)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}

	if _, err := e.EscalateTrip(ctx, o.TripID); err != nil {
		// The rejection itself succeeded; the sweep retries escalation.
		e.log.Warn("escalation after rejection", zap.String("trip_id", string(o.TripID)), zap.Error(err))
	}
	return nil
}

// Cancel terminates a trip on behalf of its rider, removing every offer.
// It shares the trip lock with accept and escalation.
func (e *Engine) Cancel(ctx context.Context, tripID, riderID types.ID) error {
	t, err := e.trips.GetTrip(ctx, tripID)
	if err != nil {
		if errors.Is(err, trip.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if t.RiderID != riderID {
		return ErrForbidden
	}

	assignedDriver, err := e.cancelUnderLock(ctx, tripID)
	if err != nil {
		return err
	}

	if assignedDriver != nil {
		n := notice{
			userIDs: []types.ID{assignedDriver.UserID},
			title:   "Trip Cancelled",
			body:    "The customer has cancelled this request.",
			data:    map[string]string{"trip_id": string(tripID), "type": "cancellation"},
		}
		e.send(ctx, n)
	}
	return nil
}

func (e *Engine) cancelUnderLock(ctx context.Context, tripID types.ID) (*driver.Driver, error) {
	unlock := e.locks.Lock(tripID)
	defer unlock()

	t, err := e.trips.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !trip.CanTransition(t.Status, trip.StatusCancelled) {
		return nil, ErrConflict
	}

	var assigned *driver.Driver
	if t.DriverID != nil {
		if d, err := e.drivers.Get(ctx, *t.DriverID); err == nil {
			assigned = d
		}
	}

	ok, err := e.trips.UpdateTripStatus(ctx, tripID, t.Status, trip.StatusCancelled, nil)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	if err := e.trips.DeleteOffers(ctx, tripID); err != nil {
		return nil, err
	}
	return assigned, nil
}

// EscalateTrip runs the escalation check for one trip and reports whether
// the trip advanced (next tier written, or terminated for lack of
// drivers).
func (e *Engine) EscalateTrip(ctx context.Context, tripID types.ID) (bool, error) {
	advanced, notices, err := e.escalateUnderLock(ctx, tripID)
	for _, n := range notices {
		e.send(ctx, n)
	}
	return advanced, err
}

func (e *Engine) escalateUnderLock(ctx context.Context, tripID types.ID) (bool, []notice, error) {
	unlock := e.locks.Lock(tripID)
	defer unlock()

	t, err := e.trips.GetTrip(ctx, tripID)
	if err != nil {
		return false, nil, err
	}
	if t.Status != trip.StatusSearching {
		return false, nil, nil
	}

	offers, err := e.trips.ListOffersByTrip(ctx, tripID)
	if err != nil {
		return false, nil, err
	}
	if len(offers) == 0 {
		// A searching trip always has offers on its current tier; nothing
		// to do if creation raced us.
		return false, nil, nil
	}

	currentTier := 0
	for _, o := range offers {
		if o.Tier > currentTier {
			currentTier = o.Tier
		}
	}

	pendingInTier := 0
	acceptedInTier := false
	var tierCreatedAt time.Time
	for _, o := range offers {
		if o.Tier != currentTier {
			continue
		}
		if tierCreatedAt.IsZero() || o.CreatedAt.Before(tierCreatedAt) {
			tierCreatedAt = o.CreatedAt
		}
		switch o.Status {
		case trip.OfferPending:
			pendingInTier++
		case trip.OfferAccepted:
			acceptedInTier = true
		}
	}

	stale := e.now().Sub(tierCreatedAt) > e.cfg.EscalationTimeout
	if pendingInTier > 0 && !stale {
		return false, nil, nil
	}
	// A winner already exists; a stale concurrent escalation must not
	// disturb it.
	if acceptedInTier {
		return false, nil, nil
	}

	ranked, err := e.rankFleet(ctx, t.Fleet, t.VehicleType)
	if err != nil {
		return false, nil, err
	}
	start := currentTier * e.cfg.TierSize
	end := start + e.cfg.TierSize
	if start > len(ranked) {
		start = len(ranked)
	}
	if end > len(ranked) {
		end = len(ranked)
	}
	batch := ranked[start:end]

	if len(batch) == 0 {
		ok, err := e.trips.UpdateTripStatus(ctx, tripID, trip.StatusSearching, trip.StatusNoDriversAvailable, nil)
		if err != nil {
			return false, nil, err
		}
		if !ok {
			return false, nil, nil
		}
		if err := e.trips.DeleteOffers(ctx, tripID); err != nil {
			return false, nil, err
		}
		observability.TripsExhaustedTotal.Inc()
		n := notice{
			userIDs: []types.ID{t.RiderID},
			title:   "No Drivers Available",
			body:    "We couldn't find a driver for your request.",
			data:    map[string]string{"trip_id": string(tripID), "type": "no_drivers"},
		}
		return true, []notice{n}, nil
	}

	if err := e.trips.DeletePendingOffers(ctx, tripID); err != nil {
		return false, nil, err
	}
	n, err := e.createTierOffers(ctx, t, batch, currentTier+1)
	if err != nil {
		return false, nil, err
	}
	observability.EscalationsTotal.Inc()
	return true, []notice{n}, nil
}

// RunSweep re-evaluates every searching trip once. Failures on one trip
// are logged and do not stop the sweep; the returned count is the number
// of trips advanced.
func (e *Engine) RunSweep(ctx context.Context) (int, error) {
	observability.SweepsTotal.Inc()

	searching, err := e.trips.ListByStatus(ctx, trip.StatusSearching)
	if err != nil {
		return 0, err
	}

	advanced := 0
	for _, t := range searching {
		ok, err := e.EscalateTrip(ctx, t.ID)
		if err != nil {
			e.log.Warn("sweep escalation", zap.String("trip_id", string(t.ID)), zap.Error(err))
			continue
		}
		if ok {
			advanced++
		}
	}
	return advanced, nil
}

// rankFleet scores all currently available drivers of the fleet. Ranking is
// recomputed on every call; availability and load must be fresh.
func (e *Engine) rankFleet(ctx context.Context, fleet driver.Fleet, vehicleType string) ([]Candidate, error) {
	if fleet == driver.FleetTow {
		// Tow requests go to the whole tow fleet regardless of vehicle.
		vehicleType = ""
	}
	available, err := e.drivers.ListAvailable(ctx, fleet, vehicleType)
	if err != nil {
		return nil, err
	}

	cands := make([]Candidate, 0, len(available))
	for _, d := range available {
		lastTrip, err := e.trips.LastTripAt(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		pending, err := e.trips.CountPendingOffers(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		cands = append(cands, Candidate{Driver: d, LastTripAt: lastTrip, PendingOffers: pending})
	}
	return Rank(cands, e.now()), nil
}

func (e *Engine) createTierOffers(ctx context.Context, t *trip.Trip, batch []Candidate, tier int) (notice, error) {
	now := e.now().UTC()
	offers := make([]*trip.Offer, len(batch))
	userIDs := make([]types.ID, len(batch))
	for i, c := range batch {
		offers[i] = &trip.Offer{
			ID:        types.ID(uuid.NewString()),
			TripID:    t.ID,
			DriverID:  c.Driver.ID,
			Tier:      tier,
			Status:    trip.OfferPending,
			CreatedAt: now,
		}
		userIDs[i] = c.Driver.UserID
	}
	if err := e.trips.CreateOffers(ctx, offers); err != nil {
		return notice{}, err
	}
	observability.OffersCreatedTotal.Add(float64(len(offers)))

	title, body := "New Trip Request", "A new customer nearby needs a ride."
	if t.Fleet == driver.FleetTow {
		title, body = "New Tow Request", "A new customer nearby needs a tow."
	}
	return notice{
		userIDs: userIDs,
		title:   title,
		body:    body,
		data:    map[string]string{"trip_id": string(t.ID), "type": "new_request"},
	}, nil
}

func (e *Engine) acceptedNotice(ctx context.Context, t *trip.Trip, driverID types.ID) notice {
	name := "Your driver"
	if d, err := e.drivers.Get(ctx, driverID); err == nil && d.Name != "" {
		name = d.Name
	}
	title := "Driver Confirmed"
	if t.Fleet == driver.FleetTow {
		title = "Tow Truck Confirmed"
	}
	return notice{
		userIDs: []types.ID{t.RiderID},
		title:   title,
		body:    name + " is on the way.",
		data:    map[string]string{"trip_id": string(t.ID), "screen": "tracking"},
	}
}

// send delivers a notification outside any lock or transaction. Errors are
// contained here: delivery is best-effort by contract.
func (e *Engine) send(ctx context.Context, n notice) {
	if len(n.userIDs) == 0 {
		return
	}
	if err := e.notifier.Notify(ctx, n.userIDs, n.title, n.body, n.data); err != nil {
		e.log.Warn("notification fan-out", zap.String("title", n.title), zap.Error(err))
	}
}
