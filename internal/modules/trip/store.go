// README: Trip/offer store contract and the PostgreSQL implementation.
package trip

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rachana28/DHAPP-BACKEND/internal/modules/driver"
	"github.com/rachana28/DHAPP-BACKEND/internal/types"
)

var (
	ErrNotFound      = errors.New("trip not found")
	ErrOfferNotFound = errors.New("offer not found")
)

// Store is the persistence surface of the trip and offer ledger. Status
// updates are compare-and-swap on the current status so lost races surface
// as ok=false instead of silent overwrites; the allocation engine holds a
// per-trip lock on top of this.
type Store interface {
	CreateTrip(ctx context.Context, t *Trip) error
	GetTrip(ctx context.Context, id types.ID) (*Trip, error)
	UpdateTripStatus(ctx context.Context, id types.ID, from, to Status, driverID *types.ID) (bool, error)
	ListByStatus(ctx context.Context, status Status) ([]Trip, error)
	ListByRider(ctx context.Context, riderID types.ID) ([]Trip, error)
	ListByDriver(ctx context.Context, driverID types.ID) ([]Trip, error)

	CreateOffers(ctx context.Context, offers []*Offer) error
	GetOffer(ctx context.Context, id types.ID) (*Offer, error)
	UpdateOfferStatus(ctx context.Context, id types.ID, from, to OfferStatus) (bool, error)
	ListOffersByTrip(ctx context.Context, tripID types.ID) ([]Offer, error)
	ListPendingOffersByDriver(ctx context.Context, driverID types.ID) ([]Offer, error)
	DeletePendingOffers(ctx context.Context, tripID types.ID) error
	DeleteOffersExcept(ctx context.Context, tripID, keepOfferID types.ID) error
	DeleteOffers(ctx context.Context, tripID types.ID) error

	// Ranking history queries.
	LastTripAt(ctx context.Context, driverID types.ID) (*time.Time, error)
	CountPendingOffers(ctx context.Context, driverID types.ID) (int, error)
}

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) CreateTrip(ctx context.Context, t *Trip) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO trips (id, rider_id, driver_id, fleet, vehicle_type, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(t.ID), string(t.RiderID), idPtr(t.DriverID),
		string(t.Fleet), t.VehicleType, string(t.Status), t.CreatedAt,
	)
	return err
}

const tripColumns = `id, rider_id, driver_id, fleet, vehicle_type, status, created_at, accepted_at, completed_at, cancelled_at`

func (s *PGStore) GetTrip(ctx context.Context, id types.ID) (*Trip, error) {
	row := s.db.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, string(id))
	t, err := scanTrip(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

func (s *PGStore) UpdateTripStatus(ctx context.Context, id types.ID, from, to Status, driverID *types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE trips
		SET status = $1,
		    driver_id = COALESCE($2, driver_id),
		    accepted_at = CASE WHEN $1 = 'accepted' THEN NOW() ELSE accepted_at END,
		    completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END,
		    cancelled_at = CASE WHEN $1 IN ('cancelled', 'no_drivers_available') THEN NOW() ELSE cancelled_at END
		WHERE id = $3 AND status = $4`,
		string(to), idPtr(driverID), string(id), string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) ListByStatus(ctx context.Context, status Status) ([]Trip, error) {
	return s.queryTrips(ctx, `SELECT `+tripColumns+` FROM trips WHERE status = $1 ORDER BY created_at, id`, string(status))
}

func (s *PGStore) ListByRider(ctx context.Context, riderID types.ID) ([]Trip, error) {
	return s.queryTrips(ctx, `SELECT `+tripColumns+` FROM trips WHERE rider_id = $1 ORDER BY created_at DESC`, string(riderID))
}

func (s *PGStore) ListByDriver(ctx context.Context, driverID types.ID) ([]Trip, error) {
	return s.queryTrips(ctx, `SELECT `+tripColumns+` FROM trips WHERE driver_id = $1 ORDER BY created_at DESC`, string(driverID))
}

func (s *PGStore) CreateOffers(ctx context.Context, offers []*Offer) error {
	for _, o := range offers {
		_, err := s.db.Exec(ctx, `
			INSERT INTO trip_offers (id, trip_id, driver_id, tier, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			string(o.ID), string(o.TripID), string(o.DriverID), o.Tier, string(o.Status), o.CreatedAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

const offerColumns = `id, trip_id, driver_id, tier, status, created_at`

func (s *PGStore) GetOffer(ctx context.Context, id types.ID) (*Offer, error) {
	row := s.db.QueryRow(ctx, `SELECT `+offerColumns+` FROM trip_offers WHERE id = $1`, string(id))
	var o Offer
	err := row.Scan(&o.ID, &o.TripID, &o.DriverID, &o.Tier, &o.Status, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOfferNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *PGStore) UpdateOfferStatus(ctx context.Context, id types.ID, from, to OfferStatus) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE trip_offers SET status = $1 WHERE id = $2 AND status = $3`,
		string(to), string(id), string(from),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) ListOffersByTrip(ctx context.Context, tripID types.ID) ([]Offer, error) {
	return s.queryOffers(ctx, `SELECT `+offerColumns+` FROM trip_offers WHERE trip_id = $1 ORDER BY tier, created_at, id`, string(tripID))
}

func (s *PGStore) ListPendingOffersByDriver(ctx context.Context, driverID types.ID) ([]Offer, error) {
	return s.queryOffers(ctx, `
		SELECT `+offerColumns+` FROM trip_offers
		WHERE driver_id = $1 AND status = 'pending'
		ORDER BY created_at DESC`, string(driverID))
}

func (s *PGStore) DeletePendingOffers(ctx context.Context, tripID types.ID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM trip_offers WHERE trip_id = $1 AND status = 'pending'`, string(tripID))
	return err
}

func (s *PGStore) DeleteOffersExcept(ctx context.Context, tripID, keepOfferID types.ID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM trip_offers WHERE trip_id = $1 AND id <> $2`, string(tripID), string(keepOfferID))
	return err
}

func (s *PGStore) DeleteOffers(ctx context.Context, tripID types.ID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM trip_offers WHERE trip_id = $1`, string(tripID))
	return err
}

func (s *PGStore) LastTripAt(ctx context.Context, driverID types.ID) (*time.Time, error) {
	row := s.db.QueryRow(ctx, `
		SELECT created_at FROM trips
		WHERE driver_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, string(driverID))
	var t time.Time
	err := row.Scan(&t)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *PGStore) CountPendingOffers(ctx context.Context, driverID types.ID) (int, error) {
	row := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM trip_offers
		WHERE driver_id = $1 AND status = 'pending'`, string(driverID))
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *PGStore) queryTrips(ctx context.Context, sql string, args ...any) ([]Trip, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *PGStore) queryOffers(ctx context.Context, sql string, args ...any) ([]Offer, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Offer
	for rows.Next() {
		var o Offer
		if err := rows.Scan(&o.ID, &o.TripID, &o.DriverID, &o.Tier, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanTrip(row pgx.Row) (*Trip, error) {
	var t Trip
	var driverID *string
	var fleet string
	err := row.Scan(
		&t.ID, &t.RiderID, &driverID, &fleet, &t.VehicleType, &t.Status,
		&t.CreatedAt, &t.AcceptedAt, &t.CompletedAt, &t.CancelledAt,
	)
	if err != nil {
		return nil, err
	}
	if driverID != nil {
		d := types.ID(*driverID)
		t.DriverID = &d
	}
	t.Fleet = driver.Fleet(fleet)
	return &t, nil
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
