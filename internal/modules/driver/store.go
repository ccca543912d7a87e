// README: Driver store contract and the PostgreSQL implementation.
package driver

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/rachana28/DHAPP-BACKEND/internal/types"
)

var ErrNotFound = errors.New("driver not found")

// Store is the read/write surface the rest of the system needs from the
// driver directory. ListAvailable feeds ranking and must always reflect
// current availability, so it never goes through the cache.
type Store interface {
	Create(ctx context.Context, d *Driver) error
	Get(ctx context.Context, id types.ID) (*Driver, error)
	GetByUser(ctx context.Context, userID types.ID) (*Driver, error)
	List(ctx context.Context, fleet Fleet) ([]Driver, error)
	ListAvailable(ctx context.Context, fleet Fleet, vehicleType string) ([]Driver, error)
	SetStatus(ctx context.Context, id types.ID, status Status) error
}

const listCacheTTL = 5 * time.Minute

// PGStore persists drivers in Postgres and keeps a redis cache of the
// public driver listing, invalidated on every status write.
type PGStore struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewPGStore(db *pgxpool.Pool, redisClient *redis.Client) *PGStore {
	return &PGStore{db: db, redis: redisClient}
}

const driverColumns = `id, user_id, name, phone, license_number, fleet, vehicle_type, status, rating, created_at`

func (s *PGStore) Create(ctx context.Context, d *Driver) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO drivers (`+driverColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		string(d.ID), string(d.UserID), d.Name, d.Phone, d.LicenseNumber,
		string(d.Fleet), d.VehicleType, string(d.Status), d.Rating, d.CreatedAt,
	)
	if err != nil {
		return err
	}
	s.invalidateListCache(ctx, d.Fleet)
	return nil
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Driver, error) {
	row := s.db.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, string(id))
	return scanDriver(row)
}

func (s *PGStore) GetByUser(ctx context.Context, userID types.ID) (*Driver, error) {
	row := s.db.QueryRow(ctx, `SELECT `+driverColumns+` FROM drivers WHERE user_id = $1`, string(userID))
	return scanDriver(row)
}

// List returns all drivers of a fleet for the public listing endpoint.
// Results may be up to listCacheTTL stale; writes invalidate the key.
func (s *PGStore) List(ctx context.Context, fleet Fleet) ([]Driver, error) {
	key := listCacheKey(fleet)
	if s.redis != nil {
		if val, err := s.redis.Get(ctx, key).Result(); err == nil {
			var cached []Driver
			if json.Unmarshal([]byte(val), &cached) == nil {
				return cached, nil
			}
		}
	}

	drivers, err := s.queryDrivers(ctx, `
		SELECT `+driverColumns+` FROM drivers
		WHERE fleet = $1
		ORDER BY created_at, id`, string(fleet))
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if buf, err := json.Marshal(drivers); err == nil {
			s.redis.Set(ctx, key, buf, listCacheTTL)
		}
	}
	return drivers, nil
}

// ListAvailable returns available drivers in stable creation order.
// vehicleType filters when non-empty (the tow fleet passes "").
func (s *PGStore) ListAvailable(ctx context.Context, fleet Fleet, vehicleType string) ([]Driver, error) {
	if vehicleType == "" {
		return s.queryDrivers(ctx, `
			SELECT `+driverColumns+` FROM drivers
			WHERE fleet = $1 AND status = $2
			ORDER BY created_at, id`, string(fleet), string(StatusAvailable))
	}
	return s.queryDrivers(ctx, `
		SELECT `+driverColumns+` FROM drivers
		WHERE fleet = $1 AND status = $2 AND vehicle_type = $3
		ORDER BY created_at, id`, string(fleet), string(StatusAvailable), vehicleType)
}

func (s *PGStore) SetStatus(ctx context.Context, id types.ID, status Status) error {
	tag, err := s.db.Exec(ctx, `UPDATE drivers SET status = $1 WHERE id = $2`, string(status), string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.invalidateListCache(ctx, FleetRide)
	s.invalidateListCache(ctx, FleetTow)
	return nil
}

func (s *PGStore) queryDrivers(ctx context.Context, sql string, args ...any) ([]Driver, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Driver
	for rows.Next() {
		var d Driver
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.Name, &d.Phone, &d.LicenseNumber,
			&d.Fleet, &d.VehicleType, &d.Status, &d.Rating, &d.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PGStore) invalidateListCache(ctx context.Context, fleet Fleet) {
	if s.redis == nil {
		return
	}
	s.redis.Del(ctx, listCacheKey(fleet))
}

func listCacheKey(fleet Fleet) string {
	return "drivers:" + string(fleet)
}

func scanDriver(row pgx.Row) (*Driver, error) {
	var d Driver
	err := row.Scan(
		&d.ID, &d.UserID, &d.Name, &d.Phone, &d.LicenseNumber,
		&d.Fleet, &d.VehicleType, &d.Status, &d.Rating, &d.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}
