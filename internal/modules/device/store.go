// README: Device store contract and the PostgreSQL implementation.
package device

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rachana28/DHAPP-BACKEND/internal/types"
)

var ErrBadToken = errors.New("invalid device token")

// Store keeps one row per registered device token. Register is an upsert on
// the token so re-installs move the token between users cleanly; dead
// tokens are removed by the notifier when the push provider reports them
// unregistered.
type Store interface {
	Register(ctx context.Context, d *Device) error
	ListByUsers(ctx context.Context, userIDs []types.ID) ([]Device, error)
	DeleteToken(ctx context.Context, token string) error
}

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Register(ctx context.Context, d *Device) error {
	if d.Token == "" {
		return ErrBadToken
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO user_devices (id, user_id, token, platform, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (token) DO UPDATE SET user_id = EXCLUDED.user_id, platform = EXCLUDED.platform`,
		string(d.ID), string(d.UserID), d.Token, d.Platform, d.CreatedAt,
	)
	return err
}

func (s *PGStore) ListByUsers(ctx context.Context, userIDs []types.ID) ([]Device, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(userIDs))
	for i, id := range userIDs {
		ids[i] = string(id)
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, user_id, token, platform, created_at
		FROM user_devices
		WHERE user_id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Device
	for rows.Next() {
		var d Device
		if err := rows.Scan(&d.ID, &d.UserID, &d.Token, &d.Platform, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PGStore) DeleteToken(ctx context.Context, token string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM user_devices WHERE token = $1`, token)
	return err
}
