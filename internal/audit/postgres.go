package audit

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgxpool.Pool used by PGStore.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const schemaSQL = `CREATE TABLE IF NOT EXISTS directory_decisions (
	id BIGSERIAL PRIMARY KEY,
	listing_id TEXT NOT NULL,
	business_name TEXT NOT NULL DEFAULT '',
	action TEXT NOT NULL CHECK (action IN ('APPROVE', 'REJECT')),
	request_id TEXT NOT NULL DEFAULT '',
	at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS directory_decisions_at_idx ON directory_decisions (at DESC)`

// PGStore keeps decisions in the directory_decisions table.
type PGStore struct {
	db DBTX
}

// NewPGStore constructs a PGStore.
func NewPGStore(db DBTX) *PGStore {
	return &PGStore{db: db}
}

// EnsureSchema creates the table when missing.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// InsertDecision implements Store.
func (s *PGStore) InsertDecision(ctx context.Context, d Decision) error {
	_, err := s.db.Exec(ctx, `INSERT INTO directory_decisions (listing_id, business_name, action, request_id, at)
VALUES ($1, $2, $3, $4, $5)`, d.ListingID, d.BusinessName, string(d.Action), d.RequestID, d.At)
	return err
}

// RecentDecisions implements Store.
func (s *PGStore) RecentDecisions(ctx context.Context, limit int) ([]Decision, error) {
	rows, err := s.db.Query(ctx, `SELECT id, listing_id, business_name, action, request_id, at
FROM directory_decisions ORDER BY at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Decision
	for rows.Next() {
		var d Decision
		var action string
		if err := rows.Scan(&d.ID, &d.ListingID, &d.BusinessName, &action, &d.RequestID, &d.At); err != nil {
			return nil, err
		}
		d.Action = Action(action)
		out = append(out, d)
	}
	return out, rows.Err()
}
