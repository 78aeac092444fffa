package repository

import (
	"context"

	"github.com/google/uuid"

	"skillswap/internal/database"
)

// PostgresConnectionStore reads the connections table owned by the
// connection/referral service:
//
//	connections(requester_id, addressee_id, status)
//
// Accepted connections and blocks both remove a candidate from previews;
// pending requests do not.
type PostgresConnectionStore struct {
	db database.DB
}

func NewPostgresConnectionStore(db database.DB) *PostgresConnectionStore {
	return &PostgresConnectionStore{db: db}
}

func (r *PostgresConnectionStore) AreConnectedOrBlocked(ctx context.Context, a, b uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM connections
			WHERE status IN ('accepted', 'blocked')
			  AND ((requester_id = $1 AND addressee_id = $2)
			    OR (requester_id = $2 AND addressee_id = $1))
		)`,
		a, b,
	).Scan(&exists)
	return exists, err
}

func (r *PostgresConnectionStore) RelatedIDs(ctx context.Context, id uuid.UUID) (map[uuid.UUID]struct{}, error) {
	rows, err := r.db.Query(ctx,
		`SELECT CASE WHEN requester_id = $1 THEN addressee_id ELSE requester_id END
		 FROM connections
		 WHERE status IN ('accepted', 'blocked')
		   AND (requester_id = $1 OR addressee_id = $1)`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]struct{})
	for rows.Next() {
		var other uuid.UUID
		if err := rows.Scan(&other); err != nil {
			return nil, err
		}
		out[other] = struct{}{}
	}
	return out, rows.Err()
}
