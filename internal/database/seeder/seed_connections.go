package seeder

import (
	"context"

	"skillswap/internal/database"
)

// ConnectionsSeeder links demo users so previews exercise the
// connected/blocked exclusion paths.
type ConnectionsSeeder struct{}

func (ConnectionsSeeder) Name() string { return "connections" }

func (ConnectionsSeeder) Run(ctx context.Context, db database.DB) error {
	if err := EnsureTableColumns(ctx, db, "connections", "requester_id", "addressee_id", "status"); err != nil {
		return err
	}

	links := []struct {
		From   string
		To     string
		Status string
	}{
		{From: "alice", To: "carol", Status: "accepted"},
		{From: "dmitri", To: "erin", Status: "blocked"},
		{From: "bob", To: "carol", Status: "pending"},
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	for _, l := range links {
		_, err := tx.Exec(
			ctx,
			`INSERT INTO connections (requester_id, addressee_id, status)
			 SELECT a.id, b.id, $3 FROM users a, users b WHERE a.handle = $1 AND b.handle = $2
			 ON CONFLICT (requester_id, addressee_id) DO UPDATE SET status = EXCLUDED.status, updated_at = now()`,
			l.From, l.To, l.Status,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}
