package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("user not found")

// CandidateFilter narrows the pool fetch at the store level. Fine-grained
// filters (skill tags, levels, availability) are applied by the ranking
// engine after the fetch.
type CandidateFilter struct {
	// Location is matched as a case-insensitive substring of city or country.
	Location string
	// Limit caps the fetch; callers pass the scan bound plus one to detect
	// truncation.
	Limit int
}

type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (Profile, error)
	ListCandidates(ctx context.Context, excludeID uuid.UUID, f CandidateFilter) ([]Profile, error)
}

type ConnectionStore interface {
	// AreConnectedOrBlocked reports whether an accepted connection or a
	// block exists between the two users, in either direction.
	AreConnectedOrBlocked(ctx context.Context, a, b uuid.UUID) (bool, error)
	// RelatedIDs is the batch form: every user connected to or blocking/
	// blocked by the given user.
	RelatedIDs(ctx context.Context, id uuid.UUID) (map[uuid.UUID]struct{}, error)
}
