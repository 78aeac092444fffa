package user

import (
	"time"

	"github.com/google/uuid"

	"skillswap/internal/domain/availability"
	"skillswap/internal/domain/skill"
)

// Profile is the read-model this service consumes. It is owned and mutated
// by the profile/skill/availability services; the matching core only ever
// reads a per-request snapshot of it.
type Profile struct {
	ID              uuid.UUID
	Handle          string
	FullName        string
	Bio             string
	AvatarURL       string
	LocationCity    string
	LocationCountry string
	Timezone        string
	LastActiveAt    time.Time

	Skills       skill.Index
	Availability availability.Mask
}
