package availability

import (
	"errors"
	"math"
	"math/bits"
	"strings"
)

// SlotsPerWeek is the number of hour slots in a week mask. Slot index is
// dayOfWeek*24 + hourOfDay, day 0 = Monday, all in UTC. The storage and
// seed forms (migrations, availability_mask column) use the same origin.
const SlotsPerWeek = 168

const maskWords = 3

var ErrBadLength = errors.New("availability mask must have exactly 168 slots")

// Mask is a weekly availability bit vector, one bit per UTC hour of week.
// The zero value means "never available" (or never configured).
type Mask [maskWords]uint64

func FromSlots(slots []bool) (Mask, error) {
	if len(slots) != SlotsPerWeek {
		return Mask{}, ErrBadLength
	}
	var m Mask
	for i, set := range slots {
		if set {
			m[i/64] |= 1 << uint(i%64)
		}
	}
	return m, nil
}

// FromBitString parses a 168-character string of '0'/'1' characters, the
// storage form used by the profile store.
func FromBitString(s string) (Mask, error) {
	if len(s) != SlotsPerWeek {
		return Mask{}, ErrBadLength
	}
	var m Mask
	for i := 0; i < SlotsPerWeek; i++ {
		switch s[i] {
		case '1':
			m[i/64] |= 1 << uint(i%64)
		case '0':
		default:
			return Mask{}, ErrBadLength
		}
	}
	return m, nil
}

func (m Mask) BitString() string {
	var b strings.Builder
	b.Grow(SlotsPerWeek)
	for i := 0; i < SlotsPerWeek; i++ {
		if m.Slot(i) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func (m Mask) Slot(i int) bool {
	if i < 0 || i >= SlotsPerWeek {
		return false
	}
	return m[i/64]&(1<<uint(i%64)) != 0
}

// WithSlot returns a copy of the mask with one hour slot set.
func (m Mask) WithSlot(day, hour int) Mask {
	if day < 0 || day > 6 || hour < 0 || hour > 23 {
		return m
	}
	i := day*24 + hour
	m[i/64] |= 1 << uint(i%64)
	return m
}

// Hours is the number of available hours in the mask.
func (m Mask) Hours() int {
	return bits.OnesCount64(m[0]) + bits.OnesCount64(m[1]) + bits.OnesCount64(m[2])
}

func (m Mask) IsZero() bool {
	return m[0] == 0 && m[1] == 0 && m[2] == 0
}

type Overlap struct {
	Hours      int
	Percentage float64
}

// OverlapWith intersects the two masks. The percentage is relative to the
// receiver's own available hours, so the receiver must be the requester:
// a candidate who is free every hour of the week does not score higher than
// one who is free exactly when the requester is. A requester with an empty
// mask gets percentage 0 for every candidate.
func (m Mask) OverlapWith(other Mask) Overlap {
	hours := bits.OnesCount64(m[0]&other[0]) +
		bits.OnesCount64(m[1]&other[1]) +
		bits.OnesCount64(m[2]&other[2])

	own := m.Hours()
	if own == 0 {
		return Overlap{Hours: hours}
	}
	pct := float64(hours) / float64(own) * 100
	return Overlap{Hours: hours, Percentage: math.Round(pct*100) / 100}
}
