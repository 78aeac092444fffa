package availability

import (
	"math/rand"
	"strings"
	"testing"
)

func TestFromSlots_RejectsWrongLength(t *testing.T) {
	for _, n := range []int{0, 1, 167, 169, 336} {
		if _, err := FromSlots(make([]bool, n)); err != ErrBadLength {
			t.Fatalf("len=%d: expected ErrBadLength, got %v", n, err)
		}
	}
}

func TestFromSlots_RoundTrip(t *testing.T) {
	slots := make([]bool, SlotsPerWeek)
	slots[0] = true
	slots[63] = true
	slots[64] = true
	slots[167] = true

	m, err := FromSlots(slots)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	for i, want := range slots {
		if m.Slot(i) != want {
			t.Fatalf("slot %d: got %v, want %v", i, m.Slot(i), want)
		}
	}
	if m.Hours() != 4 {
		t.Fatalf("expected 4 hours, got %d", m.Hours())
	}
}

func TestFromBitString(t *testing.T) {
	if _, err := FromBitString(strings.Repeat("1", 167)); err != ErrBadLength {
		t.Fatalf("expected ErrBadLength for short string, got %v", err)
	}
	if _, err := FromBitString(strings.Repeat("x", SlotsPerWeek)); err != ErrBadLength {
		t.Fatalf("expected ErrBadLength for bad char, got %v", err)
	}

	s := strings.Repeat("0", 9) + "1" + strings.Repeat("0", SlotsPerWeek-10)
	m, err := FromBitString(s)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !m.Slot(9) || m.Hours() != 1 {
		t.Fatalf("expected only slot 9 set, hours=%d", m.Hours())
	}
	if m.BitString() != s {
		t.Fatalf("bit string round trip mismatch")
	}
}

func randomMask(r *rand.Rand) Mask {
	slots := make([]bool, SlotsPerWeek)
	for i := range slots {
		slots[i] = r.Intn(3) == 0
	}
	m, _ := FromSlots(slots)
	return m
}

func TestOverlap_SelfEqualsOwnHours(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		m := randomMask(r)
		ov := m.OverlapWith(m)
		if ov.Hours != m.Hours() {
			t.Fatalf("self overlap %d != own hours %d", ov.Hours, m.Hours())
		}
		if m.Hours() > 0 && ov.Percentage != 100 {
			t.Fatalf("self overlap percentage %v, want 100", ov.Percentage)
		}
	}
}

func TestOverlap_HoursSymmetric(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 50; i++ {
		a, b := randomMask(r), randomMask(r)
		if a.OverlapWith(b).Hours != b.OverlapWith(a).Hours {
			t.Fatalf("overlap hours not symmetric")
		}
	}
}

func TestOverlap_PercentageInRange(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 100; i++ {
		a, b := randomMask(r), randomMask(r)
		pct := a.OverlapWith(b).Percentage
		if pct < 0 || pct > 100 {
			t.Fatalf("percentage %v out of range", pct)
		}
	}
}

func TestOverlap_MondayMorning(t *testing.T) {
	// Requester free Monday 09:00-12:00 UTC, candidate Monday 10:00-13:00.
	var a, b Mask
	for _, h := range []int{9, 10, 11} {
		a = a.WithSlot(1, h)
	}
	for _, h := range []int{10, 11, 12} {
		b = b.WithSlot(1, h)
	}

	ov := a.OverlapWith(b)
	if ov.Hours != 2 {
		t.Fatalf("expected 2 shared hours, got %d", ov.Hours)
	}
	if ov.Percentage != 66.67 {
		t.Fatalf("expected percentage 66.67, got %v", ov.Percentage)
	}
}

func TestOverlap_EmptyRequesterMask(t *testing.T) {
	var a Mask
	b := Mask{}.WithSlot(0, 0).WithSlot(6, 23)

	ov := a.OverlapWith(b)
	if ov.Hours != 0 || ov.Percentage != 0 {
		t.Fatalf("expected zero overlap for empty requester, got %+v", ov)
	}
	if !a.IsZero() {
		t.Fatalf("expected IsZero")
	}
}
