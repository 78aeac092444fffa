package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"skillswap/internal/config"
	"skillswap/internal/domain/matching"
	"skillswap/internal/domain/skill"
	"skillswap/internal/domain/user"
)

type mockUserStore struct {
	requester user.Profile
	pool      []user.Profile
	getErr    error
	listErr   error
	listCalls int
}

func (m *mockUserStore) GetByID(_ context.Context, id uuid.UUID) (user.Profile, error) {
	if m.getErr != nil {
		return user.Profile{}, m.getErr
	}
	if id != m.requester.ID {
		return user.Profile{}, user.ErrNotFound
	}
	return m.requester, nil
}

func (m *mockUserStore) ListCandidates(context.Context, uuid.UUID, user.CandidateFilter) ([]user.Profile, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.pool, nil
}

type mockConnStore struct {
	related map[uuid.UUID]struct{}
	err     error
}

func (m *mockConnStore) AreConnectedOrBlocked(_ context.Context, _, b uuid.UUID) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.related[b]
	return ok, nil
}

func (m *mockConnStore) RelatedIDs(context.Context, uuid.UUID) (map[uuid.UUID]struct{}, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.related, nil
}

type mockCache struct {
	data          map[string][]byte
	sets          int
	invalidations int
}

func (m *mockCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	b, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (m *mockCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = b
	m.sets++
	return nil
}

func (m *mockCache) InvalidatePreviews(_ context.Context, requesterID uuid.UUID) error {
	for k := range m.data {
		if strings.Contains(k, requesterID.String()) {
			delete(m.data, k)
		}
	}
	m.invalidations++
	return nil
}

func newTestUsecase(users *mockUserStore, conns *mockConnStore, c PreviewCache) *MatchPreview {
	ranker := matching.NewRanker(matching.NewEngine(matching.EngineConfig{}), 0)
	return NewMatchPreviewUsecase(users, conns, ranker, c, config.MatchingConfig{ScanBound: 100}, zerolog.Nop())
}

func teachingProfile(handle, tag string) user.Profile {
	return user.Profile{
		ID:     uuid.New(),
		Handle: handle,
		Skills: skill.NewIndex([]skill.Skill{{Tag: tag, Kind: skill.KindTeach, Level: skill.LevelAdvanced}}),
	}
}

func TestPreview_Unauthorized(t *testing.T) {
	uc := newTestUsecase(&mockUserStore{}, &mockConnStore{}, nil)
	_, err := uc.Preview(context.Background(), uuid.Nil, PreviewParams{})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestPreview_InvalidRequest(t *testing.T) {
	requester := teachingProfile("req", "go")
	uc := newTestUsecase(&mockUserStore{requester: requester}, &mockConnStore{}, nil)

	cases := []PreviewParams{
		{SortBy: "karma"},
		{Limit: -1},
		{Limit: 101},
		{Offset: -1},
		{SkillLevel: "guru"},
		{Availability: "weekends"},
	}
	for _, params := range cases {
		if _, err := uc.Preview(context.Background(), requester.ID, params); !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("params %+v: expected ErrInvalidRequest, got %v", params, err)
		}
	}
}

func TestPreview_RequesterNotFound(t *testing.T) {
	uc := newTestUsecase(&mockUserStore{requester: teachingProfile("req", "go")}, &mockConnStore{}, nil)
	_, err := uc.Preview(context.Background(), uuid.New(), PreviewParams{})
	if !errors.Is(err, ErrRequesterNotFound) {
		t.Fatalf("expected ErrRequesterNotFound, got %v", err)
	}
}

func TestPreview_CandidateSourceUnavailable(t *testing.T) {
	requester := teachingProfile("req", "go")
	users := &mockUserStore{requester: requester, listErr: errors.New("connection refused")}
	uc := newTestUsecase(users, &mockConnStore{}, nil)

	_, err := uc.Preview(context.Background(), requester.ID, PreviewParams{})
	if !errors.Is(err, ErrCandidateSourceUnavailable) {
		t.Fatalf("expected ErrCandidateSourceUnavailable, got %v", err)
	}
}

func TestPreview_ExcludesConnectedAndBlocked(t *testing.T) {
	requester := user.Profile{
		ID:     uuid.New(),
		Handle: "req",
		Skills: skill.NewIndex([]skill.Skill{{Tag: "go", Kind: skill.KindLearn, Level: skill.LevelBeginner}}),
	}
	friend := teachingProfile("friend", "go")
	stranger := teachingProfile("stranger", "go")

	users := &mockUserStore{requester: requester, pool: []user.Profile{friend, stranger}}
	conns := &mockConnStore{related: map[uuid.UUID]struct{}{friend.ID: {}}}
	uc := newTestUsecase(users, conns, nil)

	preview, err := uc.Preview(context.Background(), requester.ID, PreviewParams{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if preview.Total != 1 || preview.Matches[0].Profile.Handle != "stranger" {
		t.Fatalf("expected only stranger, got %+v", preview)
	}
}

func TestPreview_CacheHitSkipsPoolFetch(t *testing.T) {
	requester := user.Profile{
		ID:     uuid.New(),
		Handle: "req",
		Skills: skill.NewIndex([]skill.Skill{{Tag: "go", Kind: skill.KindLearn, Level: skill.LevelBeginner}}),
	}
	users := &mockUserStore{requester: requester, pool: []user.Profile{teachingProfile("cand", "go")}}
	c := &mockCache{}
	uc := newTestUsecase(users, &mockConnStore{}, c)

	first, err := uc.Preview(context.Background(), requester.ID, PreviewParams{})
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if c.sets != 1 {
		t.Fatalf("expected one cache write, got %d", c.sets)
	}

	second, err := uc.Preview(context.Background(), requester.ID, PreviewParams{})
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if users.listCalls != 1 {
		t.Fatalf("expected cached second call, pool fetched %d times", users.listCalls)
	}
	if first.Total != second.Total || len(first.Matches) != len(second.Matches) {
		t.Fatalf("cached preview differs")
	}
}

func TestPreview_ScanBoundTruncatesPool(t *testing.T) {
	requester := user.Profile{
		ID:     uuid.New(),
		Handle: "req",
		Skills: skill.NewIndex([]skill.Skill{{Tag: "go", Kind: skill.KindLearn, Level: skill.LevelBeginner}}),
	}
	pool := make([]user.Profile, 0, 8)
	for i := 0; i < 8; i++ {
		pool = append(pool, teachingProfile(string(rune('a'+i)), "go"))
	}
	users := &mockUserStore{requester: requester, pool: pool}

	ranker := matching.NewRanker(matching.NewEngine(matching.EngineConfig{}), 0)
	uc := NewMatchPreviewUsecase(users, &mockConnStore{}, ranker, nil, config.MatchingConfig{ScanBound: 5}, zerolog.Nop())

	preview, err := uc.Preview(context.Background(), requester.ID, PreviewParams{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !preview.PoolTruncated {
		t.Fatalf("expected PoolTruncated")
	}
	if preview.Total != 5 {
		t.Fatalf("expected 5 scored candidates, got %d", preview.Total)
	}
}

func TestPreview_AvailabilityUnsetFlag(t *testing.T) {
	requester := user.Profile{
		ID:     uuid.New(),
		Handle: "req",
		Skills: skill.NewIndex([]skill.Skill{{Tag: "go", Kind: skill.KindLearn, Level: skill.LevelBeginner}}),
	}
	cand := teachingProfile("cand", "go")
	cand.Availability = cand.Availability.WithSlot(3, 18)

	users := &mockUserStore{requester: requester, pool: []user.Profile{cand}}
	uc := newTestUsecase(users, &mockConnStore{}, nil)

	preview, err := uc.Preview(context.Background(), requester.ID, PreviewParams{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !preview.AvailabilityUnset {
		t.Fatalf("expected AvailabilityUnset flag")
	}
	if preview.Matches[0].OverlapPercentage != 0 {
		t.Fatalf("expected zero percentage, got %v", preview.Matches[0].OverlapPercentage)
	}
}

func TestPreview_CacheKeyIgnoresTagCasingAndOrder(t *testing.T) {
	requester := user.Profile{
		ID:     uuid.New(),
		Handle: "req",
		Skills: skill.NewIndex([]skill.Skill{{Tag: "go", Kind: skill.KindLearn, Level: skill.LevelBeginner}}),
	}
	users := &mockUserStore{requester: requester, pool: []user.Profile{teachingProfile("cand", "go")}}
	c := &mockCache{}
	uc := newTestUsecase(users, &mockConnStore{}, c)

	variants := []PreviewParams{
		{SkillTags: []string{"Go", "Rust"}},
		{SkillTags: []string{"go", "rust"}},
		{SkillTags: []string{"rust", " go "}},
	}
	for _, params := range variants {
		if _, err := uc.Preview(context.Background(), requester.ID, params); err != nil {
			t.Fatalf("preview %v: %v", params.SkillTags, err)
		}
	}

	if c.sets != 1 {
		t.Fatalf("expected one cache entry across equivalent requests, got %d writes", c.sets)
	}
	if users.listCalls != 1 {
		t.Fatalf("expected cached follow-ups, pool fetched %d times", users.listCalls)
	}
}

func TestRefresh_DropsCachedPreviews(t *testing.T) {
	requester := user.Profile{
		ID:     uuid.New(),
		Handle: "req",
		Skills: skill.NewIndex([]skill.Skill{{Tag: "go", Kind: skill.KindLearn, Level: skill.LevelBeginner}}),
	}
	users := &mockUserStore{requester: requester, pool: []user.Profile{teachingProfile("cand", "go")}}
	c := &mockCache{}
	uc := newTestUsecase(users, &mockConnStore{}, c)

	if _, err := uc.Preview(context.Background(), requester.ID, PreviewParams{}); err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(c.data) != 1 {
		t.Fatalf("expected one cached preview, got %d", len(c.data))
	}

	if err := uc.Refresh(context.Background(), requester.ID); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if c.invalidations != 1 || len(c.data) != 0 {
		t.Fatalf("expected cache emptied, invalidations=%d entries=%d", c.invalidations, len(c.data))
	}

	if _, err := uc.Preview(context.Background(), requester.ID, PreviewParams{}); err != nil {
		t.Fatalf("preview after refresh: %v", err)
	}
	if users.listCalls != 2 {
		t.Fatalf("expected pool refetch after refresh, listCalls=%d", users.listCalls)
	}
}

func TestRefresh_Unauthorized(t *testing.T) {
	uc := newTestUsecase(&mockUserStore{}, &mockConnStore{}, &mockCache{})
	if err := uc.Refresh(context.Background(), uuid.Nil); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
