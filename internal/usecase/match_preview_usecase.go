package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"skillswap/internal/config"
	"skillswap/internal/domain/matching"
	"skillswap/internal/domain/skill"
	"skillswap/internal/domain/user"
	"skillswap/internal/infrastructure/cache"
)

var (
	ErrInvalidRequest             = errors.New("invalid request")
	ErrUnauthorized               = errors.New("unauthorized")
	ErrRequesterNotFound          = errors.New("requester not found")
	ErrCandidateSourceUnavailable = errors.New("candidate source unavailable")
	ErrInternal                   = errors.New("internal error")
)

// PreviewParams is the validated form of one match-preview call.
type PreviewParams struct {
	SkillTags    []string
	Location     string
	SkillLevel   string
	Availability string
	Limit        int
	Offset       int
	SortBy       string
}

const (
	maxLimit            = 100
	availabilityAny     = ""
	availabilityOverlap = "overlap"
)

type PreviewCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	InvalidatePreviews(ctx context.Context, requesterID uuid.UUID) error
}

type MatchPreviewUsecase interface {
	Preview(ctx context.Context, requesterID uuid.UUID, params PreviewParams) (matching.Preview, error)
	Refresh(ctx context.Context, requesterID uuid.UUID) error
}

type MatchPreview struct {
	users  user.Store
	conns  user.ConnectionStore
	ranker *matching.Ranker
	cache  PreviewCache

	breaker   *gobreaker.CircuitBreaker
	scanBound int
	cacheTTL  time.Duration
	log       zerolog.Logger
}

func NewMatchPreviewUsecase(
	users user.Store,
	conns user.ConnectionStore,
	ranker *matching.Ranker,
	cache PreviewCache,
	cfg config.MatchingConfig,
	log zerolog.Logger,
) *MatchPreview {
	scanBound := cfg.ScanBound
	if scanBound <= 0 {
		scanBound = 10000
	}

	// The pool fetch is the one I/O dependency of a preview; when the
	// store is down, fail fast instead of queueing scans against it.
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "candidate-pool",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &MatchPreview{
		users:     users,
		conns:     conns,
		ranker:    ranker,
		cache:     cache,
		breaker:   breaker,
		scanBound: scanBound,
		cacheTTL:  cfg.PreviewCacheTTL,
		log:       log,
	}
}

func (u *MatchPreview) Preview(ctx context.Context, requesterID uuid.UUID, params PreviewParams) (matching.Preview, error) {
	if requesterID == uuid.Nil {
		return matching.Preview{}, ErrUnauthorized
	}

	req, err := buildRequest(params)
	if err != nil {
		return matching.Preview{}, err
	}

	requester, err := u.users.GetByID(ctx, requesterID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return matching.Preview{}, ErrRequesterNotFound
		}
		return matching.Preview{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	cacheKey := previewCacheKey(requesterID, params)
	if u.cache != nil {
		var cached matching.Preview
		if hit, err := u.cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	pool, truncated, err := u.fetchPool(ctx, requesterID, req)
	if err != nil {
		return matching.Preview{}, err
	}

	preview, err := u.ranker.Build(ctx, req, requester, pool)
	if err != nil {
		// Cancellation discards partial work; nothing truncated is returned.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return matching.Preview{}, err
		}
		return matching.Preview{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	preview.PoolTruncated = truncated

	if u.cache != nil {
		if err := u.cache.SetJSON(ctx, cacheKey, preview, u.cacheTTL); err != nil {
			u.log.Debug().Err(err).Msg("preview cache write failed")
		}
	}
	return preview, nil
}

// Refresh drops the requester's cached previews so the next call rescans
// the pool. Profile and skill edits land in other services; this is the
// hook they (or the user) use to see them reflected immediately.
func (u *MatchPreview) Refresh(ctx context.Context, requesterID uuid.UUID) error {
	if requesterID == uuid.Nil {
		return ErrUnauthorized
	}
	if u.cache == nil {
		return nil
	}
	if err := u.cache.InvalidatePreviews(ctx, requesterID); err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return nil
}

// fetchPool pulls up to scanBound+1 candidates behind the circuit breaker
// and strips users connected to or blocked by the requester.
func (u *MatchPreview) fetchPool(ctx context.Context, requesterID uuid.UUID, req matching.Request) ([]user.Profile, bool, error) {
	res, err := u.breaker.Execute(func() (any, error) {
		return u.users.ListCandidates(ctx, requesterID, user.CandidateFilter{
			Location: req.Location,
			Limit:    u.scanBound + 1,
		})
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrCandidateSourceUnavailable, err)
	}
	pool := res.([]user.Profile)

	truncated := false
	if len(pool) > u.scanBound {
		pool = pool[:u.scanBound]
		truncated = true
	}

	related, err := u.conns.RelatedIDs(ctx, requesterID)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if len(related) == 0 {
		return pool, truncated, nil
	}

	filtered := pool[:0]
	for _, p := range pool {
		if _, ok := related[p.ID]; ok {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered, truncated, nil
}

func buildRequest(params PreviewParams) (matching.Request, error) {
	sortKey, ok := matching.ParseSortKey(params.SortBy)
	if !ok {
		return matching.Request{}, fmt.Errorf("%w: unknown sort key %q", ErrInvalidRequest, params.SortBy)
	}

	if params.Limit < 0 || params.Limit > maxLimit {
		return matching.Request{}, fmt.Errorf("%w: limit out of range", ErrInvalidRequest)
	}
	if params.Offset < 0 {
		return matching.Request{}, fmt.Errorf("%w: negative offset", ErrInvalidRequest)
	}

	var level skill.Level
	if params.SkillLevel != "" {
		parsed, ok := skill.ParseLevel(params.SkillLevel)
		if !ok {
			return matching.Request{}, fmt.Errorf("%w: unknown skill level %q", ErrInvalidRequest, params.SkillLevel)
		}
		level = parsed
	}

	switch params.Availability {
	case availabilityAny, availabilityOverlap:
	default:
		return matching.Request{}, fmt.Errorf("%w: unknown availability filter %q", ErrInvalidRequest, params.Availability)
	}

	tags := make([]string, 0, len(params.SkillTags))
	for _, t := range params.SkillTags {
		if n := skill.NormalizeTag(t); n != "" {
			tags = append(tags, n)
		}
	}

	limit := params.Limit
	if limit == 0 {
		limit = matching.DefaultLimit
	}

	return matching.Request{
		SkillTags:      tags,
		Location:       strings.TrimSpace(params.Location),
		SkillLevel:     level,
		RequireOverlap: params.Availability == availabilityOverlap,
		Limit:          limit,
		Offset:         params.Offset,
		Sort:           sortKey,
	}, nil
}

// previewCacheKey hashes the request shape so equivalent requests share a
// cache entry and the per-requester prefix stays pattern-invalidatable.
// Tags are normalized and sorted first, so casing and order don't split
// identical requests into distinct entries.
func previewCacheKey(requesterID uuid.UUID, params PreviewParams) string {
	tags := make([]string, 0, len(params.SkillTags))
	for _, t := range params.SkillTags {
		if n := skill.NormalizeTag(t); n != "" {
			tags = append(tags, n)
		}
	}
	sort.Strings(tags)

	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%d|%d|%s",
		strings.Join(tags, ","),
		strings.ToLower(strings.TrimSpace(params.Location)),
		params.SkillLevel,
		params.Availability,
		params.Limit,
		params.Offset,
		params.SortBy,
	)
	return cache.PreviewKey(requesterID, hex.EncodeToString(h.Sum(nil))[:16])
}
