package matching

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"skillswap/internal/domain/skill"
	"skillswap/internal/domain/user"
)

type SortKey string

const (
	SortByScore      SortKey = "match_score"
	SortByLastActive SortKey = "last_active"
	SortByName       SortKey = "name"
	SortByLocation   SortKey = "location"
)

func ParseSortKey(s string) (SortKey, bool) {
	switch SortKey(s) {
	case "", SortByScore:
		return SortByScore, true
	case SortByLastActive:
		return SortByLastActive, true
	case SortByName:
		return SortByName, true
	case SortByLocation:
		return SortByLocation, true
	}
	return "", false
}

const (
	DefaultLimit             = 12
	DefaultParallelThreshold = 512
)

// Request is one match-preview computation. All tags are expected
// normalized; RequireOverlap maps the availability filter.
type Request struct {
	SkillTags      []string
	Location       string
	SkillLevel     skill.Level
	RequireOverlap bool

	Limit  int
	Offset int
	Sort   SortKey
}

type Candidate struct {
	Profile user.Profile

	TeachToLearn      []string
	LearnToTeach      []string
	OverlapHours      int
	OverlapPercentage float64
	Score             float64
	Reason            string
}

type Preview struct {
	Matches []Candidate
	Total   int
	HasMore bool

	// AvailabilityUnset reports that the requester never configured a
	// week mask, so every percentage is 0 by construction.
	AvailabilityUnset bool
	// PoolTruncated reports that the candidate fetch hit the scan bound.
	PoolTruncated bool
}

// Ranker turns a candidate pool snapshot into a filtered, scored, totally
// ordered and paginated preview. It holds no per-request state.
type Ranker struct {
	engine            *Engine
	parallelThreshold int
}

func NewRanker(engine *Engine, parallelThreshold int) *Ranker {
	if parallelThreshold <= 0 {
		parallelThreshold = DefaultParallelThreshold
	}
	return &Ranker{engine: engine, parallelThreshold: parallelThreshold}
}

// Build filters, scores and orders the pool. The pool must already exclude
// connected and blocked users; the requester themself is skipped here.
func (r *Ranker) Build(ctx context.Context, req Request, requester user.Profile, pool []user.Profile) (Preview, error) {
	scored, err := r.evaluatePool(ctx, req, requester, pool)
	if err != nil {
		return Preview{}, err
	}

	sortCandidates(scored, req.Sort)

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	total := len(scored)
	page := scored
	if offset >= total {
		page = nil
	} else {
		page = page[offset:]
		if len(page) > limit {
			page = page[:limit]
		}
	}

	return Preview{
		Matches:           page,
		Total:             total,
		HasMore:           offset+limit < total,
		AvailabilityUnset: requester.Availability.IsZero(),
	}, nil
}

func (r *Ranker) evaluatePool(ctx context.Context, req Request, requester user.Profile, pool []user.Profile) ([]Candidate, error) {
	if len(pool) >= r.parallelThreshold {
		return r.evaluateParallel(ctx, req, requester, pool)
	}

	out := make([]Candidate, 0, len(pool))
	for _, p := range pool {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if c, ok := r.evaluate(req, requester, p); ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// evaluateParallel splits the pool across workers. Results land in a
// pre-sized slice by pool index and are compacted afterwards, so the
// outcome is identical to the serial path.
func (r *Ranker) evaluateParallel(ctx context.Context, req Request, requester user.Profile, pool []user.Profile) ([]Candidate, error) {
	type slot struct {
		c  Candidate
		ok bool
	}
	slots := make([]slot, len(pool))

	g, gctx := errgroup.WithContext(ctx)
	const workers = 8
	chunk := (len(pool) + workers - 1) / workers
	for start := 0; start < len(pool); start += chunk {
		end := start + chunk
		if end > len(pool) {
			end = len(pool)
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				c, ok := r.evaluate(req, requester, pool[i])
				slots[i] = slot{c: c, ok: ok}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(pool))
	for _, s := range slots {
		if s.ok {
			out = append(out, s.c)
		}
	}
	return out, nil
}

func (r *Ranker) evaluate(req Request, requester user.Profile, p user.Profile) (Candidate, bool) {
	if p.ID == requester.ID {
		return Candidate{}, false
	}

	m := skill.MatchIndexes(requester.Skills, p.Skills)

	// Skill overlap is a hard filter only when the requester registered at
	// least one skill; an empty profile browses the whole pool unscored on
	// the skill term.
	if !requester.Skills.Empty() && m.Empty() {
		return Candidate{}, false
	}
	if !matchesFilters(req, p, m) {
		return Candidate{}, false
	}

	ov := requester.Availability.OverlapWith(p.Availability)
	if req.RequireOverlap && ov.Hours == 0 {
		return Candidate{}, false
	}

	score, reason := r.engine.Score(requester, p, m, ov)
	return Candidate{
		Profile:           p,
		TeachToLearn:      m.TeachToLearn,
		LearnToTeach:      m.LearnToTeach,
		OverlapHours:      ov.Hours,
		OverlapPercentage: ov.Percentage,
		Score:             score,
		Reason:            reason,
	}, true
}

func matchesFilters(req Request, p user.Profile, m skill.Match) bool {
	if len(req.SkillTags) > 0 {
		hit := false
		for _, tag := range req.SkillTags {
			if p.Skills.Teach.Has(tag) || p.Skills.Learn.Has(tag) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}

	if req.Location != "" {
		loc := strings.ToLower(req.Location)
		city := strings.ToLower(p.LocationCity)
		country := strings.ToLower(p.LocationCountry)
		if !strings.Contains(city, loc) && !strings.Contains(country, loc) {
			return false
		}
	}

	// The level filter keeps candidates who teach something at or above the
	// requested level, preferring tags the requester actually wants.
	if req.SkillLevel != "" {
		want := req.SkillLevel.Rank()
		hit := false
		for _, lvl := range p.Skills.Teach {
			if lvl.Rank() >= want {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}

	return true
}

// sortCandidates applies a total order for every sort key: the trailing
// handle comparison guarantees repeated requests over an unchanged pool
// paginate identically.
func sortCandidates(cs []Candidate, key SortKey) {
	sort.Slice(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		switch key {
		case SortByLastActive:
			if !a.Profile.LastActiveAt.Equal(b.Profile.LastActiveAt) {
				return a.Profile.LastActiveAt.After(b.Profile.LastActiveAt)
			}
		case SortByName:
			an, bn := displayName(a.Profile), displayName(b.Profile)
			if an != bn {
				return an < bn
			}
		case SortByLocation:
			ac, bc := strings.ToLower(a.Profile.LocationCity), strings.ToLower(b.Profile.LocationCity)
			if ac != bc {
				return ac < bc
			}
			aco, bco := strings.ToLower(a.Profile.LocationCountry), strings.ToLower(b.Profile.LocationCountry)
			if aco != bco {
				return aco < bco
			}
		default: // SortByScore
			if a.Score != b.Score {
				return a.Score > b.Score
			}
			if a.OverlapHours != b.OverlapHours {
				return a.OverlapHours > b.OverlapHours
			}
		}
		if a.Profile.Handle != b.Profile.Handle {
			return a.Profile.Handle < b.Profile.Handle
		}
		return lessUUID(a.Profile.ID, b.Profile.ID)
	})
}

func displayName(p user.Profile) string {
	if p.FullName != "" {
		return strings.ToLower(p.FullName)
	}
	return strings.ToLower(p.Handle)
}

func lessUUID(a, b uuid.UUID) bool {
	return strings.Compare(a.String(), b.String()) < 0
}
