package matching

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"skillswap/internal/domain/availability"
	"skillswap/internal/domain/skill"
	"skillswap/internal/domain/user"
)

// Weights control the relative contribution of each signal. They are
// configuration, not constants: the defaults are tuning starting points
// and callers override them without touching the engine.
type Weights struct {
	Skill        float64
	Availability float64
	Recency      float64
	Location     float64
}

func DefaultWeights() Weights {
	return Weights{Skill: 0.5, Availability: 0.3, Recency: 0.1, Location: 0.1}
}

func (w Weights) sum() float64 {
	return w.Skill + w.Availability + w.Recency + w.Location
}

const (
	DefaultRecencyHalfLife    = 14 * 24 * time.Hour
	DefaultBidirectionalBoost = 1.25
)

type EngineConfig struct {
	Weights            Weights
	RecencyHalfLife    time.Duration
	BidirectionalBoost float64
}

type Engine struct {
	weights  Weights
	halfLife time.Duration
	boost    float64

	now func() time.Time
}

func NewEngine(cfg EngineConfig) *Engine {
	e := &Engine{
		weights:  cfg.Weights,
		halfLife: cfg.RecencyHalfLife,
		boost:    cfg.BidirectionalBoost,
		now:      time.Now,
	}
	if e.weights.sum() <= 0 {
		e.weights = DefaultWeights()
	}
	if e.halfLife <= 0 {
		e.halfLife = DefaultRecencyHalfLife
	}
	if e.boost <= 0 {
		e.boost = DefaultBidirectionalBoost
	}
	return e
}

// Score reduces the raw signals to a 0-100 score and a one-sentence reason.
// Missing signals (empty mask, zero last-active) degrade to 0 for that term
// only; a candidate is never rejected here.
func (e *Engine) Score(requester, candidate user.Profile, m skill.Match, ov availability.Overlap) (float64, string) {
	skillScore := e.skillScore(requester, m)
	availScore := ov.Percentage / 100
	recScore := e.recencyScore(candidate.LastActiveAt)
	locScore := locationScore(requester, candidate)

	terms := []scoreTerm{
		{kind: termSkill, weighted: e.weights.Skill * skillScore},
		{kind: termAvailability, weighted: e.weights.Availability * availScore},
		{kind: termLocation, weighted: e.weights.Location * locScore},
		{kind: termRecency, weighted: e.weights.Recency * recScore},
	}

	var total float64
	for _, t := range terms {
		total += t.weighted
	}
	score := round2(total / e.weights.sum() * 100)

	return score, buildReason(terms, candidate, m, ov)
}

func (e *Engine) skillScore(requester user.Profile, m skill.Match) float64 {
	hits := len(m.TeachToLearn) + len(m.LearnToTeach)
	if hits == 0 {
		return 0
	}
	den := requester.Skills.Size()
	if den < 1 {
		den = 1
	}
	score := math.Min(1, float64(hits)/float64(den))
	if m.Bidirectional {
		score = math.Min(1, score*e.boost)
	}
	return score
}

func (e *Engine) recencyScore(lastActive time.Time) float64 {
	if lastActive.IsZero() {
		return 0
	}
	age := e.now().Sub(lastActive)
	if age <= 0 {
		return 1
	}
	return math.Exp(-math.Ln2 * float64(age) / float64(e.halfLife))
}

func locationScore(a, b user.Profile) float64 {
	sameCity := a.LocationCity != "" && strings.EqualFold(a.LocationCity, b.LocationCity)
	sameCountry := a.LocationCountry != "" && strings.EqualFold(a.LocationCountry, b.LocationCountry)
	switch {
	case sameCity && sameCountry:
		return 1
	case sameCity && a.LocationCountry == "" && b.LocationCountry == "":
		return 1
	case sameCountry:
		return 0.5
	}
	return 0
}

type termKind int

// Declaration order is the tie-break priority between equal contributions.
const (
	termSkill termKind = iota
	termAvailability
	termLocation
	termRecency
)

type scoreTerm struct {
	kind     termKind
	weighted float64
}

// buildReason names the two highest-contributing terms in one sentence.
// Ties fall back to the fixed priority order so identical inputs always
// produce identical text.
func buildReason(terms []scoreTerm, candidate user.Profile, m skill.Match, ov availability.Overlap) string {
	top := make([]scoreTerm, 0, 2)
	for _, t := range terms {
		if t.weighted <= 0 {
			continue
		}
		top = append(top, t)
	}
	// Stable selection sort over at most four entries; earlier kinds win ties.
	for i := 0; i < len(top); i++ {
		best := i
		for j := i + 1; j < len(top); j++ {
			if top[j].weighted > top[best].weighted {
				best = j
			}
		}
		top[i], top[best] = top[best], top[i]
	}
	if len(top) > 2 {
		top = top[:2]
	}

	phrases := make([]string, 0, 2)
	for _, t := range top {
		if p := termPhrase(t.kind, candidate, m, ov); p != "" {
			phrases = append(phrases, p)
		}
	}
	if len(phrases) == 0 {
		return "Few match signals yet; add skills and availability to improve matches."
	}
	return capitalize(strings.Join(phrases, "; ")) + "."
}

func termPhrase(kind termKind, candidate user.Profile, m skill.Match, ov availability.Overlap) string {
	switch kind {
	case termSkill:
		switch {
		case len(m.TeachToLearn) > 0 && len(m.LearnToTeach) > 0:
			return fmt.Sprintf("you can teach %s and learn %s", joinTags(m.TeachToLearn), joinTags(m.LearnToTeach))
		case len(m.TeachToLearn) > 0:
			return fmt.Sprintf("you can teach them %s", joinTags(m.TeachToLearn))
		case len(m.LearnToTeach) > 0:
			return fmt.Sprintf("you can learn %s from them", joinTags(m.LearnToTeach))
		}
		return ""
	case termAvailability:
		if ov.Hours == 1 {
			return "you share 1 overlapping hour per week"
		}
		return fmt.Sprintf("you share %d overlapping hours per week", ov.Hours)
	case termLocation:
		if candidate.LocationCity != "" {
			return fmt.Sprintf("you are both in %s", candidate.LocationCity)
		}
		if candidate.LocationCountry != "" {
			return fmt.Sprintf("you are both in %s", candidate.LocationCountry)
		}
		return ""
	case termRecency:
		return "they were active recently"
	}
	return ""
}

func joinTags(tags []string) string {
	switch len(tags) {
	case 0:
		return ""
	case 1:
		return tags[0]
	case 2:
		return tags[0] + " and " + tags[1]
	}
	return fmt.Sprintf("%s, %s and %d more", tags[0], tags[1], len(tags)-2)
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
