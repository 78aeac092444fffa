package skill

import (
	"sort"
	"strings"
)

type Kind string

const (
	KindTeach Kind = "teach"
	KindLearn Kind = "learn"
)

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
	LevelExpert       Level = "expert"
)

func ParseLevel(s string) (Level, bool) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelBeginner:
		return LevelBeginner, true
	case LevelIntermediate:
		return LevelIntermediate, true
	case LevelAdvanced:
		return LevelAdvanced, true
	case LevelExpert:
		return LevelExpert, true
	}
	return "", false
}

// Rank orders levels for comparisons; unknown levels rank lowest.
func (l Level) Rank() int {
	switch l {
	case LevelBeginner:
		return 1
	case LevelIntermediate:
		return 2
	case LevelAdvanced:
		return 3
	case LevelExpert:
		return 4
	}
	return 0
}

type Skill struct {
	Tag   string
	Kind  Kind
	Level Level
}

// NormalizeTag is applied once at ingestion; all set operations assume
// tags are already trimmed and lowercased.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// Set maps a normalized tag to the registered proficiency level.
type Set map[string]Level

func (s Set) Tags() []string {
	out := make([]string, 0, len(s))
	for tag := range s {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

func (s Set) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// Index holds one user's teach and learn sets.
type Index struct {
	Teach Set
	Learn Set
}

// NewIndex builds an index from raw skills, normalizing tags and keeping
// the highest level when a tag is registered twice for the same kind.
func NewIndex(skills []Skill) Index {
	idx := Index{Teach: Set{}, Learn: Set{}}
	for _, sk := range skills {
		tag := NormalizeTag(sk.Tag)
		if tag == "" {
			continue
		}
		var set Set
		switch sk.Kind {
		case KindTeach:
			set = idx.Teach
		case KindLearn:
			set = idx.Learn
		default:
			continue
		}
		if cur, ok := set[tag]; !ok || sk.Level.Rank() > cur.Rank() {
			set[tag] = sk.Level
		}
	}
	return idx
}

// Size is the total number of registered skills of both kinds.
func (i Index) Size() int {
	return len(i.Teach) + len(i.Learn)
}

func (i Index) Empty() bool {
	return i.Size() == 0
}

type Match struct {
	// TeachToLearn: tags the requester teaches that the candidate wants
	// to learn. LearnToTeach: tags the requester wants that the candidate
	// teaches. Both sorted for stable output.
	TeachToLearn  []string
	LearnToTeach  []string
	Bidirectional bool
}

func (m Match) Empty() bool {
	return len(m.TeachToLearn) == 0 && len(m.LearnToTeach) == 0
}

// OverlapTags is the union of both directions, sorted and deduplicated.
func (m Match) OverlapTags() []string {
	seen := make(map[string]struct{}, len(m.TeachToLearn)+len(m.LearnToTeach))
	out := make([]string, 0, len(seen))
	for _, lists := range [][]string{m.TeachToLearn, m.LearnToTeach} {
		for _, tag := range lists {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	sort.Strings(out)
	return out
}

// MatchIndexes computes bidirectional complementarity between two users.
func MatchIndexes(requester, candidate Index) Match {
	m := Match{
		TeachToLearn: intersect(requester.Teach, candidate.Learn),
		LearnToTeach: intersect(requester.Learn, candidate.Teach),
	}
	m.Bidirectional = len(m.TeachToLearn) > 0 && len(m.LearnToTeach) > 0
	return m
}

func intersect(a, b Set) []string {
	out := make([]string, 0)
	for tag := range a {
		if b.Has(tag) {
			out = append(out, tag)
		}
	}
	sort.Strings(out)
	return out
}
