package dto

import (
	"sort"

	"github.com/google/uuid"

	"skillswap/internal/domain/matching"
)

// MatchPreviewQuery is the bound+validated query string of the preview
// route. Tags arrive comma separated and are normalized downstream.
type MatchPreviewQuery struct {
	Skills       []string `validate:"omitempty,max=20,dive,min=1,max=64"`
	Location     string   `validate:"omitempty,max=128"`
	SkillLevel   string   `validate:"omitempty,oneof=beginner intermediate advanced expert"`
	Availability string   `validate:"omitempty,oneof=overlap"`
	Limit        int      `validate:"min=0,max=100"`
	Offset       int      `validate:"min=0"`
	SortBy       string   `validate:"omitempty,oneof=match_score last_active name location"`
}

type MatchUserResponse struct {
	ID              uuid.UUID `json:"id"`
	Handle          string    `json:"handle"`
	FullName        string    `json:"full_name"`
	Bio             string    `json:"bio,omitempty"`
	AvatarURL       string    `json:"avatar_url,omitempty"`
	LocationCity    string    `json:"location_city,omitempty"`
	LocationCountry string    `json:"location_country,omitempty"`
	Timezone        string    `json:"timezone"`
}

type MatchSkillsResponse struct {
	Teach   []string `json:"teach"`
	Learn   []string `json:"learn"`
	Overlap []string `json:"overlap"`
}

type MatchAvailabilityResponse struct {
	Overlap    int     `json:"overlap"`
	Percentage float64 `json:"percentage"`
}

type MatchCandidateResponse struct {
	User         MatchUserResponse         `json:"user"`
	Skills       MatchSkillsResponse       `json:"skills"`
	Availability MatchAvailabilityResponse `json:"availability"`
	Score        float64                   `json:"score"`
	Reason       string                    `json:"reason"`
}

type MatchPreviewResponse struct {
	Matches []MatchCandidateResponse `json:"matches"`
	Total   int                      `json:"total"`
	HasMore bool                     `json:"has_more"`

	AvailabilityUnset bool `json:"availability_unset,omitempty"`
	PoolTruncated     bool `json:"pool_truncated,omitempty"`
}

func NewMatchPreviewResponse(p matching.Preview) MatchPreviewResponse {
	out := MatchPreviewResponse{
		Matches:           make([]MatchCandidateResponse, 0, len(p.Matches)),
		Total:             p.Total,
		HasMore:           p.HasMore,
		AvailabilityUnset: p.AvailabilityUnset,
		PoolTruncated:     p.PoolTruncated,
	}
	for _, m := range p.Matches {
		out.Matches = append(out.Matches, MatchCandidateResponse{
			User: MatchUserResponse{
				ID:              m.Profile.ID,
				Handle:          m.Profile.Handle,
				FullName:        m.Profile.FullName,
				Bio:             m.Profile.Bio,
				AvatarURL:       m.Profile.AvatarURL,
				LocationCity:    m.Profile.LocationCity,
				LocationCountry: m.Profile.LocationCountry,
				Timezone:        m.Profile.Timezone,
			},
			Skills: MatchSkillsResponse{
				Teach:   m.Profile.Skills.Teach.Tags(),
				Learn:   m.Profile.Skills.Learn.Tags(),
				Overlap: overlapTags(m),
			},
			Availability: MatchAvailabilityResponse{
				Overlap:    m.OverlapHours,
				Percentage: m.OverlapPercentage,
			},
			Score:  m.Score,
			Reason: m.Reason,
		})
	}
	return out
}

func overlapTags(m matching.Candidate) []string {
	seen := make(map[string]struct{}, len(m.TeachToLearn)+len(m.LearnToTeach))
	out := make([]string, 0, len(m.TeachToLearn)+len(m.LearnToTeach))
	for _, list := range [][]string{m.TeachToLearn, m.LearnToTeach} {
		for _, tag := range list {
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
