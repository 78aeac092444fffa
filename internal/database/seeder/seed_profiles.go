package seeder

import (
	"context"
	"time"

	"skillswap/internal/database"
	"skillswap/internal/domain/availability"
	"skillswap/internal/domain/skill"
)

// ProfilesSeeder inserts a small set of demo users with skills and weekly
// availability, enough to get non-trivial match previews on a fresh database.
type ProfilesSeeder struct{}

func (ProfilesSeeder) Name() string { return "profiles" }

type demoSkill struct {
	Tag   string
	Kind  skill.Kind
	Level skill.Level
}

type demoProfile struct {
	Handle      string
	FullName    string
	Bio         string
	City        string
	Country     string
	Timezone    string
	ActiveAgo   time.Duration
	Hours       [][2]int // (day, hour) pairs, Monday = 0
	Skills      []demoSkill
	NeverActive bool
}

func demoProfiles() []demoProfile {
	return []demoProfile{
		{
			Handle:    "alice",
			FullName:  "Alice Tran",
			Bio:       "Backend engineer, happy to trade Python time for frontend help.",
			City:      "berlin",
			Country:   "de",
			Timezone:  "Europe/Berlin",
			ActiveAgo: 24 * time.Hour,
			Hours:     [][2]int{{0, 9}, {0, 10}, {2, 19}, {2, 20}},
			Skills: []demoSkill{
				{Tag: "python", Kind: skill.KindTeach, Level: skill.LevelAdvanced},
				{Tag: "react", Kind: skill.KindLearn},
			},
		},
		{
			Handle:    "bob",
			FullName:  "Bob Keller",
			Bio:       "Frontend dev learning data work.",
			City:      "berlin",
			Country:   "de",
			Timezone:  "Europe/Berlin",
			ActiveAgo: 3 * 24 * time.Hour,
			Hours:     [][2]int{{0, 10}, {0, 11}, {5, 14}},
			Skills: []demoSkill{
				{Tag: "react", Kind: skill.KindTeach, Level: skill.LevelExpert},
				{Tag: "python", Kind: skill.KindLearn},
			},
		},
		{
			Handle:    "carol",
			FullName:  "Carol Osei",
			Bio:       "Designer who mentors on figma and wants to pick up spanish.",
			City:      "lisbon",
			Country:   "pt",
			Timezone:  "Europe/Lisbon",
			ActiveAgo: 7 * 24 * time.Hour,
			Hours:     [][2]int{{1, 18}, {1, 19}, {6, 10}},
			Skills: []demoSkill{
				{Tag: "figma", Kind: skill.KindTeach, Level: skill.LevelIntermediate},
				{Tag: "spanish", Kind: skill.KindLearn},
			},
		},
		{
			Handle:    "dmitri",
			FullName:  "Dmitri Volkov",
			Bio:       "Native Spanish speaker, trading language lessons for design feedback.",
			City:      "lisbon",
			Country:   "pt",
			Timezone:  "Europe/Lisbon",
			ActiveAgo: 2 * 24 * time.Hour,
			Hours:     [][2]int{{1, 18}, {3, 20}, {6, 10}, {6, 11}},
			Skills: []demoSkill{
				{Tag: "spanish", Kind: skill.KindTeach, Level: skill.LevelExpert},
				{Tag: "figma", Kind: skill.KindLearn},
			},
		},
		{
			Handle:      "erin",
			FullName:    "Erin Walsh",
			Bio:         "New here, still filling out the profile.",
			Timezone:    "UTC",
			NeverActive: true,
			Skills: []demoSkill{
				{Tag: "go", Kind: skill.KindTeach, Level: skill.LevelBeginner},
			},
		},
	}
}

func (ProfilesSeeder) Run(ctx context.Context, db database.DB) error {
	if err := EnsureTableColumns(ctx, db, "users",
		"id", "handle", "full_name", "bio", "location_city", "location_country",
		"timezone", "last_active_at", "availability_mask"); err != nil {
		return err
	}
	if err := EnsureTableColumns(ctx, db, "user_skills", "user_id", "tag", "kind", "level"); err != nil {
		return err
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	now := time.Now().UTC()
	for _, p := range demoProfiles() {
		var mask availability.Mask
		for _, h := range p.Hours {
			mask = mask.WithSlot(h[0], h[1])
		}

		var lastActive *time.Time
		if !p.NeverActive {
			t := now.Add(-p.ActiveAgo)
			lastActive = &t
		}

		var id string
		err := tx.QueryRow(
			ctx,
			`INSERT INTO users (handle, full_name, bio, location_city, location_country, timezone, last_active_at, availability_mask)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (handle) DO UPDATE SET
				full_name = EXCLUDED.full_name,
				bio = EXCLUDED.bio,
				location_city = EXCLUDED.location_city,
				location_country = EXCLUDED.location_country,
				timezone = EXCLUDED.timezone,
				last_active_at = EXCLUDED.last_active_at,
				availability_mask = EXCLUDED.availability_mask,
				updated_at = now()
			 RETURNING id`,
			p.Handle, p.FullName, p.Bio, p.City, p.Country, p.Timezone, lastActive, mask.BitString(),
		).Scan(&id)
		if err != nil {
			return err
		}

		for _, s := range p.Skills {
			var level *string
			if s.Level != "" {
				l := string(s.Level)
				level = &l
			}
			_, err := tx.Exec(
				ctx,
				`INSERT INTO user_skills (user_id, tag, kind, level)
				 VALUES ($1, $2, $3, $4)
				 ON CONFLICT (user_id, tag, kind) DO UPDATE SET level = EXCLUDED.level`,
				id, skill.NormalizeTag(s.Tag), string(s.Kind), level,
			)
			if err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}
