package repository

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"skillswap/internal/database"
	"skillswap/internal/domain/availability"
	"skillswap/internal/domain/skill"
	"skillswap/internal/domain/user"
)

// PostgresUserStore reads profile snapshots from the tables owned by the
// profile/skill/availability services:
//
//	users(id, handle, full_name, bio, avatar_url, location_city,
//	      location_country, timezone, last_active_at, availability_mask)
//	user_skills(user_id, tag, kind, level)
//
// availability_mask is a 168-character '0'/'1' string, UTC hour-of-week.
type PostgresUserStore struct {
	db  database.DB
	log zerolog.Logger
}

func NewPostgresUserStore(db database.DB, log zerolog.Logger) *PostgresUserStore {
	return &PostgresUserStore{db: db, log: log}
}

const profileColumns = `id, handle,
	COALESCE(full_name, ''), COALESCE(bio, ''), COALESCE(avatar_url, ''),
	COALESCE(location_city, ''), COALESCE(location_country, ''),
	COALESCE(timezone, ''), last_active_at, COALESCE(availability_mask, '')`

func (r *PostgresUserStore) GetByID(ctx context.Context, id uuid.UUID) (user.Profile, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM users WHERE id = $1`,
		id,
	)

	p, err := r.scanProfile(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return user.Profile{}, user.ErrNotFound
		}
		return user.Profile{}, err
	}

	if err := r.attachSkills(ctx, []*user.Profile{&p}); err != nil {
		return user.Profile{}, err
	}
	return p, nil
}

func (r *PostgresUserStore) ListCandidates(ctx context.Context, excludeID uuid.UUID, f user.CandidateFilter) ([]user.Profile, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + profileColumns + ` FROM users WHERE id <> $1`
	args := []any{excludeID}
	if f.Location != "" {
		query += ` AND (location_city ILIKE $2 OR location_country ILIKE $2)`
		args = append(args, "%"+f.Location+"%")
	}
	query += ` ORDER BY id LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]user.Profile, 0)
	for rows.Next() {
		p, err := r.scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	refs := make([]*user.Profile, len(out))
	for i := range out {
		refs[i] = &out[i]
	}
	if err := r.attachSkills(ctx, refs); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *PostgresUserStore) scanProfile(row scanner) (user.Profile, error) {
	var (
		p          user.Profile
		lastActive *time.Time
		mask       string
	)
	if err := row.Scan(
		&p.ID, &p.Handle, &p.FullName, &p.Bio, &p.AvatarURL,
		&p.LocationCity, &p.LocationCountry, &p.Timezone,
		&lastActive, &mask,
	); err != nil {
		return user.Profile{}, err
	}
	if lastActive != nil {
		p.LastActiveAt = lastActive.UTC()
	}
	if mask != "" {
		m, err := availability.FromBitString(mask)
		if err != nil {
			// A malformed mask degrades that user to "never available"
			// instead of failing the batch.
			r.log.Warn().Str("user_id", p.ID.String()).Err(err).Msg("malformed availability mask")
		} else {
			p.Availability = m
		}
	}
	p.Skills = skill.NewIndex(nil)
	return p, nil
}

func (r *PostgresUserStore) attachSkills(ctx context.Context, profiles []*user.Profile) error {
	if len(profiles) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(profiles))
	byID := make(map[uuid.UUID][]skill.Skill, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.ID)
		byID[p.ID] = nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT user_id, tag, kind, COALESCE(level, '')
		 FROM user_skills
		 WHERE user_id = ANY($1)`,
		ids,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   uuid.UUID
			sk   skill.Skill
			kind string
			lvl  string
		)
		if err := rows.Scan(&id, &sk.Tag, &kind, &lvl); err != nil {
			return err
		}
		sk.Kind = skill.Kind(kind)
		if parsed, ok := skill.ParseLevel(lvl); ok {
			sk.Level = parsed
		}
		byID[id] = append(byID[id], sk)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, p := range profiles {
		p.Skills = skill.NewIndex(byID[p.ID])
	}
	return nil
}
