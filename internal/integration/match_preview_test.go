package integration

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"skillswap/internal/config"
	"skillswap/internal/database"
	"skillswap/internal/database/migration"
	dbpostgres "skillswap/internal/database/postgres"
	"skillswap/internal/database/seeder"
	"skillswap/internal/delivery/http/middleware"
	"skillswap/internal/delivery/http/routes"
	"skillswap/internal/infrastructure/cache"
	"skillswap/internal/pkg/jwt"
	"skillswap/migrations"
)

type semanticResponse struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type previewUser struct {
	ID     uuid.UUID `json:"id"`
	Handle string    `json:"handle"`
}

type previewSkills struct {
	Teach   []string `json:"teach"`
	Learn   []string `json:"learn"`
	Overlap []string `json:"overlap"`
}

type previewAvailability struct {
	Overlap    int     `json:"overlap"`
	Percentage float64 `json:"percentage"`
}

type previewMatch struct {
	User         previewUser         `json:"user"`
	Skills       previewSkills       `json:"skills"`
	Availability previewAvailability `json:"availability"`
	Score        float64             `json:"score"`
	Reason       string              `json:"reason"`
}

type previewData struct {
	Matches []previewMatch `json:"matches"`
	Total   int            `json:"total"`
	HasMore bool           `json:"has_more"`
}

func TestIntegration_MatchPreview(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db := connectTestDB(t, ctx)
	defer func() { _ = db.Close() }()

	runMigrations(t, ctx, db)
	seedDemoData(t, ctx, db)
	defer cleanupDemoData(ctx, db)

	cfg := testConfig()
	app := newTestFiberApp(t, cfg, db)

	aliceID := lookupUserID(t, ctx, db, "alice")
	tok := mintAccessToken(t, cfg, aliceID, "alice")

	data := callPreview(t, app, tok, "/api/v1/matches/preview?skills=react&limit=10")

	if len(data.Matches) == 0 {
		t.Fatalf("preview: expected non-empty matches")
	}
	if data.HasMore {
		t.Fatalf("preview: unexpected has_more with limit=10 over demo pool")
	}
	if data.Total != len(data.Matches) {
		t.Fatalf("preview: total=%d, matches=%d", data.Total, len(data.Matches))
	}

	var bob *previewMatch
	for i := range data.Matches {
		m := &data.Matches[i]
		if m.User.Handle == "alice" {
			t.Fatalf("preview: requester appeared in own matches")
		}
		if m.User.Handle == "carol" {
			t.Fatalf("preview: connected user carol should be excluded")
		}
		if m.Score < 0 || m.Score > 100 {
			t.Fatalf("preview: score out of range: %v", m.Score)
		}
		if m.Reason == "" {
			t.Fatalf("preview: empty reason for %s", m.User.Handle)
		}
		if m.User.Handle == "bob" {
			bob = m
		}
	}
	if bob == nil {
		t.Fatalf("preview: expected bob in matches")
	}

	// alice teaches python / learns react; bob is the mirror image and
	// shares Monday 10:00, so the overlap is exactly one hour of her four.
	if len(bob.Skills.Overlap) == 0 {
		t.Fatalf("preview: expected skill overlap with bob")
	}
	if bob.Availability.Overlap != 1 {
		t.Fatalf("preview: expected 1 overlapping hour with bob, got %d", bob.Availability.Overlap)
	}
	if bob.Availability.Percentage != 25 {
		t.Fatalf("preview: expected 25%% availability overlap with bob, got %v", bob.Availability.Percentage)
	}

	for i := 1; i < len(data.Matches); i++ {
		if data.Matches[i].Score > data.Matches[i-1].Score {
			t.Fatalf("preview: expected score descending at idx=%d: prev=%v cur=%v", i, data.Matches[i-1].Score, data.Matches[i].Score)
		}
	}
}

func TestIntegration_MatchPreview_Unauthorized(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db := connectTestDB(t, ctx)
	defer func() { _ = db.Close() }()

	runMigrations(t, ctx, db)

	app := newTestFiberApp(t, testConfig(), db)

	req := httptest.NewRequest("GET", "/api/v1/matches/preview", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
}

func connectTestDB(t *testing.T, ctx context.Context) database.DB {
	t.Helper()

	host := stringsOrDefault(os.Getenv("SKILLSWAP_TEST_DB_HOST"), os.Getenv("DB_HOST"))
	port := stringsOrDefault(os.Getenv("SKILLSWAP_TEST_DB_PORT"), os.Getenv("DB_PORT"))
	name := stringsOrDefault(os.Getenv("SKILLSWAP_TEST_DB_NAME"), os.Getenv("DB_NAME"))
	user := stringsOrDefault(os.Getenv("SKILLSWAP_TEST_DB_USER"), os.Getenv("DB_USER"))
	pass := stringsOrDefault(os.Getenv("SKILLSWAP_TEST_DB_PASSWORD"), os.Getenv("DB_PASSWORD"))
	ssl := stringsOrDefault(os.Getenv("SKILLSWAP_TEST_DB_SSL_MODE"), os.Getenv("DB_SSL_MODE"))

	if host == "" || port == "" || name == "" || user == "" {
		t.Skip("missing test DB env vars: set SKILLSWAP_TEST_DB_HOST/PORT/NAME/USER/PASSWORD (or DB_HOST/DB_PORT/DB_NAME/DB_USER/DB_PASSWORD)")
	}
	if ssl == "" {
		ssl = "disable"
	}

	db, err := dbpostgres.Connect(ctx, config.DatabaseConfig{
		DBHost:     host,
		DBPort:     port,
		DBName:     name,
		DBUser:     user,
		DBPassword: pass,
		DBSSLMode:  ssl,
	})
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return db
}

func runMigrations(t *testing.T, ctx context.Context, db database.DB) {
	t.Helper()

	if err := (migration.Runner{FS: migrations.FS}).Run(ctx, db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
}

func seedDemoData(t *testing.T, ctx context.Context, db database.DB) {
	t.Helper()

	r := seeder.Runner{Seeders: seeder.Defaults()}
	if err := r.Run(ctx, db); err != nil {
		t.Fatalf("seed demo data: %v", err)
	}
}

func cleanupDemoData(ctx context.Context, db database.DB) {
	_, _ = db.Exec(ctx, `DELETE FROM users WHERE handle IN ('alice', 'bob', 'carol', 'dmitri', 'erin')`)
}

func testConfig() config.Config {
	return config.Config{
		App: config.AppConfig{AppName: "SkillSwap", Environment: "test", HTTPPort: "0"},
		JWT: config.JWTConfig{
			AccessSecret:    stringsOrDefault(os.Getenv("SKILLSWAP_TEST_JWT_ACCESS_SECRET"), "test-access-secret"),
			AccessExpiresIn: 15 * time.Minute,
		},
		Matching: config.MatchingConfig{
			SkillWeight:        0.5,
			AvailabilityWeight: 0.3,
			RecencyWeight:      0.1,
			LocationWeight:     0.1,
			RecencyHalfLife:    14 * 24 * time.Hour,
			BidirectionalBoost: 1.25,
			ScanBound:          10000,
			ParallelThreshold:  512,
			PreviewCacheTTL:    time.Minute,
		},
	}
}

func newTestFiberApp(t *testing.T, cfg config.Config, db database.DB) *fiber.App {
	t.Helper()

	log := zerolog.Nop()
	app := fiber.New(fiber.Config{})
	app.Use(middleware.NewErrorMiddleware(log).Middleware())
	routes.Register(app, cfg, db, cache.NewRedis(cfg.Redis, log), log)
	return app
}

func mintAccessToken(t *testing.T, cfg config.Config, userID uuid.UUID, handle string) string {
	t.Helper()

	svc := jwt.NewHMACService(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiresIn)
	tok, err := svc.GenerateAccessToken(userID, handle)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return tok
}

func lookupUserID(t *testing.T, ctx context.Context, db database.DB, handle string) uuid.UUID {
	t.Helper()

	var id uuid.UUID
	if err := db.QueryRow(ctx, `SELECT id FROM users WHERE handle = $1`, handle).Scan(&id); err != nil {
		t.Fatalf("lookup %s: %v", handle, err)
	}
	return id
}

func callPreview(t *testing.T, app *fiber.App, tok, url string) previewData {
	t.Helper()

	req := httptest.NewRequest("GET", url, nil)
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("preview request error: %v", err)
	}
	defer resp.Body.Close()

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		t.Fatalf("preview decode error: %v", err)
	}
	if sr.Status != 200 {
		t.Fatalf("preview: expected status=200, got %d (message=%s)", sr.Status, sr.Message)
	}

	var data previewData
	if err := json.Unmarshal(sr.Data, &data); err != nil {
		t.Fatalf("preview: data unmarshal error: %v", err)
	}
	return data
}

func stringsOrDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
