package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Matching MatchingConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32
	PoolMinConns          int32
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	TTL      time.Duration
}

// JWTConfig carries the access-token validation parameters. Tokens are
// issued by the credential service with the same shared secret; there is
// no refresh flow here.
type JWTConfig struct {
	AccessSecret    string
	AccessExpiresIn time.Duration
}

// MatchingConfig carries every tunable of the scoring engine. The weights
// and decay constants are deliberate configuration, not constants: they are
// starting points, expected to be tuned without a redeploy of the algorithm.
type MatchingConfig struct {
	SkillWeight        float64
	AvailabilityWeight float64
	RecencyWeight      float64
	LocationWeight     float64

	RecencyHalfLife    time.Duration
	BidirectionalBoost float64

	// ScanBound caps how many candidates one request will fetch and score.
	ScanBound int
	// ParallelThreshold is the pool size above which scoring fans out.
	ParallelThreshold int

	PreviewCacheTTL time.Duration
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

func Load() (Config, error) {
	// A local .env is a convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := Config{}

	var missing []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key string) string {
		return strings.TrimSpace(os.Getenv(key))
	}

	cfg.App = AppConfig{
		AppName:     req("APP_NAME"),
		Environment: req("APP_ENV"),
		HTTPPort:    req("HTTP_PORT"),
	}

	cfg.Database = DatabaseConfig{
		DBHost:     opt("DB_HOST"),
		DBPort:     opt("DB_PORT"),
		DBName:     opt("DB_NAME"),
		DBUser:     opt("DB_USER"),
		DBPassword: opt("DB_PASSWORD"),
		DBSSLMode:  opt("DB_SSL_MODE"),

		ConnectTimeout:        optDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
		PoolMaxConns:          int32(optInt("DB_POOL_MAX_CONNS", 0)),
		PoolMinConns:          int32(optInt("DB_POOL_MIN_CONNS", 0)),
		PoolMaxConnLifetime:   optDuration("DB_POOL_MAX_CONN_LIFETIME", 0),
		PoolMaxConnIdleTime:   optDuration("DB_POOL_MAX_CONN_IDLE_TIME", 0),
		PoolHealthCheckPeriod: optDuration("DB_POOL_HEALTH_CHECK_PERIOD", 0),
	}

	cfg.Redis = RedisConfig{
		Host:     opt("REDIS_HOST"),
		Port:     opt("REDIS_PORT"),
		Password: opt("REDIS_PASSWORD"),
		TTL:      optDuration("REDIS_TTL", 10*time.Minute),
	}

	cfg.JWT = JWTConfig{
		AccessSecret:    req("JWT_ACCESS_SECRET"),
		AccessExpiresIn: optDuration("JWT_ACCESS_EXPIRES_IN", 15*time.Minute),
	}

	cfg.Matching = MatchingConfig{
		SkillWeight:        optFloat("MATCH_SKILL_WEIGHT", 0.5),
		AvailabilityWeight: optFloat("MATCH_AVAILABILITY_WEIGHT", 0.3),
		RecencyWeight:      optFloat("MATCH_RECENCY_WEIGHT", 0.1),
		LocationWeight:     optFloat("MATCH_LOCATION_WEIGHT", 0.1),
		RecencyHalfLife:    optDuration("MATCH_RECENCY_HALF_LIFE", 14*24*time.Hour),
		BidirectionalBoost: optFloat("MATCH_BIDIRECTIONAL_BOOST", 1.25),
		ScanBound:          optInt("MATCH_SCAN_BOUND", 10000),
		ParallelThreshold:  optInt("MATCH_PARALLEL_THRESHOLD", 512),
		PreviewCacheTTL:    optDuration("MATCH_PREVIEW_CACHE_TTL", 60*time.Second),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}

	return cfg, nil
}

func optInt(key string, defaultVal int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultVal
	}
	return v
}

func optFloat(key string, defaultVal float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return defaultVal
	}
	return v
}

func optDuration(key string, defaultVal time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultVal
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v < 0 {
		return defaultVal
	}
	return v
}
