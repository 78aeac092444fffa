package v1

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"

	"skillswap/internal/config"
	"skillswap/internal/database"
	"skillswap/internal/delivery/http/handler"
	"skillswap/internal/delivery/http/middleware"
	"skillswap/internal/domain/matching"
	"skillswap/internal/infrastructure/cache"
	"skillswap/internal/pkg/jwt"
	"skillswap/internal/repository"
	"skillswap/internal/usecase"
)

func Register(r fiber.Router, cfg config.Config, db database.DB, previewCache *cache.Redis, log zerolog.Logger) {
	if r == nil {
		return
	}

	jwtSvc := jwt.NewHMACService(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiresIn)
	authMw := middleware.NewAuthMiddleware(jwtSvc)

	users := repository.NewPostgresUserStore(db, log)
	conns := repository.NewPostgresConnectionStore(db)

	engine := matching.NewEngine(matching.EngineConfig{
		Weights: matching.Weights{
			Skill:        cfg.Matching.SkillWeight,
			Availability: cfg.Matching.AvailabilityWeight,
			Recency:      cfg.Matching.RecencyWeight,
			Location:     cfg.Matching.LocationWeight,
		},
		RecencyHalfLife:    cfg.Matching.RecencyHalfLife,
		BidirectionalBoost: cfg.Matching.BidirectionalBoost,
	})
	ranker := matching.NewRanker(engine, cfg.Matching.ParallelThreshold)

	previewUC := usecase.NewMatchPreviewUsecase(users, conns, ranker, previewCache, cfg.Matching, log)

	protected := r.Group("", authMw.Middleware())
	handler.NewMatchPreviewHandler(previewUC).RegisterRoutes(protected)
}
