package routes

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"

	"skillswap/internal/config"
	"skillswap/internal/database"
	"skillswap/internal/delivery/http/handler"
	v1 "skillswap/internal/delivery/http/routes/v1"
	"skillswap/internal/infrastructure/cache"
)

func Register(app *fiber.App, cfg config.Config, db database.DB, previewCache *cache.Redis, log zerolog.Logger) {
	if app == nil {
		return
	}

	health := handler.NewHealthHandler(db, previewCache)
	health.RegisterRoutes(app)

	api := app.Group("/api")
	v1.Register(api.Group("/v1"), cfg, db, previewCache, log)
}
