package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"skillswap/internal/pkg/response"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db    Pinger
	cache Pinger
}

func NewHealthHandler(db, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/health", h.GetHealth)
}

func (h *HealthHandler) GetHealth(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	status := fiber.Map{"database": "ok", "cache": "ok"}
	healthy := true

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			status["database"] = "unavailable"
			healthy = false
		}
	}
	// The cache is optional; a down Redis degrades, it does not fail health.
	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			status["cache"] = "unavailable"
		}
	}

	if !healthy {
		return response.Error(c, fiber.StatusServiceUnavailable, response.MessageServiceUnavailable, status)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, status)
}
