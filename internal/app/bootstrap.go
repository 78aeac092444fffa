package app

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"

	"skillswap/internal/config"
	"skillswap/internal/delivery/http/middleware"
	"skillswap/internal/delivery/http/routes"
)

type App struct {
	Fiber *fiber.App
}

func New(c *Container, log zerolog.Logger) *App {
	f := fiber.New(fiber.Config{})

	registerGlobalMiddleware(f, log)
	routes.Register(f, c.Config, c.DB, c.Cache, log)

	return &App{Fiber: f}
}

func Bootstrap(cfg config.Config, log zerolog.Logger) (*App, func() error, error) {
	container, err := NewContainer(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	app := New(container, log)
	return app, container.Close, nil
}

func registerGlobalMiddleware(app *fiber.App, log zerolog.Logger) {
	if app == nil {
		return
	}

	app.Use(middleware.NewAccessLogMiddleware(log).Middleware())
	app.Use(middleware.NewErrorMiddleware(log).Middleware())
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
