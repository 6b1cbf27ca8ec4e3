package bootstrap

import (
	"context"

	"hub-backend/internal/config"
	"hub-backend/internal/interfaces/router"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for serverless hosting (the api handler imports
// this package, not internal). The mail dispatcher runs for as long as the
// instance stays warm; rows it misses are picked up by the next instance.
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	app, rt, err := router.CreateApp(cfg)
	if err != nil {
		return nil, err
	}
	go rt.Dispatcher.Run(context.Background())
	rt.Dispatcher.Notify()
	return app, nil
}
