package health

import (
	healthsvc "hub-backend/internal/application/health"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Handlers holds dependencies for health endpoints.
type Handlers struct {
	Rdb             *redis.Client
	DB              *gorm.DB
	MaxMailAttempts int
}

// JSON returns health data as JSON.
func (h *Handlers) JSON(c *fiber.Ctx) error {
	result := healthsvc.CollectHealth(c.UserContext(), h.Rdb, h.DB, h.MaxMailAttempts)
	return c.JSON(fiber.Map{
		"service":      "hub-api",
		"status":       result.Status,
		"runtime":      result.Runtime,
		"traffic":      result.Traffic,
		"mail":         result.Mail,
		"dependencies": result.Dependencies,
	})
}
