package products

import (
	productsvc "hub-backend/internal/application/products"
	"hub-backend/internal/pkg/response"
	"hub-backend/internal/pkg/wire"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *productsvc.Service
}

// List GET /products?handle=
func (h *Handlers) List(c *fiber.Ctx) error {
	list, err := h.Service.List(c.UserContext(), c.Query("handle"))
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Message(c, "Products found", wire.NewProductInfoList(list))
}
