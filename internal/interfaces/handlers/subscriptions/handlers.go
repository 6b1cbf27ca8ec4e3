package subscriptions

import (
	"strconv"

	subsvc "hub-backend/internal/application/subscriptions"
	"hub-backend/internal/domain"
	"hub-backend/internal/middleware"
	"hub-backend/internal/pkg/apperr"
	"hub-backend/internal/pkg/response"
	"hub-backend/internal/pkg/wire"

	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Service *subsvc.Service
}

// Create POST /users/:id/subscription?product=&external_id=&external_customer_id=&cc_*
func (h *Handlers) Create(c *fiber.Ctx) error {
	id, err := middleware.TargetUserID(c)
	if err != nil {
		return response.Fail(c, err)
	}
	cc, _, err := creditCardFromQuery(c)
	if err != nil {
		return response.Fail(c, err)
	}
	_, err = h.Service.Create(c.UserContext(), id, subsvc.CreateInput{
		ProductHandle:      c.Query("product"),
		ExternalID:         c.Query("external_id"),
		ExternalCustomerID: c.Query("external_customer_id"),
		CreditCard:         cc,
	})
	if err != nil {
		return response.Fail(c, err)
	}
	return response.NoContent(c)
}

// Get GET /users/:id/subscription
func (h *Handlers) Get(c *fiber.Ctx) error {
	id, err := middleware.TargetUserID(c)
	if err != nil {
		return response.Fail(c, err)
	}
	view, err := h.Service.Get(c.UserContext(), id)
	if err != nil {
		return response.Fail(c, err)
	}
	return response.Message(c, "Subscription found", wire.NewUserSubscriptionInfo(view.Sub, view.Product))
}

// Update PUT /users/:id/subscription?product&state&cc_*
func (h *Handlers) Update(c *fiber.Ctx) error {
	id, err := middleware.TargetUserID(c)
	if err != nil {
		return response.Fail(c, err)
	}
	var in subsvc.UpdateInput
	if p := c.Query("product"); p != "" {
		in.ProductHandle = &p
	}
	if s := c.Query("state"); s != "" {
		state, ok := domain.ParseSubscriptionState(s)
		if !ok {
			return response.Fail(c, apperr.Invalidf("Unknown subscription state"))
		}
		in.State = &state
	}
	cc, present, err := creditCardFromQuery(c)
	if err != nil {
		return response.Fail(c, err)
	}
	if present {
		in.CreditCard = &cc
	}
	if err := h.Service.Update(c.UserContext(), id, in); err != nil {
		return response.Fail(c, err)
	}
	return response.NoContent(c)
}

// Delete DELETE /users/:id/subscription
func (h *Handlers) Delete(c *fiber.Ctx) error {
	id, err := middleware.TargetUserID(c)
	if err != nil {
		return response.Fail(c, err)
	}
	if err := h.Service.Delete(c.UserContext(), id); err != nil {
		return response.Fail(c, err)
	}
	return response.NoContent(c)
}

// creditCardFromQuery reads cc_masked_number, cc_expiration_month and cc_expiration_year.
// present is false when none of them was given.
func creditCardFromQuery(c *fiber.Ctx) (domain.CreditCard, bool, error) {
	var cc domain.CreditCard
	number := c.Query("cc_masked_number")
	month := c.Query("cc_expiration_month")
	year := c.Query("cc_expiration_year")
	if number == "" && month == "" && year == "" {
		return cc, false, nil
	}
	cc.MaskedNumber = number
	var err error
	if month != "" {
		if cc.ExpirationMonth, err = strconv.Atoi(month); err != nil || cc.ExpirationMonth < 1 || cc.ExpirationMonth > 12 {
			return cc, true, apperr.Invalidf("Invalid card expiration month")
		}
	}
	if year != "" {
		if cc.ExpirationYear, err = strconv.Atoi(year); err != nil || cc.ExpirationYear < 0 {
			return cc, true, apperr.Invalidf("Invalid card expiration year")
		}
	}
	return cc, true, nil
}
