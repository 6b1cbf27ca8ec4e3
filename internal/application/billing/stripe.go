package billing

import (
	"context"

	"hub-backend/internal/domain"

	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// StripeProvider maps subscription changes onto Stripe subscriptions.
// ExternalID is the Stripe subscription id; Product.ExternalPlanID is the price id.
type StripeProvider struct {
	api *client.API
}

func NewStripeProvider(secretKey string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api}
}

func (p *StripeProvider) Cancel(ctx context.Context, sub *domain.UserSubscription) error {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	if _, err := p.api.Subscriptions.Cancel(sub.ExternalID, params); err != nil {
		return errors.Wrap(err, "stripe cancel subscription")
	}
	return nil
}

func (p *StripeProvider) Migrate(ctx context.Context, sub *domain.UserSubscription, to *domain.Product) error {
	if to.ExternalPlanID == "" {
		return errors.Errorf("product %s has no external plan", to.Handle)
	}
	getParams := &stripe.SubscriptionParams{}
	getParams.Context = ctx
	current, err := p.api.Subscriptions.Get(sub.ExternalID, getParams)
	if err != nil {
		return errors.Wrap(err, "stripe get subscription")
	}
	if current.Items == nil || len(current.Items.Data) == 0 {
		return errors.New("stripe subscription has no items")
	}

	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{{
			ID:    stripe.String(current.Items.Data[0].ID),
			Price: stripe.String(to.ExternalPlanID),
		}},
		ProrationBehavior: stripe.String("create_prorations"),
	}
	params.Context = ctx
	if _, err := p.api.Subscriptions.Update(sub.ExternalID, params); err != nil {
		return errors.Wrap(err, "stripe update subscription")
	}
	return nil
}
