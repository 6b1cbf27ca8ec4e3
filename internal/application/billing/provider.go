// Package billing coordinates subscription changes with the external billing provider.
package billing

import (
	"context"
	"sync"

	"hub-backend/internal/domain"

	"github.com/rs/zerolog/log"
)

// Provider performs the money-moving side of a subscription change.
// Implementations must be safe for concurrent use.
type Provider interface {
	Cancel(ctx context.Context, sub *domain.UserSubscription) error
	Migrate(ctx context.Context, sub *domain.UserSubscription, to *domain.Product) error
}

// Call is one request seen by LocalProvider.
type Call struct {
	Operation  string
	ExternalID string
	PlanID     string
}

// LocalProvider accepts every change without contacting anyone. Setting Err
// makes every call fail, which is how provider outages are simulated.
type LocalProvider struct {
	mu    sync.Mutex
	Err   error
	calls []Call
}

func (p *LocalProvider) Cancel(ctx context.Context, sub *domain.UserSubscription) error {
	return p.record(Call{Operation: "cancel", ExternalID: sub.ExternalID})
}

func (p *LocalProvider) Migrate(ctx context.Context, sub *domain.UserSubscription, to *domain.Product) error {
	return p.record(Call{Operation: "migrate", ExternalID: sub.ExternalID, PlanID: to.ExternalPlanID})
}

func (p *LocalProvider) record(c Call) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, c)
	if p.Err != nil {
		return p.Err
	}
	log.Info().Str("operation", c.Operation).Str("external_id", c.ExternalID).Msg("Local billing provider accepted change")
	return nil
}

// Calls returns a copy of the calls seen so far.
func (p *LocalProvider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// SetErr swaps the failure returned by subsequent calls.
func (p *LocalProvider) SetErr(err error) {
	p.mu.Lock()
	p.Err = err
	p.mu.Unlock()
}
