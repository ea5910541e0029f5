package pipeline

import (
	"context"

	"github.com/blueprintapi/blueprint/pkg/contracts"
	"github.com/blueprintapi/blueprint/pkg/models"
)

// Chain is the default contracts.AuthProvider composition: an ordered walk
// over registered providers, grounded directly on the teacher's
// internal/auth.ProviderChain. The first provider to return a non-nil
// identity wins; a provider returning (nil, nil) defers to the next one;
// a provider returning (nil, err) fails the whole chain immediately.
type Chain struct {
	providers []contracts.AuthProvider
}

// NewChain builds a Chain over providers, tried in the given order.
func NewChain(providers ...contracts.AuthProvider) *Chain {
	return &Chain{providers: providers}
}

// Authenticate implements contracts.AuthProvider.
func (c *Chain) Authenticate(ctx context.Context) (*models.Identity, error) {
	for _, p := range c.providers {
		identity, err := p.Authenticate(ctx)
		if err != nil {
			return nil, err
		}
		if identity != nil {
			return identity, nil
		}
	}
	return nil, nil
}
