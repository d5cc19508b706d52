package handlers

import (
	"context"

	"golang-storefront-cart/internal/cartview"

	"github.com/gin-gonic/gin"
)

// ViewRegistryInterface defines the contract for the per-shopper view store
type ViewRegistryInterface interface {
	Acquire(userID string, deps cartview.Deps) *cartview.View
	Forget(userID string)
}

// NotificationCounterInterface reads and clears the cart badge
type NotificationCounterInterface interface {
	Count(ctx context.Context, userID string) (int, error)
	Clear(ctx context.Context, userID string) error
}

// DepsFactory builds the collaborators of a shopper's view for one request,
// binding the backend client to that request's credentials.
type DepsFactory func(c *gin.Context, userID string) cartview.Deps
