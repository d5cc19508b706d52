package services

import (
	"context"
	"time"

	"golang-storefront-cart/pkg/backend"
	"golang-storefront-cart/pkg/messaging"
)

// MessageSender is the part of the Kafka producer the services use.
type MessageSender interface {
	SendMessage(ctx context.Context, topic, key string, value interface{}) error
}

// CartContextService tells the rest of the storefront that a shopper's cart
// changed so header counts and mini-carts refetch.
type CartContextService struct {
	producer MessageSender
	topic    string
	now      func() time.Time
}

func NewCartContextService(producer MessageSender, topic string) *CartContextService {
	return &CartContextService{
		producer: producer,
		topic:    topic,
		now:      time.Now,
	}
}

// Refresh publishes a cart.refresh event for the shopper, keyed by user id so
// one shopper's events stay ordered.
func (s *CartContextService) Refresh(ctx context.Context, userID, itemID string) error {
	event := messaging.CartEvent{
		Type:       messaging.CartRefreshEvent,
		UserID:     userID,
		ItemID:     itemID,
		RequestID:  backend.RequestIDFromContext(ctx),
		OccurredAt: s.now().UTC(),
	}
	return s.producer.SendMessage(ctx, s.topic, userID, event)
}

func (s *CartContextService) ForUser(userID string) *UserCartContext {
	return &UserCartContext{service: s, userID: userID}
}

type UserCartContext struct {
	service *CartContextService
	userID  string
}

func (c *UserCartContext) Refresh(ctx context.Context, itemID string) error {
	return c.service.Refresh(ctx, c.userID, itemID)
}
