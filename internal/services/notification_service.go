package services

import (
	"context"
	"time"

	"golang-storefront-cart/pkg/cache"

	"github.com/pkg/errors"
)

const badgePrefix = "cart_badge"

// NotificationService stores the cart badge (total quantity in the cart) that
// the storefront header shows on every page.
type NotificationService struct {
	cache *cache.RedisCache
	ttl   time.Duration
}

func NewNotificationService(cache *cache.RedisCache, ttl time.Duration) *NotificationService {
	return &NotificationService{
		cache: cache,
		ttl:   ttl,
	}
}

func (s *NotificationService) SetCount(ctx context.Context, userID string, count int) error {
	if count < 0 {
		count = 0
	}
	return s.cache.SetWithPrefix(ctx, badgePrefix, userID, count, s.ttl)
}

// Count returns the stored badge, 0 when none was written yet.
func (s *NotificationService) Count(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.cache.GetWithPrefix(ctx, badgePrefix, userID, &count)
	if errors.Is(err, cache.ErrCacheMiss) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "read cart badge")
	}
	return count, nil
}

func (s *NotificationService) Clear(ctx context.Context, userID string) error {
	return s.cache.DeleteWithPrefix(ctx, badgePrefix, userID)
}

// ForUser binds the service to one shopper for the cart view.
func (s *NotificationService) ForUser(userID string) *UserNotifier {
	return &UserNotifier{service: s, userID: userID}
}

type UserNotifier struct {
	service *NotificationService
	userID  string
}

func (n *UserNotifier) SetCount(ctx context.Context, count int) error {
	return n.service.SetCount(ctx, n.userID, count)
}
