package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang-storefront-cart/pkg/backend"
	"golang-storefront-cart/pkg/cache"
	"golang-storefront-cart/pkg/messaging"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupNotifications(t *testing.T) (*NotificationService, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewNotificationService(cache.NewRedisCacheFromClient(client), 24*time.Hour), mr
}

func TestNotificationService_SetAndCount(t *testing.T) {
	svc, mr := setupNotifications(t)
	ctx := context.Background()

	count, err := svc.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, svc.ForUser("u1").SetCount(ctx, 7))
	count, err = svc.Count(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 7, count)
	assert.Equal(t, 24*time.Hour, mr.TTL("cart_badge:u1"))

	require.NoError(t, svc.SetCount(ctx, "u1", -2))
	count, _ = svc.Count(ctx, "u1")
	assert.Equal(t, 0, count)

	require.NoError(t, svc.Clear(ctx, "u1"))
	assert.False(t, mr.Exists("cart_badge:u1"))
}

func TestNotificationService_RedisDown(t *testing.T) {
	svc, mr := setupNotifications(t)
	mr.Close()

	_, err := svc.Count(context.Background(), "u1")
	assert.Error(t, err)
}

type sentMessage struct {
	topic string
	key   string
	value interface{}
}

type fakeSender struct {
	sent []sentMessage
	err  error
}

func (f *fakeSender) SendMessage(ctx context.Context, topic, key string, value interface{}) error {
	f.sent = append(f.sent, sentMessage{topic: topic, key: key, value: value})
	return f.err
}

func TestCartContextService_Refresh(t *testing.T) {
	sender := &fakeSender{}
	svc := NewCartContextService(sender, "cart-events")
	fixed := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	ctx := backend.WithRequestID(context.Background(), "req-1")
	require.NoError(t, svc.ForUser("u1").Refresh(ctx, "item-7"))

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "cart-events", msg.topic)
	assert.Equal(t, "u1", msg.key)
	assert.Equal(t, messaging.CartEvent{
		Type:       messaging.CartRefreshEvent,
		UserID:     "u1",
		ItemID:     "item-7",
		RequestID:  "req-1",
		OccurredAt: fixed,
	}, msg.value)
}

func TestCartContextService_RefreshError(t *testing.T) {
	sender := &fakeSender{err: errors.New("broker unreachable")}
	svc := NewCartContextService(sender, "cart-events")

	assert.Error(t, svc.Refresh(context.Background(), "u1", "item-7"))
}
