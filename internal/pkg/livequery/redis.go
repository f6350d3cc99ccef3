package livequery

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

// RedisFeed fans change notifications out across processes via Redis Pub/Sub.
type RedisFeed struct {
	client *redis.Client
}

func NewRedisFeed(client *redis.Client) *RedisFeed {
	return &RedisFeed{client: client}
}

func (f *RedisFeed) Publish(ctx context.Context, userID uint) error {
	if err := f.client.Publish(ctx, Channel(userID), "changed").Err(); err != nil {
		return fmt.Errorf("publish report change: %w", err)
	}
	return nil
}

func (f *RedisFeed) Subscribe(ctx context.Context, userID uint) (<-chan struct{}, error) {
	ps := f.client.Subscribe(ctx, Channel(userID))

	// Wait for the subscription confirmation so no publish is missed after return
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("subscribe to report changes: %w", err)
	}

	ch := make(chan struct{}, 1)
	msgs := ps.Channel()

	go func() {
		defer close(ch)
		defer func() {
			if err := ps.Close(); err != nil {
				log.Warnf("[LiveQuery] Closing subscription for user %d: %v", userID, err)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				notify(ch)
			}
		}
	}()

	return ch, nil
}
