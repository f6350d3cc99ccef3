// Package livequery delivers per-owner change notifications for the report
// store. Subscribers re-run their query whenever a notification arrives.
package livequery

import (
	"context"
	"fmt"
)

// Feed publishes and subscribes to report changes of a single owner.
type Feed interface {
	// Publish notifies every subscriber of userID that its reports changed.
	Publish(ctx context.Context, userID uint) error
	// Subscribe returns a channel that receives one value per change. The
	// channel is closed and the subscription released once ctx is done.
	Subscribe(ctx context.Context, userID uint) (<-chan struct{}, error)
}

// Channel returns the Pub/Sub channel name for an owner.
func Channel(userID uint) string {
	return fmt.Sprintf("reports:changed:%d", userID)
}

// notify does a non-blocking send. A pending notification already covers
// any change that happens before it is consumed.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
