package subscriptions

import "context"

// Repository stores the directed subscriber -> channel edges.
type Repository interface {
	CountByChannel(ctx context.Context, channelID string) (int64, error)
	CountBySubscriber(ctx context.Context, subscriberID string) (int64, error)
	Exists(ctx context.Context, subscriberID, channelID string) (bool, error)
	// Create is idempotent: an existing edge is not an error.
	Create(ctx context.Context, subscriberID, channelID string) error
	Delete(ctx context.Context, subscriberID, channelID string) error
}
