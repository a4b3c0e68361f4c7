package database

import "context"

// SeenStore records which listing ids have already triggered a notification.
// Entries are never removed.
type SeenStore interface {
	Seen(ctx context.Context, listingID string) (bool, error)
	MarkSeen(ctx context.Context, listingID string) error
	Count(ctx context.Context) (int, error)
}
