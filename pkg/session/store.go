package session

import "context"

// AccountStore persists encrypted account records keyed by provider user
// ID. Implementations never see plaintext tokens; sealing happens in the
// caller.
type AccountStore interface {
	// Put upserts the encrypted record for the user.
	Put(ctx context.Context, userID string, encrypted string) error

	// Get returns the encrypted record for the user, or ErrAccountNotFound.
	Get(ctx context.Context, userID string) (string, error)
}
