// Package session defines the session payload carried in the browser
// cookie and the account record persisted per authenticated user. Both
// are sealed with the secret codec before leaving the process.
package session

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/guildboard/guildboard/pkg/oauth"
)

// Lifetime is the fixed sliding window applied to every session cookie.
const Lifetime = 7 * 24 * time.Hour

// Payload is the session state stored in the cookie. A nil User marks an
// anonymous session. The ID is minted once and survives the transition
// from anonymous to authenticated.
type Payload struct {
	ID        uuid.UUID   `json:"id"`
	IssuedAt  time.Time   `json:"issued_at"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *oauth.User `json:"user,omitempty"`
}

// NewPayload mints an anonymous session valid for the full lifetime window.
func NewPayload() *Payload {
	now := time.Now()
	return &Payload{
		ID:        uuid.New(),
		IssuedAt:  now,
		ExpiresAt: now.Add(Lifetime),
	}
}

// Authenticated reports whether the session carries a user.
func (p *Payload) Authenticated() bool {
	return p.User != nil
}

// Expired reports whether the session is past its expiry. A payload
// expiring exactly now counts as expired.
func (p *Payload) Expired() bool {
	return !p.ExpiresAt.After(time.Now())
}

// ExtendLifetime moves the expiry to a full window from now. Expired
// payloads are left untouched. Calling it repeatedly within the same
// instant is a no-op beyond the first call.
func (p *Payload) ExtendLifetime() {
	if p.Expired() {
		return
	}
	p.ExpiresAt = time.Now().Add(Lifetime)
}

// WithUser returns a copy of the payload bound to the given user. The
// session ID and issue time are preserved.
func (p *Payload) WithUser(user *oauth.User) *Payload {
	out := *p
	out.User = user
	return &out
}

// State derives the CSRF state for the OAuth flow from the session ID.
// It is deterministic per session and verifiable without server-side
// storage; it is not a secret.
func (p *Payload) State() string {
	sum := sha256.Sum256(p.ID[:])
	return hex.EncodeToString(sum[:])
}
