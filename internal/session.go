package internal

import (
	"context"

	"github.com/google/uuid"

	"github.com/guildboard/guildboard/pkg/oauth"
	"github.com/guildboard/guildboard/pkg/session"
)

// Session is the handler-facing view of the cookie payload. Extract it
// as a handler parameter; the session storage middleware guarantees one
// is bound to every request it wraps.
type Session struct {
	payload *session.Payload
	storage *SessionStorage
}

// ID returns the session identity. It is minted once and survives the
// anonymous-to-authenticated transition.
func (s *Session) ID() uuid.UUID {
	return s.payload.ID
}

// Authenticated reports whether a user is bound to the session.
func (s *Session) Authenticated() bool {
	return s.payload.Authenticated()
}

// User returns the embedded profile snapshot, or nil for anonymous
// sessions. The snapshot is refreshed from the account record on every
// request, so it never lags the persisted state within one request.
func (s *Session) User() *oauth.User {
	return s.payload.User
}

// State returns the CSRF state the OAuth callback must echo back.
func (s *Session) State() string {
	return s.payload.State()
}

// AuthorizationURL builds the provider consent URL carrying this
// session's state.
func (s *Session) AuthorizationURL() string {
	return s.storage.provider.AuthCodeURL(s.payload.State())
}

// AccessToken returns a valid access token for the session's user,
// refreshing it against the provider when it is close to expiry.
// Anonymous sessions get session.ErrAnonymous.
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	if !s.Authenticated() {
		return "", session.ErrAnonymous
	}
	acc, err := s.storage.refreshAccount(ctx, s, "")
	if err != nil {
		return "", err
	}
	return acc.AccessToken, nil
}

// Payload exposes the raw payload for serialization.
func (s *Session) Payload() *session.Payload {
	return s.payload
}

// Authorized is the authentication gate expressed as a dependency. A
// handler that declares it only runs for authenticated sessions;
// anonymous requests are rejected with 401 before the handler body.
type Authorized struct {
	*Session
}

func extractSession(r *Request) (any, error) {
	s := r.Session()
	if s == nil {
		return nil, ErrInternal("session storage middleware is not installed")
	}
	return s, nil
}

func extractAuthorized(r *Request) (any, error) {
	s := r.Session()
	if s == nil {
		return nil, ErrInternal("session storage middleware is not installed")
	}
	if !s.Authenticated() {
		return nil, ErrUnauthorized("authentication required")
	}
	return Authorized{Session: s}, nil
}
