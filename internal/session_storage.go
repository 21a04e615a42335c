package internal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/guildboard/guildboard/pkg/cache"
	"github.com/guildboard/guildboard/pkg/oauth"
	"github.com/guildboard/guildboard/pkg/secret"
	"github.com/guildboard/guildboard/pkg/session"
)

// CookieName is the fixed session cookie name.
const CookieName = "GUILDBOARD_SESSION"

const (
	// accountCacheTTL bounds how long an account record may be served
	// from memory, independent of the token's own expiry.
	accountCacheTTL = 24 * time.Hour

	// refreshWindow is the remaining token lifetime below which an
	// opportunistic refresh fires.
	refreshWindow = 24 * time.Hour

	// landingPath is where a completed authorization redirects.
	landingPath = "/"
)

// SessionStorage wraps every request: it loads and decrypts the session
// cookie, keeps account records fresh, and re-seals the final session
// into the response cookie on the way out.
type SessionStorage struct {
	codec    *secret.Codec
	store    session.AccountStore
	provider *oauth.Client
	cache    cache.Cache[*session.Account]
	logger   *slog.Logger
}

// SessionStorageOption configures a SessionStorage.
type SessionStorageOption func(*SessionStorage)

// WithAccountCache replaces the default in-memory account cache. The
// cache must tolerate concurrent use; last writer wins per entry.
func WithAccountCache(c cache.Cache[*session.Account]) SessionStorageOption {
	return func(ss *SessionStorage) {
		ss.cache = c
	}
}

// NewSessionStorage creates the session middleware backing store.
func NewSessionStorage(codec *secret.Codec, store session.AccountStore, provider *oauth.Client, opts ...SessionStorageOption) *SessionStorage {
	ss := &SessionStorage{
		codec:    codec,
		store:    store,
		provider: provider,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(ss)
	}
	if ss.cache == nil {
		ss.cache = cache.NewMemory[*session.Account](
			cache.WithDefaultTTL(accountCacheTTL),
			cache.WithCleanupInterval(time.Minute),
		)
	}
	return ss
}

func (ss *SessionStorage) setLogger(log *slog.Logger) {
	ss.logger = log
}

// Middleware returns the cookie lifecycle middleware. The error
// boundary runs inside it, so even substituted error responses leave
// with a session cookie. A nil response with a nil
// error from the inner chain is a contract violation and fails loudly
// rather than dropping the cookie.
func (ss *SessionStorage) Middleware() Middleware {
	return func(next RequestHandler) RequestHandler {
		return func(r *Request) (Response, error) {
			sess, err := ss.load(r)
			if err != nil {
				return nil, err
			}

			sess.payload.ExtendLifetime()
			r.SetSession(sess)

			resp, err := next(r)
			if err != nil {
				return nil, err
			}
			if resp == nil {
				return nil, errors.New("session storage: inner chain returned nil response and nil error")
			}

			// Handlers may have replaced the session; the cookie always
			// reflects the final one.
			final := r.Session()
			token, err := session.SealPayload(ss.codec, final.Payload())
			if err != nil {
				return nil, err
			}
			setSessionCookie(resp.Header(), token, final.Payload().ExpiresAt)

			return resp, nil
		}
	}
}

// load reads the cookie and produces the request's session. Absent or
// expired cookies mint a fresh anonymous session. Decryption failure is
// a malformed request; a decrypted blob of the wrong shape is a cookie
// validation error. The two imply different remediations, so they stay
// distinct.
func (ss *SessionStorage) load(r *Request) (*Session, error) {
	c, err := r.Cookie(CookieName)
	if errors.Is(err, http.ErrNoCookie) {
		return &Session{payload: session.NewPayload(), storage: ss}, nil
	}

	payload, err := session.OpenPayload(ss.codec, c.Value)
	switch {
	case errors.Is(err, secret.ErrDecrypt):
		return nil, ErrBadRequest("malformed session cookie", WithError(err))
	case errors.Is(err, session.ErrMalformed):
		return nil, &RequestValidationError{Part: PartCookies, Name: CookieName, Err: err}
	case err != nil:
		return nil, err
	}

	if payload.Expired() {
		return &Session{payload: session.NewPayload(), storage: ss}, nil
	}

	sess := &Session{payload: payload, storage: ss}

	if payload.Authenticated() {
		// Refresh opportunistically and always re-point the embedded
		// snapshot at the account record, so profile data shown for
		// this request never lags the persisted state.
		acc, err := ss.refreshAccount(r.Context(), sess, "")
		if err != nil {
			return nil, err
		}
		sess.payload.User = &acc.User
	}

	return sess, nil
}

// account returns the user's record from cache, falling back to the
// persistent store. Concurrent misses for the same user collapse into a
// single store fetch.
func (ss *SessionStorage) account(ctx context.Context, userID string) (*session.Account, error) {
	return cache.GetOrSet(ctx, ss.cache, userID, func(ctx context.Context) (*session.Account, time.Duration, error) {
		sealed, err := ss.store.Get(ctx, userID)
		if err != nil {
			if errors.Is(err, session.ErrAccountNotFound) {
				return nil, 0, ErrUnauthorized("account record not found, re-authentication required", WithError(err))
			}
			return nil, 0, err
		}

		acc, err := session.OpenAccount(ss.codec, sealed)
		if err != nil {
			return nil, 0, err
		}
		return acc, accountCacheTTL, nil
	})
}

// refreshAccount keeps the session's account record current. With an
// authorization code the exchange is unconditional; without one, a
// refresh-token exchange runs only when the access token has less than
// the refresh window left. On success the record is upserted, the cache
// updated, and the in-request snapshot replaced, in that order.
// Exchange failures propagate; they are never swallowed.
func (ss *SessionStorage) refreshAccount(ctx context.Context, sess *Session, code string) (*session.Account, error) {
	if code != "" {
		tok, err := ss.provider.ExchangeCode(ctx, code)
		if err != nil {
			return nil, err
		}
		return ss.storeExchange(ctx, sess, tok, "")
	}

	if !sess.Authenticated() {
		return nil, session.ErrAnonymous
	}

	acc, err := ss.account(ctx, sess.User().ID)
	if err != nil {
		return nil, err
	}
	if acc.FresherThan(refreshWindow) {
		return acc, nil
	}

	tok, err := ss.provider.Refresh(ctx, acc.RefreshToken)
	if err != nil {
		return nil, err
	}
	// Providers may rotate or omit the refresh token; keep the old one
	// when the response has none.
	return ss.storeExchange(ctx, sess, tok, acc.RefreshToken)
}

// storeExchange fetches a fresh profile for the new token set and
// persists the merged record.
func (ss *SessionStorage) storeExchange(ctx context.Context, sess *Session, tok *oauth.Token, fallbackRefresh string) (*session.Account, error) {
	user, err := ss.provider.FetchUser(ctx, tok.AccessToken)
	if err != nil {
		return nil, err
	}

	acc := session.NewAccount(tok, user)
	if acc.RefreshToken == "" {
		acc.RefreshToken = fallbackRefresh
	}

	sealed, err := session.SealAccount(ss.codec, acc)
	if err != nil {
		return nil, err
	}
	if err := ss.store.Put(ctx, user.ID, sealed); err != nil {
		return nil, err
	}
	if err := ss.cache.Set(ctx, user.ID, acc, accountCacheTTL); err != nil {
		ss.logger.WarnContext(ctx, "account cache set failed", slog.String("error", err.Error()))
	}

	sess.payload.User = &acc.User
	return acc, nil
}

// CompleteAuthorization finishes the OAuth callback for the request's
// session. An already-authorized session cannot authorize again, and
// the presented state must match the one this session's identity
// produces, or the flow is rejected as a possible interception.
func (ss *SessionStorage) CompleteAuthorization(ctx context.Context, r *Request, code, state string) error {
	sess := r.Session()
	if sess == nil {
		return ErrInternal("session storage middleware is not installed")
	}
	if sess.Authenticated() {
		return ErrBadRequest("session is already authorized")
	}
	if state == "" || state != sess.State() {
		return ErrForbidden("authorization state mismatch")
	}

	if _, err := ss.refreshAccount(ctx, sess, code); err != nil {
		return err
	}
	return nil
}

func setSessionCookie(h http.Header, token string, expires time.Time) {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	h.Add("Set-Cookie", c.String())
}
