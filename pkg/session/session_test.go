package session_test

import (
	"errors"
	"testing"
	"time"

	"github.com/guildboard/guildboard/pkg/oauth"
	"github.com/guildboard/guildboard/pkg/secret"
	"github.com/guildboard/guildboard/pkg/session"
)

func newCodec(t *testing.T) *secret.Codec {
	t.Helper()
	codec, err := secret.New("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("secret.New: %v", err)
	}
	return codec
}

func TestNewPayload(t *testing.T) {
	p := session.NewPayload()

	if p.Authenticated() {
		t.Error("new payload should be anonymous")
	}
	if p.Expired() {
		t.Error("new payload should not be expired")
	}

	want := time.Now().Add(session.Lifetime)
	if diff := p.ExpiresAt.Sub(want); diff < -time.Second || diff > time.Second {
		t.Errorf("expiry %v not within a second of %v", p.ExpiresAt, want)
	}
}

func TestExtendLifetime(t *testing.T) {
	p := session.NewPayload()
	p.ExpiresAt = time.Now().Add(time.Hour)

	p.ExtendLifetime()
	want := time.Now().Add(session.Lifetime)
	if diff := p.ExpiresAt.Sub(want); diff < -time.Second || diff > time.Second {
		t.Errorf("expiry %v not within a second of %v", p.ExpiresAt, want)
	}

	// Repeated extension keeps the same window; it never accumulates.
	first := p.ExpiresAt
	p.ExtendLifetime()
	if p.ExpiresAt.Sub(first) > time.Second {
		t.Errorf("second extension moved expiry by %v", p.ExpiresAt.Sub(first))
	}
}

func TestExtendLifetime_Expired(t *testing.T) {
	p := session.NewPayload()
	p.ExpiresAt = time.Now().Add(-time.Minute)

	before := p.ExpiresAt
	p.ExtendLifetime()
	if !p.ExpiresAt.Equal(before) {
		t.Error("expired payload must not be revived")
	}
	if !p.Expired() {
		t.Error("payload should remain expired")
	}
}

func TestWithUser(t *testing.T) {
	p := session.NewPayload()
	authed := p.WithUser(&oauth.User{ID: "42", Username: "nelly"})

	if !authed.Authenticated() {
		t.Error("payload with user should be authenticated")
	}
	if authed.ID != p.ID {
		t.Error("session identity must survive authentication")
	}
	if p.Authenticated() {
		t.Error("original payload must stay anonymous")
	}
}

func TestState(t *testing.T) {
	p := session.NewPayload()

	if p.State() != p.State() {
		t.Error("state must be deterministic per session")
	}
	if len(p.State()) != 64 {
		t.Errorf("state length = %d, want 64 hex chars", len(p.State()))
	}
	if other := session.NewPayload(); other.State() == p.State() {
		t.Error("distinct sessions must have distinct states")
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	codec := newCodec(t)
	p := session.NewPayload().WithUser(&oauth.User{ID: "42", Username: "nelly"})

	token, err := session.SealPayload(codec, p)
	if err != nil {
		t.Fatalf("SealPayload: %v", err)
	}

	got, err := session.OpenPayload(codec, token)
	if err != nil {
		t.Fatalf("OpenPayload: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("ID = %v, want %v", got.ID, p.ID)
	}
	if got.User == nil || got.User.ID != "42" {
		t.Errorf("User = %+v, want ID=42", got.User)
	}
}

func TestOpenPayload_WrongKey(t *testing.T) {
	codec := newCodec(t)
	other, err := secret.New("ffffffffffffffffffffffffffffffff")
	if err != nil {
		t.Fatal(err)
	}

	token, err := session.SealPayload(codec, session.NewPayload())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := session.OpenPayload(other, token); !errors.Is(err, secret.ErrDecrypt) {
		t.Errorf("err = %v, want ErrDecrypt", err)
	}
}

func TestOpenPayload_Malformed(t *testing.T) {
	codec := newCodec(t)

	for name, blob := range map[string][]byte{
		"not json":    []byte("not json at all"),
		"wrong shape": []byte(`{"hello":"world"}`),
		"zero id":     []byte(`{"id":"00000000-0000-0000-0000-000000000000","issued_at":"2026-01-01T00:00:00Z","expires_at":"2026-01-08T00:00:00Z"}`),
	} {
		token, err := codec.Seal(blob)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := session.OpenPayload(codec, token); !errors.Is(err, session.ErrMalformed) {
			t.Errorf("%s: err = %v, want ErrMalformed", name, err)
		}
	}
}

func TestAccountRoundTrip(t *testing.T) {
	codec := newCodec(t)
	acc := session.NewAccount(
		&oauth.Token{AccessToken: "at", RefreshToken: "rt", TokenType: "Bearer", ExpiresIn: 3600},
		&oauth.User{ID: "42", Username: "nelly"},
	)

	token, err := session.SealAccount(codec, acc)
	if err != nil {
		t.Fatal(err)
	}

	got, err := session.OpenAccount(codec, token)
	if err != nil {
		t.Fatal(err)
	}
	if got.AccessToken != "at" || got.RefreshToken != "rt" || got.User.ID != "42" {
		t.Errorf("got %+v", got)
	}
}

func TestAccountExpiry(t *testing.T) {
	acc := &session.Account{
		AccessToken: "at",
		ExpiresIn:   3600,
		ObtainedAt:  time.Now(),
	}

	want := acc.ObtainedAt.Add(time.Hour)
	if !acc.ExpiresAt().Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", acc.ExpiresAt(), want)
	}
	if !acc.FresherThan(30 * time.Minute) {
		t.Error("token valid for an hour is fresher than 30m")
	}
	if acc.FresherThan(2 * time.Hour) {
		t.Error("token valid for an hour is not fresher than 2h")
	}
}
