package session

import (
	"time"

	"github.com/guildboard/guildboard/pkg/oauth"
)

// Account is the per-user OAuth record persisted at rest. Records are
// encrypted with the secret codec before they reach the store.
type Account struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	TokenType    string     `json:"token_type"`
	Scope        string     `json:"scope"`
	ExpiresIn    int64      `json:"expires_in"`
	ObtainedAt   time.Time  `json:"obtained_at"`
	User         oauth.User `json:"user"`
}

// NewAccount builds an account record from a freshly obtained token set
// and profile snapshot, stamped at now.
func NewAccount(tok *oauth.Token, user *oauth.User) *Account {
	acc := &Account{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Scope:        tok.Scope,
		ExpiresIn:    tok.ExpiresIn,
		ObtainedAt:   time.Now(),
	}
	if user != nil {
		acc.User = *user
	}
	return acc
}

// ExpiresAt returns the absolute expiry of the access token.
func (a *Account) ExpiresAt() time.Time {
	return a.ObtainedAt.Add(time.Duration(a.ExpiresIn) * time.Second)
}

// FresherThan reports whether the access token is valid for at least d
// from now. The refresh policy keys off this.
func (a *Account) FresherThan(d time.Duration) bool {
	return time.Until(a.ExpiresAt()) >= d
}
