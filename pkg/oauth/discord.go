package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Discord endpoint defaults.
const (
	defaultAuthURL     = "https://discord.com/oauth2/authorize"
	defaultTokenURL    = "https://discord.com/api/oauth2/token"
	defaultProfileURL  = "https://discord.com/api/v10/users/@me"
	defaultScopeString = "identify guilds"
)

// DefaultScopes returns the scopes requested when none are configured.
func DefaultScopes() []string {
	return []string{"identify", "guilds"}
}

// Config holds Discord OAuth configuration.
type Config struct {
	ClientID     string   `koanf:"client_id"`
	ClientSecret string   `koanf:"client_secret"`
	RedirectURI  string   `koanf:"redirect_uri"`
	Scopes       []string `koanf:"scopes"`
}

// User is the profile snapshot returned by the provider's current-user
// endpoint. The same shape is embedded in session cookies and account
// records, so field tags must stay wire-compatible with Discord's API.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	GlobalName    string `json:"global_name,omitempty"`
	Avatar        string `json:"avatar,omitempty"`
	Discriminator string `json:"discriminator,omitempty"`
}

// DisplayName returns the user's preferred display name.
func (u User) DisplayName() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// Token is the parsed response of the provider's token endpoint.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Client performs token exchanges and profile fetches against Discord.
type Client struct {
	config     *oauth2.Config
	httpClient *http.Client
	profileURL string
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client, used both for token exchanges
// and profile fetches. Mainly useful for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithEndpoints overrides the provider endpoints. Mainly useful for tests.
func WithEndpoints(authURL, tokenURL, profileURL string) Option {
	return func(c *Client) {
		if authURL != "" {
			c.config.Endpoint.AuthURL = authURL
		}
		if tokenURL != "" {
			c.config.Endpoint.TokenURL = tokenURL
		}
		if profileURL != "" {
			c.profileURL = profileURL
		}
	}
}

// New creates a Discord OAuth client.
// Returns an error if the client ID, secret, or redirect URI is empty.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.ClientID == "" {
		return nil, ErrMissingClientID
	}
	if cfg.ClientSecret == "" {
		return nil, ErrMissingClientSecret
	}
	if cfg.RedirectURI == "" {
		return nil, ErrMissingRedirectURI
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes()
	}

	c := &Client{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   defaultAuthURL,
				TokenURL:  defaultTokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		profileURL: defaultProfileURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// AuthCodeURL builds the authorization URL for the consent flow.
// "prompt=none" avoids re-prompting users who already authorized the app.
func (c *Client) AuthCodeURL(state string) string {
	return c.config.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "none"))
}

// ExchangeCode trades an authorization code for tokens. The redirect URI
// sent with the exchange is the configured one and must match the URI used
// to start the flow.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	return c.token(ctx, code, "")
}

// Refresh trades a refresh token for a fresh token set.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	return c.token(ctx, "", refreshToken)
}

// token performs the actual exchange. Exactly one of code or refreshToken
// must be set; the public methods guarantee this, the check guards against
// future misuse.
func (c *Client) token(ctx context.Context, code, refreshToken string) (*Token, error) {
	if (code == "") == (refreshToken == "") {
		return nil, errors.New("oauth: exactly one of code or refresh token must be provided")
	}

	ctx = c.contextWithHTTPClient(ctx)

	var (
		tok *oauth2.Token
		err error
	)
	if code != "" {
		tok, err = c.config.Exchange(ctx, code)
	} else {
		tok, err = c.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	}
	if err != nil {
		return nil, errors.Join(ErrExchangeFailed, err)
	}

	return fromOAuth2Token(tok), nil
}

// FetchUser retrieves the current user's profile with a bearer token.
func (c *Client) FetchUser(ctx context.Context, accessToken string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.profileURL, nil)
	if err != nil {
		return nil, errors.Join(ErrFetchFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	hc := c.httpClient
	if hc == nil {
		hc = http.DefaultClient
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, errors.Join(ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errors.Join(ErrRequestFailed, fmt.Errorf("profile request failed: status=%d body=%s", resp.StatusCode, body))
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, errors.Join(ErrDecodeFailed, err)
	}
	return &user, nil
}

func (c *Client) contextWithHTTPClient(ctx context.Context) context.Context {
	if c.httpClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	}
	return ctx
}

func fromOAuth2Token(tok *oauth2.Token) *Token {
	out := &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresIn:    tok.ExpiresIn,
	}
	if out.ExpiresIn == 0 && !tok.Expiry.IsZero() {
		out.ExpiresIn = int64(time.Until(tok.Expiry).Seconds())
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		out.Scope = scope
	}
	return out
}
