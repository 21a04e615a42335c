package oauth

import "errors"

var (
	// ErrMissingClientID is returned when the OAuth client ID is not provided.
	ErrMissingClientID = errors.New("oauth: missing client ID")

	// ErrMissingClientSecret is returned when the OAuth client secret is not provided.
	ErrMissingClientSecret = errors.New("oauth: missing client secret")

	// ErrMissingRedirectURI is returned when the redirect URI is not provided.
	ErrMissingRedirectURI = errors.New("oauth: missing redirect URI")

	// ErrExchangeFailed is returned when a token exchange with the provider fails.
	ErrExchangeFailed = errors.New("oauth: token exchange failed")

	// ErrFetchFailed is returned when fetching the user profile fails.
	ErrFetchFailed = errors.New("oauth: failed to fetch user profile")

	// ErrRequestFailed is returned when the provider returns a non-OK status.
	ErrRequestFailed = errors.New("oauth: request returned non-OK status")

	// ErrDecodeFailed is returned when decoding a provider response fails.
	ErrDecodeFailed = errors.New("oauth: failed to decode response")
)
