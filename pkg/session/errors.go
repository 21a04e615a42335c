package session

import "errors"

var (
	// ErrExpired is returned when a session payload is past its expiry time.
	ErrExpired = errors.New("session: session expired")

	// ErrAnonymous is returned when an operation requires an authorized
	// session but the payload carries no user.
	ErrAnonymous = errors.New("session: session is anonymous")

	// ErrAccountNotFound is returned by an AccountStore when no account
	// record exists for the given user ID.
	ErrAccountNotFound = errors.New("session: account not found")

	// ErrMalformed is returned when a decrypted payload or account record
	// does not match the expected schema.
	ErrMalformed = errors.New("session: malformed record")
)
