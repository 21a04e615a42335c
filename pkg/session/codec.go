package session

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/guildboard/guildboard/pkg/secret"
)

// SealPayload serializes and encrypts a payload into a cookie token.
func SealPayload(codec *secret.Codec, p *Payload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return codec.Seal(raw)
}

// OpenPayload decrypts and deserializes a cookie token. Crypto failures
// surface as secret.ErrDecrypt; a decrypted blob that does not describe
// a payload surfaces as ErrMalformed. Callers treat the two differently.
func OpenPayload(codec *secret.Codec, token string) (*Payload, error) {
	raw, err := codec.Open(token)
	if err != nil {
		return nil, err
	}

	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}
	if p.ID == uuid.Nil || p.IssuedAt.IsZero() || p.ExpiresAt.IsZero() {
		return nil, ErrMalformed
	}
	return &p, nil
}

// SealAccount serializes and encrypts an account record for storage.
func SealAccount(codec *secret.Codec, a *Account) (string, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return "", err
	}
	return codec.Seal(raw)
}

// OpenAccount decrypts and deserializes a stored account record.
func OpenAccount(codec *secret.Codec, token string) (*Account, error) {
	raw, err := codec.Open(token)
	if err != nil {
		return nil, err
	}

	var a Account
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}
	if a.AccessToken == "" || a.User.ID == "" {
		return nil, ErrMalformed
	}
	return &a, nil
}
