package secret_test

import (
	"errors"
	"testing"

	"github.com/guildboard/guildboard/pkg/secret"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNew(t *testing.T) {
	if _, err := secret.New("too short"); !errors.Is(err, secret.ErrBadSecret) {
		t.Errorf("expected ErrBadSecret, got %v", err)
	}

	c, err := secret.New(testSecret)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c == nil {
		t.Fatal("New() returned nil codec")
	}
}

func TestSealOpen(t *testing.T) {
	c, err := secret.New(testSecret)
	if err != nil {
		t.Fatal(err)
	}

	token, err := c.Seal([]byte("hello world"))
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	plaintext, err := c.Open(token)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if string(plaintext) != "hello world" {
		t.Errorf("Open() = %q, want %q", plaintext, "hello world")
	}
}

func TestOpenRejectsTampering(t *testing.T) {
	c, err := secret.New(testSecret)
	if err != nil {
		t.Fatal(err)
	}

	token, err := c.Seal([]byte("payload"))
	if err != nil {
		t.Fatal(err)
	}

	t.Run("flipped byte", func(t *testing.T) {
		tampered := []byte(token)
		tampered[len(tampered)-1] ^= 'x'
		if _, err := c.Open(string(tampered)); !errors.Is(err, secret.ErrDecrypt) {
			t.Errorf("expected ErrDecrypt, got %v", err)
		}
	})

	t.Run("not base64", func(t *testing.T) {
		if _, err := c.Open("!!!not-base64!!!"); !errors.Is(err, secret.ErrDecrypt) {
			t.Errorf("expected ErrDecrypt, got %v", err)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		if _, err := c.Open("AAAA"); !errors.Is(err, secret.ErrDecrypt) {
			t.Errorf("expected ErrDecrypt, got %v", err)
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		other, err := secret.New("ffffffffffffffffffffffffffffffff")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := other.Open(token); !errors.Is(err, secret.ErrDecrypt) {
			t.Errorf("expected ErrDecrypt, got %v", err)
		}
	})
}
