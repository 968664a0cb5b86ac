package config_test

import (
	"bytes"
	"testing"

	"github.com/saulo-duarte/course-progress-agent/internal/config"
)

const testKey = "01234567890123456789012345678901"

func TestNewSealer(t *testing.T) {
	t.Run("ShortKey", func(t *testing.T) {
		if _, err := config.NewSealer([]byte("chave_curta")); err == nil {
			t.Errorf("NewSealer should reject a short key")
		}
	})

	t.Run("ValidKey", func(t *testing.T) {
		if _, err := config.NewSealer([]byte(testKey)); err != nil {
			t.Fatalf("NewSealer failed: %v", err)
		}
	})
}

func TestSealOpen(t *testing.T) {
	s, err := config.NewSealer([]byte(testKey))
	if err != nil {
		t.Fatalf("NewSealer failed: %v", err)
	}

	t.Run("SimpleText", func(t *testing.T) {
		plaintext := []byte(`{"viewedPages":["/week1/"]}`)

		sealed, err := s.Seal(plaintext)
		if err != nil {
			t.Fatalf("Seal failed: %v", err)
		}

		opened, err := s.Open(sealed)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}

		if !bytes.Equal(opened, plaintext) {
			t.Errorf("opened text (%q) does not match original (%q)", opened, plaintext)
		}

		sealed2, _ := s.Seal(plaintext)
		if bytes.Equal(sealed, sealed2) {
			t.Errorf("sealing is not randomized, nonces should differ")
		}
	})

	t.Run("EmptyText", func(t *testing.T) {
		sealed, err := s.Seal(nil)
		if err != nil {
			t.Fatalf("Seal failed: %v", err)
		}
		opened, err := s.Open(sealed)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if len(opened) != 0 {
			t.Errorf("expected empty plaintext, got %q", opened)
		}
	})

	t.Run("Tampered", func(t *testing.T) {
		if _, err := s.Open([]byte("not-base64!!")); err == nil {
			t.Errorf("Open should fail on garbage input")
		}
		if _, err := s.Open([]byte("AAAA")); err == nil {
			t.Errorf("Open should fail on truncated input")
		}
	})

	t.Run("WrongKey", func(t *testing.T) {
		sealed, _ := s.Seal([]byte("secret"))
		other, _ := config.NewSealer([]byte("abcdefghijabcdefghijabcdefghij12"))
		if _, err := other.Open(sealed); err == nil {
			t.Errorf("Open with a different key should fail")
		}
	})
}
