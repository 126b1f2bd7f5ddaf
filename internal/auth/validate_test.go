package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateUsername(t *testing.T) {
	valid := []string{"abc", "alice_w", "a-b-c", strings.Repeat("x", 30)}
	for _, u := range valid {
		if err := ValidateUsername(u); err != nil {
			t.Fatalf("ValidateUsername(%q): %v", u, err)
		}
	}
	invalid := []string{"ab", strings.Repeat("x", 31), "has space", "bad$char", "émile"}
	for _, u := range invalid {
		if err := ValidateUsername(u); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("ValidateUsername(%q): expected ErrInvalidInput, got %v", u, err)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("secret"); err != nil {
		t.Fatalf("six characters should pass: %v", err)
	}
	if err := ValidatePassword("12345"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := ValidatePassword(strings.Repeat("p", 72)); err != nil {
		t.Fatalf("72 characters should pass: %v", err)
	}
	if err := ValidatePassword(strings.Repeat("p", 73)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for oversized password, got %v", err)
	}
	// 73-128 characters used to pass validation and then blow up inside
	// bcrypt, which caps input at 72 bytes.
	if err := ValidatePassword(strings.Repeat("p", 100)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for 100-character password, got %v", err)
	}
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"alice@example.com", "a.b@sub.example.org", "user-1@mail.co"}
	for _, e := range valid {
		if err := ValidateEmail(e); err != nil {
			t.Fatalf("ValidateEmail(%q): %v", e, err)
		}
	}
	invalid := []string{"", "plain", "@example.com", "a@b", "a b@example.com"}
	for _, e := range invalid {
		if err := ValidateEmail(e); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("ValidateEmail(%q): expected ErrInvalidInput, got %v", e, err)
		}
	}
}

func TestValidateName(t *testing.T) {
	if err := ValidateName("Jo"); err != nil {
		t.Fatalf("two characters should pass: %v", err)
	}
	if err := ValidateName("J"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := ValidateName(strings.Repeat("n", 51)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for oversized name, got %v", err)
	}
}
