package utils

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateJWTToken_Success(t *testing.T) {
	token, err := GenerateJWTToken("test-issuer", "user-1", time.Hour, "secret-key")

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	subject, err := ValidateAndParseJWTToken(token, "secret-key", "test-issuer")
	if err != nil {
		t.Fatalf("expected token to be valid, got error: %v", err)
	}
	if subject != "user-1" {
		t.Errorf("expected subject user-1, got %s", subject)
	}
}

func TestGenerateJWTToken_InvalidParams(t *testing.T) {
	tests := []struct {
		name     string
		issuer   string
		subject  string
		duration time.Duration
		key      string
	}{
		{"empty issuer", "", "sub", time.Hour, "key"},
		{"empty subject", "iss", "", time.Hour, "key"},
		{"zero duration", "iss", "sub", 0, "key"},
		{"empty key", "iss", "sub", time.Hour, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateJWTToken(tt.issuer, tt.subject, tt.duration, tt.key)
			if err == nil {
				t.Error("expected error for invalid parameters, got nil")
			}
		})
	}
}

func TestValidateAndParseJWTToken_Failures(t *testing.T) {
	valid, _ := GenerateJWTToken("real-issuer", "u", time.Hour, "key")
	expired, _ := GenerateJWTToken("real-issuer", "u", -time.Second, "key")

	tests := []struct {
		name   string
		token  string
		key    string
		issuer string
	}{
		{"wrong key", valid, "wrong-key", "real-issuer"},
		{"wrong issuer", valid, "key", "fake-issuer"},
		{"expired", expired, "key", "real-issuer"},
		{"malformed", "not.a.token", "key", "real-issuer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ValidateAndParseJWTToken(tt.token, tt.key, tt.issuer); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestCheckJWTExpiry(t *testing.T) {
	valid, _ := GenerateJWTToken("iss", "u", time.Hour, "key")
	expired, _ := GenerateJWTToken("iss", "u", -time.Minute, "key")

	if err := CheckJWTExpiry(valid, time.Now()); err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if err := CheckJWTExpiry(expired, time.Now()); !errors.Is(err, ErrJWTExpired) {
		t.Fatalf("expected ErrJWTExpired, got %v", err)
	}
	if err := CheckJWTExpiry(valid, time.Now().Add(2*time.Hour)); !errors.Is(err, ErrJWTExpired) {
		t.Fatalf("expected ErrJWTExpired in the future, got %v", err)
	}
	if err := CheckJWTExpiry("garbage", time.Now()); !errors.Is(err, ErrJWTMalformed) {
		t.Fatalf("expected ErrJWTMalformed, got %v", err)
	}
}

func TestParseAuthorization(t *testing.T) {
	scheme, cred, err := ParseAuthorization("App CODE-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scheme != "App" || cred != "CODE-1" {
		t.Errorf("got scheme=%q credential=%q", scheme, cred)
	}

	for _, h := range []string{"", "App", "App ", "a b c"} {
		if _, _, err := ParseAuthorization(h); err == nil {
			t.Errorf("expected error for %q", h)
		}
	}
}
