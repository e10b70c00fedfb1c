package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/checkout-flow/pkg/config"
)

func testConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "checkout-flow",
		ExpirationMinutes: 30,
	}
}

func TestMintAndParseSessionToken(t *testing.T) {
	cfg := testConfig()
	now := time.Now().UTC()
	sessionID := NewSessionID()

	token, err := MintSessionToken(cfg, now, sessionID)
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}

	claims, err := ParseSessionToken(cfg, token)
	if err != nil {
		t.Fatalf("parse session token: %v", err)
	}
	if claims.SessionID != sessionID {
		t.Fatalf("expected sid %s, got %s", sessionID, claims.SessionID)
	}
	if claims.Subject != sessionID {
		t.Fatalf("expected subject %s, got %s", sessionID, claims.Subject)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Sub(now) < 29*time.Minute {
		t.Fatalf("unexpected expiry %v", claims.ExpiresAt)
	}
}

func TestParseSessionTokenRejectsExpired(t *testing.T) {
	cfg := testConfig()
	token, err := MintSessionToken(cfg, time.Now().Add(-time.Hour), "sess")
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}
	if _, err := ParseSessionToken(cfg, token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestParseSessionTokenRejectsWrongSecretAndIssuer(t *testing.T) {
	cfg := testConfig()
	token, err := MintSessionToken(cfg, time.Now(), "sess")
	if err != nil {
		t.Fatalf("mint session token: %v", err)
	}

	wrongSecret := cfg
	wrongSecret.Secret = "other"
	if _, err := ParseSessionToken(wrongSecret, token); err == nil {
		t.Fatal("expected signature failure")
	}

	wrongIssuer := cfg
	wrongIssuer.Issuer = "someone-else"
	if _, err := ParseSessionToken(wrongIssuer, token); err == nil || !strings.Contains(err.Error(), "issuer") {
		t.Fatalf("expected issuer failure, got %v", err)
	}
}

func TestMintSessionTokenValidatesInput(t *testing.T) {
	cfg := testConfig()
	if _, err := MintSessionToken(cfg, time.Now(), " "); err == nil {
		t.Fatal("expected missing session id error")
	}
	cfg.Secret = ""
	if _, err := MintSessionToken(cfg, time.Now(), "sess"); err == nil {
		t.Fatal("expected missing secret error")
	}
}
