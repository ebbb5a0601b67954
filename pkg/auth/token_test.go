package auth

import (
	"testing"
	"time"

	"github.com/angelmondragon/venueops-backend/pkg/config"
	"github.com/google/uuid"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "venue-identity"}

func TestMintAndParseAccessToken(t *testing.T) {
	now := time.Now().UTC()
	userID := uuid.New()

	token, err := MintAccessToken(testJWT, now, 30*time.Minute, AccessTokenPayload{UserID: userID, JTI: "abc"})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(testJWT, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user_id %s, got %s", userID, claims.UserID)
	}
	if claims.Issuer != testJWT.Issuer || claims.ID != "abc" {
		t.Fatalf("unexpected registered claims %+v", claims.RegisteredClaims)
	}
}

func TestParseAccessTokenRejectsBadTokens(t *testing.T) {
	now := time.Now().UTC()
	userID := uuid.New()

	expired, err := MintAccessToken(testJWT, now.Add(-2*time.Hour), time.Hour, AccessTokenPayload{UserID: userID})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(testJWT, expired); err == nil {
		t.Fatalf("expected expired token to fail")
	}

	other := config.JWTConfig{Secret: "other", Issuer: testJWT.Issuer}
	foreign, err := MintAccessToken(other, now, time.Hour, AccessTokenPayload{UserID: userID})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(testJWT, foreign); err == nil {
		t.Fatalf("expected signature mismatch to fail")
	}

	wrongIssuer := config.JWTConfig{Secret: testJWT.Secret, Issuer: "someone-else"}
	token, err := MintAccessToken(wrongIssuer, now, time.Hour, AccessTokenPayload{UserID: userID})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(testJWT, token); err == nil {
		t.Fatalf("expected issuer mismatch to fail")
	}
}

func TestMintAccessTokenValidation(t *testing.T) {
	if _, err := MintAccessToken(config.JWTConfig{}, time.Now(), time.Hour, AccessTokenPayload{UserID: uuid.New()}); err == nil {
		t.Fatalf("expected missing secret error")
	}
	if _, err := MintAccessToken(testJWT, time.Now(), time.Hour, AccessTokenPayload{}); err == nil {
		t.Fatalf("expected missing user error")
	}
}
