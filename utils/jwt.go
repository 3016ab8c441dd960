package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gopress/gopress/config"
	"github.com/gopress/gopress/models"
)

// Sentinel token errors. The auth middleware distinguishes expired from
// invalid so each produces its own 401 message.
var (
	ErrTokenGeneration = errors.New("token generation failed")
	ErrTokenInvalid    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token expired")
)

// Claims defines the session token payload.
type Claims struct {
	UserID   uint   `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken issues a session JWT for the user with the configured TTL.
// Signing failures are collapsed into ErrTokenGeneration so the underlying
// cause (key misconfiguration, serialization) never reaches the caller.
func GenerateToken(user *models.User) (string, error) {
	cfg := config.Get()
	return GenerateTokenWithTTL(user, time.Duration(cfg.TokenTTLHours)*time.Hour)
}

// GenerateTokenWithTTL issues a session JWT with an explicit lifetime.
func GenerateTokenWithTTL(user *models.User, ttl time.Duration) (string, error) {
	cfg := config.Get()
	now := time.Now()

	claims := Claims{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.JWTIssuer,
			Audience:  jwt.ClaimStrings{cfg.JWTAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", ErrTokenGeneration
	}
	return signed, nil
}

// ParseToken validates signature, expiry, issuer, and audience, returning the
// decoded claims. Expired tokens yield ErrTokenExpired; any other failure
// yields ErrTokenInvalid.
func ParseToken(tokenStr string) (*Claims, error) {
	cfg := config.Get()
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithIssuer(cfg.JWTIssuer), jwt.WithAudience(cfg.JWTAudience))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// DecodeUnverified returns claims from a syntactically valid token without
// checking signature or expiry. Fails only when the token is unparseable.
func DecodeUnverified(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	return claims, nil
}

// IsTokenExpired reports whether a token's expiry has passed. Unparseable
// tokens and tokens without an expiry claim count as expired (fail closed).
func IsTokenExpired(tokenStr string) bool {
	claims, err := DecodeUnverified(tokenStr)
	if err != nil || claims.ExpiresAt == nil {
		return true
	}
	return time.Now().After(claims.ExpiresAt.Time)
}

// TokenExpiry returns the expiry instant of a token. The second return is
// false when the token is unparseable or carries no expiry claim.
func TokenExpiry(tokenStr string) (time.Time, bool) {
	claims, err := DecodeUnverified(tokenStr)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// GenerateOneTimeToken creates a high-entropy random value for password reset
// or email verification. The plaintext is delivered out-of-band; only the
// hash is persisted.
func GenerateOneTimeToken() (plain string, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", ErrTokenGeneration
	}
	plain = hex.EncodeToString(buf)
	return plain, HashOneTimeToken(plain), nil
}

// HashOneTimeToken computes the one-way hash used to store and verify
// one-time tokens.
func HashOneTimeToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
