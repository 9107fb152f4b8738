/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package clientpool

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TokenClaims is a subset of JWT claims the pool needs to decide
// whether a client built from the token may be pooled.
// The token signature is NOT verified here: the pool is a cache,
// authenticity is established upstream.
type TokenClaims struct {
	Subject   string `json:"sub"`
	ExpiresAt int64  `json:"exp"`
}

// Expiry returns the expiration time of the token.
func (c TokenClaims) Expiry() time.Time {
	return time.Unix(c.ExpiresAt, 0)
}

// ExpiresWithin reports whether the token expires within the given margin of now.
func (c TokenClaims) ExpiresWithin(now time.Time, margin time.Duration) bool {
	return !c.Expiry().After(now.Add(margin))
}

// ParseTokenClaims decodes the payload segment of a JWT bearer token
// without verifying its signature.
func ParseTokenClaims(token string) (TokenClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return TokenClaims{}, fmt.Errorf("token should consist of 3 segments, got %d", len(parts))
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return TokenClaims{}, fmt.Errorf("decode token payload: %w", err)
	}
	var claims TokenClaims
	if err = json.Unmarshal(payload, &claims); err != nil {
		return TokenClaims{}, fmt.Errorf("unmarshal token claims: %w", err)
	}
	if claims.ExpiresAt == 0 {
		return TokenClaims{}, fmt.Errorf("token claims should contain exp")
	}
	return claims, nil
}
