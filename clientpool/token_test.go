/*
Copyright © 2025 ChorusHub.

Released under MIT license.
*/

package clientpool

import (
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func makeToken(subject string, expiresIn time.Duration) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf(
		`{"sub":%q,"exp":%d}`, subject, time.Now().Add(expiresIn).Unix())))
	return header + "." + payload + ".unverified-signature"
}

func TestParseTokenClaims(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		claims, err := ParseTokenClaims(makeToken("user-42", time.Hour))
		require.NoError(t, err)
		require.Equal(t, "user-42", claims.Subject)
		require.WithinDuration(t, time.Now().Add(time.Hour), claims.Expiry(), time.Second*5)
	})

	t.Run("wrong number of segments", func(t *testing.T) {
		_, err := ParseTokenClaims("just-an-opaque-string")
		require.Error(t, err)
	})

	t.Run("payload is not base64", func(t *testing.T) {
		_, err := ParseTokenClaims("aGVhZGVy.%%%.c2ln")
		require.Error(t, err)
	})

	t.Run("payload is not json", func(t *testing.T) {
		payload := base64.RawURLEncoding.EncodeToString([]byte("not json"))
		_, err := ParseTokenClaims("aGVhZGVy." + payload + ".c2ln")
		require.Error(t, err)
	})

	t.Run("missing exp claim", func(t *testing.T) {
		payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"user-1"}`))
		_, err := ParseTokenClaims("aGVhZGVy." + payload + ".c2ln")
		require.Error(t, err)
	})
}

func TestTokenClaimsExpiresWithin(t *testing.T) {
	now := time.Now()
	claims := TokenClaims{Subject: "user-1", ExpiresAt: now.Add(time.Minute * 3).Unix()}
	require.True(t, claims.ExpiresWithin(now, time.Minute*5))
	require.False(t, claims.ExpiresWithin(now, time.Minute))
}
