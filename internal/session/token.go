package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/theirongolddev/ngodash/internal/model"
)

// tokenExpiry reads the exp claim without verifying the signature; the
// server verifies, the client only needs to know when to stop trying.
// ok is false when the token carries no exp claim.
func tokenExpiry(token string) (exp time.Time, ok bool, err error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false, fmt.Errorf("decoding token: %w", err)
	}
	nd, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("decoding exp claim: %w", err)
	}
	if nd == nil {
		return time.Time{}, false, nil
	}
	return nd.Time, true, nil
}

// expired reports whether token has a decodable exp claim in the past.
// Opaque tokens have no known expiry and are left to the server.
func expired(token string, now time.Time) bool {
	exp, ok, err := tokenExpiry(token)
	if err != nil || !ok {
		return false
	}
	return now.After(exp)
}

// userFromClaims builds a profile from token claims, for servers that
// answer login with a token only.
func userFromClaims(token string) (*model.User, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("decoding token: %w", err)
	}

	str := func(keys ...string) string {
		for _, k := range keys {
			switch v := claims[k].(type) {
			case string:
				if v != "" {
					return v
				}
			case float64:
				return fmt.Sprintf("%.0f", v)
			}
		}
		return ""
	}

	u := &model.User{
		ID:    model.ID(str("id", "_id", "userId", "sub")),
		Name:  str("name"),
		Email: str("email"),
		Role:  model.Role(str("role")),
	}
	if u.ID == "" {
		return nil, fmt.Errorf("token carries no user id")
	}
	return u, nil
}
