package auth

import (
	"encoding/json"
	"time"

	jerrors "github.com/porthorian/jamfpro/pkg/errors"
)

// RefreshThreshold is the remaining/lifetime fraction at or below which a
// token is refreshed before use.
const RefreshThreshold = 0.20

const (
	expiresLayoutFractional = "2006-01-02T15:04:05.000000Z"
	expiresLayout           = "2006-01-02T15:04:05Z"
)

// Token is the bearer state. The zero value is the absent state: no value,
// the minimum time.Time as expiry, and zero lifetime.
type Token struct {
	Value    string
	Expires  time.Time
	Lifetime time.Duration
}

func (t Token) Present() bool {
	return t.Value != ""
}

// NeedsRefresh reports whether remaining/lifetime has dropped to the threshold.
func (t Token) NeedsRefresh(now time.Time) bool {
	if !t.Present() || t.Lifetime <= 0 {
		return true
	}
	remaining := t.Expires.Sub(now)
	return float64(remaining)/float64(t.Lifetime) <= RefreshThreshold
}

// ParseExpires accepts UTC timestamps with or without fractional seconds.
func ParseExpires(value string) (time.Time, error) {
	if len(value) > len(expiresLayout) {
		if t, err := time.Parse("2006-01-02T15:04:05.999999999Z", value); err == nil {
			return t.UTC(), nil
		}
	}
	t, err := time.Parse(expiresLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func FormatExpires(t time.Time, fractional bool) string {
	if fractional {
		return t.UTC().Format(expiresLayoutFractional)
	}
	return t.UTC().Format(expiresLayout)
}

// decodeToken parses a {token, expires} body. Lifetime is measured from now.
func decodeToken(body []byte, now time.Time) (Token, error) {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return Token{}, jerrors.Wrap(jerrors.CodeInvalidAuthResponse, "auth response is not valid json", err)
	}

	value, ok := payload["token"].(string)
	if !ok || value == "" {
		return Token{}, jerrors.New(jerrors.CodeInvalidAuthResponse, "auth response is missing a string token")
	}

	rawExpires, ok := payload["expires"].(string)
	if !ok {
		return Token{}, jerrors.New(jerrors.CodeInvalidAuthResponse, "auth response is missing a string expires")
	}

	expires, err := ParseExpires(rawExpires)
	if err != nil {
		return Token{}, jerrors.Wrap(jerrors.CodeInvalidAuthResponse, "auth response expires is not an ISO-8601 UTC timestamp", err)
	}

	now = now.UTC()
	if !expires.After(now) {
		return Token{}, jerrors.Newf(jerrors.CodeInvalidAuthResponse, "auth response token expired at %s, local clock is %s", FormatExpires(expires, false), FormatExpires(now, false))
	}

	return Token{
		Value:    value,
		Expires:  expires,
		Lifetime: expires.Sub(now),
	}, nil
}
