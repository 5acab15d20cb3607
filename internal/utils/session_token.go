package utils // package utils provides helper functions for session tokens and hashing

import (
	"crypto/sha256" // SHA‑256 hashing for stored session ids
	"encoding/hex"  // hex encoding of digests
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for signing the session cookie
	"github.com/google/uuid"
)

// ErrInvalidSessionToken is returned for cookies that fail signature,
// expiry or claim checks.
var ErrInvalidSessionToken = errors.New("invalid session token")

// SessionToken is the value placed in the session cookie. Token is the
// signed JWT; SessionID is the raw id whose hash is stored server side.
type SessionToken struct {
	Token     string
	SessionID string
	Exp       time.Time
}

// SessionClaims are the claims recovered from a verified cookie.
type SessionClaims struct {
	UserID    uint64
	SessionID string
	Exp       time.Time
}

// NewSessionToken builds and signs an HS256 JWT binding a fresh random
// session id to a user. The JWT carries sub (user id), sid, exp and iat.
func NewSessionToken(secret string, userID uint64, ttl time.Duration) (SessionToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	sid := uuid.NewString()
	claims := jwt.MapClaims{
		"sub": strconv.FormatUint(userID, 10),
		"sid": sid,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, SessionID: sid, Exp: exp}, nil
}

// ParseSessionToken verifies the signature and expiry of a cookie value
// and returns its claims.
func ParseSessionToken(secret, raw string) (SessionClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSessionToken
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return SessionClaims{}, ErrInvalidSessionToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return SessionClaims{}, ErrInvalidSessionToken
	}
	sub, _ := claims["sub"].(string)
	uid, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || uid == 0 {
		return SessionClaims{}, ErrInvalidSessionToken
	}
	sid, _ := claims["sid"].(string)
	if sid == "" {
		return SessionClaims{}, ErrInvalidSessionToken
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return SessionClaims{}, ErrInvalidSessionToken
	}
	return SessionClaims{UserID: uid, SessionID: sid, Exp: exp.Time}, nil
}

// HashSessionID returns the SHA‑256 hash of the raw session id as a hex
// string. Only this hash is written to the sessions table.
func HashSessionID(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
