package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrShareTokenInvalid is returned for malformed or tampered tokens.
	ErrShareTokenInvalid = errors.New("invalid share token")
	// ErrShareTokenExpired is returned once a token's TTL has elapsed.
	ErrShareTokenExpired = errors.New("share token expired")
)

// ShareSigner creates and validates signed, expiring references to archived files.
type ShareSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewShareSigner constructs a signer with the provided secret and TTL.
func NewShareSigner(secret string, ttl time.Duration) *ShareSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ShareSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a URL-safe token referencing fileID.
func (s *ShareSigner) Sign(fileID string) (string, time.Time, error) {
	if fileID == "" {
		return "", time.Time{}, fmt.Errorf("file id required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).UTC().Truncate(time.Second)
	encodedID := base64.RawURLEncoding.EncodeToString([]byte(fileID))
	ts := strconv.FormatInt(expiresAt.Unix(), 10)
	return strings.Join([]string{encodedID, ts, s.signature(encodedID, ts)}, "."), expiresAt, nil
}

// Verify validates token and returns the referenced file ID.
func (s *ShareSigner) Verify(token string) (string, time.Time, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", time.Time{}, ErrShareTokenInvalid
	}
	encodedID, ts, signature := parts[0], parts[1], parts[2]
	if !hmac.Equal([]byte(s.signature(encodedID, ts)), []byte(signature)) {
		return "", time.Time{}, ErrShareTokenInvalid
	}
	rawID, err := base64.RawURLEncoding.DecodeString(encodedID)
	if err != nil {
		return "", time.Time{}, ErrShareTokenInvalid
	}
	expUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return "", time.Time{}, ErrShareTokenInvalid
	}
	expiresAt := time.Unix(expUnix, 0).UTC()
	if s.now().After(expiresAt) {
		return "", expiresAt, ErrShareTokenExpired
	}
	return string(rawID), expiresAt, nil
}

func (s *ShareSigner) signature(encodedID, ts string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(encodedID + "|" + ts))
	return hex.EncodeToString(mac.Sum(nil))
}
