// Package antiforgery issues and verifies request verification tokens bound
// to a session subject. Tokens are HMAC-SHA256 signed and time limited.
package antiforgery

import (
	"crypto/hmac"
	"crypto/rand"
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
	ErrMalformed = errors.New("malformed anti-forgery token")
	ErrExpired   = errors.New("anti-forgery token expired")
	ErrMismatch  = errors.New("anti-forgery token does not match session")
)

// Issuer signs tokens with a shared secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer constructs an issuer.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a token for subject and its expiry.
func (i *Issuer) Issue(subject string) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, fmt.Errorf("subject required")
	}
	if len(i.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	nonce := make([]byte, 12)
	if _, err := rand.Read(nonce); err != nil {
		return "", time.Time{}, fmt.Errorf("generate nonce: %w", err)
	}
	expiresAt := i.now().Add(i.ttl)
	encodedNonce := base64.RawURLEncoding.EncodeToString(nonce)
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	sig := i.sign(subject, encodedNonce, exp)
	return strings.Join([]string{encodedNonce, exp, sig}, "."), expiresAt, nil
}

// Verify checks token was issued for subject and has not expired.
func (i *Issuer) Verify(subject, token string) error {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return ErrMalformed
	}
	unix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return ErrMalformed
	}
	expected := i.sign(subject, parts[0], parts[1])
	if !hmac.Equal([]byte(expected), []byte(parts[2])) {
		return ErrMismatch
	}
	if i.now().After(time.Unix(unix, 0)) {
		return ErrExpired
	}
	return nil
}

func (i *Issuer) sign(subject, nonce, exp string) string {
	mac := hmac.New(sha256.New, i.secret)
	_, _ = mac.Write([]byte(subject + "|" + nonce + "|" + exp))
	return hex.EncodeToString(mac.Sum(nil))
}
