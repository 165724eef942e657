package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"regexp"
	"strings"
)

// Header names checked for a client-supplied key, in precedence order.
var keyHeaders = []string{"Idempotency-Key", "X-Idempotency-Key"}

// Accepted key shapes: a standard UUID, or 32-64 hex characters.
var (
	uuidPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	hexPattern  = regexp.MustCompile(`^[0-9a-fA-F]{32,64}$`)
)

// ErrInvalidKey indicates a supplied key that matches neither accepted shape.
var ErrInvalidKey = errors.New("invalid idempotency key format")

// KeyFromRequest reads the idempotency key headers and validates the value.
// Returns ("", nil) when no key header is present; the caller decides whether
// to derive one or reject the request.
func KeyFromRequest(r *http.Request) (string, error) {
	for _, h := range keyHeaders {
		v := strings.TrimSpace(r.Header.Get(h))
		if v == "" {
			continue
		}
		if !uuidPattern.MatchString(v) && !hexPattern.MatchString(v) {
			return "", ErrInvalidKey
		}
		return strings.ToLower(v), nil
	}
	return "", nil
}

// DeriveKey builds a deterministic key from request identity so that
// byte-identical resubmissions collide even without client cooperation.
// The result is 64 hex characters, itself a valid key shape.
func DeriveKey(identity, method, path string, body []byte) string {
	if identity == "" {
		identity = "anonymous"
	}
	h := sha256.New()
	h.Write([]byte(identity))
	h.Write([]byte{0})
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// exemptMethod reports whether the verb is outside idempotency handling.
func exemptMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
