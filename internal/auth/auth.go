package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Verifier maps API tokens to user identifiers. Tokens are stored as
// SHA-256 hashes so a leaked config dump does not expose raw credentials.
type Verifier struct {
	users map[string]string // token hash -> user ID
}

// NewVerifier builds a verifier from token -> user ID pairs.
func NewVerifier(tokens map[string]string) *Verifier {
	v := &Verifier{
		users: make(map[string]string, len(tokens)),
	}
	for token, userID := range tokens {
		v.users[HashToken(token)] = userID
	}
	return v
}

// Verify validates a token and returns the associated user ID.
func (v *Verifier) Verify(token string) (string, error) {
	hash := HashToken(token)

	// Constant-time comparison to prevent timing attacks
	for stored, user := range v.users {
		if subtle.ConstantTimeCompare([]byte(hash), []byte(stored)) == 1 {
			return user, nil
		}
	}

	return "", fmt.Errorf("invalid API token")
}

// ExtractToken extracts the API token from the Authorization header.
func ExtractToken(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", fmt.Errorf("missing Authorization header")
	}

	// Support "Bearer <token>" format
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid Authorization header format")
	}

	if strings.ToLower(parts[0]) != "bearer" {
		return "", fmt.Errorf("unsupported authorization scheme")
	}

	return parts[1], nil
}

// HashToken creates a SHA-256 hash of a token for storage.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// Identify resolves the user identity for a request. Requests with a
// valid Bearer token get the configured user ID; everything else is
// treated as an anonymous caller keyed by client address.
func (v *Verifier) Identify(r *http.Request) string {
	token, err := ExtractToken(r)
	if err == nil {
		if userID, verr := v.Verify(token); verr == nil {
			return userID
		}
	}
	return AnonymousID(r)
}

// AnonymousID derives a stable anonymous identity from the client address.
func AnonymousID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	hash := sha256.Sum256([]byte(host))
	return "anon-" + hex.EncodeToString(hash[:8])
}
