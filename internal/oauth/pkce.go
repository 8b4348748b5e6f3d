package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"
)

// stateBytes is the number of random bytes for the OAuth state parameter.
// 32 bytes encode to 43 base64url characters.
const stateBytes = 32

// PKCEChallenge is a code verifier and its S256 challenge.
type PKCEChallenge struct {
	// CodeVerifier is kept secret and only sent to the token endpoint.
	CodeVerifier string

	// CodeChallenge is sent in the authorization request.
	CodeChallenge string
}

// GeneratePKCE returns a fresh verifier (32 random bytes, base64url) and
// its S256 challenge.
func GeneratePKCE() *PKCEChallenge {
	verifier := oauth2.GenerateVerifier()
	return &PKCEChallenge{
		CodeVerifier:  verifier,
		CodeChallenge: oauth2.S256ChallengeFromVerifier(verifier),
	}
}

// GenerateState returns a random CSRF state, base64url without padding.
func GenerateState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
