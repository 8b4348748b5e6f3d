package auth

import "xplorer/internal/credentials"

// Method is the authentication strategy chosen at startup.
type Method int

const (
	// MethodOAuth1 signs every request with OAuth 1.0a HMAC-SHA1.
	MethodOAuth1 Method = iota + 1
	// MethodOAuth2PKCE sends a bearer token obtained through PKCE.
	MethodOAuth2PKCE
	// MethodBearerOnly sends a static app-only bearer token.
	MethodBearerOnly
)

// String returns the method name used in status output and logs.
func (m Method) String() string {
	switch m {
	case MethodOAuth1:
		return "oauth1"
	case MethodOAuth2PKCE:
		return "oauth2-pkce"
	case MethodBearerOnly:
		return "bearer"
	default:
		return "unknown"
	}
}

// SupportsUserContext reports whether the method can act as a user.
func (m Method) SupportsUserContext() bool {
	switch m {
	case MethodOAuth1, MethodOAuth2PKCE:
		return true
	case MethodBearerOnly:
		return false
	default:
		return false
	}
}

// SelectMethod picks the strongest populated slot: OAuth 1.0a, then OAuth
// 2.0 PKCE, then a static bearer token.
func SelectMethod(set *credentials.Set) (Method, error) {
	switch {
	case set == nil:
		return 0, ErrNoAuthMethod
	case set.OAuth1 != nil:
		return MethodOAuth1, nil
	case set.OAuth2 != nil:
		return MethodOAuth2PKCE, nil
	case set.Bearer != nil:
		return MethodBearerOnly, nil
	default:
		return 0, ErrNoAuthMethod
	}
}

// MethodSlotPopulated reports whether set holds the credentials method
// needs.
func MethodSlotPopulated(method Method, set *credentials.Set) bool {
	if set == nil {
		return false
	}
	switch method {
	case MethodOAuth1:
		return set.OAuth1 != nil
	case MethodOAuth2PKCE:
		return set.OAuth2 != nil
	case MethodBearerOnly:
		return set.Bearer != nil
	default:
		return false
	}
}
