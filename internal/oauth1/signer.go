package oauth1

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // HMAC-SHA1 is mandated by OAuth 1.0a.
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"xplorer/internal/credentials"
)

const (
	signatureMethod = "HMAC-SHA1"
	version         = "1.0"
	nonceBytes      = 16
)

// ErrInvalidURL is returned when the request URL cannot be used to build a
// signature base string.
var ErrInvalidURL = errors.New("oauth1: invalid request URL")

// Param is a single request parameter taking part in the signature.
// Keys may repeat.
type Param struct {
	Key   string
	Value string
}

// Signer produces OAuth 1.0a HMAC-SHA1 Authorization headers.
//
// The zero value is ready to use and draws nonces from crypto/rand and
// timestamps from the wall clock. Tests inject Nonce and Now to get
// deterministic headers.
type Signer struct {
	Nonce func() (string, error)
	Now   func() time.Time
}

var defaultSigner Signer

// Sign signs a request with the default Signer.
func Sign(method, rawURL string, creds *credentials.OAuth1Credentials, extra []Param) (string, error) {
	return defaultSigner.Sign(method, rawURL, creds, extra)
}

// Sign returns the value of the Authorization header for the request.
//
// The signature covers the protocol parameters, extra and every query
// parameter already present in rawURL. extra is typically the form body of
// a POST; the caller remains responsible for sending it.
func (s Signer) Sign(method, rawURL string, creds *credentials.OAuth1Credentials, extra []Param) (string, error) {
	if creds == nil {
		return "", errors.New("oauth1: nil credentials")
	}

	protocol, err := s.protocolParams(creds)
	if err != nil {
		return "", err
	}

	base, err := s.baseString(method, rawURL, protocol, extra)
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha1.New, []byte(SigningKey(creds)))
	mac.Write([]byte(base))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	headerParams := append(protocol, Param{Key: "oauth_signature", Value: signature})
	sort.Slice(headerParams, func(i, j int) bool {
		return headerParams[i].Key < headerParams[j].Key
	})

	parts := make([]string, len(headerParams))
	for i, p := range headerParams {
		parts[i] = fmt.Sprintf(`%s="%s"`, PercentEncode(p.Key), PercentEncode(p.Value))
	}
	return "OAuth " + strings.Join(parts, ", "), nil
}

// BaseString returns the signature base string Sign would hash for the given
// nonce and timestamp. It exists for diagnostics and tests.
func (s Signer) BaseString(method, rawURL string, creds *credentials.OAuth1Credentials, extra []Param) (string, error) {
	if creds == nil {
		return "", errors.New("oauth1: nil credentials")
	}
	protocol, err := s.protocolParams(creds)
	if err != nil {
		return "", err
	}
	return s.baseString(method, rawURL, protocol, extra)
}

// SigningKey returns the HMAC key: encoded consumer secret and encoded token
// secret joined by "&".
func SigningKey(creds *credentials.OAuth1Credentials) string {
	return PercentEncode(creds.APISecret) + "&" + PercentEncode(creds.AccessTokenSecret)
}

func (s Signer) protocolParams(creds *credentials.OAuth1Credentials) ([]Param, error) {
	nonce, err := s.nonce()
	if err != nil {
		return nil, fmt.Errorf("oauth1: failed to generate nonce: %w", err)
	}
	return []Param{
		{Key: "oauth_consumer_key", Value: creds.APIKey},
		{Key: "oauth_nonce", Value: nonce},
		{Key: "oauth_signature_method", Value: signatureMethod},
		{Key: "oauth_timestamp", Value: strconv.FormatInt(s.now().Unix(), 10)},
		{Key: "oauth_token", Value: creds.AccessToken},
		{Key: "oauth_version", Value: version},
	}, nil
}

func (s Signer) baseString(method, rawURL string, protocol, extra []Param) (string, error) {
	baseURL, query, err := normalizeURL(rawURL)
	if err != nil {
		return "", err
	}

	type pair struct{ k, v string }
	pairs := make([]pair, 0, len(protocol)+len(extra)+len(query))
	add := func(k, v string) {
		pairs = append(pairs, pair{PercentEncode(k), PercentEncode(v)})
	}
	for _, p := range protocol {
		add(p.Key, p.Value)
	}
	for _, p := range extra {
		add(p.Key, p.Value)
	}
	for k, vs := range query {
		for _, v := range vs {
			add(k, v)
		}
	}

	// Sort after encoding; raw and encoded order differ for some bytes.
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].k != pairs[j].k {
			return pairs[i].k < pairs[j].k
		}
		return pairs[i].v < pairs[j].v
	})

	joined := make([]string, len(pairs))
	for i, p := range pairs {
		joined[i] = p.k + "=" + p.v
	}

	return strings.ToUpper(method) + "&" + PercentEncode(baseURL) + "&" + PercentEncode(strings.Join(joined, "&")), nil
}

// normalizeURL returns scheme://host[:port]path with a lower-cased scheme
// and host, default ports dropped, plus the decoded query.
func normalizeURL(rawURL string) (string, url.Values, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", nil, fmt.Errorf("%w: %q must be absolute", ErrInvalidURL, rawURL)
	}

	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port := u.Port(); port != "" && !isDefaultPort(scheme, port) {
		host = host + ":" + port
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return scheme + "://" + host + path, query, nil
}

func isDefaultPort(scheme, port string) bool {
	return (scheme == "https" && port == "443") || (scheme == "http" && port == "80")
}

func (s Signer) nonce() (string, error) {
	if s.Nonce != nil {
		return s.Nonce()
	}
	return RandomNonce()
}

func (s Signer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// RandomNonce returns 16 random bytes as 32 lowercase hex characters.
func RandomNonce() (string, error) {
	b := make([]byte, nonceBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
