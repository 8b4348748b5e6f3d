package oauth

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"

	"xplorer/internal/credentials"
)

// Endpoint holds the provider URLs for the authorization code grant.
type Endpoint struct {
	AuthorizeURL string
	TokenURL     string
}

// NewConfig builds the oauth2.Config shared by the login flow and the
// refresher. Public clients send client_id in the form body; confidential
// clients authenticate with HTTP Basic.
func NewConfig(creds *credentials.OAuth2Credentials, endpoint Endpoint, redirectURL string, scopes []string) *oauth2.Config {
	style := oauth2.AuthStyleInParams
	if creds.IsConfidential() {
		style = oauth2.AuthStyleInHeader
	}
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   endpoint.AuthorizeURL,
			TokenURL:  endpoint.TokenURL,
			AuthStyle: style,
		},
		RedirectURL: redirectURL,
		Scopes:      scopes,
	}
}

// withHTTPClient makes the oauth2 package use client for token requests.
func withHTTPClient(ctx context.Context, client *http.Client) context.Context {
	if client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, client)
}
