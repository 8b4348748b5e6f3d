// Package config loads xplorer's non-secret settings.
//
// Settings live in a single YAML file, ~/.config/xplorer/config.yaml. A
// missing file is not an error; every field has a default (see
// GetDefaultConfig). Credentials are never read from this file, they come
// from the environment and dotenv files handled by package credentials.
//
// Example config.yaml:
//
//	oauth_callback_port: 8477
//	oauth_scopes: [tweet.read, users.read, offline.access]
//	token_storage: keyring
//	login_timeout: 2m
//	log_level: debug
package config
