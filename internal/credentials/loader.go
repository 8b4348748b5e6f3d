package credentials

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"xplorer/internal/config"
	"xplorer/pkg/logging"
)

// LookupFunc resolves an environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

type loadOptions struct {
	paths  []string
	lookup LookupFunc
}

// Option customizes Load.
type Option func(*loadOptions)

// WithSearchPaths replaces the dotenv candidates. Earlier paths win.
func WithSearchPaths(paths ...string) Option {
	return func(o *loadOptions) {
		o.paths = paths
	}
}

// WithLookup replaces os.LookupEnv, mainly for tests.
func WithLookup(fn LookupFunc) Option {
	return func(o *loadOptions) {
		o.lookup = fn
	}
}

// Load builds a credential Set from dotenv files and the process
// environment.
//
// Files are consulted in priority order (config.DotenvSearchPaths by
// default); the first file that defines a key wins. A variable set in the
// process environment always wins over every file, even when empty, and
// empty values leave their slot unpopulated. Files are only read,
// never exported into the environment.
func Load(opts ...Option) (*Set, error) {
	o := &loadOptions{
		paths:  config.DotenvSearchPaths(),
		lookup: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(o)
	}

	fileValues, fileOrigins := readDotenvFiles(o.paths)
	origins := make(map[string]string)

	get := func(key string) string {
		if v, ok := o.lookup(key); ok {
			// Set but empty blanks the slot, file values included.
			if v != "" {
				origins[key] = "env"
			}
			return v
		}
		if v := fileValues[key]; v != "" {
			origins[key] = fileOrigins[key]
			return v
		}
		return ""
	}

	values := make(map[string]string, len(Keys))
	for _, key := range Keys {
		values[key] = get(key)
	}

	set := &Set{origins: origins}

	if values[EnvAPIKey] != "" && values[EnvAPISecret] != "" &&
		values[EnvAccessToken] != "" && values[EnvAccessTokenSecret] != "" {
		set.OAuth1 = &OAuth1Credentials{
			APIKey:            values[EnvAPIKey],
			APISecret:         values[EnvAPISecret],
			AccessToken:       values[EnvAccessToken],
			AccessTokenSecret: values[EnvAccessTokenSecret],
			BearerToken:       values[EnvBearerToken],
		}
	}

	if values[EnvClientID] != "" {
		set.OAuth2 = &OAuth2Credentials{
			ClientID:     values[EnvClientID],
			ClientSecret: values[EnvClientSecret],
		}
	}

	if values[EnvBearerToken] != "" {
		set.Bearer = &BearerCredentials{BearerToken: values[EnvBearerToken]}
	}

	if set.Empty() {
		return set, ErrNoCredentials
	}

	logging.Debug("Credentials", "Credential slots populated: oauth1=%t oauth2=%t bearer=%t",
		set.OAuth1 != nil, set.OAuth2 != nil, set.Bearer != nil)
	return set, nil
}

// readDotenvFiles merges the given files with first-file-wins semantics.
// Only keys are logged, never values.
func readDotenvFiles(paths []string) (values, origins map[string]string) {
	values = make(map[string]string)
	origins = make(map[string]string)

	for _, path := range paths {
		env, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			logging.Warn("Credentials", "%v", &FileError{Path: path, Err: err})
			continue
		}

		logging.Debug("Credentials", "Read %d key(s) from %s", len(env), path)
		for key, value := range env {
			if _, seen := values[key]; seen {
				continue
			}
			values[key] = value
			origins[key] = path
		}
	}

	return values, origins
}
