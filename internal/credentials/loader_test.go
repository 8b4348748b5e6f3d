package credentials

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func writeDotenv(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o700))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_NoCredentials(t *testing.T) {
	set, err := Load(WithSearchPaths(), WithLookup(mapLookup(nil)))
	require.ErrorIs(t, err, ErrNoCredentials)
	assert.True(t, set.Empty())
}

func TestLoad_AllSlotsFromEnv(t *testing.T) {
	set, err := Load(WithSearchPaths(), WithLookup(mapLookup(map[string]string{
		EnvAPIKey:            "key",
		EnvAPISecret:         "secret",
		EnvAccessToken:       "token",
		EnvAccessTokenSecret: "token-secret",
		EnvBearerToken:       "bearer",
		EnvClientID:          "client",
	})))
	require.NoError(t, err)

	require.NotNil(t, set.OAuth1)
	assert.Equal(t, "key", set.OAuth1.APIKey)
	assert.Equal(t, "bearer", set.OAuth1.BearerToken)

	require.NotNil(t, set.OAuth2)
	assert.Equal(t, "client", set.OAuth2.ClientID)
	assert.False(t, set.OAuth2.IsConfidential())

	require.NotNil(t, set.Bearer)
	assert.Equal(t, "bearer", set.Bearer.BearerToken)
	assert.Equal(t, "env", set.Origin(EnvClientID))
}

func TestLoad_PartialOAuth1IsNotPopulated(t *testing.T) {
	set, err := Load(WithSearchPaths(), WithLookup(mapLookup(map[string]string{
		EnvAPIKey:            "key",
		EnvAPISecret:         "secret",
		EnvAccessToken:       "token",
		EnvAccessTokenSecret: "",
		EnvBearerToken:       "bearer",
	})))
	require.NoError(t, err)

	assert.Nil(t, set.OAuth1, "an empty required field must leave the slot empty")
	assert.Nil(t, set.OAuth2)
	require.NotNil(t, set.Bearer)
}

func TestLoad_FilePriorityAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	primary := writeDotenv(t, dir, "primary/.env", "X_CLIENT_ID=from-primary\n")
	legacy := writeDotenv(t, dir, "legacy/.env", "X_CLIENT_ID=from-legacy\nX_CLIENT_SECRET=legacy-secret\n")
	local := writeDotenv(t, dir, "cwd/.env", "X_BEARER_TOKEN=from-cwd\nX_CLIENT_SECRET=cwd-secret\n")

	set, err := Load(
		WithSearchPaths(primary, legacy, local),
		WithLookup(mapLookup(map[string]string{EnvBearerToken: "from-env"})),
	)
	require.NoError(t, err)

	require.NotNil(t, set.OAuth2)
	assert.Equal(t, "from-primary", set.OAuth2.ClientID, "earlier file wins")
	assert.Equal(t, "legacy-secret", set.OAuth2.ClientSecret, "legacy beats cwd")
	assert.Equal(t, primary, set.Origin(EnvClientID))
	assert.Equal(t, legacy, set.Origin(EnvClientSecret))

	require.NotNil(t, set.Bearer)
	assert.Equal(t, "from-env", set.Bearer.BearerToken, "environment beats files")
	assert.Equal(t, "env", set.Origin(EnvBearerToken))
}

func TestLoad_EmptyEnvBlocksFileValue(t *testing.T) {
	dir := t.TempDir()
	path := writeDotenv(t, dir, ".env",
		"X_API_KEY=k\nX_API_SECRET=s\nX_ACCESS_TOKEN=t\nX_ACCESS_TOKEN_SECRET=ts\nX_BEARER_TOKEN=file-token\n")

	set, err := Load(
		WithSearchPaths(path),
		WithLookup(mapLookup(map[string]string{EnvAPIKey: ""})),
	)
	require.NoError(t, err)

	assert.Nil(t, set.OAuth1, "exporting an empty X_API_KEY disables OAuth1")
	assert.Empty(t, set.Origin(EnvAPIKey))
	require.NotNil(t, set.Bearer)
	assert.Equal(t, "file-token", set.Bearer.BearerToken)
	assert.Equal(t, path, set.Origin(EnvBearerToken))
}

func TestLoad_UnsetEnvFallsBackToFile(t *testing.T) {
	dir := t.TempDir()
	path := writeDotenv(t, dir, ".env", "X_BEARER_TOKEN=file-token\n")

	set, err := Load(
		WithSearchPaths(path),
		WithLookup(mapLookup(map[string]string{EnvClientID: "abc"})),
	)
	require.NoError(t, err)
	assert.Equal(t, "file-token", set.Bearer.BearerToken)
}

func TestLoad_DoesNotExportFileValues(t *testing.T) {
	dir := t.TempDir()
	path := writeDotenv(t, dir, ".env", "X_CLIENT_ID=never-exported\n")
	t.Setenv(EnvClientID, "")
	require.NoError(t, os.Unsetenv(EnvClientID))

	_, err := Load(WithSearchPaths(path))
	require.NoError(t, err)

	_, ok := os.LookupEnv(EnvClientID)
	assert.False(t, ok)
}

func TestLoad_UnreadableFileIsSkipped(t *testing.T) {
	dir := t.TempDir()
	// A directory cannot be parsed as a dotenv file.
	bogus := filepath.Join(dir, "bogus")
	require.NoError(t, os.Mkdir(bogus, 0o700))
	good := writeDotenv(t, dir, ".env", "X_CLIENT_ID=abc\n")

	set, err := Load(WithSearchPaths(bogus, good), WithLookup(mapLookup(nil)))
	require.NoError(t, err)
	assert.Equal(t, "abc", set.OAuth2.ClientID)
}

func TestCredentials_RedactSecrets(t *testing.T) {
	o1 := OAuth1Credentials{APIKey: "k", APISecret: "s3cr3t", AccessToken: "t", AccessTokenSecret: "ts3cr3t"}
	o2 := OAuth2Credentials{ClientID: "client", ClientSecret: "s3cr3t"}
	b := BearerCredentials{BearerToken: "s3cr3t"}

	for _, v := range []interface{}{o1, &o1, o2, b} {
		for _, verb := range []string{"%v", "%+v", "%#v", "%s"} {
			out := fmt.Sprintf(verb, v)
			assert.NotContains(t, out, "s3cr3t", "verb %s leaked a secret: %s", verb, out)
		}
	}
	assert.Contains(t, o2.String(), "client")
}

func TestFileError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &FileError{Path: "/x/.env", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "/x/.env")
}
