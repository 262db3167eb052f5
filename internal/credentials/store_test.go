package credentials

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/rollen/internal/state"
)

func testKey() []byte {
	return bytes.Repeat([]byte{7}, keySize)
}

func newTestStore(t *testing.T, secrets state.Secrets) *Store {
	t.Helper()
	s, err := New(testKey(), secrets, zerolog.Nop())
	require.NoError(t, err)
	return s
}

func TestSaveAndReadToken(t *testing.T) {
	secrets := state.NewMock()
	s := newTestStore(t, secrets)
	assert.False(t, s.IsLoggedIn())

	require.NoError(t, s.SaveAccessToken("jwt-123"))
	assert.True(t, s.IsLoggedIn())
	assert.Equal(t, "jwt-123", s.AccessToken())

	stored, ok, err := secrets.GetSecret(tokenKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, stored, "jwt-123", "token is encrypted at rest")

	// A fresh store with the same key reads the token back.
	reopened := newTestStore(t, secrets)
	assert.Equal(t, "jwt-123", reopened.AccessToken())
}

func TestLogout(t *testing.T) {
	secrets := state.NewMock()
	s := newTestStore(t, secrets)
	require.NoError(t, s.SaveAccessToken("jwt"))

	s.Logout()

	assert.False(t, s.IsLoggedIn())
	_, ok, _ := secrets.GetSecret(tokenKey)
	assert.False(t, ok)
}

func TestWrongKeyDegradesToLoggedOut(t *testing.T) {
	secrets := state.NewMock()
	s := newTestStore(t, secrets)
	require.NoError(t, s.SaveAccessToken("jwt"))

	other, err := New(bytes.Repeat([]byte{9}, keySize), secrets, zerolog.Nop())
	require.NoError(t, err)

	assert.False(t, other.IsLoggedIn())
	assert.Empty(t, other.AccessToken())
}

func TestCorruptTokenDegradesToLoggedOut(t *testing.T) {
	secrets := state.NewMock()
	require.NoError(t, secrets.SetSecret(tokenKey, "!!not base64"))

	s := newTestStore(t, secrets)
	assert.False(t, s.IsLoggedIn())

	require.NoError(t, secrets.SetSecret(tokenKey, "AAAA"))
	s = newTestStore(t, secrets)
	assert.False(t, s.IsLoggedIn())
}

func TestStorageFailure(t *testing.T) {
	secrets := state.NewMock()
	secrets.SecretErr = errors.New("disk full")

	s := newTestStore(t, secrets)
	assert.False(t, s.IsLoggedIn())

	err := s.SaveAccessToken("jwt")
	assert.Error(t, err)
	assert.False(t, s.IsLoggedIn())

	s.Logout() // logged, not fatal
	assert.False(t, s.IsLoggedIn())
}

func TestWatch(t *testing.T) {
	s := newTestStore(t, state.NewMock())

	w := s.Watch()
	defer w.Close()
	assert.False(t, <-w.C, "current value delivered immediately")

	require.NoError(t, s.SaveAccessToken("jwt"))
	assert.True(t, <-w.C)

	s.Logout()
	assert.False(t, <-w.C)
}

func TestWatch_SlowReaderGetsLatest(t *testing.T) {
	s := newTestStore(t, state.NewMock())
	w := s.Watch()
	defer w.Close()

	require.NoError(t, s.SaveAccessToken("a"))
	s.Logout()
	require.NoError(t, s.SaveAccessToken("b"))

	assert.True(t, <-w.C)
	select {
	case v := <-w.C:
		t.Fatalf("unexpected extra value %v", v)
	default:
	}
}

func TestWatch_Close(t *testing.T) {
	s := newTestStore(t, state.NewMock())
	w := s.Watch()
	<-w.C

	w.Close()
	w.Close()

	_, ok := <-w.C
	assert.False(t, ok)
	require.NoError(t, s.SaveAccessToken("jwt"), "closed watchers are skipped")
}

func TestSaveEmptyTokenLogsOut(t *testing.T) {
	s := newTestStore(t, state.NewMock())
	require.NoError(t, s.SaveAccessToken("jwt"))
	require.NoError(t, s.SaveAccessToken(""))
	assert.False(t, s.IsLoggedIn())
}

func TestLoadOrCreateKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", keyFileName)

	key, err := loadOrCreateKey(path)
	require.NoError(t, err)
	assert.Len(t, key, keySize)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := loadOrCreateKey(path)
	require.NoError(t, err)
	assert.Equal(t, key, again)

	require.NoError(t, os.WriteFile(path, []byte("short"), 0o600))
	_, err = loadOrCreateKey(path)
	assert.Error(t, err)
}

func TestOpen_CorruptKeyFileDegrades(t *testing.T) {
	dir := t.TempDir()
	secrets := state.NewMock()

	s, err := Open(dir, secrets, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.SaveAccessToken("jwt"))

	path := filepath.Join(dir, keyFileName)
	require.NoError(t, os.WriteFile(path, []byte("short"), 0o600))

	s2, err := Open(dir, secrets, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, s2.IsLoggedIn(), "token sealed with the lost key is unreadable")

	key, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, key, keySize, "key file is regenerated")

	require.NoError(t, s2.SaveAccessToken("jwt-2"))
	s3, err := Open(dir, secrets, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "jwt-2", s3.AccessToken())
}

func TestOpen_UnwritableKeyUsesSessionKey(t *testing.T) {
	dir := t.TempDir()
	// a directory where the key file should be makes both read and write fail
	require.NoError(t, os.Mkdir(filepath.Join(dir, keyFileName), 0o700))

	s, err := Open(dir, state.NewMock(), zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, s.IsLoggedIn())
	require.NoError(t, s.SaveAccessToken("jwt"))
	assert.True(t, s.IsLoggedIn())
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	secrets := state.NewMock()

	s, err := Open(dir, secrets, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.SaveAccessToken("jwt"))

	s2, err := Open(dir, secrets, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "jwt", s2.AccessToken())
}

func TestSealOpenRoundTrip(t *testing.T) {
	aead, err := newAEAD(testKey())
	require.NoError(t, err)

	a, err := seal(aead, "secret")
	require.NoError(t, err)
	b, err := seal(aead, "secret")
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "fresh nonce per seal")

	plain, err := open(aead, a)
	require.NoError(t, err)
	assert.Equal(t, "secret", plain)
}
