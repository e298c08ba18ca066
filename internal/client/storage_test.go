package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	s, err := NewFileStorage(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("auth_token", "tok-1"))
	require.NoError(t, s.Set("user", `{"id":1}`))

	// A fresh instance sees what the first one wrote.
	reopened, err := NewFileStorage(path)
	require.NoError(t, err)
	v, ok := reopened.Get("auth_token")
	require.True(t, ok)
	assert.Equal(t, "tok-1", v)
	assert.ElementsMatch(t, []string{"auth_token", "user"}, reopened.Keys())
}

func TestFileStorageDeletePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	s, err := NewFileStorage(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("auth_token", "tok"))
	require.NoError(t, s.Delete("auth_token"))

	reopened, err := NewFileStorage(path)
	require.NoError(t, err)
	_, ok := reopened.Get("auth_token")
	assert.False(t, ok)
}

func TestFileStorageMissingFileIsEmpty(t *testing.T) {
	s, err := NewFileStorage(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)
	assert.Empty(t, s.Keys())
}

func TestFileStorageCorruptFileTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{{not json"), 0600))

	s, err := NewFileStorage(path)
	require.NoError(t, err)
	assert.Empty(t, s.Keys())
}

func TestEndpointsTrimTrailingSlash(t *testing.T) {
	e := NewEndpoints("http://api.test/")
	assert.Equal(t, "http://api.test/api/login", e.Login())
	assert.Equal(t, "http://api.test/api/public/stores/5/products", e.StoreProducts(5))
}

func TestDefaultHeaders(t *testing.T) {
	h := DefaultHeaders("tok")
	assert.Equal(t, "Bearer tok", h.Get("Authorization"))
	assert.Equal(t, "application/json", h.Get("Content-Type"))
	assert.Equal(t, "true", h.Get("ngrok-skip-browser-warning"))

	anon := DefaultHeaders("")
	assert.Empty(t, anon.Get("Authorization"))
}
