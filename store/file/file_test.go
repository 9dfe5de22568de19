package file

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalchan12/echomind/store"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	s, err := NewFileStore(Config{Dir: t.TempDir()})
	require.NoError(t, err)

	payload := []byte(`{"turns":[]}`)
	require.NoError(t, s.Save(context.Background(), "session-1", payload))

	got, err := s.Load(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestLoadMissingKey(t *testing.T) {
	s, err := NewFileStore(Config{Dir: t.TempDir()})
	require.NoError(t, err)

	_, err = s.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRejectsPathEscapingKeys(t *testing.T) {
	s, err := NewFileStore(Config{Dir: t.TempDir()})
	require.NoError(t, err)

	for _, key := range []string{"", "../evil", "a/b", `a\b`} {
		assert.Error(t, s.Save(context.Background(), key, []byte("x")), "key %q", key)
	}
}

func TestSaveOverwrites(t *testing.T) {
	s, err := NewFileStore(Config{Dir: t.TempDir()})
	require.NoError(t, err)

	require.NoError(t, s.Save(context.Background(), "k", []byte("one")))
	require.NoError(t, s.Save(context.Background(), "k", []byte("two")))

	got, err := s.Load(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got)
}
