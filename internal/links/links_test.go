package links

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]KV {
	t.Helper()
	dir := t.TempDir()

	fileKV, err := NewFileKV(filepath.Join(dir, "links.json"))
	require.NoError(t, err)

	sqliteKV, err := NewSQLiteKV("sqlite", filepath.Join(dir, "links.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteKV.Close() })

	return map[string]KV{
		"memory": NewMemoryKV(),
		"json":   fileKV,
		"sqlite": sqliteKV,
	}
}

func TestRegistryLinkRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			r := NewRegistry(kv)

			got, err := r.GetLink(ctx, "group-1@g.us")
			require.NoError(t, err)
			assert.Nil(t, got)

			_, err = r.SetLink(ctx, "group-1@g.us", "ABC123", "Projeto X")
			require.NoError(t, err)

			got, err = r.GetLink(ctx, "group-1@g.us")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "ABC123", got.SheetID)
			assert.Equal(t, "Projeto X", got.ProjectName)

			// Overwrite is idempotent and replaces both fields.
			_, err = r.SetLink(ctx, "group-1@g.us", "XYZ789", "Projeto Y")
			require.NoError(t, err)
			_, err = r.SetLink(ctx, "group-1@g.us", "XYZ789", "Projeto Y")
			require.NoError(t, err)
			got, err = r.GetLink(ctx, "group-1@g.us")
			require.NoError(t, err)
			assert.Equal(t, "XYZ789", got.SheetID)
			assert.Equal(t, "Projeto Y", got.ProjectName)

			all, err := r.Links(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 1)

			require.NoError(t, r.RemoveLink(ctx, "group-1@g.us"))
			got, err = r.GetLink(ctx, "group-1@g.us")
			require.NoError(t, err)
			assert.Nil(t, got)

			assert.ErrorIs(t, r.RemoveLink(ctx, "group-1@g.us"), ErrNotFound)
		})
	}
}

func TestRegistryRejectsEmptyChat(t *testing.T) {
	_, err := NewRegistry(nil).SetLink(context.Background(), "  ", "ABC", "X")
	assert.Error(t, err)
}

func TestMuteIsIdempotentAndIndependentOfLinks(t *testing.T) {
	r := NewRegistry(NewMemoryKV())
	id := "group-2@g.us"

	for _, prior := range []bool{false, true} {
		r.SetMuted(id, prior)
		r.SetMuted(id, true)
		assert.True(t, r.IsMuted(id))
		r.SetMuted(id, true)
		assert.True(t, r.IsMuted(id))

		r.SetMuted(id, false)
		assert.False(t, r.IsMuted(id))
		r.SetMuted(id, false)
		assert.False(t, r.IsMuted(id))
	}

	r.SetMuted(id, true)
	link, err := r.GetLink(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, link)
	assert.False(t, r.IsMuted("other@g.us"))
}

func TestRegistriesDoNotShareState(t *testing.T) {
	a := NewRegistry(nil)
	b := NewRegistry(nil)
	a.SetMuted("g", true)
	assert.False(t, b.IsMuted("g"))
}

func TestFileKVReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "links.json")

	kv, err := NewFileKV(path)
	require.NoError(t, err)
	_, err = NewRegistry(kv).SetLink(ctx, "g1", "sheet-1", "Fênix")
	require.NoError(t, err)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must be renamed away")

	reopened, err := NewFileKV(path)
	require.NoError(t, err)
	l, ok, err := reopened.Get(ctx, "g1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "g1", l.ChatID)
	assert.Equal(t, "sheet-1", l.SheetID)
	assert.Equal(t, "Fênix", l.ProjectName)
}

func TestFileKVRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := NewFileKV(path)
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, backend := range []string{BackendMemory, BackendJSON, BackendSQLite} {
		kv, closeFn, err := Open(backend, "sqlite", filepath.Join(dir, backend+".store"))
		require.NoError(t, err, backend)
		assert.NotNil(t, kv)
		assert.NoError(t, closeFn())
	}
	_, _, err := Open("redis", "", "")
	assert.Error(t, err)
}
