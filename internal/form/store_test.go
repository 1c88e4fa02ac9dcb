package form

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	store := NewStore(fsys, "/data/resume.json")

	_, exists, err := store.Load()
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, store.Save(sampleResume()))

	got, exists, err := store.Load()
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, sampleResume(), got)

	_, err = fsys.Stat("/data/resume.json.tmp")
	require.Error(t, err)
}

func TestStoreLoadRejectsInvalidJSON(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/resume.json", []byte("{nope"), 0o600))

	_, exists, err := NewStore(fsys, "/resume.json").Load()
	require.True(t, exists)
	require.ErrorContains(t, err, "decode resume")
}
