package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotbundle/hotbundle/internal/kvstore"
)

func TestRecordRoundTrip(t *testing.T) {
	s := kvstore.NewMemory()

	rec, incomplete, err := LoadRecord(s)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.False(t, incomplete)

	require.NoError(t, SaveRecord(s, Record{Version: "1.0.0", BundleHash: "ABCDEF"}))

	rec, incomplete, err = LoadRecord(s)
	require.NoError(t, err)
	assert.False(t, incomplete)
	require.NotNil(t, rec)
	assert.Equal(t, "1.0.0", rec.Version)
	assert.Equal(t, "abcdef", rec.BundleHash, "hash is stored normalized")

	require.NoError(t, ClearRecord(s))
	rec, _, err = LoadRecord(s)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Empty(t, s.Snapshot())
}

func TestLoadRecord_Incomplete(t *testing.T) {
	tests := map[string]map[string]string{
		"version only":   {VersionKey: "1.0.0"},
		"hash only":      {BundleHashKey: "abc"},
		"empty version":  {VersionKey: "", BundleHashKey: "abc"},
		"unsafe version": {VersionKey: "../x", BundleHashKey: "abc"},
	}
	for name, values := range tests {
		t.Run(name, func(t *testing.T) {
			s := kvstore.NewMemory()
			require.NoError(t, kvstore.Apply(s, values, nil))

			rec, incomplete, err := LoadRecord(s)
			require.NoError(t, err)
			assert.Nil(t, rec)
			assert.True(t, incomplete)
		})
	}
}
