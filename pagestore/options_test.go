package pagestore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outofforest/strata/codec"
)

func TestDefaultOptions(t *testing.T) {
	requireT := require.New(t)

	opts := DefaultOptions()
	requireT.Equal("SX", opts.ObjectClass)
	requireT.Equal(codec.DefaultSettings, opts.Compression)
	requireT.Equal(ClusterCacheOn, opts.ClusterCache)
	requireT.Equal(AddressPerClusterPerColumn, opts.Addressing)
}

func TestLoadOptions(t *testing.T) {
	requireT := require.New(t)

	path := filepath.Join(t.TempDir(), "options.yaml")
	requireT.NoError(os.WriteFile(path, []byte(`
object_class: S4
compression: 0
cluster_cache: "off"
addressing: per-object-unique
`), 0o644))

	opts, err := LoadOptions(path)
	requireT.NoError(err)
	requireT.Equal("S4", opts.ObjectClass)
	requireT.Equal(0, opts.Compression)
	requireT.Equal(ClusterCacheOff, opts.ClusterCache)
	requireT.Equal(AddressPerObjectUnique, opts.Addressing)
}

func TestLoadOptionsKeepsDefaults(t *testing.T) {
	requireT := require.New(t)

	path := filepath.Join(t.TempDir(), "options.yaml")
	requireT.NoError(os.WriteFile(path, []byte("object_class: S8\n"), 0o644))

	opts, err := LoadOptions(path)
	requireT.NoError(err)
	requireT.Equal("S8", opts.ObjectClass)
	requireT.Equal(codec.DefaultSettings, opts.Compression)
	requireT.Equal(ClusterCacheOn, opts.ClusterCache)
}

func TestLoadOptionsRejectsUnknownValues(t *testing.T) {
	requireT := require.New(t)

	path := filepath.Join(t.TempDir(), "options.yaml")
	requireT.NoError(os.WriteFile(path, []byte("cluster_cache: sometimes\n"), 0o644))

	_, err := LoadOptions(path)
	requireT.Error(err)
}
