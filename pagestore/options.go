package pagestore

import (
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/outofforest/strata/codec"
)

// ClusterCacheSetting controls whether page population goes through the
// cluster cache or reads pages directly.
type ClusterCacheSetting int

// Cluster cache settings.
const (
	ClusterCacheOn ClusterCacheSetting = iota
	ClusterCacheOff
)

// AddressingMode selects the key-derivation strategy of a dataset. The mode
// is fixed per dataset and must match between writer and reader.
type AddressingMode int

// Addressing modes.
const (
	// AddressPerClusterPerColumn stores all pages of a cluster in one object,
	// keyed by column and position. This is the default.
	AddressPerClusterPerColumn AddressingMode = iota
	// AddressPerObjectUnique stores every blob in its own object under fixed
	// keys. Legacy layout.
	AddressPerObjectUnique
)

// Options configure sinks and sources.
type Options struct {
	// ObjectClass names the default storage class of payload objects.
	ObjectClass string
	// Compression is the codec settings value, algorithm*100+level.
	// Writer and reader of a dataset must agree on it.
	Compression int
	// ClusterCache selects the page population path on read.
	ClusterCache ClusterCacheSetting
	// Addressing selects the key-derivation strategy.
	Addressing AddressingMode
	// Logger is an optional logger. If nil, a default one is created.
	Logger *logrus.Logger
}

// DefaultOptions returns the options used when nothing is configured
// explicitly.
func DefaultOptions() Options {
	return Options{
		ObjectClass: "SX",
		Compression: codec.DefaultSettings,
	}
}

func (o Options) logger() *logrus.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logrus.New()
}

type optionsFile struct {
	ObjectClass  string `yaml:"object_class"`
	Compression  *int   `yaml:"compression"`
	ClusterCache string `yaml:"cluster_cache"`
	Addressing   string `yaml:"addressing"`
}

// LoadOptions reads options from a YAML file. Absent keys keep their
// defaults.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Options{}, errors.WithStack(err)
	}
	var f optionsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Options{}, errors.WithStack(err)
	}

	if f.ObjectClass != "" {
		opts.ObjectClass = f.ObjectClass
	}
	if f.Compression != nil {
		opts.Compression = *f.Compression
	}
	switch f.ClusterCache {
	case "", "on":
	case "off":
		opts.ClusterCache = ClusterCacheOff
	default:
		return Options{}, errors.Errorf("unknown cluster_cache setting: %q", f.ClusterCache)
	}
	switch f.Addressing {
	case "", "per-cluster-per-column":
	case "per-object-unique":
		opts.Addressing = AddressPerObjectUnique
	default:
		return Options{}, errors.Errorf("unknown addressing mode: %q", f.Addressing)
	}
	return opts, nil
}
