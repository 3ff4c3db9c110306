package strata

import (
	"github.com/outofforest/strata/daos"
	"github.com/outofforest/strata/pagestore"
)

// CreateDataset opens a sink for writing a new dataset at uri and stamps the
// serialized header. The caller commits pages, clusters and cluster groups,
// and finishes with CommitDataset.
func CreateDataset(api daos.API, name, uri string, opts pagestore.Options, serializedHeader []byte) (*pagestore.Sink, error) {
	sink, err := pagestore.NewSink(api, name, uri, opts)
	if err != nil {
		return nil, err
	}
	if err := sink.Create(serializedHeader); err != nil {
		_ = sink.Close()
		return nil, err
	}
	return sink, nil
}

// OpenDataset opens a source for the dataset at uri and attaches to it. The
// returned source serves sealed pages, populated pages and whole clusters.
func OpenDataset(api daos.API, name, uri string, opts pagestore.Options) (*pagestore.Source, error) {
	source, err := pagestore.NewSource(api, name, uri, opts)
	if err != nil {
		return nil, err
	}
	if _, err := source.Attach(); err != nil {
		_ = source.Close()
		return nil, err
	}
	return source, nil
}
