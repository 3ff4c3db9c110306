package pagestore

import (
	"regexp"

	"github.com/pkg/errors"
)

// URI addresses a dataset: scheme://pool_label/container_label. The labels
// are opaque to strata and forwarded to the store.
type URI struct {
	Scheme         string
	PoolLabel      string
	ContainerLabel string
}

var uriRegexp = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.-]*)://([^/]+)/(.+)$`)

// ParseURI parses a dataset URI.
func ParseURI(uri string) (URI, error) {
	m := uriRegexp.FindStringSubmatch(uri)
	if m == nil {
		return URI{}, errors.Wrapf(ErrBadURI, "%q", uri)
	}
	return URI{
		Scheme:         m[1],
		PoolLabel:      m[2],
		ContainerLabel: m[3],
	}, nil
}
