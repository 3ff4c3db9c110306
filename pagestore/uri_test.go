package pagestore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	requireT := require.New(t)

	uri, err := ParseURI("daos://testpool/testcont")
	requireT.NoError(err)
	requireT.Equal(URI{Scheme: "daos", PoolLabel: "testpool", ContainerLabel: "testcont"}, uri)

	// Any scheme token is accepted, and container labels may contain slashes.
	uri, err = ParseURI("mem://pool-1/datasets/run7")
	requireT.NoError(err)
	requireT.Equal(URI{Scheme: "mem", PoolLabel: "pool-1", ContainerLabel: "datasets/run7"}, uri)
}

func TestParseURIFails(t *testing.T) {
	requireT := require.New(t)

	for _, uri := range []string{
		"",
		"daos://",
		"daos://pool",
		"daos://pool/",
		"pool/container",
		"://pool/container",
	} {
		_, err := ParseURI(uri)
		requireT.ErrorIs(err, ErrBadURI, uri)
	}
}
