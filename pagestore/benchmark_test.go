package pagestore_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outofforest/strata"
	"github.com/outofforest/strata/dataset"
	"github.com/outofforest/strata/pkg/memstore"
)

// go test -bench=. -cpuprofile profile.out -benchtime=2x
// go tool pprof -http="localhost:8000" pprofbin ./profile.out

func BenchmarkCommitAndLoadCluster(b *testing.B) {
	b.StopTimer()
	b.ResetTimer()

	requireT := require.New(b)

	const nColumns = 8
	const nPages = 64

	payload := make([]byte, 16*1024)
	_, err := rand.Read(payload)
	requireT.NoError(err)

	for bi := 0; bi < b.N; bi++ {
		store := memstore.New()
		sink, err := strata.CreateDataset(store, "bench", "daos://benchpool/benchcont", testOptions(), []byte("header"))
		requireT.NoError(err)

		desc := dataset.NewDescriptor("bench")
		clusterDesc := dataset.NewClusterDescriptor(0, nPages)
		columns := make([]uint64, 0, nColumns)

		b.StartTimer()
		for columnID := uint64(0); columnID < nColumns; columnID++ {
			columns = append(columns, columnID)
			for page := 0; page < nPages/nColumns; page++ {
				locator, err := sink.CommitSealedPage(columnID, dataset.SealedPage{
					Buffer:    payload,
					Size:      uint32(len(payload)),
					NElements: 1024,
				})
				requireT.NoError(err)
				clusterDesc.AddPage(columnID, dataset.PageInfo{NElements: 1024, Locator: locator})
			}
		}
		b.StopTimer()

		_, err = sink.CommitCluster(nPages)
		requireT.NoError(err)
		desc.AddClusterDetails(clusterDesc)
		desc.AddClusterGroup(dataset.ClusterGroupDescriptor{ID: 0, ClusterIDs: []uint64{0}})

		pageList, err := desc.SerializePageList(0)
		requireT.NoError(err)
		pageListLocator, err := sink.CommitClusterGroup(pageList)
		requireT.NoError(err)
		requireT.NoError(desc.SetClusterGroupLocator(0, pageListLocator, uint32(len(pageList))))

		footer, err := desc.SerializeFooter()
		requireT.NoError(err)
		requireT.NoError(sink.CommitDataset(footer))
		requireT.NoError(sink.Close())

		source, err := strata.OpenDataset(store, "bench", "daos://benchpool/benchcont", testOptions())
		requireT.NoError(err)

		b.StartTimer()
		clusters, err := source.LoadClusters([]dataset.ClusterKey{{ClusterID: 0, Columns: columns}})
		b.StopTimer()
		requireT.NoError(err)
		requireT.Len(clusters, 1)
		requireT.NoError(source.Close())
	}
}
