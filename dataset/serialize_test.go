package dataset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildDescriptor(requireT *require.Assertions) *Descriptor {
	desc := NewDescriptor("events")

	cluster0 := NewClusterDescriptor(0, 3)
	cluster0.AddPage(7, PageInfo{NElements: 1, Locator: PageLocator{Position: 0, BytesOnStorage: 1}})
	cluster0.AddPage(7, PageInfo{NElements: 2, Locator: PageLocator{Position: 1, BytesOnStorage: 2}})
	cluster0.AddPage(8, PageInfo{NElements: 3, Locator: PageLocator{Position: 2, BytesOnStorage: 3}})
	desc.AddClusterDetails(cluster0)

	cluster1 := NewClusterDescriptor(1, 4)
	cluster1.AddPage(7, PageInfo{NElements: 4, Locator: PageLocator{Position: 3, BytesOnStorage: 4}})
	desc.AddClusterDetails(cluster1)

	desc.AddClusterGroup(ClusterGroupDescriptor{
		ID:         0,
		ClusterIDs: []uint64{0, 1},
	})
	requireT.NoError(desc.SetClusterGroupLocator(0, PageLocator{Position: 4, BytesOnStorage: 77}, 123))
	return desc
}

func TestFooterAndPageListRoundTrip(t *testing.T) {
	requireT := require.New(t)

	desc := buildDescriptor(requireT)
	footer, err := desc.SerializeFooter()
	requireT.NoError(err)
	pageList, err := desc.SerializePageList(0)
	requireT.NoError(err)

	builder := NewBuilder()
	requireT.NoError(builder.DeserializeHeader([]byte("opaque header")))
	requireT.NoError(builder.DeserializeFooter(footer))

	groups := builder.Descriptor().ClusterGroups()
	requireT.Len(groups, 1)
	requireT.Equal(uint64(4), groups[0].PageListLocator.Position)
	requireT.Equal(uint32(77), groups[0].PageListLocator.BytesOnStorage)
	requireT.Equal(uint32(123), groups[0].PageListLength)
	requireT.Equal([]uint64{0, 1}, groups[0].ClusterIDs)

	requireT.NoError(builder.DeserializePageList(0, pageList))

	rebuilt := builder.Descriptor()
	requireT.Equal("events", rebuilt.Name)
	requireT.Equal([]byte("opaque header"), rebuilt.Header)
	requireT.Equal(2, rebuilt.NClusters())

	cluster0, err := rebuilt.Cluster(0)
	requireT.NoError(err)
	requireT.Equal(uint64(3), cluster0.NEntries)
	info, err := cluster0.PageInfo(7, 1)
	requireT.NoError(err)
	requireT.Equal(uint32(2), info.NElements)
	requireT.Equal(uint64(1), info.Locator.Position)
	requireT.Equal(uint32(2), info.Locator.BytesOnStorage)

	cluster1, err := rebuilt.Cluster(1)
	requireT.NoError(err)
	info, err = cluster1.PageInfo(7, 0)
	requireT.NoError(err)
	requireT.Equal(uint64(3), info.Locator.Position)
}

func TestTruncatedFooterFails(t *testing.T) {
	requireT := require.New(t)

	desc := buildDescriptor(requireT)
	footer, err := desc.SerializeFooter()
	requireT.NoError(err)

	builder := NewBuilder()
	requireT.Error(builder.DeserializeFooter(footer[:len(footer)-3]))
}

func TestPageListReferencingUnknownClusterFails(t *testing.T) {
	requireT := require.New(t)

	desc := buildDescriptor(requireT)
	pageList, err := desc.SerializePageList(0)
	requireT.NoError(err)

	builder := NewBuilder()
	requireT.Error(builder.DeserializePageList(0, pageList))
}

func TestCursorIsSticky(t *testing.T) {
	requireT := require.New(t)

	c := NewCursor(AppendUint32(nil, 7))
	requireT.Equal(uint32(7), c.Uint32())
	requireT.NoError(c.Err())

	requireT.Equal(uint64(0), c.Uint64())
	requireT.Error(c.Err())
	requireT.Equal(uint32(0), c.Uint32())
}

func TestMissingPageFails(t *testing.T) {
	requireT := require.New(t)

	cluster := NewClusterDescriptor(0, 1)
	cluster.AddPage(7, PageInfo{NElements: 1})

	_, err := cluster.PageInfo(7, 1)
	requireT.Error(err)
	_, err = cluster.PageInfo(8, 0)
	requireT.Error(err)
}
