package memstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outofforest/strata/daos"
)

func TestPoolAndContainerLifecycle(t *testing.T) {
	requireT := require.New(t)

	s := New()
	poolHandle, status := s.PoolConnect("pool", daos.PoolConnectRW)
	requireT.Equal(daos.StatusSuccess, status)

	// A container must be created before it can be opened.
	_, status = s.ContOpen(poolHandle, "cont", daos.ContOpenRO)
	requireT.Equal(daos.StatusNonexist, status)

	requireT.Equal(daos.StatusSuccess, s.ContCreate(poolHandle, "cont"))
	requireT.Equal(daos.StatusExist, s.ContCreate(poolHandle, "cont"))

	contHandle, status := s.ContOpen(poolHandle, "cont", daos.ContOpenRW)
	requireT.Equal(daos.StatusSuccess, status)

	requireT.Equal(daos.StatusSuccess, s.ContClose(contHandle))
	requireT.Equal(daos.StatusSuccess, s.PoolDisconnect(poolHandle))
}

func TestFetchReportsRecordSize(t *testing.T) {
	requireT := require.New(t)

	s := New()
	poolHandle, _ := s.PoolConnect("pool", daos.PoolConnectRW)
	requireT.Equal(daos.StatusSuccess, s.ContCreate(poolHandle, "cont"))
	contHandle, _ := s.ContOpen(poolHandle, "cont", daos.ContOpenRW)
	objHandle, status := s.ObjOpen(contHandle, daos.ObjectID{Hi: 1}, daos.ObjOpenRW)
	requireT.Equal(daos.StatusSuccess, status)

	dkey := []byte{1}
	akey := []byte{2}
	status = s.ObjUpdate(objHandle, dkey,
		[]daos.IOD{{AKey: akey, Size: 5}},
		[]daos.SGL{{[]byte("hello")}}, nil)
	requireT.Equal(daos.StatusSuccess, status)

	buf := make([]byte, 16)
	iods := []daos.IOD{{AKey: akey, Size: daos.RecAny}}
	status = s.ObjFetch(objHandle, dkey, iods, []daos.SGL{{buf}}, nil)
	requireT.Equal(daos.StatusSuccess, status)
	requireT.Equal(uint64(5), iods[0].Size)
	requireT.Equal([]byte("hello"), buf[:5])

	// A buffer smaller than the record is an error.
	status = s.ObjFetch(objHandle, dkey, iods, []daos.SGL{{buf[:2]}}, nil)
	requireT.Equal(daos.StatusRec2Big, status)

	requireT.Equal(daos.StatusSuccess, s.ObjClose(objHandle))
}

func TestObjectClassTable(t *testing.T) {
	requireT := require.New(t)

	s := New()
	class := s.OClassName2ID("SX")
	requireT.False(class.IsUnknown())
	requireT.Equal("SX", s.OClassID2Name(class))

	requireT.True(s.OClassName2ID("NOPE").IsUnknown())
	requireT.Equal("", s.OClassID2Name(daos.ObjectClass(12345)))
}
