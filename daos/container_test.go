package daos_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outofforest/strata/daos"
	"github.com/outofforest/strata/pkg/memstore"
)

func newContainer(t *testing.T) (*memstore.Store, *daos.Pool, *daos.Container) {
	requireT := require.New(t)

	store := memstore.New()
	pool, err := daos.NewPool(store, "testpool")
	requireT.NoError(err)
	cont, err := daos.NewContainer(pool, "testcont", true)
	requireT.NoError(err)

	t.Cleanup(func() {
		requireT.NoError(cont.Close())
		requireT.NoError(pool.Close())
	})
	return store, pool, cont
}

func TestSingleRoundTrip(t *testing.T) {
	requireT := require.New(t)
	_, _, cont := newContainer(t)

	oid := daos.ObjectID{Hi: 42}
	requireT.NoError(cont.WriteSingle([]byte("payload"), oid, 3, 99, daos.ClassUnknown))

	buf := make([]byte, 7)
	requireT.NoError(cont.ReadSingle(buf, oid, 3, 99, daos.ClassUnknown))
	requireT.Equal([]byte("payload"), buf)
}

func TestReadMissingKeyFails(t *testing.T) {
	requireT := require.New(t)
	_, _, cont := newContainer(t)

	buf := make([]byte, 8)
	err := cont.ReadSingle(buf, daos.ObjectID{Hi: 42}, 3, 99, daos.ClassUnknown)
	requireT.Error(err)
	requireT.Equal(daos.StatusNonexist, daos.StatusCode(err))
}

func TestGeneratedOIDIsStable(t *testing.T) {
	requireT := require.New(t)
	store, _, cont := newContainer(t)

	class := store.OClassName2ID("SX")
	requireT.False(class.IsUnknown())

	oid := daos.ObjectID{Hi: 42}
	requireT.NoError(cont.WriteSingle([]byte("x"), oid, 1, 2, class))

	// The same pre-generation OID with the same class addresses the same
	// object.
	buf := make([]byte, 1)
	requireT.NoError(cont.ReadSingle(buf, oid, 1, 2, class))
	requireT.Equal([]byte("x"), buf)

	// A different class addresses a different object.
	err := cont.ReadSingle(buf, oid, 1, 2, store.OClassName2ID("S1"))
	requireT.Equal(daos.StatusNonexist, daos.StatusCode(err))
}

func TestWriteVReadVRoundTrip(t *testing.T) {
	requireT := require.New(t)
	store, _, cont := newContainer(t)

	writes := []daos.RWOperation{
		daos.NewRWOperation(daos.ObjectID{Hi: 1}, 7, 0, [][]byte{[]byte("A")}),
		daos.NewRWOperation(daos.ObjectID{Hi: 1}, 8, 1, [][]byte{[]byte("BB")}),
		daos.NewRWOperation(daos.ObjectID{Hi: 2}, 7, 2, [][]byte{[]byte("CCC")}),
	}
	requireT.NoError(cont.WriteV(writes, daos.ClassUnknown))

	bufA := make([]byte, 1)
	bufB := make([]byte, 2)
	bufC := make([]byte, 3)
	reads := []daos.RWOperation{
		daos.NewRWOperation(daos.ObjectID{Hi: 1}, 7, 0, [][]byte{bufA}),
		daos.NewRWOperation(daos.ObjectID{Hi: 1}, 8, 1, [][]byte{bufB}),
		daos.NewRWOperation(daos.ObjectID{Hi: 2}, 7, 2, [][]byte{bufC}),
	}
	requireT.NoError(cont.ReadV(reads, daos.ClassUnknown))

	requireT.Equal([]byte("A"), bufA)
	requireT.Equal([]byte("BB"), bufB)
	requireT.Equal([]byte("CCC"), bufC)

	requireT.Equal(0, store.LiveEvents())
	requireT.Equal(0, store.LiveObjects())
}

func TestReadVCoalescedRecords(t *testing.T) {
	requireT := require.New(t)
	store, _, cont := newContainer(t)

	oid := daos.ObjectID{Hi: 5}
	requireT.NoError(cont.WriteSingle([]byte("one"), oid, 7, 1, daos.ClassUnknown))
	requireT.NoError(cont.WriteSingle([]byte("twoo"), oid, 7, 2, daos.ClassUnknown))

	buf1 := make([]byte, 3)
	buf2 := make([]byte, 4)
	op := daos.NewRWOperation(oid, 7, 1, [][]byte{buf1})
	op.Insert(2, [][]byte{buf2})

	requireT.NoError(cont.ReadV([]daos.RWOperation{op}, daos.ClassUnknown))
	requireT.Equal([]byte("one"), buf1)
	requireT.Equal([]byte("twoo"), buf2)

	requireT.Equal(0, store.LiveEvents())
	requireT.Equal(0, store.LiveObjects())
}

func TestWriteVSubmissionFailureAbortsAndDrains(t *testing.T) {
	requireT := require.New(t)
	store, _, cont := newContainer(t)

	var updates int
	store.SetFaultHook(func(op string, _ daos.ObjectID) int {
		if op != "update" {
			return daos.StatusSuccess
		}
		updates++
		if updates == 2 {
			return daos.StatusIO
		}
		return daos.StatusSuccess
	})

	writes := []daos.RWOperation{
		daos.NewRWOperation(daos.ObjectID{Hi: 1}, 1, 1, [][]byte{[]byte("first")}),
		daos.NewRWOperation(daos.ObjectID{Hi: 2}, 1, 1, [][]byte{[]byte("second")}),
		daos.NewRWOperation(daos.ObjectID{Hi: 3}, 1, 1, [][]byte{[]byte("third")}),
	}
	err := cont.WriteV(writes, daos.ClassUnknown)
	requireT.Error(err)
	requireT.Equal(daos.StatusIO, daos.StatusCode(err))

	// The third operation was never submitted.
	requireT.Equal(2, updates)

	// No leaked events or object handles.
	requireT.Equal(0, store.LiveEvents())
	requireT.Equal(0, store.LiveObjects())

	store.SetFaultHook(nil)

	// The first write completed before the failure.
	buf := make([]byte, 5)
	requireT.NoError(cont.ReadSingle(buf, daos.ObjectID{Hi: 1}, 1, 1, daos.ClassUnknown))
	requireT.Equal([]byte("first"), buf)
}

func TestScatterGatherAcrossIOVs(t *testing.T) {
	requireT := require.New(t)
	_, _, cont := newContainer(t)

	oid := daos.ObjectID{Hi: 9}
	op := daos.NewRWOperation(oid, 1, 1, [][]byte{[]byte("split"), []byte("value")})
	requireT.NoError(cont.WriteV([]daos.RWOperation{op}, daos.ClassUnknown))

	head := make([]byte, 2)
	tail := make([]byte, 8)
	read := daos.NewRWOperation(oid, 1, 1, [][]byte{head, tail})
	requireT.NoError(cont.ReadV([]daos.RWOperation{read}, daos.ClassUnknown))

	requireT.Equal([]byte("sp"), head)
	requireT.Equal([]byte("litvalue"), tail)
}
