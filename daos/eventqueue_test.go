package daos_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outofforest/strata/daos"
	"github.com/outofforest/strata/pkg/memstore"
)

func TestEventLifecycle(t *testing.T) {
	requireT := require.New(t)

	store := memstore.New()
	pool, err := daos.NewPool(store, "pool")
	requireT.NoError(err)
	eq := pool.EventQueue()

	ev := &daos.Event{}
	requireT.NoError(eq.InitEvent(ev, nil))
	requireT.Equal(1, store.LiveEvents())

	requireT.NoError(eq.FinalizeEvent(ev))
	requireT.Equal(0, store.LiveEvents())

	requireT.NoError(pool.Close())
}

func TestParentBarrier(t *testing.T) {
	requireT := require.New(t)

	store := memstore.New()
	pool, err := daos.NewPool(store, "pool")
	requireT.NoError(err)
	cont, err := daos.NewContainer(pool, "cont", true)
	requireT.NoError(err)
	eq := pool.EventQueue()

	parent := &daos.Event{}
	requireT.NoError(eq.InitEvent(parent, nil))

	obj, err := daos.OpenObject(cont, daos.ObjectID{Hi: 1}, daos.ClassUnknown)
	requireT.NoError(err)

	args := daos.NewFetchUpdateArgs(
		daos.NewRWOperation(daos.ObjectID{Hi: 1}, 7, 9, [][]byte{[]byte("value")}), true)
	requireT.NoError(eq.InitEvent(args.EventPointer(), parent))
	requireT.NoError(obj.Update(args))

	requireT.NoError(eq.LaunchParentBarrier(parent))
	requireT.NoError(eq.PollEvent(parent))

	// Drain the child and release the object.
	requireT.NoError(eq.PollEvent(args.EventPointer()))
	requireT.NoError(obj.Close())

	requireT.Equal(0, store.LiveEvents())
	requireT.Equal(0, store.LiveObjects())

	requireT.NoError(cont.Close())
	requireT.NoError(pool.Close())
}

func TestDestroyingQueueWithLiveEventsFails(t *testing.T) {
	requireT := require.New(t)

	store := memstore.New()
	pool, err := daos.NewPool(store, "pool")
	requireT.NoError(err)
	eq := pool.EventQueue()

	ev := &daos.Event{}
	requireT.NoError(eq.InitEvent(ev, nil))
	requireT.Error(eq.Destroy())

	requireT.NoError(eq.FinalizeEvent(ev))
	requireT.NoError(pool.Close())
}
