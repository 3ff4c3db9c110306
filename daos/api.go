package daos

import "sync"

// API is the surface of the object store the adapter depends on. All methods
// return a store status (0 on success, negative on error) next to their
// results. Implementations must be safe for concurrent use.
//
// ObjFetch and ObjUpdate take the serialized distribution key, one IOD and
// one SGL per attribute key, and an optional event. With a nil event the call
// completes synchronously; with a non-nil event the submission returns
// immediately and completion is reported through the event's queue. The
// store references key and buffer memory by pointer until completion, so the
// caller must keep them alive until the event completes.
type API interface {
	Init() int
	Fini() int

	PoolConnect(label string, flags uint) (Handle, int)
	PoolDisconnect(pool Handle) int

	ContCreate(pool Handle, label string) int
	ContOpen(pool Handle, label string, flags uint) (Handle, int)
	ContClose(cont Handle) int

	GenerateOID(cont Handle, oid *ObjectID, class ObjectClass) int
	ObjOpen(cont Handle, oid ObjectID, mode uint) (Handle, int)
	ObjClose(obj Handle) int
	ObjFetch(obj Handle, dkey []byte, iods []IOD, sgls []SGL, ev *Event) int
	ObjUpdate(obj Handle, dkey []byte, iods []IOD, sgls []SGL, ev *Event) int

	EqCreate() (Handle, int)
	EqDestroy(eq Handle) int
	EventInit(ev *Event, eq Handle, parent *Event) int
	EventFini(ev *Event) int
	EventParentBarrier(parent *Event) int
	EventTest(ev *Event) (bool, int)

	OClassName2ID(name string) ObjectClass
	OClassID2Name(class ObjectClass) string
}

var libInit sync.Once

// initLibrary initializes the store library once per process. The matching
// finalization is left to process teardown, the same way the store's own
// tooling does it.
func initLibrary(api API) error {
	var status int
	libInit.Do(func() {
		status = api.Init()
	})
	return statusError("daos_init", status)
}
