package memstore

import (
	"sync"

	"github.com/outofforest/strata/daos"
)

var _ daos.API = &Store{}

// Store simulates the object store in memory. It implements the full adapter
// surface including parent/child event completion, so the batched I/O engine
// runs against it unchanged. Operations submitted with an event are executed
// and their events completed at submission time; a parent event completes
// only once its barrier is armed and all of its children have completed,
// which preserves the ordering contract the engine relies on.
type Store struct {
	mu sync.Mutex

	nextHandle daos.Handle
	pools      map[string]*pool
	poolRefs   map[daos.Handle]*pool
	contRefs   map[daos.Handle]*container
	objRefs    map[daos.Handle]*object
	queues     map[daos.Handle]*eventQueue

	faultHook func(op string, oid daos.ObjectID) int

	liveEvents  int
	liveObjects int
}

type pool struct {
	label      string
	containers map[string]*container
}

type container struct {
	label   string
	objects map[daos.ObjectID]*object
}

type object struct {
	oid daos.ObjectID
	// records maps serialized dkey bytes to akey bytes to the stored value.
	records map[string]map[string][]byte
}

type eventQueue struct {
	live int
}

type eventState struct {
	queue      *eventQueue
	parent     *daos.Event
	pending    int
	barrier    bool
	completed  bool
	firstError int
}

// New returns a store holding no pools. Pools are provisioned on first
// connect.
func New() *Store {
	return &Store{
		nextHandle: 1,
		pools:      map[string]*pool{},
		poolRefs:   map[daos.Handle]*pool{},
		contRefs:   map[daos.Handle]*container{},
		objRefs:    map[daos.Handle]*object{},
		queues:     map[daos.Handle]*eventQueue{},
	}
}

// SetFaultHook installs a hook consulted before every fetch and update. A
// negative return value is reported as the operation's status. Pass nil to
// remove the hook.
func (s *Store) SetFaultHook(hook func(op string, oid daos.ObjectID) int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faultHook = hook
}

// LiveEvents returns the number of events registered in queues and not yet
// finalized.
func (s *Store) LiveEvents() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveEvents
}

// LiveObjects returns the number of open object handles.
func (s *Store) LiveObjects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveObjects
}

func (s *Store) handle() daos.Handle {
	h := s.nextHandle
	s.nextHandle++
	return h
}

// Init implements daos.API.
func (s *Store) Init() int {
	return daos.StatusSuccess
}

// Fini implements daos.API.
func (s *Store) Fini() int {
	return daos.StatusSuccess
}

// PoolConnect implements daos.API. Pools are provisioned on first connect.
func (s *Store) PoolConnect(label string, _ uint) (daos.Handle, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if label == "" {
		return daos.HandleNil, daos.StatusInval
	}
	p, exists := s.pools[label]
	if !exists {
		p = &pool{
			label:      label,
			containers: map[string]*container{},
		}
		s.pools[label] = p
	}
	h := s.handle()
	s.poolRefs[h] = p
	return h, daos.StatusSuccess
}

// PoolDisconnect implements daos.API.
func (s *Store) PoolDisconnect(h daos.Handle) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.poolRefs[h]; !exists {
		return daos.StatusNonexist
	}
	delete(s.poolRefs, h)
	return daos.StatusSuccess
}

// ContCreate implements daos.API.
func (s *Store) ContCreate(poolHandle daos.Handle, label string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.poolRefs[poolHandle]
	if !exists {
		return daos.StatusNonexist
	}
	if _, exists := p.containers[label]; exists {
		return daos.StatusExist
	}
	p.containers[label] = &container{
		label:   label,
		objects: map[daos.ObjectID]*object{},
	}
	return daos.StatusSuccess
}

// ContOpen implements daos.API.
func (s *Store) ContOpen(poolHandle daos.Handle, label string, _ uint) (daos.Handle, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.poolRefs[poolHandle]
	if !exists {
		return daos.HandleNil, daos.StatusNonexist
	}
	c, exists := p.containers[label]
	if !exists {
		return daos.HandleNil, daos.StatusNonexist
	}
	h := s.handle()
	s.contRefs[h] = c
	return h, daos.StatusSuccess
}

// ContClose implements daos.API.
func (s *Store) ContClose(h daos.Handle) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.contRefs[h]; !exists {
		return daos.StatusNonexist
	}
	delete(s.contRefs, h)
	return daos.StatusSuccess
}

// classShift positions the object class bits in the upper 16 bits of
// ObjectID.Hi, leaving the lower 48 bits for the logical identity.
const classShift = 48

// GenerateOID implements daos.API. Class bits are embedded into the upper
// bits of Hi; the call is idempotent.
func (s *Store) GenerateOID(_ daos.Handle, oid *daos.ObjectID, class daos.ObjectClass) int {
	oid.Hi |= uint64(class) << classShift
	return daos.StatusSuccess
}

// ObjOpen implements daos.API. Objects come into existence lazily, the same
// way the store materializes them on first update.
func (s *Store) ObjOpen(contHandle daos.Handle, oid daos.ObjectID, _ uint) (daos.Handle, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.contRefs[contHandle]
	if !exists {
		return daos.HandleNil, daos.StatusNonexist
	}
	o, exists := c.objects[oid]
	if !exists {
		o = &object{
			oid:     oid,
			records: map[string]map[string][]byte{},
		}
		c.objects[oid] = o
	}
	h := s.handle()
	s.objRefs[h] = o
	s.liveObjects++
	return h, daos.StatusSuccess
}

// ObjClose implements daos.API.
func (s *Store) ObjClose(h daos.Handle) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.objRefs[h]; !exists {
		return daos.StatusNonexist
	}
	delete(s.objRefs, h)
	s.liveObjects--
	return daos.StatusSuccess
}

// ObjFetch implements daos.API.
func (s *Store) ObjFetch(h daos.Handle, dkey []byte, iods []daos.IOD, sgls []daos.SGL, ev *daos.Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchUpdate("fetch", h, dkey, iods, sgls, ev)
}

// ObjUpdate implements daos.API.
func (s *Store) ObjUpdate(h daos.Handle, dkey []byte, iods []daos.IOD, sgls []daos.SGL, ev *daos.Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchUpdate("update", h, dkey, iods, sgls, ev)
}

func (s *Store) fetchUpdate(op string, h daos.Handle, dkey []byte, iods []daos.IOD, sgls []daos.SGL, ev *daos.Event) int {
	o, exists := s.objRefs[h]
	if !exists {
		return daos.StatusNonexist
	}
	if len(iods) != len(sgls) {
		return daos.StatusInval
	}
	if s.faultHook != nil {
		if status := s.faultHook(op, o.oid); status < daos.StatusSuccess {
			return status
		}
	}

	var status int
	switch op {
	case "fetch":
		status = o.fetch(dkey, iods, sgls)
	case "update":
		status = o.update(dkey, iods, sgls)
	}
	if ev != nil && status == daos.StatusSuccess {
		s.completeEvent(ev, status)
	}
	return status
}

func (o *object) fetch(dkey []byte, iods []daos.IOD, sgls []daos.SGL) int {
	records, exists := o.records[string(dkey)]
	if !exists {
		return daos.StatusNonexist
	}
	for i := range iods {
		value, exists := records[string(iods[i].AKey)]
		if !exists {
			return daos.StatusNonexist
		}
		iods[i].Size = uint64(len(value))
		for _, iov := range sgls[i] {
			n := copy(iov, value)
			value = value[n:]
			if len(value) == 0 {
				break
			}
		}
		if len(value) > 0 {
			return daos.StatusRec2Big
		}
	}
	return daos.StatusSuccess
}

func (o *object) update(dkey []byte, iods []daos.IOD, sgls []daos.SGL) int {
	records, exists := o.records[string(dkey)]
	if !exists {
		records = map[string][]byte{}
		o.records[string(dkey)] = records
	}
	for i := range iods {
		var value []byte
		for _, iov := range sgls[i] {
			value = append(value, iov...)
		}
		records[string(iods[i].AKey)] = value
	}
	return daos.StatusSuccess
}

// EqCreate implements daos.API.
func (s *Store) EqCreate() (daos.Handle, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.handle()
	s.queues[h] = &eventQueue{}
	return h, daos.StatusSuccess
}

// EqDestroy implements daos.API. Destroying a queue with live events is an
// error, which makes leaked events visible in tests.
func (s *Store) EqDestroy(h daos.Handle) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, exists := s.queues[h]
	if !exists {
		return daos.StatusNonexist
	}
	if q.live > 0 {
		return daos.StatusInval
	}
	delete(s.queues, h)
	return daos.StatusSuccess
}

// EventInit implements daos.API.
func (s *Store) EventInit(ev *daos.Event, eq daos.Handle, parent *daos.Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, exists := s.queues[eq]
	if !exists {
		return daos.StatusNonexist
	}
	if ev.Private != nil {
		return daos.StatusInval
	}
	if parent != nil {
		parentState, ok := parent.Private.(*eventState)
		if !ok || parentState.barrier {
			return daos.StatusInval
		}
		parentState.pending++
	}
	ev.Status = daos.StatusSuccess
	ev.Private = &eventState{
		queue:  q,
		parent: parent,
	}
	q.live++
	s.liveEvents++
	return daos.StatusSuccess
}

// EventFini implements daos.API.
func (s *Store) EventFini(ev *daos.Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := ev.Private.(*eventState)
	if !ok {
		return daos.StatusInval
	}
	if st.parent != nil && !st.completed {
		if parentState, ok := st.parent.Private.(*eventState); ok {
			parentState.pending--
		}
	}
	st.queue.live--
	s.liveEvents--
	ev.Private = nil
	return daos.StatusSuccess
}

// EventParentBarrier implements daos.API.
func (s *Store) EventParentBarrier(parent *daos.Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := parent.Private.(*eventState)
	if !ok || st.barrier {
		return daos.StatusInval
	}
	st.barrier = true
	if st.pending == 0 {
		st.completed = true
		parent.Status = st.firstError
	}
	return daos.StatusSuccess
}

// EventTest implements daos.API.
func (s *Store) EventTest(ev *daos.Event) (bool, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := ev.Private.(*eventState)
	if !ok {
		return false, daos.StatusInval
	}
	return st.completed, daos.StatusSuccess
}

// completeEvent marks an event completed and propagates completion to its
// parent.
func (s *Store) completeEvent(ev *daos.Event, status int) {
	st, ok := ev.Private.(*eventState)
	if !ok {
		return
	}
	st.completed = true
	ev.Status = status
	if st.parent == nil {
		return
	}
	parentState, ok := st.parent.Private.(*eventState)
	if !ok {
		return
	}
	parentState.pending--
	if status < daos.StatusSuccess && parentState.firstError == daos.StatusSuccess {
		parentState.firstError = status
	}
	if parentState.barrier && parentState.pending == 0 {
		parentState.completed = true
		st.parent.Status = parentState.firstError
	}
}

// OClassName2ID implements daos.API.
func (s *Store) OClassName2ID(name string) daos.ObjectClass {
	class, exists := classesByName[name]
	if !exists {
		return daos.ClassUnknown
	}
	return class
}

// OClassID2Name implements daos.API.
func (s *Store) OClassID2Name(class daos.ObjectClass) string {
	for name, id := range classesByName {
		if id == class {
			return name
		}
	}
	return ""
}

// classesByName mirrors the store's table of predefined object classes with
// explicit layout.
var classesByName = map[string]daos.ObjectClass{
	"RP_XSF": 80,
	"S1":     200,
	"S2":     201,
	"S4":     202,
	"S8":     203,
	"S16":    204,
	"S32":    205,
	"S64":    206,
	"S128":   207,
	"S256":   208,
	"S512":   209,
	"S1K":    210,
	"S2K":    211,
	"S4K":    212,
	"S8K":    213,
	"SX":     214,
}
