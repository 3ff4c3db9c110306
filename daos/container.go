package daos

// Record pairs one attribute key with the scatter/gather list delivering its
// value.
type Record struct {
	AKey AttributeKey
	IOVs [][]byte
}

// RWOperation describes a read or write against a single (object,
// distribution key), possibly covering multiple attribute keys. See the
// ReadV/WriteV functions.
type RWOperation struct {
	OID     ObjectID
	DKey    DistributionKey
	Records []Record
}

// NewRWOperation returns an operation carrying a single attribute key.
func NewRWOperation(oid ObjectID, dkey DistributionKey, akey AttributeKey, iovs [][]byte) RWOperation {
	return RWOperation{
		OID:  oid,
		DKey: dkey,
		Records: []Record{
			{AKey: akey, IOVs: iovs},
		},
	}
}

// Insert adds another attribute key to the operation.
func (op *RWOperation) Insert(akey AttributeKey, iovs [][]byte) {
	op.Records = append(op.Records, Record{AKey: akey, IOVs: iovs})
}

// Container provides read/write access to objects in one container of a
// pool. The container shares the pool and must not outlive it.
type Container struct {
	api          API
	pool         *Pool
	label        string
	handle       Handle
	defaultClass ObjectClass
}

// NewContainer opens the container addressed by label inside the pool. With
// create set, the container is created first ("already exists" is not an
// error) and opened read-write; otherwise it is opened read-only.
func NewContainer(pool *Pool, label string, create bool) (*Container, error) {
	flags := ContOpenRO
	if create {
		flags = ContOpenRW
		if status := pool.api.ContCreate(pool.handle, label); status != StatusSuccess && status != StatusExist {
			return nil, statusError("daos_cont_create_with_label", status)
		}
	}

	handle, status := pool.api.ContOpen(pool.handle, label, flags)
	if err := statusError("daos_cont_open", status); err != nil {
		return nil, err
	}
	return &Container{
		api:    pool.api,
		pool:   pool,
		label:  label,
		handle: handle,
	}, nil
}

// Close closes the container handle. The pool stays connected.
func (c *Container) Close() error {
	return statusError("daos_cont_close", c.api.ContClose(c.handle))
}

// DefaultObjectClass returns the class used to qualify generated OIDs when no
// explicit class is given.
func (c *Container) DefaultObjectClass() ObjectClass {
	return c.defaultClass
}

// SetDefaultObjectClass sets the class used to qualify generated OIDs.
func (c *Container) SetDefaultObjectClass(class ObjectClass) {
	c.defaultClass = class
}

// ReadSingle reads the value stored under (oid, dkey, akey) into buf.
func (c *Container) ReadSingle(buf []byte, oid ObjectID, dkey DistributionKey, akey AttributeKey, class ObjectClass) error {
	return c.single(NewRWOperation(oid, dkey, akey, [][]byte{buf}), class, (*Object).Fetch)
}

// WriteSingle writes buf under (oid, dkey, akey).
func (c *Container) WriteSingle(buf []byte, oid ObjectID, dkey DistributionKey, akey AttributeKey, class ObjectClass) error {
	return c.single(NewRWOperation(oid, dkey, akey, [][]byte{buf}), class, (*Object).Update)
}

func (c *Container) single(op RWOperation, class ObjectClass, fn func(*Object, *FetchUpdateArgs) error) error {
	obj, err := OpenObject(c, op.OID, class)
	if err != nil {
		return err
	}
	if err := fn(obj, NewFetchUpdateArgs(op, false)); err != nil {
		_ = obj.Close()
		return err
	}
	return obj.Close()
}

// ReadV performs a vector read of all operations as children of a single
// parent event.
func (c *Container) ReadV(ops []RWOperation, class ObjectClass) error {
	return c.vectorReadWrite(ops, class, (*Object).Fetch)
}

// WriteV performs a vector write of all operations as children of a single
// parent event.
func (c *Container) WriteV(ops []RWOperation, class ObjectClass) error {
	return c.vectorReadWrite(ops, class, (*Object).Update)
}

type request struct {
	obj       *Object
	args      *FetchUpdateArgs
	submitted bool
}

// vectorReadWrite submits every operation against the pool's event queue as a
// child of one parent event, arms the parent barrier and blocks until the
// parent completes. The store consumes each submission immediately but
// completion is deferred, so the objects, args, key copies and child events
// stay alive in requests until after the parent completes. Submitted
// operations of a failed batch are drained before release so the store never
// references freed memory.
func (c *Container) vectorReadWrite(ops []RWOperation, class ObjectClass, fn func(*Object, *FetchUpdateArgs) error) error {
	// A parent event needs at least one child before its barrier is armed.
	if len(ops) == 0 {
		return nil
	}

	eq := c.pool.EventQueue()

	parent := &Event{}
	if err := eq.InitEvent(parent, nil); err != nil {
		return err
	}
	parentPolled := false

	requests := make([]*request, 0, len(ops))
	defer func() {
		for i := len(requests) - 1; i >= 0; i-- {
			req := requests[i]
			if req.submitted {
				_ = eq.PollEvent(&req.args.event)
			} else {
				_ = eq.FinalizeEvent(&req.args.event)
			}
			_ = req.obj.Close()
		}
		if !parentPolled {
			_ = eq.FinalizeEvent(parent)
		}
	}()

	for i := range ops {
		obj, err := OpenObject(c, ops[i].OID, class)
		if err != nil {
			return err
		}
		args := NewFetchUpdateArgs(ops[i], true)
		if err := eq.InitEvent(&args.event, parent); err != nil {
			_ = obj.Close()
			return err
		}
		req := &request{obj: obj, args: args}
		requests = append(requests, req)

		if err := fn(obj, args); err != nil {
			return err
		}
		req.submitted = true
	}

	if err := eq.LaunchParentBarrier(parent); err != nil {
		return err
	}
	parentPolled = true
	return eq.PollEvent(parent)
}
