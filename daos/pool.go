package daos

// Pool is a long-lived connection to a named storage pool. It owns the event
// queue used by all batched operations issued through its containers. A Pool
// may be shared by any number of Containers; it must not be closed while any
// of them is still in use.
type Pool struct {
	api        API
	label      string
	handle     Handle
	eventQueue EventQueue
}

// NewPool connects to the pool addressed by label. The store library is
// initialized on first use.
func NewPool(api API, label string) (*Pool, error) {
	if err := initLibrary(api); err != nil {
		return nil, err
	}

	handle, status := api.PoolConnect(label, PoolConnectRW)
	if err := statusError("daos_pool_connect", status); err != nil {
		return nil, err
	}

	p := &Pool{
		api:    api,
		label:  label,
		handle: handle,
	}
	if err := p.eventQueue.Initialize(api); err != nil {
		_ = api.PoolDisconnect(handle)
		return nil, err
	}
	return p, nil
}

// Label returns the label the pool was connected by.
func (p *Pool) Label() string {
	return p.label
}

// EventQueue returns the completion queue owned by the pool.
func (p *Pool) EventQueue() *EventQueue {
	return &p.eventQueue
}

// Close destroys the event queue and disconnects from the pool.
func (p *Pool) Close() error {
	if err := p.eventQueue.Destroy(); err != nil {
		_ = p.api.PoolDisconnect(p.handle)
		return err
	}
	return statusError("daos_pool_disconnect", p.api.PoolDisconnect(p.handle))
}
