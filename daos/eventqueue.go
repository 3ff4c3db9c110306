package daos

// EventQueue owns one asynchronous completion queue of the store and manages
// the lifetime of event handles registered into it.
type EventQueue struct {
	api   API
	queue Handle
}

// Initialize creates the underlying completion queue.
func (eq *EventQueue) Initialize(api API) error {
	queue, status := api.EqCreate()
	if err := statusError("daos_eq_create", status); err != nil {
		return err
	}
	eq.api = api
	eq.queue = queue
	return nil
}

// Destroy destroys the queue. It must only be called after all child events
// have been polled to completion or finalized.
func (eq *EventQueue) Destroy() error {
	return statusError("daos_eq_destroy", eq.api.EqDestroy(eq.queue))
}

// InitEvent registers a fresh event in the queue, optionally as a child of
// parent. A parent event must receive at least one child before
// LaunchParentBarrier.
func (eq *EventQueue) InitEvent(ev, parent *Event) error {
	return statusError("daos_event_init", eq.api.EventInit(ev, eq.queue, parent))
}

// FinalizeEvent releases event data from the queue.
func (eq *EventQueue) FinalizeEvent(ev *Event) error {
	return statusError("daos_event_fini", eq.api.EventFini(ev))
}

// LaunchParentBarrier arms parent so that it completes once all of its
// children complete. It must be called after all children have been
// initialized and launched.
func (eq *EventQueue) LaunchParentBarrier(parent *Event) error {
	return statusError("daos_event_parent_barrier", eq.api.EventParentBarrier(parent))
}

// PollEvent blocks until ev completes, then finalizes it. The completion
// status of the operation the event tracked is returned as the error.
func (eq *EventQueue) PollEvent(ev *Event) error {
	for {
		done, status := eq.api.EventTest(ev)
		if err := statusError("daos_event_test", status); err != nil {
			return err
		}
		if done {
			break
		}
	}
	if err := eq.FinalizeEvent(ev); err != nil {
		return err
	}
	return statusError("event", ev.Status)
}
