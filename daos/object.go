package daos

import (
	"github.com/outofforest/photon"
)

// FetchUpdateArgs bundles everything one fetch/update operation hands to the
// store. It owns local copies of the distribution and attribute keys so the
// store can reference them by pointer without aliasing caller memory, and it
// owns the event tracking an asynchronous submission. The args must be kept
// alive until the store observes completion.
type FetchUpdateArgs struct {
	dkey  DistributionKey
	akeys []AttributeKey

	dkeyBytes []byte
	iods      []IOD
	sgls      []SGL
	event     Event
	isAsync   bool
}

// NewFetchUpdateArgs prepares the argument bundle for the given operation.
// With async set, the submission is tied to the args' event; otherwise the
// operation executes synchronously.
func NewFetchUpdateArgs(op RWOperation, async bool) *FetchUpdateArgs {
	a := &FetchUpdateArgs{
		dkey:    op.DKey,
		akeys:   make([]AttributeKey, len(op.Records)),
		iods:    make([]IOD, len(op.Records)),
		sgls:    make([]SGL, len(op.Records)),
		isAsync: async,
	}
	a.dkeyBytes = photon.NewFromValue(&a.dkey).Bytes
	for i, rec := range op.Records {
		a.akeys[i] = rec.AKey
		var size uint64
		for _, iov := range rec.IOVs {
			size += uint64(len(iov))
		}
		a.iods[i] = IOD{
			AKey: photon.NewFromValue(&a.akeys[i]).Bytes,
			Size: size,
		}
		a.sgls[i] = SGL(rec.IOVs)
	}
	return a
}

// EventPointer returns the event to pass to the store, or nil for a
// synchronous operation.
func (a *FetchUpdateArgs) EventPointer() *Event {
	if !a.isAsync {
		return nil
	}
	return &a.event
}

// Object provides low-level access to one opened object in a container.
type Object struct {
	api    API
	handle Handle
}

// OpenObject opens the object identified by oid. If class is not
// ClassUnknown, the store's OID generator embeds the class bits into oid
// first; otherwise the caller is responsible for oid being already
// well-formed.
func OpenObject(c *Container, oid ObjectID, class ObjectClass) (*Object, error) {
	if !class.IsUnknown() {
		if err := statusError("daos_obj_generate_oid", c.api.GenerateOID(c.handle, &oid, class)); err != nil {
			return nil, err
		}
	}

	handle, status := c.api.ObjOpen(c.handle, oid, ObjOpenRW)
	if err := statusError("daos_obj_open", status); err != nil {
		return nil, err
	}
	return &Object{
		api:    c.api,
		handle: handle,
	}, nil
}

// Close closes the object handle.
func (o *Object) Close() error {
	return statusError("daos_obj_close", o.api.ObjClose(o.handle))
}

// Fetch issues a read of the records described by args. Record sizes are
// reset to RecAny so the store reports the actual sizes.
func (o *Object) Fetch(args *FetchUpdateArgs) error {
	for i := range args.iods {
		args.iods[i].Size = RecAny
	}
	return statusError("daos_obj_fetch",
		o.api.ObjFetch(o.handle, args.dkeyBytes, args.iods, args.sgls, args.EventPointer()))
}

// Update issues a write of the records described by args.
func (o *Object) Update(args *FetchUpdateArgs) error {
	return statusError("daos_obj_update",
		o.api.ObjUpdate(o.handle, args.dkeyBytes, args.iods, args.sgls, args.EventPointer()))
}
