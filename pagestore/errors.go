package pagestore

import "github.com/pkg/errors"

// Error kinds surfaced at the page-store boundary. Failures coming from the
// store carry its native status in the message; nothing is retried locally.
var (
	// ErrBadURI is returned when the dataset URI cannot be parsed.
	ErrBadURI = errors.New("invalid dataset URI")
	// ErrUnknownObjectClass is returned when the named object class is not
	// recognized by the store.
	ErrUnknownObjectClass = errors.New("unknown object class")
	// ErrIoInit names store initialization failures. Sink and Source do not
	// return it: a failure to initialize the store library or the pool's
	// event queue is reported as ErrIoOpen while connecting the pool.
	ErrIoInit = errors.New("store initialization failed")
	// ErrIoOpen is returned when a pool or container cannot be opened. Object
	// handles are opened inside reads and writes, so their failures surface
	// as ErrIoRead or ErrIoWrite.
	ErrIoOpen = errors.New("store open failed")
	// ErrIoClose is returned when a handle cannot be closed.
	ErrIoClose = errors.New("store close failed")
	// ErrIoRead is returned on data-plane read failures.
	ErrIoRead = errors.New("store read failed")
	// ErrIoWrite is returned on data-plane write failures.
	ErrIoWrite = errors.New("store write failed")
	// ErrBadAnchor is returned when the anchor record is malformed.
	ErrBadAnchor = errors.New("malformed anchor")
	// ErrBadHeader is returned when the header blob is malformed.
	ErrBadHeader = errors.New("malformed header")
	// ErrBadFooter is returned when the footer blob is malformed.
	ErrBadFooter = errors.New("malformed footer")
	// ErrBadPageList is returned when a page-list blob is malformed.
	ErrBadPageList = errors.New("malformed page list")
	// ErrBadState is returned when an operation is invoked in the wrong
	// sink/source state.
	ErrBadState = errors.New("operation invalid in current state")
)
