package daos

// ObjectID is the 128-bit identifier of an object within a container. After
// OID generation the upper bits of Hi encode the object class (see
// GenerateOID); callers using ClassUnknown are responsible for passing an
// already well-formed ID.
type ObjectID struct {
	Hi uint64
	Lo uint64
}

// Reserved object IDs used for dataset metadata. They live in the negative
// range so they can never collide with cluster IDs.
var (
	// OIDMetadata holds the anchor, header and footer records.
	OIDMetadata = ObjectID{Hi: negative(11)}
	// OIDPageList holds the page-list blobs of cluster groups.
	OIDPageList = ObjectID{Hi: negative(12)}
)

// Reserved object IDs of the legacy per-object-unique addressing, one per
// metadata record.
var (
	OIDLegacyAnchor = ObjectID{Hi: negative(1)}
	OIDLegacyHeader = ObjectID{Hi: negative(2)}
	OIDLegacyFooter = ObjectID{Hi: negative(3)}
)

func negative(v uint64) uint64 {
	return ^v + 1
}

// DistributionKey is the first-level key within an object.
type DistributionKey uint64

// AttributeKey is the second-level key within an object, scoped by a
// distribution key.
type AttributeKey uint64

// Well-known keys of the dataset metadata records.
const (
	DKeyMeta DistributionKey = 0x5a3c69f0cafe4912

	AKeyAnchor AttributeKey = 0x4243544b5344422d
	AKeyHeader AttributeKey = 0x4243544b5344421e
	AKeyFooter AttributeKey = 0x4243544b5344420f
)

// Fixed keys of the legacy per-object-unique addressing.
const (
	DKeyLegacy DistributionKey = 0x5a3c69f0cafe4a11
	AKeyLegacy AttributeKey    = 0x4243544b5344422d
)

// ObjectClass describes the schema of data distribution and protection of an
// object. Name to ID resolution is provided by the store.
type ObjectClass uint16

// ClassUnknown is the zero object class. Opening an object with ClassUnknown
// skips OID generation.
const ClassUnknown ObjectClass = 0

// MaxClassNameLength bounds the length of an object class name.
const MaxClassNameLength = 64

// IsUnknown returns true if the class has not been resolved.
func (c ObjectClass) IsUnknown() bool {
	return c == ClassUnknown
}

// Handle is an opaque reference to a store entity (pool, container, object or
// event queue).
type Handle uint64

// HandleNil is the invalid handle.
const HandleNil Handle = 0

// RecAny is the sentinel record size used on fetch so the store reports the
// actual size of each record.
const RecAny uint64 = 0

// IOD describes one single-value record under an attribute key. AKey holds
// the serialized key bytes; Size is the record size in bytes, or RecAny on
// fetch.
type IOD struct {
	AKey []byte
	Size uint64
}

// SGL is the scatter/gather list delivering the fragments of one record.
type SGL [][]byte

// Flags of pool, container and object open operations.
const (
	PoolConnectRO uint = 1 << 0
	PoolConnectRW uint = 1 << 1

	ContOpenRO uint = 1 << 0
	ContOpenRW uint = 1 << 1

	ObjOpenRO uint = 1 << 1
	ObjOpenRW uint = 1 << 2
)

// Event is a completion handle registered in an event queue. The zero value
// is ready to be passed to EventQueue.InitEvent. Private belongs to the store
// implementation and must not be touched between InitEvent and EventFini.
type Event struct {
	Status  int
	Private any
}
