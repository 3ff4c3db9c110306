package pagestore

import (
	"github.com/outofforest/strata/daos"
)

// StorageKey is the physical address of one stored blob.
type StorageKey struct {
	OID  daos.ObjectID
	DKey daos.DistributionKey
	AKey daos.AttributeKey
}

// MetadataKind names the fixed metadata records of a dataset.
type MetadataKind int

// Metadata kinds.
const (
	MetadataAnchor MetadataKind = iota
	MetadataHeader
	MetadataFooter
)

// KeyStrategy maps logical page identities to physical storage keys. The
// mapping is pure; the same inputs always yield the same key.
type KeyStrategy interface {
	PayloadKey(clusterID, columnID, position uint64) StorageKey
	MetadataKey(kind MetadataKind) StorageKey
	PageListKey(position uint64) StorageKey
}

func strategyFor(mode AddressingMode) KeyStrategy {
	if mode == AddressPerObjectUnique {
		return PerObjectUnique{}
	}
	return PerClusterPerColumn{}
}

// PerClusterPerColumn stores all pages of a cluster in a single object. The
// column is the distribution key and the issued position is the attribute
// key, so one vector read per cluster covers many pages per (object, dkey)
// pair.
type PerClusterPerColumn struct{}

// PayloadKey implements KeyStrategy.
func (PerClusterPerColumn) PayloadKey(clusterID, columnID, position uint64) StorageKey {
	return StorageKey{
		OID:  daos.ObjectID{Hi: clusterID},
		DKey: daos.DistributionKey(columnID),
		AKey: daos.AttributeKey(position),
	}
}

// MetadataKey implements KeyStrategy.
func (PerClusterPerColumn) MetadataKey(kind MetadataKind) StorageKey {
	key := StorageKey{
		OID:  daos.OIDMetadata,
		DKey: daos.DKeyMeta,
	}
	switch kind {
	case MetadataAnchor:
		key.AKey = daos.AKeyAnchor
	case MetadataHeader:
		key.AKey = daos.AKeyHeader
	case MetadataFooter:
		key.AKey = daos.AKeyFooter
	}
	return key
}

// PageListKey implements KeyStrategy.
func (PerClusterPerColumn) PageListKey(position uint64) StorageKey {
	return StorageKey{
		OID:  daos.OIDPageList,
		DKey: daos.DKeyMeta,
		AKey: daos.AttributeKey(position),
	}
}

// PerObjectUnique stores every blob in its own object under fixed keys.
// Positions are issued from a single sequence, so payload pages and page
// lists never collide.
type PerObjectUnique struct{}

// PayloadKey implements KeyStrategy.
func (PerObjectUnique) PayloadKey(_, _, position uint64) StorageKey {
	return StorageKey{
		OID:  daos.ObjectID{Hi: position},
		DKey: daos.DKeyLegacy,
		AKey: daos.AKeyLegacy,
	}
}

// MetadataKey implements KeyStrategy.
func (PerObjectUnique) MetadataKey(kind MetadataKind) StorageKey {
	key := StorageKey{
		DKey: daos.DKeyLegacy,
		AKey: daos.AKeyLegacy,
	}
	switch kind {
	case MetadataAnchor:
		key.OID = daos.OIDLegacyAnchor
	case MetadataHeader:
		key.OID = daos.OIDLegacyHeader
	case MetadataFooter:
		key.OID = daos.OIDLegacyFooter
	}
	return key
}

// PageListKey implements KeyStrategy.
func (PerObjectUnique) PageListKey(position uint64) StorageKey {
	return StorageKey{
		OID:  daos.ObjectID{Hi: position},
		DKey: daos.DKeyLegacy,
		AKey: daos.AKeyLegacy,
	}
}
