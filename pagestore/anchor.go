package pagestore

import (
	"github.com/pkg/errors"

	"github.com/outofforest/strata/daos"
	"github.com/outofforest/strata/dataset"
)

// anchorFixedSize is the wire size of the five fixed 32-bit fields.
const anchorFixedSize = 20

// MaxAnchorSize is the worst-case serialized anchor size. The read path
// fetches this many bytes before deserializing.
const MaxAnchorSize = anchorFixedSize + 4 + daos.MaxClassNameLength

// Anchor is the fixed-layout record persisted at the well-known anchor key.
// A reader rediscovers the whole dataset from it: the header and footer sizes
// and the object class of payload objects. All fields are little-endian on
// the wire; its write is strictly the last write of a dataset.
type Anchor struct {
	Version         uint32
	NBytesHeader    uint32
	LenHeader       uint32
	NBytesFooter    uint32
	LenFooter       uint32
	ObjectClassName string
}

// Size returns the serialized size of the anchor.
func (a Anchor) Size() int {
	return anchorFixedSize + dataset.SerializedStringSize(a.ObjectClassName)
}

// Serialize returns the wire representation of the anchor.
func (a Anchor) Serialize() []byte {
	b := make([]byte, 0, a.Size())
	b = dataset.AppendUint32(b, a.Version)
	b = dataset.AppendUint32(b, a.NBytesHeader)
	b = dataset.AppendUint32(b, a.LenHeader)
	b = dataset.AppendUint32(b, a.NBytesFooter)
	b = dataset.AppendUint32(b, a.LenFooter)
	return dataset.AppendString(b, a.ObjectClassName)
}

// DeserializeAnchor parses an anchor from buf. Trailing bytes beyond the
// serialized anchor are ignored, so a worst-case-sized read buffer can be
// passed directly.
func DeserializeAnchor(buf []byte) (Anchor, error) {
	if len(buf) < anchorFixedSize {
		return Anchor{}, errors.Wrapf(ErrBadAnchor, "anchor too short: %d bytes", len(buf))
	}

	c := dataset.NewCursor(buf)
	a := Anchor{
		Version:      c.Uint32(),
		NBytesHeader: c.Uint32(),
		LenHeader:    c.Uint32(),
		NBytesFooter: c.Uint32(),
		LenFooter:    c.Uint32(),
	}
	a.ObjectClassName = c.String()
	if err := c.Err(); err != nil {
		return Anchor{}, errors.Wrapf(ErrBadAnchor, "%s", err)
	}
	if len(a.ObjectClassName) > daos.MaxClassNameLength {
		return Anchor{}, errors.Wrapf(ErrBadAnchor, "object class name too long: %d bytes", len(a.ObjectClassName))
	}
	return a, nil
}
