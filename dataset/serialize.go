package dataset

import (
	"encoding/binary"
	"sort"

	"github.com/pkg/errors"
)

// The dataset wire format is little-endian. Strings are serialized as a
// 32-bit length followed by the raw bytes.

// AppendUint32 appends v in wire order.
func AppendUint32(b []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(b, v)
}

// AppendUint64 appends v in wire order.
func AppendUint64(b []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(b, v)
}

// AppendString appends the length-prefixed string.
func AppendString(b []byte, s string) []byte {
	b = AppendUint32(b, uint32(len(s)))
	return append(b, s...)
}

// SerializedStringSize returns the wire size of a length-prefixed string.
func SerializedStringSize(s string) int {
	return 4 + len(s)
}

// Cursor reads wire-format fields off a buffer. The first malformed read
// makes the error sticky and turns all further reads into no-ops.
type Cursor struct {
	b   []byte
	off int
	err error
}

// NewCursor returns a cursor over b.
func NewCursor(b []byte) *Cursor {
	return &Cursor{b: b}
}

// Err returns the sticky error.
func (c *Cursor) Err() error {
	return c.err
}

func (c *Cursor) need(n int) bool {
	if c.err != nil {
		return false
	}
	if c.off+n > len(c.b) {
		c.err = errors.Errorf("buffer too short: need %d bytes at offset %d, have %d", n, c.off, len(c.b))
		return false
	}
	return true
}

// Uint32 reads the next 32-bit field.
func (c *Cursor) Uint32() uint32 {
	if !c.need(4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(c.b[c.off:])
	c.off += 4
	return v
}

// Uint64 reads the next 64-bit field.
func (c *Cursor) Uint64() uint64 {
	if !c.need(8) {
		return 0
	}
	v := binary.LittleEndian.Uint64(c.b[c.off:])
	c.off += 8
	return v
}

// String reads the next length-prefixed string.
func (c *Cursor) String() string {
	n := int(c.Uint32())
	if !c.need(n) {
		return ""
	}
	s := string(c.b[c.off : c.off+n])
	c.off += n
	return s
}

// SerializeFooter serializes the dataset footer: the name and, per cluster
// group, the page-list locator and the summaries of the clusters it owns.
// Every cluster referenced by a group must have details attached.
func (d *Descriptor) SerializeFooter() ([]byte, error) {
	b := AppendString(nil, d.Name)
	b = AppendUint32(b, uint32(len(d.clusterGroups)))
	for _, cg := range d.clusterGroups {
		b = AppendUint64(b, cg.ID)
		b = AppendUint64(b, cg.PageListLocator.Position)
		b = AppendUint32(b, cg.PageListLocator.BytesOnStorage)
		b = AppendUint32(b, cg.PageListLength)
		b = AppendUint32(b, uint32(len(cg.ClusterIDs)))
		for _, clusterID := range cg.ClusterIDs {
			cluster, err := d.Cluster(clusterID)
			if err != nil {
				return nil, err
			}
			b = AppendUint64(b, cluster.ID)
			b = AppendUint64(b, cluster.NEntries)
		}
	}
	return b, nil
}

// SerializePageList serializes the page-list blob of one cluster group: for
// every owned cluster, the page ranges of its columns.
func (d *Descriptor) SerializePageList(cgID uint64) ([]byte, error) {
	var cg *ClusterGroupDescriptor
	for i := range d.clusterGroups {
		if d.clusterGroups[i].ID == cgID {
			cg = &d.clusterGroups[i]
			break
		}
	}
	if cg == nil {
		return nil, errors.Errorf("unknown cluster group %d", cgID)
	}

	b := AppendUint32(nil, uint32(len(cg.ClusterIDs)))
	for _, clusterID := range cg.ClusterIDs {
		cluster, err := d.Cluster(clusterID)
		if err != nil {
			return nil, err
		}
		columns := cluster.Columns()
		sort.Slice(columns, func(i, j int) bool { return columns[i] < columns[j] })

		b = AppendUint64(b, cluster.ID)
		b = AppendUint32(b, uint32(len(columns)))
		for _, columnID := range columns {
			pr, _ := cluster.PageRange(columnID)
			b = AppendUint64(b, columnID)
			b = AppendUint32(b, uint32(len(pr.Pages)))
			for _, page := range pr.Pages {
				b = AppendUint32(b, page.NElements)
				b = AppendUint64(b, page.Locator.Position)
				b = AppendUint32(b, page.Locator.BytesOnStorage)
			}
		}
	}
	return b, nil
}

// Builder assembles a Descriptor from the metadata blobs read back from
// storage.
type Builder struct {
	desc             *Descriptor
	summaries        map[uint64]*ClusterDescriptor
	onDiskHeaderSize uint64
	onDiskFooterSize uint64
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		desc:      NewDescriptor(""),
		summaries: map[uint64]*ClusterDescriptor{},
	}
}

// SetOnDiskHeaderSize records the stored (compressed) header size.
func (b *Builder) SetOnDiskHeaderSize(n uint64) {
	b.onDiskHeaderSize = n
}

// AddOnDiskFooterSize accumulates the stored (compressed) footer size.
func (b *Builder) AddOnDiskFooterSize(n uint64) {
	b.onDiskFooterSize += n
}

// DeserializeHeader adopts the decompressed header blob. The blob is opaque
// to strata.
func (b *Builder) DeserializeHeader(buf []byte) error {
	b.desc.Header = make([]byte, len(buf))
	copy(b.desc.Header, buf)
	return nil
}

// DeserializeFooter parses the footer blob: cluster groups and the summaries
// of the clusters they own.
func (b *Builder) DeserializeFooter(buf []byte) error {
	c := NewCursor(buf)
	b.desc.Name = c.String()
	nGroups := c.Uint32()
	for i := uint32(0); i < nGroups && c.Err() == nil; i++ {
		cg := ClusterGroupDescriptor{
			ID: c.Uint64(),
			PageListLocator: PageLocator{
				Position:       c.Uint64(),
				BytesOnStorage: c.Uint32(),
			},
			PageListLength: c.Uint32(),
		}
		nClusters := c.Uint32()
		for j := uint32(0); j < nClusters && c.Err() == nil; j++ {
			clusterID := c.Uint64()
			nEntries := c.Uint64()
			cg.ClusterIDs = append(cg.ClusterIDs, clusterID)
			b.summaries[clusterID] = NewClusterDescriptor(clusterID, nEntries)
		}
		b.desc.AddClusterGroup(cg)
	}
	return c.Err()
}

// DeserializePageList parses the page-list blob of one cluster group and
// attaches the resulting cluster details to the descriptor.
func (b *Builder) DeserializePageList(cgID uint64, buf []byte) error {
	c := NewCursor(buf)
	nClusters := c.Uint32()
	for i := uint32(0); i < nClusters && c.Err() == nil; i++ {
		clusterID := c.Uint64()
		cluster, exists := b.summaries[clusterID]
		if !exists {
			return errors.Errorf("page list of cluster group %d references unknown cluster %d", cgID, clusterID)
		}
		nColumns := c.Uint32()
		for j := uint32(0); j < nColumns && c.Err() == nil; j++ {
			columnID := c.Uint64()
			nPages := c.Uint32()
			for k := uint32(0); k < nPages && c.Err() == nil; k++ {
				cluster.AddPage(columnID, PageInfo{
					NElements: c.Uint32(),
					Locator: PageLocator{
						Position:       c.Uint64(),
						BytesOnStorage: c.Uint32(),
					},
				})
			}
		}
		if c.Err() == nil {
			b.desc.AddClusterDetails(cluster)
		}
	}
	return c.Err()
}

// Descriptor returns the assembled descriptor.
func (b *Builder) Descriptor() *Descriptor {
	return b.desc
}
