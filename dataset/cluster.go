package dataset

// ClusterKey names a cluster to load together with the columns of interest.
type ClusterKey struct {
	ClusterID uint64
	Columns   []uint64
}

// ClusterIndex addresses one page of a column: the cluster and the dense page
// number within it.
type ClusterIndex struct {
	ClusterID uint64
	PageNo    uint64
}

// OnDiskPageKey identifies a page within a loaded cluster.
type OnDiskPageKey struct {
	ColumnID uint64
	PageNo   uint64
}

// Cluster is a loaded cluster: one contiguous buffer holding all requested
// sealed pages, and the map slicing it per page.
type Cluster struct {
	id     uint64
	buffer []byte
	pages  map[OnDiskPageKey][]byte
	avail  map[uint64]struct{}
}

// NewCluster returns a cluster adopting the given backing buffer.
func NewCluster(id uint64, buffer []byte) *Cluster {
	return &Cluster{
		id:     id,
		buffer: buffer,
		pages:  map[OnDiskPageKey][]byte{},
		avail:  map[uint64]struct{}{},
	}
}

// ID returns the cluster ID.
func (c *Cluster) ID() uint64 {
	return c.id
}

// RegisterPage maps a page key to its slice of the backing buffer.
func (c *Cluster) RegisterPage(key OnDiskPageKey, b []byte) {
	c.pages[key] = b
}

// OnDiskPage returns the sealed bytes of one page.
func (c *Cluster) OnDiskPage(key OnDiskPageKey) ([]byte, bool) {
	b, exists := c.pages[key]
	return b, exists
}

// SetColumnAvailable marks a column as loaded.
func (c *Cluster) SetColumnAvailable(columnID uint64) {
	c.avail[columnID] = struct{}{}
}

// ContainsColumn returns true if the column has been loaded.
func (c *Cluster) ContainsColumn(columnID uint64) bool {
	_, exists := c.avail[columnID]
	return exists
}

// NPages returns the number of registered pages.
func (c *Cluster) NPages() int {
	return len(c.pages)
}
