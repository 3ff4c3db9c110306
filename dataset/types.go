package dataset

import "github.com/pkg/errors"

// PageLocator addresses one stored blob. For payload pages and page lists,
// Position is the sequence number issued at commit time; for metadata it is
// an attribute key.
type PageLocator struct {
	Position       uint64
	BytesOnStorage uint32
}

// SealedPage is a column page after compression and framing, ready to be
// written verbatim. Buffer may be nil when only Size and NElements are being
// filled in.
type SealedPage struct {
	Buffer    []byte
	Size      uint32
	NElements uint32
}

// PageInfo describes one stored page of a column.
type PageInfo struct {
	NElements uint32
	Locator   PageLocator
}

// PageRange holds the pages of one column within a cluster. Page numbers are
// dense, Pages[i] is page number i.
type PageRange struct {
	ColumnID uint64
	Pages    []PageInfo
}

// ClusterDescriptor describes one cluster: the page ranges of every column
// that stored pages in it.
type ClusterDescriptor struct {
	ID         uint64
	NEntries   uint64
	pageRanges map[uint64]*PageRange
}

// NewClusterDescriptor returns a descriptor holding no page ranges yet.
func NewClusterDescriptor(id, nEntries uint64) *ClusterDescriptor {
	return &ClusterDescriptor{
		ID:         id,
		NEntries:   nEntries,
		pageRanges: map[uint64]*PageRange{},
	}
}

// AddPage appends a page to the column's page range and returns its page
// number.
func (c *ClusterDescriptor) AddPage(columnID uint64, info PageInfo) uint64 {
	pr, exists := c.pageRanges[columnID]
	if !exists {
		pr = &PageRange{ColumnID: columnID}
		c.pageRanges[columnID] = pr
	}
	pr.Pages = append(pr.Pages, info)
	return uint64(len(pr.Pages) - 1)
}

// PageRange returns the page range of a column.
func (c *ClusterDescriptor) PageRange(columnID uint64) (*PageRange, bool) {
	pr, exists := c.pageRanges[columnID]
	return pr, exists
}

// PageInfo returns the descriptor of one page.
func (c *ClusterDescriptor) PageInfo(columnID, pageNo uint64) (PageInfo, error) {
	pr, exists := c.pageRanges[columnID]
	if !exists || pageNo >= uint64(len(pr.Pages)) {
		return PageInfo{}, errors.Errorf("no page %d for column %d in cluster %d", pageNo, columnID, c.ID)
	}
	return pr.Pages[pageNo], nil
}

// Columns returns the IDs of all columns holding pages in the cluster.
func (c *ClusterDescriptor) Columns() []uint64 {
	columns := make([]uint64, 0, len(c.pageRanges))
	for columnID := range c.pageRanges {
		columns = append(columns, columnID)
	}
	return columns
}

// ClusterGroupDescriptor describes one cluster group: the clusters it owns
// and the locator of its page-list blob.
type ClusterGroupDescriptor struct {
	ID              uint64
	PageListLocator PageLocator
	// PageListLength is the uncompressed size of the page-list blob.
	PageListLength uint32
	ClusterIDs     []uint64
}

// Descriptor is the full description of a dataset: the opaque schema header
// plus the cluster groups and clusters. The header blob belongs to the tuple
// serializer peer; strata stores and transports it without interpreting it.
type Descriptor struct {
	Name   string
	Header []byte

	clusterGroups []ClusterGroupDescriptor
	clusters      map[uint64]*ClusterDescriptor
}

// NewDescriptor returns an empty descriptor.
func NewDescriptor(name string) *Descriptor {
	return &Descriptor{
		Name:     name,
		clusters: map[uint64]*ClusterDescriptor{},
	}
}

// AddClusterGroup registers a cluster group.
func (d *Descriptor) AddClusterGroup(cg ClusterGroupDescriptor) {
	d.clusterGroups = append(d.clusterGroups, cg)
}

// ClusterGroups returns the registered cluster groups.
func (d *Descriptor) ClusterGroups() []ClusterGroupDescriptor {
	return d.clusterGroups
}

// SetClusterGroupLocator records where the page-list blob of a cluster group
// has been stored and its uncompressed size. The write path calls this after
// committing the blob, before serializing the footer.
func (d *Descriptor) SetClusterGroupLocator(cgID uint64, locator PageLocator, length uint32) error {
	for i := range d.clusterGroups {
		if d.clusterGroups[i].ID == cgID {
			d.clusterGroups[i].PageListLocator = locator
			d.clusterGroups[i].PageListLength = length
			return nil
		}
	}
	return errors.Errorf("unknown cluster group %d", cgID)
}

// AddClusterDetails attaches a fully populated cluster descriptor.
func (d *Descriptor) AddClusterDetails(c *ClusterDescriptor) {
	d.clusters[c.ID] = c
}

// Cluster returns the descriptor of one cluster.
func (d *Descriptor) Cluster(clusterID uint64) (*ClusterDescriptor, error) {
	c, exists := d.clusters[clusterID]
	if !exists {
		return nil, errors.Errorf("unknown cluster %d", clusterID)
	}
	return c, nil
}

// NClusters returns the number of clusters with attached details.
func (d *Descriptor) NClusters() int {
	return len(d.clusters)
}
