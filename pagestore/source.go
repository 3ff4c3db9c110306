package pagestore

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/outofforest/strata/codec"
	"github.com/outofforest/strata/daos"
	"github.com/outofforest/strata/dataset"
)

// Source is the read path of a dataset. Attach bootstraps from the anchor;
// afterwards pages are loaded individually or per cluster in one batched
// vector read. A source is not safe for concurrent use.
type Source struct {
	name     string
	uri      URI
	opts     Options
	log      *logrus.Logger
	comp     codec.Codec
	strategy KeyStrategy

	api       daos.API
	pool      *daos.Pool
	cont      *daos.Container
	metaClass daos.ObjectClass

	anchor  Anchor
	desc    *dataset.Descriptor
	current *dataset.Cluster
	metrics SourceMetrics
}

// NewSource connects to the pool and opens the container of the dataset
// addressed by uri read-only.
func NewSource(api daos.API, name, uri string, opts Options) (*Source, error) {
	parsed, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	comp, err := codec.ForSettings(opts.Compression)
	if err != nil {
		return nil, err
	}

	pool, err := daos.NewPool(api, parsed.PoolLabel)
	if err != nil {
		return nil, errors.Wrapf(ErrIoOpen, "connecting pool %q: %s", parsed.PoolLabel, err)
	}
	cont, err := daos.NewContainer(pool, parsed.ContainerLabel, false)
	if err != nil {
		_ = pool.Close()
		return nil, errors.Wrapf(ErrIoOpen, "opening container %q: %s", parsed.ContainerLabel, err)
	}

	return &Source{
		name:      name,
		uri:       parsed,
		opts:      opts,
		log:       opts.logger(),
		comp:      comp,
		strategy:  strategyFor(opts.Addressing),
		api:       api,
		pool:      pool,
		cont:      cont,
		metaClass: api.OClassName2ID(metadataClassName),
	}, nil
}

// Attach reads the anchor, header, footer and all page lists, and returns
// the assembled dataset descriptor.
func (s *Source) Attach() (*dataset.Descriptor, error) {
	anchorBuf := make([]byte, MaxAnchorSize)
	key := s.strategy.MetadataKey(MetadataAnchor)
	if err := s.cont.ReadSingle(anchorBuf, key.OID, key.DKey, key.AKey, s.metaClass); err != nil {
		return nil, errors.Wrapf(ErrIoRead, "reading anchor: %s", err)
	}
	anchor, err := DeserializeAnchor(anchorBuf)
	if err != nil {
		return nil, err
	}
	s.anchor = anchor

	class := s.api.OClassName2ID(anchor.ObjectClassName)
	if class.IsUnknown() {
		return nil, errors.Wrapf(ErrUnknownObjectClass, "%q", anchor.ObjectClassName)
	}
	s.cont.SetDefaultObjectClass(class)

	builder := dataset.NewBuilder()
	builder.SetOnDiskHeaderSize(uint64(anchor.NBytesHeader))

	header, err := s.readMetadata(MetadataHeader, anchor.NBytesHeader, anchor.LenHeader, ErrBadHeader)
	if err != nil {
		return nil, err
	}
	if err := builder.DeserializeHeader(header); err != nil {
		return nil, errors.Wrapf(ErrBadHeader, "%s", err)
	}

	builder.AddOnDiskFooterSize(uint64(anchor.NBytesFooter))
	footer, err := s.readMetadata(MetadataFooter, anchor.NBytesFooter, anchor.LenFooter, ErrBadFooter)
	if err != nil {
		return nil, err
	}
	if err := builder.DeserializeFooter(footer); err != nil {
		return nil, errors.Wrapf(ErrBadFooter, "%s", err)
	}

	for _, cg := range builder.Descriptor().ClusterGroups() {
		zipBuf := make([]byte, cg.PageListLocator.BytesOnStorage)
		key := s.strategy.PageListKey(cg.PageListLocator.Position)
		if err := s.cont.ReadSingle(zipBuf, key.OID, key.DKey, key.AKey, s.metaClass); err != nil {
			return nil, errors.Wrapf(ErrIoRead, "reading page list of cluster group %d: %s", cg.ID, err)
		}
		blob, err := s.comp.Decompress(zipBuf, int(cg.PageListLength))
		if err != nil {
			return nil, errors.Wrapf(ErrBadPageList, "cluster group %d: %s", cg.ID, err)
		}
		if err := builder.DeserializePageList(cg.ID, blob); err != nil {
			return nil, errors.Wrapf(ErrBadPageList, "cluster group %d: %s", cg.ID, err)
		}
	}

	s.desc = builder.Descriptor()
	s.log.WithFields(logrus.Fields{
		"dataset":  s.name,
		"clusters": s.desc.NClusters(),
		"class":    anchor.ObjectClassName,
	}).Debug("dataset attached")
	return s.desc, nil
}

func (s *Source) readMetadata(kind MetadataKind, nBytes, length uint32, badKind error) ([]byte, error) {
	zipBuf := make([]byte, nBytes)
	key := s.strategy.MetadataKey(kind)
	if err := s.cont.ReadSingle(zipBuf, key.OID, key.DKey, key.AKey, s.metaClass); err != nil {
		return nil, errors.Wrapf(ErrIoRead, "reading metadata: %s", err)
	}
	blob, err := s.comp.Decompress(zipBuf, int(length))
	if err != nil {
		return nil, errors.Wrapf(badKind, "%s", err)
	}
	return blob, nil
}

// Descriptor returns the descriptor assembled by Attach, or nil if the
// source is not attached.
func (s *Source) Descriptor() *dataset.Descriptor {
	return s.desc
}

// Anchor returns the anchor read by Attach.
func (s *Source) Anchor() Anchor {
	return s.anchor
}

// ObjectClass returns the name of the container's default object class.
func (s *Source) ObjectClass() string {
	return s.api.OClassID2Name(s.cont.DefaultObjectClass())
}

// LoadSealedPage fills sealed with the size and element count of the
// addressed page and, if sealed.Buffer is non-nil, reads the sealed bytes
// into it.
func (s *Source) LoadSealedPage(columnID uint64, idx dataset.ClusterIndex, sealed *dataset.SealedPage) error {
	if s.desc == nil {
		return errors.Wrap(ErrBadState, "source is not attached")
	}
	cluster, err := s.desc.Cluster(idx.ClusterID)
	if err != nil {
		return err
	}
	info, err := cluster.PageInfo(columnID, idx.PageNo)
	if err != nil {
		return err
	}

	sealed.Size = info.Locator.BytesOnStorage
	sealed.NElements = info.NElements
	if sealed.Buffer == nil {
		return nil
	}
	if len(sealed.Buffer) < int(info.Locator.BytesOnStorage) {
		return errors.Errorf("page buffer too small: %d bytes, page is %d", len(sealed.Buffer), info.Locator.BytesOnStorage)
	}

	key := s.strategy.PayloadKey(idx.ClusterID, columnID, info.Locator.Position)
	buf := sealed.Buffer[:info.Locator.BytesOnStorage]
	if err := s.cont.ReadSingle(buf, key.OID, key.DKey, key.AKey, s.cont.DefaultObjectClass()); err != nil {
		return errors.Wrapf(ErrIoRead, "reading page %d of column %d in cluster %d: %s",
			idx.PageNo, columnID, idx.ClusterID, err)
	}
	s.metrics.NPagesLoaded.Add(1)
	s.metrics.NReads.Add(1)
	s.metrics.SzReadPayload.Add(uint64(info.Locator.BytesOnStorage))
	return nil
}

type onDiskPage struct {
	columnID uint64
	pageNo   uint64
	position uint64
	size     uint32
	offset   uint64
}

// LoadClusters loads all pages of the requested columns of every named
// cluster. Per cluster, one contiguous buffer is allocated and all page
// reads are issued as a single vector operation; requests sharing an
// (object, dkey) pair are coalesced into one descriptor.
func (s *Source) LoadClusters(keys []dataset.ClusterKey) ([]*dataset.Cluster, error) {
	if s.desc == nil {
		return nil, errors.Wrap(ErrBadState, "source is not attached")
	}

	result := make([]*dataset.Cluster, 0, len(keys))
	for _, clusterKey := range keys {
		clusterDesc, err := s.desc.Cluster(clusterKey.ClusterID)
		if err != nil {
			return nil, err
		}

		var pages []onDiskPage
		var szPayload uint64
		for _, columnID := range clusterKey.Columns {
			pr, exists := clusterDesc.PageRange(columnID)
			if !exists {
				continue
			}
			for pageNo, info := range pr.Pages {
				pages = append(pages, onDiskPage{
					columnID: columnID,
					pageNo:   uint64(pageNo),
					position: info.Locator.Position,
					size:     info.Locator.BytesOnStorage,
					offset:   szPayload,
				})
				szPayload += uint64(info.Locator.BytesOnStorage)
			}
		}

		type requestKey struct {
			oid  daos.ObjectID
			dkey daos.DistributionKey
		}
		buffer := make([]byte, szPayload)
		cluster := dataset.NewCluster(clusterKey.ClusterID, buffer)
		requests := map[requestKey]int{}
		ops := make([]daos.RWOperation, 0, len(pages))

		for _, page := range pages {
			iov := buffer[page.offset : page.offset+uint64(page.size)]
			key := s.strategy.PayloadKey(clusterKey.ClusterID, page.columnID, page.position)
			rk := requestKey{oid: key.OID, dkey: key.DKey}
			if i, exists := requests[rk]; exists {
				ops[i].Insert(key.AKey, [][]byte{iov})
			} else {
				requests[rk] = len(ops)
				ops = append(ops, daos.NewRWOperation(key.OID, key.DKey, key.AKey, [][]byte{iov}))
			}
			cluster.RegisterPage(dataset.OnDiskPageKey{ColumnID: page.columnID, PageNo: page.pageNo}, iov)
		}

		if err := s.cont.ReadV(ops, s.cont.DefaultObjectClass()); err != nil {
			return nil, errors.Wrapf(ErrIoRead, "vector read of cluster %d: %s", clusterKey.ClusterID, err)
		}

		for _, columnID := range clusterKey.Columns {
			cluster.SetColumnAvailable(columnID)
		}
		s.metrics.NClustersLoaded.Add(1)
		s.metrics.NReadV.Add(1)
		s.metrics.NReads.Add(uint64(len(ops)))
		s.metrics.NPagesLoaded.Add(uint64(len(pages)))
		s.metrics.SzReadPayload.Add(szPayload)

		result = append(result, cluster)
	}
	return result, nil
}

// PopulatePage returns the unsealed bytes of the addressed page. With the
// cluster cache enabled the page is served from the most recently loaded
// cluster, loading it if needed; otherwise the page is read directly.
func (s *Source) PopulatePage(columnID uint64, idx dataset.ClusterIndex) ([]byte, error) {
	if s.desc == nil {
		return nil, errors.Wrap(ErrBadState, "source is not attached")
	}

	if s.opts.ClusterCache == ClusterCacheOff {
		sealed := dataset.SealedPage{}
		if err := s.LoadSealedPage(columnID, idx, &sealed); err != nil {
			return nil, err
		}
		sealed.Buffer = make([]byte, sealed.Size)
		if err := s.LoadSealedPage(columnID, idx, &sealed); err != nil {
			return nil, err
		}
		return s.UnsealPage(sealed)
	}

	if s.current == nil || s.current.ID() != idx.ClusterID || !s.current.ContainsColumn(columnID) {
		clusters, err := s.LoadClusters([]dataset.ClusterKey{{
			ClusterID: idx.ClusterID,
			Columns:   []uint64{columnID},
		}})
		if err != nil {
			return nil, err
		}
		s.current = clusters[0]
	}

	b, exists := s.current.OnDiskPage(dataset.OnDiskPageKey{ColumnID: columnID, PageNo: idx.PageNo})
	if !exists {
		return nil, errors.Errorf("no page %d for column %d in loaded cluster %d", idx.PageNo, columnID, idx.ClusterID)
	}
	return s.UnsealPage(dataset.SealedPage{Buffer: b, Size: uint32(len(b))})
}

// UnsealPage decompresses a sealed page using the length recorded in its
// frame.
func (s *Source) UnsealPage(sealed dataset.SealedPage) ([]byte, error) {
	c := dataset.NewCursor(sealed.Buffer)
	length := c.Uint32()
	if err := c.Err(); err != nil {
		return nil, errors.Errorf("sealed page frame too short: %d bytes", len(sealed.Buffer))
	}
	return s.comp.Decompress(sealed.Buffer[4:sealed.Size], int(length))
}

// Close releases the container and pool handles.
func (s *Source) Close() error {
	var err error
	if s.cont != nil {
		if closeErr := s.cont.Close(); closeErr != nil {
			err = errors.Wrapf(ErrIoClose, "closing container: %s", closeErr)
		}
		s.cont = nil
	}
	if s.pool != nil {
		if closeErr := s.pool.Close(); closeErr != nil && err == nil {
			err = errors.Wrapf(ErrIoClose, "closing pool: %s", closeErr)
		}
		s.pool = nil
	}
	return err
}

// Metrics returns the source's counters.
func (s *Source) Metrics() *SourceMetrics {
	return &s.metrics
}
