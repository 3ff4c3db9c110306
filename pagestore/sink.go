package pagestore

import (
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/outofforest/strata/codec"
	"github.com/outofforest/strata/daos"
	"github.com/outofforest/strata/dataset"
)

// metadataClassName is the fixed storage class of metadata records,
// independent of the payload class recorded in the anchor.
const metadataClassName = "SX"

type sinkState int

const (
	stateFresh sinkState = iota
	stateCreated
	stateWriting
	stateClosed
)

// Page is an uncompressed column page handed to the sink.
type Page struct {
	Buffer    []byte
	NElements uint32
}

// Sink is the write path of a dataset. Create stamps the header, CommitPage
// and CommitSealedPage write payload pages, CommitClusterGroup writes the
// page-list blob of a cluster group and CommitDataset stamps the footer and,
// last of all, the anchor. Page commits may run concurrently; Create,
// CommitCluster, CommitClusterGroup and CommitDataset must be serialized by
// the caller.
type Sink struct {
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

	anchor       Anchor
	state        sinkState
	position     atomic.Uint64
	nClusters    atomic.Uint64
	clusterBytes atomic.Uint64
	metrics      SinkMetrics
}

// NewSink prepares a sink for the dataset addressed by uri. No store
// operation happens until Create.
func NewSink(api daos.API, name, uri string, opts Options) (*Sink, error) {
	parsed, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	comp, err := codec.ForSettings(opts.Compression)
	if err != nil {
		return nil, err
	}

	log := opts.logger()
	log.Warn("The object-store backend is experimental and still under development. Do not store real data with it yet.")

	return &Sink{
		name:     name,
		uri:      parsed,
		opts:     opts,
		log:      log,
		comp:     comp,
		strategy: strategyFor(opts.Addressing),
		api:      api,
	}, nil
}

// Create connects to the pool, creates and opens the container, and writes
// the compressed dataset header.
func (s *Sink) Create(serializedHeader []byte) error {
	if s.state != stateFresh {
		return errors.Wrap(ErrBadState, "dataset has already been created")
	}

	class := s.api.OClassName2ID(s.opts.ObjectClass)
	if class.IsUnknown() {
		return errors.Wrapf(ErrUnknownObjectClass, "%q", s.opts.ObjectClass)
	}
	s.metaClass = s.api.OClassName2ID(metadataClassName)

	pool, err := daos.NewPool(s.api, s.uri.PoolLabel)
	if err != nil {
		return errors.Wrapf(ErrIoOpen, "connecting pool %q: %s", s.uri.PoolLabel, err)
	}
	cont, err := daos.NewContainer(pool, s.uri.ContainerLabel, true)
	if err != nil {
		_ = pool.Close()
		return errors.Wrapf(ErrIoOpen, "opening container %q: %s", s.uri.ContainerLabel, err)
	}
	cont.SetDefaultObjectClass(class)
	s.pool = pool
	s.cont = cont
	s.anchor.ObjectClassName = s.opts.ObjectClass

	compressed, err := s.comp.Compress(serializedHeader)
	if err != nil {
		return err
	}
	if err := s.writeHeader(compressed, uint32(len(serializedHeader))); err != nil {
		return err
	}

	s.state = stateCreated
	return nil
}

// SealPage compresses and frames a page so it can be written verbatim. The
// frame carries the uncompressed length so the page can be unsealed without
// consulting the descriptor.
func (s *Sink) SealPage(page Page) (dataset.SealedPage, error) {
	compressed, err := s.comp.Compress(page.Buffer)
	if err != nil {
		return dataset.SealedPage{}, err
	}
	framed := dataset.AppendUint32(make([]byte, 0, 4+len(compressed)), uint32(len(page.Buffer)))
	framed = append(framed, compressed...)
	return dataset.SealedPage{
		Buffer:    framed,
		Size:      uint32(len(framed)),
		NElements: page.NElements,
	}, nil
}

// CommitPage seals the page and writes it for the given column in the
// current cluster.
func (s *Sink) CommitPage(columnID uint64, page Page) (dataset.PageLocator, error) {
	sealed, err := s.SealPage(page)
	if err != nil {
		return dataset.PageLocator{}, err
	}
	return s.CommitSealedPage(columnID, sealed)
}

// CommitSealedPage writes an already sealed page for the given column in the
// current cluster and returns its locator.
func (s *Sink) CommitSealedPage(columnID uint64, sealed dataset.SealedPage) (dataset.PageLocator, error) {
	if s.state != stateCreated && s.state != stateWriting {
		return dataset.PageLocator{}, errors.Wrap(ErrBadState, "committing page before create or after close")
	}
	s.state = stateWriting

	position := s.position.Add(1) - 1
	key := s.strategy.PayloadKey(s.nClusters.Load(), columnID, position)
	if err := s.cont.WriteSingle(sealed.Buffer, key.OID, key.DKey, key.AKey, s.cont.DefaultObjectClass()); err != nil {
		return dataset.PageLocator{}, errors.Wrapf(ErrIoWrite, "writing page at position %d: %s", position, err)
	}

	s.clusterBytes.Add(uint64(sealed.Size))
	s.metrics.NPagesCommitted.Add(1)
	s.metrics.SzWritePayload.Add(uint64(sealed.Size))

	return dataset.PageLocator{
		Position:       position,
		BytesOnStorage: sealed.Size,
	}, nil
}

// CommitCluster closes the current cluster and returns the number of payload
// bytes written into it. No I/O happens here; the page-list blob is written
// per cluster group.
func (s *Sink) CommitCluster(_ uint64) (uint64, error) {
	if s.state != stateCreated && s.state != stateWriting {
		return 0, errors.Wrap(ErrBadState, "committing cluster before create or after close")
	}
	s.state = stateWriting
	s.nClusters.Add(1)
	s.metrics.NClusters.Add(1)
	return s.clusterBytes.Swap(0), nil
}

// CommitClusterGroup compresses and writes the serialized page list of a
// cluster group and returns its locator.
func (s *Sink) CommitClusterGroup(serializedPageList []byte) (dataset.PageLocator, error) {
	if s.state != stateCreated && s.state != stateWriting {
		return dataset.PageLocator{}, errors.Wrap(ErrBadState, "committing cluster group before create or after close")
	}
	s.state = stateWriting

	compressed, err := s.comp.Compress(serializedPageList)
	if err != nil {
		return dataset.PageLocator{}, err
	}
	position := s.position.Add(1) - 1
	key := s.strategy.PageListKey(position)
	if err := s.cont.WriteSingle(compressed, key.OID, key.DKey, key.AKey, s.metaClass); err != nil {
		return dataset.PageLocator{}, errors.Wrapf(ErrIoWrite, "writing page list at position %d: %s", position, err)
	}

	s.metrics.SzWritePayload.Add(uint64(len(compressed)))
	return dataset.PageLocator{
		Position:       position,
		BytesOnStorage: uint32(len(compressed)),
	}, nil
}

// CommitDataset compresses and writes the serialized footer, then stamps the
// anchor. The anchor write is strictly the last write; a reader observing a
// valid anchor may assume the whole dataset is durable.
func (s *Sink) CommitDataset(serializedFooter []byte) error {
	if s.state != stateCreated && s.state != stateWriting {
		return errors.Wrap(ErrBadState, "committing dataset before create or after close")
	}

	compressed, err := s.comp.Compress(serializedFooter)
	if err != nil {
		return err
	}
	if err := s.writeFooter(compressed, uint32(len(serializedFooter))); err != nil {
		return err
	}
	if err := s.writeAnchor(); err != nil {
		return err
	}

	s.state = stateClosed
	s.log.WithFields(logrus.Fields{
		"dataset":  s.name,
		"pages":    s.metrics.NPagesCommitted.Load(),
		"clusters": s.metrics.NClusters.Load(),
		"bytes":    s.metrics.SzWritePayload.Load(),
	}).Info("dataset committed")
	return nil
}

// Close releases the container and pool handles. It does not commit the
// dataset; a sink closed before CommitDataset leaves no readable dataset
// behind.
func (s *Sink) Close() error {
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

// Metrics returns the sink's counters.
func (s *Sink) Metrics() *SinkMetrics {
	return &s.metrics
}

func (s *Sink) writeHeader(data []byte, lenHeader uint32) error {
	key := s.strategy.MetadataKey(MetadataHeader)
	if err := s.cont.WriteSingle(data, key.OID, key.DKey, key.AKey, s.metaClass); err != nil {
		return errors.Wrapf(ErrIoWrite, "writing header: %s", err)
	}
	s.anchor.NBytesHeader = uint32(len(data))
	s.anchor.LenHeader = lenHeader
	return nil
}

func (s *Sink) writeFooter(data []byte, lenFooter uint32) error {
	key := s.strategy.MetadataKey(MetadataFooter)
	if err := s.cont.WriteSingle(data, key.OID, key.DKey, key.AKey, s.metaClass); err != nil {
		return errors.Wrapf(ErrIoWrite, "writing footer: %s", err)
	}
	s.anchor.NBytesFooter = uint32(len(data))
	s.anchor.LenFooter = lenFooter
	return nil
}

func (s *Sink) writeAnchor() error {
	key := s.strategy.MetadataKey(MetadataAnchor)
	if err := s.cont.WriteSingle(s.anchor.Serialize(), key.OID, key.DKey, key.AKey, s.metaClass); err != nil {
		return errors.Wrapf(ErrIoWrite, "writing anchor: %s", err)
	}
	return nil
}
