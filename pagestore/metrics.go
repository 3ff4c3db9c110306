package pagestore

import "sync/atomic"

// SinkMetrics counts write-path activity. All counters are safe for
// concurrent use.
type SinkMetrics struct {
	NPagesCommitted atomic.Uint64
	NClusters       atomic.Uint64
	SzWritePayload  atomic.Uint64
}

// SourceMetrics counts read-path activity.
type SourceMetrics struct {
	NPagesLoaded    atomic.Uint64
	NClustersLoaded atomic.Uint64
	NReads          atomic.Uint64
	NReadV          atomic.Uint64
	SzReadPayload   atomic.Uint64
}
