package sim

import (
	"sync"

	"github.com/san-kum/spheresim/internal/dynamo"
)

// SnapshotPool recycles body buffers for callers that keep a rolling
// history of snapshots.
type SnapshotPool struct {
	pool sync.Pool
}

func NewSnapshotPool() *SnapshotPool {
	return &SnapshotPool{
		pool: sync.Pool{
			New: func() interface{} {
				return make([]dynamo.Body, 0, 16)
			},
		},
	}
}

// Capture copies bodies into a pooled buffer.
func (p *SnapshotPool) Capture(tick int, bodies []dynamo.Body) dynamo.Snapshot {
	buf := p.pool.Get().([]dynamo.Body)
	buf = append(buf[:0], bodies...)
	return dynamo.Snapshot{Tick: tick, Bodies: buf}
}

// Release hands the snapshot's buffer back. The snapshot must not be used
// afterwards.
func (p *SnapshotPool) Release(s dynamo.Snapshot) {
	if s.Bodies == nil {
		return
	}
	p.pool.Put(s.Bodies[:0])
}
