package sim

import (
	"sync"

	"github.com/san-kum/partsim/internal/dynamo"
)

// SnapshotPool recycles particle copies handed to other goroutines.
type SnapshotPool struct {
	pool sync.Pool
}

func NewSnapshotPool() *SnapshotPool {
	return &SnapshotPool{
		pool: sync.Pool{
			New: func() interface{} {
				s := make([]dynamo.Particle, 0, 256)
				return &s
			},
		},
	}
}

// Snapshot copies src into a pooled slice.
func (p *SnapshotPool) Snapshot(src []dynamo.Particle) []dynamo.Particle {
	buf := p.pool.Get().(*[]dynamo.Particle)
	dst := append((*buf)[:0], src...)
	return dst
}

func (p *SnapshotPool) Put(s []dynamo.Particle) {
	s = s[:0]
	p.pool.Put(&s)
}
