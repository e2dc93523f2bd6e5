package sim

import "sync"

// BodyPool recycles body buffers for per-tick snapshots that do not outlive
// the observer call, such as network frames.
type BodyPool struct {
	pool sync.Pool
}

func NewBodyPool() *BodyPool {
	return &BodyPool{
		pool: sync.Pool{
			New: func() interface{} {
				b := make([]Body, 0, DefaultSpawnCount)
				return &b
			},
		},
	}
}

// Snapshot fills a pooled buffer with the bodies of w.
func (p *BodyPool) Snapshot(w *World) *[]Body {
	buf := p.pool.Get().(*[]Body)
	*buf = appendBodies((*buf)[:0], w)
	return buf
}

func (p *BodyPool) Put(buf *[]Body) {
	clear(*buf)
	*buf = (*buf)[:0]
	p.pool.Put(buf)
}

// Snapshot returns a fresh copy of the bodies of w.
func Snapshot(w *World) []Body {
	return appendBodies(make([]Body, 0, w.Len()), w)
}

func appendBodies(dst []Body, w *World) []Body {
	for _, e := range w.entities {
		dst = append(dst, Body{
			ID:       e.ID,
			Kind:     e.Shape.Kind(),
			Position: e.Transform.Position,
			Velocity: e.Motion.Velocity,
			Depth:    e.Transform.Depth,
		})
	}
	return dst
}
