package sim

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// trajectoryHash folds every tick's positions and velocities into one digest.
type trajectoryHash struct {
	d   *xxhash.Digest
	buf [20]byte
}

func newTrajectoryHash() *trajectoryHash {
	return &trajectoryHash{d: xxhash.New()}
}

func (h *trajectoryHash) add(w *World) {
	for _, e := range w.entities {
		binary.LittleEndian.PutUint32(h.buf[0:], uint32(e.ID))
		binary.LittleEndian.PutUint32(h.buf[4:], math.Float32bits(e.Transform.Position[0]))
		binary.LittleEndian.PutUint32(h.buf[8:], math.Float32bits(e.Transform.Position[1]))
		binary.LittleEndian.PutUint32(h.buf[12:], math.Float32bits(e.Motion.Velocity[0]))
		binary.LittleEndian.PutUint32(h.buf[16:], math.Float32bits(e.Motion.Velocity[1]))
		h.d.Write(h.buf[:])
	}
}

func (h *trajectoryHash) sum() uint64 { return h.d.Sum64() }

// Fingerprint hashes the current positions and velocities of w.
func Fingerprint(w *World) uint64 {
	h := newTrajectoryHash()
	h.add(w)
	return h.sum()
}
