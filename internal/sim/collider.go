package sim

import (
	"github.com/san-kum/shapesim/internal/geom"
	"go.uber.org/zap"
)

type ColliderReport struct {
	Attached   int `json:"attached"`
	Missing    int `json:"missing"`
	Degenerate int `json:"degenerate"`
}

// AttachColliders derives a convex hull collider for every entity flagged
// NeedsCollider. Entities whose mesh is missing or degenerate keep the flag and
// get no collider; running it again recomputes identical polygons.
func AttachColliders(w *World, src MeshSource, log *zap.Logger) ColliderReport {
	if log == nil {
		log = zap.NewNop()
	}

	var report ColliderReport
	for _, e := range w.entities {
		if !e.NeedsCollider {
			continue
		}

		m, ok := src.Mesh(e)
		if !ok {
			report.Missing++
			log.Warn("no mesh for entity, collider skipped",
				zap.Uint32("entity", uint32(e.ID)),
				zap.Stringer("shape", e.Shape.Kind()),
			)
			continue
		}

		hull, ok := geom.ConvexHull(m.Project())
		if !ok {
			report.Degenerate++
			log.Warn("degenerate mesh, collider skipped",
				zap.Uint32("entity", uint32(e.ID)),
				zap.Stringer("shape", e.Shape.Kind()),
				zap.Int("vertices", len(m)),
			)
			continue
		}

		e.Collider = hull
		e.NeedsCollider = false
		report.Attached++
	}
	return report
}
