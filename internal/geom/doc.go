// Package geom provides the shape model and the geometric helpers of the simulation.
//
// The six shape variants form a closed set:
//
//   - [Circle]: radius
//   - [Rectangle]: full width and height
//   - [Annulus]: inner and outer radius
//   - [Rhombus]: full width and height (diagonals)
//   - [RegularPolygon]: circumradius and side count
//   - [Triangle]: three vertices relative to the shape position
//
// [Extent] gives the axis-aligned bounds used for wall tests and [ConvexHull]
// turns a projected vertex buffer into a collider polygon.
//
// # Example
//
//	s := geom.Rectangle{Width: 100, Height: 75}
//	b := geom.Extent(s) // Min (-50,-37.5), Max (50,37.5)
//
//	hull, ok := geom.ConvexHull(mesh.Project())
package geom
