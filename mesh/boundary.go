package mesh

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// BoundaryFunc orders group member coordinates into a closed polygon path.
type BoundaryFunc func(vertices []orb.Point) []orb.Point

// BoundaryOrder sorts vertices by compass bearing (-180..180, 0 = north)
// from the center of their bounding box. The result is a simple polygon for
// star-shaped layouts and may self-intersect for concave ones. The input is
// not modified.
func BoundaryOrder(vertices []orb.Point) []orb.Point {
	out := make([]orb.Point, len(vertices))
	copy(out, vertices)
	if len(out) < 2 {
		return out
	}

	center := boundCenter(out)

	type bearingVertex struct {
		p       orb.Point
		bearing float64
	}
	bv := make([]bearingVertex, len(out))
	for i, p := range out {
		bv[i] = bearingVertex{p: p, bearing: geo.Bearing(center, p)}
	}
	sort.SliceStable(bv, func(i, j int) bool {
		return bv[i].bearing < bv[j].bearing
	})

	for i := range bv {
		out[i] = bv[i].p
	}
	return out
}

// boundCenter returns the center of the bounding box of points. When the
// points sit closer together across the antimeridian than across longitude
// zero, the box is taken across the antimeridian.
func boundCenter(points []orb.Point) orb.Point {
	direct := orb.MultiPoint(points).Bound()

	shifted := make(orb.MultiPoint, len(points))
	for i, p := range points {
		if p[0] < 0 {
			p[0] += 360
		}
		shifted[i] = p
	}
	wrapped := shifted.Bound()

	if wrapped.Max[0]-wrapped.Min[0] >= direct.Max[0]-direct.Min[0] {
		return direct.Center()
	}
	c := wrapped.Center()
	if c[0] > 180 {
		c[0] -= 360
	}
	return c
}

// BoundaryRing closes an ordered vertex path into an orb.Ring.
func BoundaryRing(vertices []orb.Point) orb.Ring {
	ring := make(orb.Ring, 0, len(vertices)+1)
	ring = append(ring, vertices...)
	if len(ring) > 0 && !ring[0].Equal(ring[len(ring)-1]) {
		ring = append(ring, ring[0])
	}
	return ring
}
