package mesh

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Haversine returns the great-circle distance in miles between two
// lng/lat points, using an earth radius of 3958.8 miles.
func Haversine(a, b orb.Point) float64 {
	return HaversineRadius(a, b, DefaultEarthRadius)
}

// HaversineRadius is Haversine on a sphere of the given radius. The result
// is in the radius' unit.
func HaversineRadius(a, b orb.Point, radius float64) float64 {
	// geo.DistanceHaversine is linear in the sphere radius.
	return geo.DistanceHaversine(a, b) / orb.EarthRadius * radius
}

// DistanceMatrix is an immutable snapshot of pairwise distances between
// points, indexed by their position in the snapshot.
type DistanceMatrix struct {
	n   int
	d   []float64
	max float64
}

// NewDistanceMatrix computes every pairwise distance once. Only the upper
// triangle is evaluated; the lower one is mirrored.
func NewDistanceMatrix(points []Point, radius float64) *DistanceMatrix {
	n := len(points)
	m := &DistanceMatrix{n: n, d: make([]float64, n*n)}
	for i := 0; i < n; i++ {
		a := points[i].Location()
		for j := i + 1; j < n; j++ {
			dist := HaversineRadius(a, points[j].Location(), radius)
			m.d[i*n+j] = dist
			m.d[j*n+i] = dist
			if dist > m.max {
				m.max = dist
			}
		}
	}
	return m
}

// At returns the distance between the i-th and j-th point.
func (m *DistanceMatrix) At(i, j int) float64 {
	return m.d[i*m.n+j]
}

// Max returns the largest pairwise distance, 0 for fewer than two points.
func (m *DistanceMatrix) Max() float64 {
	return m.max
}

// Len returns the number of points in the snapshot.
func (m *DistanceMatrix) Len() int {
	return m.n
}
