package mesh

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Feature layer names stored in the "layer" property.
const (
	LayerPoint = "point"
	LayerGroup = "group"
)

// PointFeature converts a point to a GeoJSON Point feature.
func PointFeature(p Point) *geojson.Feature {
	f := geojson.NewFeature(p.Location())
	f.ID = p.ID
	f.Properties["layer"] = LayerPoint
	f.Properties["name"] = p.Name
	f.Properties["group"] = p.Group
	return f
}

// BoundaryFeature converts a group boundary to a GeoJSON Polygon feature.
// Groups of two points have no area and are emitted as a LineString. The
// "centroid" property is a [lng, lat] label anchor.
func BoundaryFeature(b Boundary) *geojson.Feature {
	var geom orb.Geometry
	if len(b.Vertices) < 3 {
		geom = orb.LineString(b.Vertices)
	} else {
		geom = orb.Polygon{BoundaryRing(b.Vertices)}
	}
	centroid, _ := planar.CentroidArea(geom)
	f := geojson.NewFeature(geom)
	f.ID = b.GroupID
	f.Properties["layer"] = LayerGroup
	f.Properties["color"] = b.Color
	f.Properties["members"] = len(b.Vertices)
	f.Properties["centroid"] = []float64{centroid.Lon(), centroid.Lat()}
	return f
}

// ToFeatureCollection exports points followed by group boundaries.
func ToFeatureCollection(points []Point, boundaries []Boundary) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range points {
		fc.Append(PointFeature(p))
	}
	for _, b := range boundaries {
		fc.Append(BoundaryFeature(b))
	}
	return fc
}

// FeatureCollection exports the session's current state as GeoJSON.
func (s *Session) FeatureCollection() *geojson.FeatureCollection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ToFeatureCollection(s.store.Points(), s.boundaries)
}
