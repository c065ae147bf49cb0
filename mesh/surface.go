package mesh

import (
	"sort"
	"sync"

	"github.com/paulmach/orb"
)

// Surface is the rendering collaborator. The core calls it after every
// recompute; calls are side-effect only.
type Surface interface {
	PlaceMarker(p Point, icon Icon)
	RemoveMarker(id string)
	DrawPolygon(groupID string, vertices []orb.Point, color string)
	ClearPolygon(id string)
}

// Marker is a placed point together with its icon.
type Marker struct {
	Point Point `json:"point"`
	Icon  Icon  `json:"icon"`
	seq   int
}

// Polygon is a drawn group boundary.
type Polygon struct {
	GroupID  string      `json:"groupId"`
	Vertices []orb.Point `json:"vertices"`
	Color    string      `json:"color"`
	seq      int
}

// Scene is an in-memory Surface. It keeps what is currently drawn so it can
// be inspected or rendered to SVG/PNG by a VectorRenderer.
type Scene struct {
	mu       sync.RWMutex
	markers  map[string]Marker
	polygons map[string]Polygon
	seq      int
}

// NewScene returns an empty scene.
func NewScene() *Scene {
	return &Scene{
		markers:  make(map[string]Marker),
		polygons: make(map[string]Polygon),
	}
}

// PlaceMarker places or replaces the marker for p.
func (s *Scene) PlaceMarker(p Point, icon Icon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := s.seq
	if m, ok := s.markers[p.ID]; ok {
		seq = m.seq
	} else {
		s.seq++
	}
	s.markers[p.ID] = Marker{Point: p, Icon: icon, seq: seq}
}

// RemoveMarker removes a marker; unknown IDs are ignored.
func (s *Scene) RemoveMarker(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markers, id)
}

// DrawPolygon draws or replaces the polygon of a group.
func (s *Scene) DrawPolygon(groupID string, vertices []orb.Point, color string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := make([]orb.Point, len(vertices))
	copy(v, vertices)
	s.polygons[groupID] = Polygon{GroupID: groupID, Vertices: v, Color: color, seq: s.seq}
	s.seq++
}

// ClearPolygon removes a polygon; unknown IDs are ignored.
func (s *Scene) ClearPolygon(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.polygons, id)
}

// Markers returns the placed markers in placement order.
func (s *Scene) Markers() []Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Marker, 0, len(s.markers))
	for _, m := range s.markers {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Polygons returns the drawn polygons in drawing order.
func (s *Scene) Polygons() []Polygon {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Polygon, 0, len(s.polygons))
	for _, p := range s.polygons {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Marker returns the marker of a point.
func (s *Scene) Marker(id string) (Marker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.markers[id]
	return m, ok
}

// Bound returns the bounding box of every marker, and false when the scene
// has no markers.
func (s *Scene) Bound() (orb.Bound, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.markers) == 0 {
		return orb.Bound{}, false
	}
	mp := make(orb.MultiPoint, 0, len(s.markers))
	for _, m := range s.markers {
		mp = append(mp, m.Point.Location())
	}
	return mp.Bound(), true
}
