package mesh

import (
	"github.com/google/uuid"
	"github.com/paulmach/orb"
)

// PointStore owns the ordered point sequence and the current group list.
// It is not safe for concurrent use; Session serializes access.
type PointStore struct {
	points []Point
	index  map[string]int // point ID -> position in points
	groups []Group
}

// NewPointStore returns an empty store.
func NewPointStore() *PointStore {
	return &PointStore{index: make(map[string]int)}
}

// Add appends a new ungrouped point with a fresh identifier.
func (s *PointStore) Add(lat, lng float64, name string) Point {
	p := Point{
		ID:    uuid.NewString(),
		Lat:   lat,
		Lng:   lng,
		Name:  name,
		Group: Ungrouped,
	}
	s.index[p.ID] = len(s.points)
	s.points = append(s.points, p)
	return p
}

// Rename replaces the name of the point with the given ID. It returns false
// and leaves the store untouched when the ID is unknown.
func (s *PointStore) Rename(id, name string) (Point, bool) {
	i, ok := s.index[id]
	if !ok {
		return Point{}, false
	}
	s.points[i].Name = name
	return s.points[i], true
}

// Recolor replaces the color of the group with the given ID. Membership is
// not touched. It returns false when the group does not exist.
func (s *PointStore) Recolor(id, color string) (Group, bool) {
	for i := range s.groups {
		if s.groups[i].ID == id {
			s.groups[i].Color = color
			return cloneGroup(s.groups[i]), true
		}
	}
	return Group{}, false
}

// Clear empties points and groups together.
func (s *PointStore) Clear() {
	s.points = nil
	s.groups = nil
	s.index = make(map[string]int)
}

// Point looks up a point by ID.
func (s *PointStore) Point(id string) (Point, bool) {
	i, ok := s.index[id]
	if !ok {
		return Point{}, false
	}
	return s.points[i], true
}

// Group looks up a group by ID.
func (s *PointStore) Group(id string) (Group, bool) {
	for _, g := range s.groups {
		if g.ID == id {
			return cloneGroup(g), true
		}
	}
	return Group{}, false
}

// Points returns a copy of the point sequence in insertion order.
func (s *PointStore) Points() []Point {
	out := make([]Point, len(s.points))
	copy(out, s.points)
	return out
}

// Groups returns a copy of the current group list.
func (s *PointStore) Groups() []Group {
	out := make([]Group, len(s.groups))
	for i, g := range s.groups {
		out[i] = cloneGroup(g)
	}
	return out
}

// Len returns the number of points.
func (s *PointStore) Len() int {
	return len(s.points)
}

// replaceGrouping installs a new partition. labels holds one group value per
// point, in stored order.
func (s *PointStore) replaceGrouping(labels []string, groups []Group) {
	for i := range s.points {
		s.points[i].Group = labels[i]
	}
	s.groups = groups
}

func cloneBoundary(b Boundary) Boundary {
	vertices := make([]orb.Point, len(b.Vertices))
	copy(vertices, b.Vertices)
	b.Vertices = vertices
	return b
}

func cloneGroup(g Group) Group {
	members := make([]string, len(g.Points))
	copy(members, g.Points)
	g.Points = members
	return g
}
