package mesh

import (
	"errors"
	"fmt"

	set "github.com/deckarep/golang-set"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/sirupsen/logrus"
)

// ErrInconsistentState is returned when a group references a point that is
// not in the store. It indicates a bug, not a user error.
var ErrInconsistentState = errors.New("inconsistent point/group state")

// ClusterEngine partitions the points of a PointStore into groups and derives
// the boundary path of every group.
type ClusterEngine struct {
	cfg    ClusterConfig
	colors ColorSource

	// Boundary orders group vertices; defaults to BoundaryOrder. A hull
	// algorithm can be dropped in here without touching the partition step.
	Boundary BoundaryFunc

	newID func() string
}

// NewClusterEngine creates an engine. Zero fields of cfg take their defaults.
func NewClusterEngine(cfg ClusterConfig, colors ColorSource) *ClusterEngine {
	if cfg.MinPoints == 0 {
		cfg.MinPoints = DefaultMinPoints
	}
	if cfg.DistanceFraction == 0 {
		cfg.DistanceFraction = DefaultDistanceFraction
	}
	if cfg.EarthRadius == 0 {
		cfg.EarthRadius = DefaultEarthRadius
	}
	if colors == nil {
		colors = NewRandomColors()
	}
	return &ClusterEngine{
		cfg:      cfg,
		colors:   colors,
		Boundary: BoundaryOrder,
		newID:    uuid.NewString,
	}
}

// Config returns the effective clustering constants.
func (e *ClusterEngine) Config() ClusterConfig {
	return e.cfg
}

// Distance returns the haversine distance between two points.
func (e *ClusterEngine) Distance(a, b Point) float64 {
	return HaversineRadius(a.Location(), b.Location(), e.cfg.EarthRadius)
}

// Partition computes group labels for points (one per point, same order) and
// the resulting group list. It does not modify points.
//
// Below MinPoints every label is Ungrouped. Otherwise points are visited in
// order; each still-ungrouped point seeds a group that absorbs every other
// still-ungrouped point closer than DistanceFraction times the largest
// pairwise distance. The pass is greedy and order dependent: a point joins
// the first seed that reaches it. Groups left with fewer than two members are
// dropped and their points reset to Ungrouped.
func (e *ClusterEngine) Partition(points []Point) ([]string, []Group) {
	labels := make([]string, len(points))
	for i := range labels {
		labels[i] = Ungrouped
	}
	if len(points) < e.cfg.MinPoints {
		return labels, nil
	}

	dist := NewDistanceMatrix(points, e.cfg.EarthRadius)
	allowed := dist.Max() * e.cfg.DistanceFraction

	var candidates []Group
	for i := range points {
		if labels[i] != Ungrouped {
			continue
		}
		g := Group{ID: e.newID(), Color: e.colors.NextColor()}
		members := set.NewThreadUnsafeSet()
		for j := range points {
			if j == i || labels[j] != Ungrouped || dist.At(i, j) >= allowed {
				continue
			}
			if members.Add(points[i].ID) {
				g.Points = append(g.Points, points[i].ID)
			}
			if members.Add(points[j].ID) {
				g.Points = append(g.Points, points[j].ID)
			}
			labels[i] = g.ID
			labels[j] = g.ID
		}
		candidates = append(candidates, g)
	}

	groups := make([]Group, 0, len(candidates))
	for _, g := range candidates {
		if len(g.Points) >= 2 {
			groups = append(groups, g)
			continue
		}
		for i := range labels {
			if labels[i] == g.ID {
				labels[i] = Ungrouped
			}
		}
	}

	log.WithFields(logrus.Fields{
		"points":  len(points),
		"maxDist": dist.Max(),
		"allowed": allowed,
		"groups":  len(groups),
	}).Debug("partition computed")

	return labels, groups
}

// Recluster rebuilds the partition of s from scratch and returns the boundary
// of every resulting group.
func (e *ClusterEngine) Recluster(s *PointStore) ([]Boundary, error) {
	labels, groups := e.Partition(s.points)
	s.replaceGrouping(labels, groups)
	return e.Boundaries(s)
}

// Boundaries recomputes the boundary path of every group in s without
// touching membership.
func (e *ClusterEngine) Boundaries(s *PointStore) ([]Boundary, error) {
	boundaries := make([]Boundary, 0, len(s.groups))
	for _, g := range s.groups {
		vertices := make([]orb.Point, 0, len(g.Points))
		for _, id := range g.Points {
			p, ok := s.Point(id)
			if !ok {
				return nil, fmt.Errorf("group %s member %s: %w", g.ID, id, ErrInconsistentState)
			}
			vertices = append(vertices, p.Location())
		}
		boundaries = append(boundaries, Boundary{
			GroupID:  g.ID,
			Color:    g.Color,
			Vertices: e.Boundary(vertices),
		})
	}
	return boundaries, nil
}
