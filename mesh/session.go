package mesh

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SessionOptions configures a Session. Nil collaborators get defaults: a
// fresh Scene, a LogNotifier, random names and colors, and no metrics.
type SessionOptions struct {
	Config   *Config
	Surface  Surface
	Notifier Notifier
	Names    NameGenerator
	Colors   ColorSource
	Metrics  *Metrics
}

// Session is one user's point set together with its grouping and the
// collaborators that present it. Every operation runs to completion before
// the next one starts; notifications are sent after the state lock is
// released.
type Session struct {
	mu       sync.Mutex
	store    *PointStore
	engine   *ClusterEngine
	surface  Surface
	notifier Notifier
	names    NameGenerator
	metrics  *Metrics

	ungroupedColor string
	boundaries     []Boundary
}

// NewSession creates an empty session.
func NewSession(opts SessionOptions) *Session {
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if opts.Surface == nil {
		opts.Surface = NewScene()
	}
	if opts.Notifier == nil {
		opts.Notifier = LogNotifier{}
	}
	if opts.Names == nil {
		opts.Names = NewRandomNames()
	}
	ungrouped := DefaultUngroupedColor
	if c, err := ParseColor(cfg.Map.UngroupedColor); err == nil {
		ungrouped = HexColor(c)
	}

	return &Session{
		store:          NewPointStore(),
		engine:         NewClusterEngine(cfg.Cluster, opts.Colors),
		surface:        opts.Surface,
		notifier:       opts.Notifier,
		names:          opts.Names,
		metrics:        opts.Metrics,
		ungroupedColor: ungrouped,
	}
}

// Engine exposes the cluster engine, e.g. to swap the boundary function.
func (s *Session) Engine() *ClusterEngine {
	return s.engine
}

// AddPoint places a new named point and regroups. The returned point carries
// its group assignment after regrouping.
func (s *Session) AddPoint(lat, lng float64) (Point, error) {
	s.mu.Lock()
	p := s.store.Add(lat, lng, s.names.NextName())
	s.surface.PlaceMarker(p, MarkerIcon(s.ungroupedColor))
	err := s.recluster()
	if current, ok := s.store.Point(p.ID); ok {
		p = current
	}
	s.mu.Unlock()

	if err != nil {
		return p, err
	}
	s.notifier.Notify(NewNotification(PointAdded, p.ID))
	return p, nil
}

// RenamePoint gives the point a new generated name. It reports false, and
// sends nothing, when the point does not exist.
func (s *Session) RenamePoint(id string) (Point, bool) {
	s.mu.Lock()
	p, ok := s.store.Rename(id, s.names.NextName())
	s.mu.Unlock()

	if !ok {
		log.WithField("point", id).Debug("rename ignored: unknown point")
		return Point{}, false
	}
	s.notifier.Notify(NewNotification(NameChanged, id))
	return p, true
}

// RecolorGroup assigns a new random color to a group. Membership is kept;
// the group's markers are re-placed and every boundary is redrawn. It
// reports false when the group does not exist.
func (s *Session) RecolorGroup(id string) (Group, bool, error) {
	s.mu.Lock()
	g, ok := s.store.Recolor(id, s.engine.colors.NextColor())
	if !ok {
		s.mu.Unlock()
		log.WithField("group", id).Debug("recolor ignored: unknown group")
		return Group{}, false, nil
	}

	icon := MarkerIcon(g.Color)
	for _, pid := range g.Points {
		if p, found := s.store.Point(pid); found {
			s.surface.PlaceMarker(p, icon)
		}
	}

	boundaries, err := s.engine.Boundaries(s.store)
	if err != nil {
		s.mu.Unlock()
		log.WithError(err).Error("[BUG] recolor boundaries")
		return g, true, err
	}
	s.redraw(boundaries)
	s.mu.Unlock()

	s.notifier.Notify(NewNotification(GroupColorChanged, id))
	return g, true, nil
}

// ClearAll removes every point, group, marker and polygon.
func (s *Session) ClearAll() {
	s.mu.Lock()
	for _, p := range s.store.points {
		s.surface.RemoveMarker(p.ID)
	}
	for _, b := range s.boundaries {
		s.surface.ClearPolygon(b.GroupID)
	}
	s.boundaries = nil
	s.store.Clear()
	s.metrics.setCounts(0, 0)
	s.mu.Unlock()

	s.notifier.Notify(NewNotification(AllCleared, ""))
}

// Recluster recomputes the grouping of the current points and redraws.
func (s *Session) Recluster() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recluster()
}

func (s *Session) recluster() error {
	started := time.Now()
	boundaries, err := s.engine.Recluster(s.store)
	if err != nil {
		log.WithError(err).Error("[BUG] recluster boundaries")
		return err
	}

	colors := make(map[string]string, len(s.store.groups))
	for _, g := range s.store.groups {
		colors[g.ID] = g.Color
	}
	for _, p := range s.store.points {
		c, ok := colors[p.Group]
		if !ok {
			c = s.ungroupedColor
		}
		s.surface.PlaceMarker(p, MarkerIcon(c))
	}
	s.redraw(boundaries)

	outcome := "grouped"
	if s.store.Len() < s.engine.cfg.MinPoints {
		outcome = "skipped"
	}
	s.metrics.observePass(outcome, started, s.store.Len(), len(s.store.groups))
	log.WithFields(logrus.Fields{
		"points":  s.store.Len(),
		"groups":  len(s.store.groups),
		"outcome": outcome,
	}).Debug("recluster done")
	return nil
}

// redraw clears every drawn polygon and draws boundaries.
func (s *Session) redraw(boundaries []Boundary) {
	for _, b := range s.boundaries {
		s.surface.ClearPolygon(b.GroupID)
	}
	for _, b := range boundaries {
		s.surface.DrawPolygon(b.GroupID, b.Vertices, b.Color)
	}
	s.boundaries = boundaries
}

// Points returns the current points in insertion order.
func (s *Session) Points() []Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Points()
}

// Groups returns the current groups.
func (s *Session) Groups() []Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Groups()
}

// Point looks up a point by ID.
func (s *Session) Point(id string) (Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Point(id)
}

// Group looks up a group by ID.
func (s *Session) Group(id string) (Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Group(id)
}

// Boundaries returns the boundary paths currently drawn.
func (s *Session) Boundaries() []Boundary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Boundary, len(s.boundaries))
	for i, b := range s.boundaries {
		out[i] = cloneBoundary(b)
	}
	return out
}
