package mesh

import (
	"sync"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSession returns a session drawing on a fresh scene, with
// deterministic names and colors and a recording notifier.
func newTestSession(t *testing.T) (*Session, *Scene, *recorder) {
	t.Helper()
	scene := NewScene()
	rec := &recorder{}
	s := NewSession(SessionOptions{
		Surface:  scene,
		Notifier: rec,
		Names:    NewSeededNames(1),
		Colors:   &seqColors{},
	})
	return s, scene, rec
}

func addAll(t *testing.T, s *Session, coords []LatLng) []Point {
	t.Helper()
	out := make([]Point, 0, len(coords))
	for _, c := range coords {
		p, err := s.AddPoint(c.Lat, c.Lng)
		require.NoError(t, err)
		out = append(out, p)
	}
	return out
}

func TestSession_AddPoint(t *testing.T) {
	s, scene, rec := newTestSession(t)

	p, err := s.AddPoint(52.52, 13.405)
	require.NoError(t, err)
	assert.NotEmpty(t, p.Name)
	assert.Equal(t, Ungrouped, p.Group)

	m, ok := scene.Marker(p.ID)
	require.True(t, ok, "marker should be placed")
	assert.Equal(t, DefaultUngroupedColor, m.Icon.Color)

	assert.Equal(t, []NotificationKind{PointAdded}, rec.kinds())
	assert.Equal(t, p.ID, rec.last().Subject)
}

func TestSession_GroupsOnNinthPoint(t *testing.T) {
	s, scene, _ := newTestSession(t)

	points := addAll(t, s, berlinCluster(8))
	assert.Empty(t, s.Groups())
	assert.Empty(t, scene.Polygons())

	far, err := s.AddPoint(paris.Lat, paris.Lng)
	require.NoError(t, err)
	assert.Equal(t, Ungrouped, far.Group)

	groups := s.Groups()
	require.Len(t, groups, 1)
	g := groups[0]
	assert.Len(t, g.Points, 8)

	for _, p := range points {
		assert.True(t, g.Contains(p.ID))
		m, ok := scene.Marker(p.ID)
		require.True(t, ok)
		assert.Equal(t, g.Color, m.Icon.Color)
	}
	m, _ := scene.Marker(far.ID)
	assert.Equal(t, DefaultUngroupedColor, m.Icon.Color)

	polys := scene.Polygons()
	require.Len(t, polys, 1)
	assert.Equal(t, g.ID, polys[0].GroupID)
	assert.Equal(t, g.Color, polys[0].Color)
	assert.Len(t, s.Boundaries(), 1)
}

func TestSession_AddPointReturnsGroupedPoint(t *testing.T) {
	s, _, _ := newTestSession(t)
	addAll(t, s, append(berlinCluster(7), paris))

	// The ninth point pairs up with Paris.
	p, err := s.AddPoint(48.857, 2.353)
	require.NoError(t, err)
	assert.True(t, p.IsGrouped())
	stored, ok := s.Point(p.ID)
	require.True(t, ok)
	assert.Equal(t, stored.Group, p.Group)
}

func TestSession_RecolorKeepsMembershipAndBoundaries(t *testing.T) {
	s, scene, rec := newTestSession(t)
	addAll(t, s, append(berlinCluster(8), paris))

	before := s.Groups()[0]
	beforeBoundaries := s.Boundaries()

	g, ok, err := s.RecolorGroup(before.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, before.Color, g.Color)
	assert.Equal(t, before.ID, g.ID)
	assert.Equal(t, before.Points, g.Points)

	after := s.Boundaries()
	require.Len(t, after, 1)
	assert.Equal(t, beforeBoundaries[0].Vertices, after[0].Vertices)
	assert.Equal(t, g.Color, after[0].Color)

	for _, id := range g.Points {
		m, _ := scene.Marker(id)
		assert.Equal(t, g.Color, m.Icon.Color)
	}
	polys := scene.Polygons()
	require.Len(t, polys, 1)
	assert.Equal(t, g.Color, polys[0].Color)

	assert.Equal(t, GroupColorChanged, rec.last().Kind)
	assert.Equal(t, g.ID, rec.last().Subject)
}

func TestSession_RecolorUnknownGroup(t *testing.T) {
	s, _, rec := newTestSession(t)

	_, ok, err := s.RecolorGroup("nope")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, rec.kinds())
}

func TestSession_RenamePoint(t *testing.T) {
	s, _, rec := newTestSession(t)
	p, err := s.AddPoint(1, 1)
	require.NoError(t, err)

	renamed, ok := s.RenamePoint(p.ID)
	require.True(t, ok)
	assert.Equal(t, p.ID, renamed.ID)
	stored, _ := s.Point(p.ID)
	assert.Equal(t, renamed.Name, stored.Name)
	assert.Equal(t, NameChanged, rec.last().Kind)

	_, ok = s.RenamePoint("missing")
	assert.False(t, ok)
	assert.Len(t, rec.kinds(), 2, "unknown rename must not notify")
}

func TestSession_ClearAll(t *testing.T) {
	s, scene, rec := newTestSession(t)
	addAll(t, s, append(berlinCluster(8), paris))
	require.NotEmpty(t, scene.Polygons())

	s.ClearAll()
	assert.Empty(t, s.Points())
	assert.Empty(t, s.Groups())
	assert.Empty(t, s.Boundaries())
	assert.Empty(t, scene.Markers())
	assert.Empty(t, scene.Polygons())
	assert.Equal(t, AllCleared, rec.last().Kind)

	p, err := s.AddPoint(10, 10)
	require.NoError(t, err)
	assert.Len(t, s.Points(), 1)
	assert.Equal(t, Ungrouped, p.Group)
	assert.Empty(t, s.Groups())
}

func TestSession_ClearAllEmpty(t *testing.T) {
	s, _, rec := newTestSession(t)
	s.ClearAll()
	assert.Equal(t, []NotificationKind{AllCleared}, rec.kinds())
}

func TestSession_NotifiesOutsideLock(t *testing.T) {
	var s *Session
	var seen []int
	s = NewSession(SessionOptions{
		Notifier: NotifierFunc(func(n Notification) {
			// Re-entering the session would deadlock if the lock were held.
			seen = append(seen, len(s.Points()))
		}),
	})

	_, err := s.AddPoint(1, 1)
	require.NoError(t, err)
	s.ClearAll()
	assert.Equal(t, []int{1, 0}, seen)
}

func TestSession_ReclusterStable(t *testing.T) {
	s, scene, _ := newTestSession(t)
	addAll(t, s, append(berlinCluster(8), paris))
	before := s.Groups()[0].Points

	require.NoError(t, s.Recluster())
	groups := s.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, before, groups[0].Points)
	assert.Len(t, scene.Polygons(), 1, "old polygons must be cleared")
}

func TestSession_ConcurrentAdds(t *testing.T) {
	s, scene, rec := newTestSession(t)
	coords := append(berlinCluster(8), paris, LatLng{48.86, 2.36}, LatLng{48.87, 2.34})

	var wg sync.WaitGroup
	for _, c := range coords {
		wg.Add(1)
		go func(c LatLng) {
			defer wg.Done()
			_, err := s.AddPoint(c.Lat, c.Lng)
			assert.NoError(t, err)
		}(c)
	}
	wg.Wait()

	assert.Len(t, s.Points(), len(coords))
	assert.Len(t, scene.Markers(), len(coords))
	assert.Len(t, rec.kinds(), len(coords))

	s.mu.Lock()
	assertPartitionInvariants(t, s.store)
	s.mu.Unlock()
}

func TestSession_UngroupedColorFromConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Map.UngroupedColor = "tomato"
	scene := NewScene()
	s := NewSession(SessionOptions{Config: cfg, Surface: scene, Notifier: &recorder{}})

	p, err := s.AddPoint(1, 1)
	require.NoError(t, err)
	m, _ := scene.Marker(p.ID)
	assert.Equal(t, "#ff6347", m.Icon.Color)
}

func TestSession_RecolorLeavesOtherGroups(t *testing.T) {
	s, _, _ := newTestSession(t)
	addAll(t, s, append(berlinCluster(8), paris, LatLng{48.857, 2.353}))

	groups := s.Groups()
	require.Len(t, groups, 2)

	_, ok, err := s.RecolorGroup(groups[0].ID)
	require.NoError(t, err)
	require.True(t, ok)

	other, ok := s.Group(groups[1].ID)
	require.True(t, ok)
	assert.Equal(t, groups[1], other)
}

func TestSession_BoundariesAreCopies(t *testing.T) {
	s, _, _ := newTestSession(t)
	addAll(t, s, append(berlinCluster(8), paris))

	got := s.Boundaries()
	require.Len(t, got, 1)
	original := got[0].Vertices[0]
	got[0].Vertices[0] = orb.Point{0, 0}

	again := s.Boundaries()
	assert.Equal(t, original, again[0].Vertices[0])
}
