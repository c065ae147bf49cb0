package mesh

import (
	"bytes"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects notifications for assertions.
type recorder struct {
	mu   sync.Mutex
	sent []Notification
}

func (r *recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recorder) kinds() []NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]NotificationKind, len(r.sent))
	for i, n := range r.sent {
		out[i] = n.Kind
	}
	return out
}

func (r *recorder) last() Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent[len(r.sent)-1]
}

func TestNewNotification(t *testing.T) {
	tests := []struct {
		kind  NotificationKind
		title string
		typ   string
		text  string
	}{
		{PointAdded, "Point added", "success", "New point has been placed on the map."},
		{NameChanged, "Name changed", "success", "Name has been changed successfully"},
		{GroupColorChanged, "Group color changed", "success", "The group color has been changed successfully"},
		{AllCleared, "Points cleared", "error", "All points have been removed from the map."},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			n := NewNotification(tt.kind, "subject-1")
			assert.Equal(t, tt.kind, n.Kind)
			assert.Equal(t, tt.title, n.Title)
			assert.Equal(t, tt.typ, n.Type)
			assert.Equal(t, tt.text, n.Text)
			assert.Equal(t, "subject-1", n.Subject)
			assert.NotZero(t, n.Timestamp)
		})
	}
}

func TestMultiNotifier(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	calls := 0
	m := MultiNotifier{a, nil, b, NotifierFunc(func(Notification) { calls++ })}

	m.Notify(NewNotification(PointAdded, "p1"))
	assert.Equal(t, []NotificationKind{PointAdded}, a.kinds())
	assert.Equal(t, []NotificationKind{PointAdded}, b.kinds())
	assert.Equal(t, 1, calls)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})

	LogNotifier{Logger: logger}.Notify(NewNotification(NameChanged, "p1"))
	assert.Contains(t, buf.String(), "level=info")
	assert.Contains(t, buf.String(), "Name changed")
	assert.Contains(t, buf.String(), "subject=p1")

	buf.Reset()
	LogNotifier{Logger: logger}.Notify(NewNotification(AllCleared, ""))
	assert.Contains(t, buf.String(), "level=warning")
	assert.Contains(t, buf.String(), "Points cleared")
}

func TestMarkerIcon(t *testing.T) {
	icon := MarkerIcon("#ff0000")

	assert.Equal(t, "#ff0000", icon.Color)
	assert.Equal(t, 13, icon.Width)
	assert.Equal(t, 13, icon.Height)
	assert.Equal(t, 6, icon.AnchorX)
	assert.Equal(t, 6, icon.AnchorY)

	require.True(t, strings.HasPrefix(icon.URL, "data:image/svg+xml,"))
	encoded := strings.TrimPrefix(icon.URL, "data:image/svg+xml,")
	assert.NotContains(t, encoded, "+", "spaces must be %20-encoded")
	assert.Contains(t, encoded, "%23ff0000")

	decoded, err := url.PathUnescape(encoded)
	require.NoError(t, err)
	assert.Equal(t, MarkerSVG("#ff0000"), decoded)
}

func TestMarkerSVG(t *testing.T) {
	svg := MarkerSVG("#123456")
	assert.Contains(t, svg, `stroke="#123456"`)
	assert.NotContains(t, svg, "{strokeColor}")
}
