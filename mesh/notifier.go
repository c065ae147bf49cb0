package mesh

import (
	"time"

	"github.com/sirupsen/logrus"
)

// NotificationKind identifies one of the user-facing events.
type NotificationKind string

const (
	PointAdded        NotificationKind = "point-added"
	NameChanged       NotificationKind = "name-changed"
	GroupColorChanged NotificationKind = "group-color-changed"
	AllCleared        NotificationKind = "all-cleared"
)

// Notification is a fire-and-forget UI message.
type Notification struct {
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Type      string           `json:"type"` // "success" or "error"
	Text      string           `json:"text"`
	Subject   string           `json:"subject,omitempty"` // point or group ID the event is about
	Timestamp int64            `json:"timestamp"`
}

var notificationTemplates = map[NotificationKind]Notification{
	PointAdded: {
		Title: "Point added",
		Type:  "success",
		Text:  "New point has been placed on the map.",
	},
	NameChanged: {
		Title: "Name changed",
		Type:  "success",
		Text:  "Name has been changed successfully",
	},
	GroupColorChanged: {
		Title: "Group color changed",
		Type:  "success",
		Text:  "The group color has been changed successfully",
	},
	AllCleared: {
		Title: "Points cleared",
		Type:  "error",
		Text:  "All points have been removed from the map.",
	},
}

// NewNotification builds the notification for kind, stamped with the
// current time.
func NewNotification(kind NotificationKind, subject string) Notification {
	n := notificationTemplates[kind]
	n.Kind = kind
	n.Subject = subject
	n.Timestamp = time.Now().Unix()
	return n
}

// Notifier receives notifications. Implementations must not block the caller
// for long; delivery failures are theirs to log.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) { f(n) }

// MultiNotifier fans a notification out to several sinks in order.
type MultiNotifier []Notifier

// Notify forwards n to every non-nil sink.
func (m MultiNotifier) Notify(n Notification) {
	for _, sink := range m {
		if sink != nil {
			sink.Notify(n)
		}
	}
}

// LogNotifier writes notifications to a logrus logger.
type LogNotifier struct {
	Logger *logrus.Logger
}

// Notify logs n at info level, or warn for error-typed notifications.
func (l LogNotifier) Notify(n Notification) {
	logger := l.Logger
	if logger == nil {
		logger = log
	}
	entry := logger.WithFields(logrus.Fields{
		"kind":    n.Kind,
		"subject": n.Subject,
	})
	if n.Type == "error" {
		entry.Warnf("%s: %s", n.Title, n.Text)
		return
	}
	entry.Infof("%s: %s", n.Title, n.Text)
}
