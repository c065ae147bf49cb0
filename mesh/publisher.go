package mesh

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// DefaultPublishTimeout bounds how long a publish waits for the broker.
const DefaultPublishTimeout = 2 * time.Second

// ErrPublishTimeout is returned when the broker does not acknowledge a
// publish in time.
var ErrPublishTimeout = errors.New("publish timed out")

// GroupSnapshot is the retained state message published after each event.
type GroupSnapshot struct {
	Points    []Point `json:"points"`
	Groups    []Group `json:"groups"`
	Timestamp int64   `json:"timestamp"`
}

// Publisher is a Notifier that forwards notifications to MQTT.
//
// Topics:
//
//	<prefix>/notifications/<kind>  notification JSON, QoS 0, not retained
//	<prefix>/groups                GroupSnapshot JSON, retained
type Publisher struct {
	client        mqtt.Client
	publishPrefix string
	qos           byte
	timeout       time.Duration
	snapshot      func() GroupSnapshot
}

// NewPublisher creates a notification publisher. snapshot may be nil, in
// which case no state message is published.
func NewPublisher(client mqtt.Client, prefix string, snapshot func() GroupSnapshot) *Publisher {
	if prefix == "" {
		prefix = DefaultPublishPrefix
	}
	return &Publisher{
		client:        client,
		publishPrefix: prefix,
		timeout:       DefaultPublishTimeout,
		snapshot:      snapshot,
	}
}

// Notify implements Notifier. Failures are logged, never returned.
func (p *Publisher) Notify(n Notification) {
	if err := p.PublishNotification(n); err != nil {
		log.WithError(err).Warnf("publishing %s notification", n.Kind)
		return
	}
	if p.snapshot == nil {
		return
	}
	if err := p.PublishSnapshot(p.snapshot()); err != nil {
		log.WithError(err).Warn("publishing group snapshot")
	}
}

// PublishNotification publishes n on its kind topic.
func (p *Publisher) PublishNotification(n Notification) error {
	topic := fmt.Sprintf("%s/notifications/%s", p.publishPrefix, n.Kind)
	return p.publish(topic, false, n)
}

// PublishSnapshot publishes the retained group state.
func (p *Publisher) PublishSnapshot(s GroupSnapshot) error {
	if s.Timestamp == 0 {
		s.Timestamp = time.Now().Unix()
	}
	return p.publish(p.publishPrefix+"/groups", true, s)
}

func (p *Publisher) publish(topic string, retain bool, v interface{}) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling payload for %s: %w", topic, err)
	}

	token := p.client.Publish(topic, p.qos, retain, payload)
	if !token.WaitTimeout(p.timeout) {
		log.Warnf("Publish to %s not acknowledged within %s", topic, p.timeout)
		return fmt.Errorf("publishing to %s: %w", topic, ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	log.Debugf("Published %d bytes to %s", len(payload), topic)
	return nil
}

// SetQoS sets the Quality of Service level for publishing (0, 1, or 2)
func (p *Publisher) SetQoS(qos byte) {
	if qos <= 2 {
		p.qos = qos
	}
}

// SetTimeout sets how long a publish waits for acknowledgement.
func (p *Publisher) SetTimeout(d time.Duration) {
	if d > 0 {
		p.timeout = d
	}
}

// Snapshot returns the session state in the form published to MQTT.
func (s *Session) Snapshot() GroupSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return GroupSnapshot{
		Points:    s.store.Points(),
		Groups:    s.store.Groups(),
		Timestamp: time.Now().Unix(),
	}
}
