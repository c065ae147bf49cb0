package mesh

import (
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// CommandHandler is called for every message on a command topic
// "<prefix>/cmd/<command>". command is the last topic segment.
type CommandHandler func(command string, payload []byte)

// MQTTClient manages the broker connection used for notifications and the
// inbound command topics.
type MQTTClient struct {
	client         mqtt.Client
	config         MQTTConfig
	commandHandler CommandHandler
	isConnected    bool
	mu             sync.RWMutex
}

// NewMQTTClient builds a client from cfg and starts connecting in the
// background. It returns nil, nil when no broker is configured.
func NewMQTTClient(cfg MQTTConfig, handler CommandHandler) (*MQTTClient, error) {
	if cfg.Broker == "" {
		log.Info("MQTT disabled: no broker configured")
		return nil, nil
	}
	if cfg.PublishPrefix == "" {
		return nil, fmt.Errorf("mqtt.publishPrefix is required when a broker is set")
	}

	c := &MQTTClient{
		config:         cfg,
		commandHandler: handler,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "pinmesh"
	}
	opts.SetClientID(clientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(false)
	// Commands mutate one session and must apply in arrival order.
	opts.SetOrderMatters(true)

	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)
	opts.SetReconnectingHandler(c.onReconnecting)

	c.client = mqtt.NewClient(opts)

	go c.connectWithRetry()

	return c, nil
}

// newMQTTClientWithMock wraps an existing mqtt.Client, for tests.
func newMQTTClientWithMock(client mqtt.Client, cfg MQTTConfig, handler CommandHandler) *MQTTClient {
	return &MQTTClient{
		client:         client,
		config:         cfg,
		commandHandler: handler,
	}
}

// connectWithRetry attempts to connect to the broker with exponential backoff
func (c *MQTTClient) connectWithRetry() {
	retryDelay := 1 * time.Second
	maxRetryDelay := 60 * time.Second

	for {
		log.Info("Connecting to MQTT broker...")

		token := c.client.Connect()
		if token.WaitTimeout(10 * time.Second) {
			if token.Error() == nil {
				log.Info("Successfully connected to MQTT broker")
				c.setConnected(true)
				return
			}
			log.Warnf("MQTT connection failed: %v", token.Error())
		} else {
			log.Warn("MQTT connection timeout")
		}

		log.Infof("Retrying MQTT connection in %v...", retryDelay)
		time.Sleep(retryDelay)
		retryDelay *= 2
		if retryDelay > maxRetryDelay {
			retryDelay = maxRetryDelay
		}
	}
}

// CommandTopic returns the wildcard topic the client subscribes to.
func (c *MQTTClient) CommandTopic() string {
	return c.config.PublishPrefix + "/cmd/+"
}

// onConnect subscribes to the command topics.
func (c *MQTTClient) onConnect(client mqtt.Client) {
	c.setConnected(true)
	if c.commandHandler == nil {
		return
	}

	topic := c.CommandTopic()
	log.Infof("MQTT connected, subscribing to %s", topic)
	token := client.Subscribe(topic, 1, c.handleCommand)
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		log.Errorf("Error subscribing to %s: %v", topic, token.Error())
	}
}

func (c *MQTTClient) handleCommand(_ mqtt.Client, msg mqtt.Message) {
	command, ok := commandFromTopic(c.config.PublishPrefix, msg.Topic())
	if !ok {
		log.Warnf("Ignoring message on unexpected topic %s", msg.Topic())
		return
	}
	log.Debugf("Received command %s (%d bytes)", command, len(msg.Payload()))
	c.commandHandler(command, msg.Payload())
}

// commandFromTopic extracts <command> from "<prefix>/cmd/<command>".
func commandFromTopic(prefix, topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, prefix+"/cmd/")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}

// onConnectionLost is called when the MQTT connection is lost
// Auto-reconnect is enabled, so this is typically a transient event
func (c *MQTTClient) onConnectionLost(client mqtt.Client, err error) {
	log.Warnf("MQTT connection interrupted (%v), auto-reconnect will retry", err)
	c.setConnected(false)
}

func (c *MQTTClient) onReconnecting(client mqtt.Client, opts *mqtt.ClientOptions) {
	log.Info("MQTT reconnecting...")
}

// IsConnected returns true if the MQTT client is connected
func (c *MQTTClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

func (c *MQTTClient) setConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isConnected = connected
}

// Disconnect gracefully closes the MQTT connection
func (c *MQTTClient) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		log.Info("Disconnecting from MQTT broker...")
		c.client.Disconnect(250)
		c.setConnected(false)
	}
}

// GetClient returns the underlying MQTT client for publishing
func (c *MQTTClient) GetClient() mqtt.Client {
	return c.client
}
