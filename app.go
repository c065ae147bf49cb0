package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/kwv/pinmesh/mesh"
	"github.com/prometheus/client_golang/prometheus"
)

// App encapsulates the application state and dependencies
type App struct {
	Config     *mesh.Config
	Session    *mesh.Session
	Scene      *mesh.Scene
	Metrics    *mesh.Metrics
	Hub        *Hub
	MQTTClient *mesh.MQTTClient
	Publisher  *mesh.Publisher

	notifyMu  sync.RWMutex
	notifiers mesh.MultiNotifier

	// CLI Flags (effectively dependencies)
	ConfigFile string
	PointsFile string
	OutputFile string
	HttpPort   int
	MqttMode   bool
	HttpMode   bool
}

// AppOptions carries parsed CLI flags.
type AppOptions struct {
	ConfigFile string
	PointsFile string
	OutputFile string
	HttpPort   int
	MqttMode   bool
	HttpMode   bool
}

// NewApp creates a new App instance
func NewApp() *App {
	return &App{}
}

// ApplyOptions applies CLI options to the App instance
func (a *App) ApplyOptions(opts AppOptions) {
	a.ConfigFile = opts.ConfigFile
	a.PointsFile = opts.PointsFile
	a.OutputFile = opts.OutputFile
	a.HttpPort = opts.HttpPort
	a.MqttMode = opts.MqttMode
	a.HttpMode = opts.HttpMode
}

// LoadConfig loads the config file when it exists and falls back to
// defaults (plus environment overrides) otherwise.
func (a *App) LoadConfig() error {
	if _, err := os.Stat(a.ConfigFile); err != nil {
		log.Infof("No config file at %s, using defaults", a.ConfigFile)
		cfg := mesh.DefaultConfig()
		cfg.ApplyEnv()
		if err := cfg.Validate(); err != nil {
			return err
		}
		a.Config = cfg
	} else {
		cfg, err := mesh.LoadConfig(a.ConfigFile)
		if err != nil {
			return err
		}
		a.Config = cfg
		log.Infof("Loaded config from %s", a.ConfigFile)
	}
	mesh.SetLogLevel(a.Config.LogLevel)
	setLogLevel(a.Config.LogLevel)
	return nil
}

// Init builds the session and its collaborators. reg may be nil to use the
// default Prometheus registry.
func (a *App) Init(reg prometheus.Registerer) error {
	if a.Config == nil {
		a.Config = mesh.DefaultConfig()
	}

	metrics, err := mesh.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}
	a.Metrics = metrics
	a.Scene = mesh.NewScene()
	a.notifiers = mesh.MultiNotifier{mesh.LogNotifier{Logger: mesh.Logger()}}

	a.Session = mesh.NewSession(mesh.SessionOptions{
		Config:   a.Config,
		Surface:  a.Scene,
		Notifier: mesh.NotifierFunc(a.notify),
		Metrics:  a.Metrics,
	})
	a.Hub = NewHub(a.Session)
	a.addNotifier(a.Hub)
	return nil
}

func (a *App) notify(n mesh.Notification) {
	a.notifyMu.RLock()
	sinks := a.notifiers
	a.notifyMu.RUnlock()
	sinks.Notify(n)
}

// addNotifier registers another sink for session notifications.
func (a *App) addNotifier(n mesh.Notifier) {
	a.notifyMu.Lock()
	defer a.notifyMu.Unlock()
	a.notifiers = append(a.notifiers, n)
}

// handleCommand applies an MQTT command to the session.
func (a *App) handleCommand(command string, payload []byte) {
	if err := a.Session.Execute(command, payload); err != nil {
		log.Warnf("[MQTT] command %s failed: %v", command, err)
	}
}

// StartMQTT connects to the broker and registers the MQTT publisher as a
// notification sink.
func (a *App) StartMQTT() error {
	client, err := mesh.NewMQTTClient(a.Config.MQTT, a.handleCommand)
	if err != nil {
		return fmt.Errorf("initializing MQTT: %w", err)
	}
	if client == nil {
		return errors.New("MQTT broker not configured (set mqtt.broker or MQTT_BROKER)")
	}
	a.MQTTClient = client
	a.Publisher = mesh.NewPublisher(client.GetClient(), a.Config.MQTT.PublishPrefix, a.Session.Snapshot)
	a.addNotifier(a.Publisher)
	return nil
}

// RunRender imports the points file, groups it, and writes the map to
// OutputFile as SVG or PNG depending on its extension.
func (a *App) RunRender() error {
	if a.PointsFile == "" {
		return errors.New("-points is required for -render")
	}
	coords, err := mesh.ParsePointsFile(a.PointsFile)
	if err != nil {
		return err
	}
	if err := a.Session.Import(coords); err != nil {
		return err
	}
	fmt.Printf("Imported %d points into %d groups\n", len(a.Session.Points()), len(a.Session.Groups()))

	f, err := os.Create(a.OutputFile)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer f.Close()

	renderer := mesh.NewVectorRenderer(a.Scene, a.Config.Map)
	switch strings.ToLower(filepath.Ext(a.OutputFile)) {
	case ".png":
		err = renderer.RenderToPNG(f)
	case ".geojson", ".json":
		var data []byte
		data, err = a.Session.FeatureCollection().MarshalJSON()
		if err == nil {
			_, err = f.Write(data)
		}
	default:
		err = renderer.RenderToSVG(f)
	}
	if err != nil {
		return fmt.Errorf("rendering %s: %w", a.OutputFile, err)
	}
	fmt.Printf("Wrote %s\n", a.OutputFile)
	return nil
}

// RunService runs the MQTT and/or HTTP front ends until interrupted.
func (a *App) RunService() error {
	fmt.Println("Starting pinmesh service...")

	if a.MqttMode {
		if err := a.StartMQTT(); err != nil {
			return err
		}
	}

	var server *http.Server
	if a.HttpMode {
		server = &http.Server{
			Addr:              fmt.Sprintf("0.0.0.0:%d", a.HttpPort),
			Handler:           newHTTPServer(a.Session, a.Scene, a.Config, a.Metrics, a.Hub),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Infof("[HTTP] Starting server on %s", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("[HTTP] Server error: %v", err)
			}
		}()
	}

	fmt.Println("\nService Running")
	fmt.Println("===============")
	if a.MqttMode {
		prefix := a.Config.MQTT.PublishPrefix
		fmt.Println("\nMQTT:")
		fmt.Printf("  Commands:      %s\n", a.MQTTClient.CommandTopic())
		fmt.Printf("  Notifications: %s/notifications/{kind}\n", prefix)
		fmt.Printf("  State:         %s/groups (retained)\n", prefix)
	}
	if a.HttpMode {
		fmt.Printf("\nHTTP endpoints (port %d):\n", a.HttpPort)
		fmt.Println("  GET    /points, /groups, /boundaries, /groups.geojson")
		fmt.Println("  POST   /points, /points/{id}/rename, /groups/{id}/recolor, /recluster")
		fmt.Println("  DELETE /points")
		fmt.Println("  GET    /map.svg, /map.png, /ws, /metrics, /health")
	}
	fmt.Println("\nPress Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down service...")
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Warnf("[HTTP] shutdown: %v", err)
		}
	}
	if a.MQTTClient != nil {
		a.MQTTClient.Disconnect()
	}
	fmt.Println("Service stopped")
	return nil
}
