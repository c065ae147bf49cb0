package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Version is set at build time via -ldflags
var Version = "dev"

var log = logrus.New()

var (
	configFile = flag.String("config", "config.yaml", "Path to configuration file")
	renderOnly = flag.Bool("render", false, "Import -points, group them, write -output and exit")
	pointsFile = flag.String("points", "", "JSON or YAML list of {lat, lng} to import in -render mode")
	outputFile = flag.String("output", "map.svg", "Output file for -render mode (.svg, .png or .geojson)")
	mqttMode   = flag.Bool("mqtt", false, "Publish notifications and accept commands over MQTT")
	httpMode   = flag.Bool("http", false, "Serve the HTTP/websocket API")
	httpPort   = flag.Int("http-port", 8080, "HTTP server port (default 8080)")
)

func init() {
	log.Formatter = &prefixed.TextFormatter{
		DisableTimestamp: true,
		ForceFormatting:  true,
	}
	log.SetOutput(os.Stdout)
}

// setLogLevel mirrors mesh.SetLogLevel for the main package logger.
func setLogLevel(level string) {
	switch level {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
}

func main() {
	flag.Parse()
	fmt.Printf("pinmesh version: %s\n", Version)

	app := NewApp()
	app.ApplyOptions(AppOptions{
		ConfigFile: *configFile,
		PointsFile: *pointsFile,
		OutputFile: *outputFile,
		HttpPort:   *httpPort,
		MqttMode:   *mqttMode,
		HttpMode:   *httpMode,
	})

	if err := app.LoadConfig(); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := app.Init(nil); err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}

	if *renderOnly {
		if err := app.RunRender(); err != nil {
			log.Fatalf("Render failed: %v", err)
		}
		return
	}

	if *mqttMode || *httpMode {
		if err := app.RunService(); err != nil {
			log.Fatalf("Service failed: %v", err)
		}
		return
	}

	fmt.Println("Use -render -points=FILE [-output=map.svg] for a one-shot render")
	fmt.Println("Use -http to serve the HTTP/websocket API")
	fmt.Println("Use -mqtt to publish notifications and accept commands over MQTT")
	fmt.Println("Use -mqtt -http to run both together")
	fmt.Println("\nConfiguration:")
	fmt.Println("  config.yaml - clustering constants, map view, MQTT settings")
}
