package mesh

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func validConfigYAML() string {
	return `cluster:
  minPoints: 5
  distanceFraction: 0.5
map:
  center:
    lat: 40.7
    lng: -74.0
  ungroupedColor: dimgray
mqtt:
  broker: tcp://localhost:1883
  publishPrefix: pins
  clientId: pinmesh-test
logLevel: debug
`
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config fixture: %v", err)
	}
	return path
}

func clearMQTTEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"MQTT_BROKER", "MQTT_CLIENT_ID", "MQTT_USERNAME", "MQTT_PASSWORD", "MQTT_PUBLISH_PREFIX", "LOGLEVEL"} {
		t.Setenv(k, "")
	}
}

// ---------------------------------------------------------------------------
// LoadConfig
// ---------------------------------------------------------------------------

func TestLoadConfig_NotExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected error for missing config file, got nil")
	}
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	clearMQTTEnv(t)
	path := writeConfig(t, validConfigYAML())

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Cluster.MinPoints != 5 {
		t.Errorf("MinPoints = %d, want 5", cfg.Cluster.MinPoints)
	}
	if cfg.Cluster.DistanceFraction != 0.5 {
		t.Errorf("DistanceFraction = %g, want 0.5", cfg.Cluster.DistanceFraction)
	}
	if cfg.Cluster.EarthRadius != DefaultEarthRadius {
		t.Errorf("EarthRadius = %g, want default %g", cfg.Cluster.EarthRadius, DefaultEarthRadius)
	}
	if cfg.Map.Center != (LatLng{Lat: 40.7, Lng: -74.0}) {
		t.Errorf("Center = %+v", cfg.Map.Center)
	}
	if cfg.MQTT.Broker != "tcp://localhost:1883" {
		t.Errorf("Broker = %q, want %q", cfg.MQTT.Broker, "tcp://localhost:1883")
	}
	if cfg.MQTT.PublishPrefix != "pins" {
		t.Errorf("PublishPrefix = %q, want %q", cfg.MQTT.PublishPrefix, "pins")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadConfig_EmptyFileGetsDefaults(t *testing.T) {
	clearMQTTEnv(t)
	path := writeConfig(t, "{}\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	want := DefaultConfig()
	if cfg.Cluster != want.Cluster {
		t.Errorf("Cluster = %+v, want %+v", cfg.Cluster, want.Cluster)
	}
	if !reflect.DeepEqual(cfg.Map, want.Map) {
		t.Errorf("Map = %+v, want %+v", cfg.Map, want.Map)
	}
	if cfg.MQTT.PublishPrefix != DefaultPublishPrefix {
		t.Errorf("PublishPrefix = %q, want %q", cfg.MQTT.PublishPrefix, DefaultPublishPrefix)
	}
}

func TestLoadConfig_ExplicitZeroOpacity(t *testing.T) {
	clearMQTTEnv(t)
	path := writeConfig(t, "map:\n  fillOpacity: 0\n  strokeOpacity: 0\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Map.FillOpacity == nil || *cfg.Map.FillOpacity != 0 {
		t.Errorf("FillOpacity = %v, want explicit 0", cfg.Map.FillOpacity)
	}
	if cfg.Map.StrokeOpacity == nil || *cfg.Map.StrokeOpacity != 0 {
		t.Errorf("StrokeOpacity = %v, want explicit 0", cfg.Map.StrokeOpacity)
	}

	defaults := DefaultConfig()
	if *defaults.Map.FillOpacity != 0.06 || *defaults.Map.StrokeOpacity != 0.2 {
		t.Errorf("default opacities = %g/%g, want 0.06/0.2", *defaults.Map.FillOpacity, *defaults.Map.StrokeOpacity)
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "fraction above one",
			yaml: "cluster:\n  distanceFraction: 2\n",
		},
		{
			name: "negative radius",
			yaml: "cluster:\n  earthRadius: -1\n",
		},
		{
			name: "min points below two",
			yaml: "cluster:\n  minPoints: 1\n",
		},
		{
			name: "unknown ungrouped color",
			yaml: "map:\n  ungroupedColor: notacolor\n",
		},
		{
			name: "center out of range",
			yaml: "map:\n  center:\n    lat: 95\n    lng: 0\n",
		},
		{
			name: "fill opacity out of range",
			yaml: "map:\n  fillOpacity: 1.5\n",
		},
		{
			name: "malformed yaml",
			yaml: "cluster: [\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearMQTTEnv(t)
			path := writeConfig(t, tt.yaml)
			if _, err := LoadConfig(path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	clearMQTTEnv(t)
	t.Setenv("MQTT_BROKER", "tcp://env-broker:1883")
	t.Setenv("MQTT_PUBLISH_PREFIX", "envprefix")
	t.Setenv("LOGLEVEL", "warn")
	path := writeConfig(t, validConfigYAML())

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.MQTT.Broker != "tcp://env-broker:1883" {
		t.Errorf("Broker = %q, want env override", cfg.MQTT.Broker)
	}
	if cfg.MQTT.PublishPrefix != "envprefix" {
		t.Errorf("PublishPrefix = %q, want env override", cfg.MQTT.PublishPrefix)
	}
	if cfg.MQTT.ClientID != "pinmesh-test" {
		t.Errorf("ClientID = %q, file value should survive", cfg.MQTT.ClientID)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}

// ---------------------------------------------------------------------------
// SaveConfig
// ---------------------------------------------------------------------------

func TestSaveConfig_RoundTrip(t *testing.T) {
	clearMQTTEnv(t)
	cfg := DefaultConfig()
	cfg.Cluster.MinPoints = 12
	cfg.MQTT.Broker = "tcp://broker:1883"

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.Cluster.MinPoints != 12 {
		t.Errorf("MinPoints = %d, want 12", loaded.Cluster.MinPoints)
	}
	if loaded.MQTT.Broker != "tcp://broker:1883" {
		t.Errorf("Broker = %q", loaded.MQTT.Broker)
	}
}

// ---------------------------------------------------------------------------
// ValidateLatLng
// ---------------------------------------------------------------------------

func TestValidateLatLng(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{"origin", 0, 0, false},
		{"corners", -90, 180, false},
		{"lat too high", 90.0001, 0, true},
		{"lat too low", -91, 0, true},
		{"lng too high", 0, 181, true},
		{"lng too low", 0, -180.5, true},
		{"NaN", math.NaN(), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLatLng(tt.lat, tt.lng)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLatLng(%g, %g) error = %v, wantErr %v", tt.lat, tt.lng, err, tt.wantErr)
			}
		})
	}
}
