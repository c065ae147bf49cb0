package mesh

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults for the clustering constants and the map view.
const (
	DefaultMinPoints        = 9
	DefaultDistanceFraction = 0.25
	DefaultEarthRadius      = 3958.8 // miles
	DefaultUngroupedColor   = "#767676"
	DefaultPublishPrefix    = "pinmesh"
)

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Cluster.MinPoints == 0 {
		c.Cluster.MinPoints = DefaultMinPoints
	}
	if c.Cluster.DistanceFraction == 0 {
		c.Cluster.DistanceFraction = DefaultDistanceFraction
	}
	if c.Cluster.EarthRadius == 0 {
		c.Cluster.EarthRadius = DefaultEarthRadius
	}
	if c.Map.Center == (LatLng{}) {
		c.Map.Center = LatLng{Lat: 52.52, Lng: 13.405}
	}
	if c.Map.UngroupedColor == "" {
		c.Map.UngroupedColor = DefaultUngroupedColor
	}
	if c.Map.Width == 0 {
		c.Map.Width = 400
	}
	if c.Map.Height == 0 {
		c.Map.Height = 300
	}
	if c.Map.Padding == 0 {
		c.Map.Padding = 10
	}
	if c.Map.FillOpacity == nil {
		c.Map.FillOpacity = Float64(0.06)
	}
	if c.Map.StrokeOpacity == nil {
		c.Map.StrokeOpacity = Float64(0.2)
	}
	if c.Map.Resolution == 0 {
		c.Map.Resolution = 150
	}
	if c.MQTT.PublishPrefix == "" {
		c.MQTT.PublishPrefix = DefaultPublishPrefix
	}
}

// Float64 returns a pointer to v, for optional config fields.
func Float64(v float64) *float64 {
	return &v
}

// ApplyEnv overrides MQTT and logging settings from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		c.MQTT.Broker = v
	}
	if v := os.Getenv("MQTT_CLIENT_ID"); v != "" {
		c.MQTT.ClientID = v
	}
	if v := os.Getenv("MQTT_USERNAME"); v != "" {
		c.MQTT.Username = v
	}
	if v := os.Getenv("MQTT_PASSWORD"); v != "" {
		c.MQTT.Password = v
	}
	if v := os.Getenv("MQTT_PUBLISH_PREFIX"); v != "" {
		c.MQTT.PublishPrefix = v
	}
	if v := os.Getenv("LOGLEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate checks value ranges after defaults have been applied.
func (c *Config) Validate() error {
	if c.Cluster.MinPoints < 2 {
		return fmt.Errorf("cluster.minPoints must be at least 2, got %d", c.Cluster.MinPoints)
	}
	if c.Cluster.DistanceFraction <= 0 || c.Cluster.DistanceFraction > 1 {
		return fmt.Errorf("cluster.distanceFraction must be in (0, 1], got %g", c.Cluster.DistanceFraction)
	}
	if c.Cluster.EarthRadius <= 0 {
		return fmt.Errorf("cluster.earthRadius must be positive, got %g", c.Cluster.EarthRadius)
	}
	if _, err := ParseColor(c.Map.UngroupedColor); err != nil {
		return fmt.Errorf("map.ungroupedColor: %w", err)
	}
	if o := c.Map.FillOpacity; o != nil && (*o < 0 || *o > 1) {
		return fmt.Errorf("map.fillOpacity must be in [0, 1], got %g", *o)
	}
	if o := c.Map.StrokeOpacity; o != nil && (*o < 0 || *o > 1) {
		return fmt.Errorf("map.strokeOpacity must be in [0, 1], got %g", *o)
	}
	if err := ValidateLatLng(c.Map.Center.Lat, c.Map.Center.Lng); err != nil {
		return fmt.Errorf("map.center: %w", err)
	}
	return nil
}

// LoadConfig loads the configuration from a YAML file, applies defaults and
// environment overrides, and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	config.ApplyDefaults()
	config.ApplyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// ValidateLatLng checks that a coordinate pair is within WGS84 degree ranges.
func ValidateLatLng(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return fmt.Errorf("coordinate is NaN")
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %g out of range [-90, 90]", lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude %g out of range [-180, 180]", lng)
	}
	return nil
}
