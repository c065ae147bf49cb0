package mesh

import "github.com/paulmach/orb"

// Ungrouped is the sentinel group value of a point that belongs to no group.
const Ungrouped = "ungrouped"

// Point is a user-placed location. ID, Lat and Lng never change after
// creation; Name is replaced on rename and Group is owned by the ClusterEngine.
type Point struct {
	ID    string  `json:"id"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Name  string  `json:"name"`
	Group string  `json:"group"`
}

// Location returns the point as an orb.Point (lng, lat order).
func (p Point) Location() orb.Point {
	return orb.Point{p.Lng, p.Lat}
}

// IsGrouped reports whether the point currently carries a group assignment.
func (p Point) IsGrouped() bool {
	return p.Group != Ungrouped
}

// Group is a set of at least two spatially related points. Groups are rebuilt
// on every clustering pass and get a new ID each time.
type Group struct {
	ID     string   `json:"id"`
	Points []string `json:"points"`
	Color  string   `json:"color"`
}

// Contains reports whether pointID is a member of the group.
func (g Group) Contains(pointID string) bool {
	for _, id := range g.Points {
		if id == pointID {
			return true
		}
	}
	return false
}

// Boundary is the ordered vertex path of one group, ready to be drawn as a
// closed polygon.
type Boundary struct {
	GroupID  string      `json:"groupId"`
	Color    string      `json:"color"`
	Vertices []orb.Point `json:"vertices"`
}

// Icon describes a marker image handed to the rendering surface.
type Icon struct {
	Color  string `json:"color"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	// AnchorX/AnchorY is the pixel inside the image that sits on the coordinate.
	AnchorX int `json:"anchorX"`
	AnchorY int `json:"anchorY"`
}

// LatLng is a plain coordinate pair used for config and import files.
type LatLng struct {
	Lat float64 `yaml:"lat" json:"lat"`
	Lng float64 `yaml:"lng" json:"lng"`
}

// ClusterConfig holds the clustering constants.
type ClusterConfig struct {
	MinPoints        int     `yaml:"minPoints,omitempty" json:"minPoints,omitempty"`               // Below this count no grouping is attempted (default 9)
	DistanceFraction float64 `yaml:"distanceFraction,omitempty" json:"distanceFraction,omitempty"` // Fraction of the max pairwise distance used as link threshold (default 0.25)
	EarthRadius      float64 `yaml:"earthRadius,omitempty" json:"earthRadius,omitempty"`           // Haversine radius, miles (default 3958.8)
}

// MapConfig holds rendering settings.
type MapConfig struct {
	Center         LatLng  `yaml:"center" json:"center"`
	UngroupedColor string  `yaml:"ungroupedColor,omitempty" json:"ungroupedColor,omitempty"` // Hex or SVG color name for markers outside any group
	Width          float64 `yaml:"width,omitempty" json:"width,omitempty"`                   // Canvas width in mm
	Height         float64 `yaml:"height,omitempty" json:"height,omitempty"`                 // Canvas height in mm
	Padding        float64 `yaml:"padding,omitempty" json:"padding,omitempty"`               // Canvas padding in mm
	FillOpacity    *float64 `yaml:"fillOpacity,omitempty" json:"fillOpacity,omitempty"`     // Unset means 0.06; an explicit 0 is kept
	StrokeOpacity  *float64 `yaml:"strokeOpacity,omitempty" json:"strokeOpacity,omitempty"` // Unset means 0.2; an explicit 0 is kept
	Resolution     float64  `yaml:"resolution,omitempty" json:"resolution,omitempty"`       // PNG DPI
}

// MQTTConfig holds MQTT connection settings
type MQTTConfig struct {
	Broker        string `yaml:"broker,omitempty" json:"broker,omitempty"`
	PublishPrefix string `yaml:"publishPrefix,omitempty" json:"publishPrefix,omitempty"`
	ClientID      string `yaml:"clientId,omitempty" json:"clientId,omitempty"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
}

// Config represents the full configuration file
type Config struct {
	Cluster  ClusterConfig `yaml:"cluster" json:"cluster"`
	Map      MapConfig     `yaml:"map" json:"map"`
	MQTT     MQTTConfig    `yaml:"mqtt" json:"mqtt"`
	LogLevel string        `yaml:"logLevel,omitempty" json:"logLevel,omitempty"`
}
