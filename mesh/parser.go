package mesh

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// importFile is the on-disk shape of a point import: either a bare list of
// coordinates or an object with a "points" key. JSON is valid YAML, so both
// formats are accepted.
type importFile struct {
	Points []LatLng `yaml:"points"`
}

// ParsePointsFile reads coordinates for a one-shot import.
func ParsePointsFile(path string) ([]LatLng, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return ParsePoints(data)
}

// ParsePoints decodes a JSON or YAML list of {lat, lng} coordinates and
// validates every entry.
func ParsePoints(data []byte) ([]LatLng, error) {
	var list []LatLng
	if err := yaml.Unmarshal(data, &list); err != nil {
		var wrapped importFile
		if err2 := yaml.Unmarshal(data, &wrapped); err2 != nil {
			return nil, fmt.Errorf("parsing points: %w", err)
		}
		list = wrapped.Points
	}

	for i, ll := range list {
		if err := ValidateLatLng(ll.Lat, ll.Lng); err != nil {
			return nil, fmt.Errorf("point[%d]: %w", i, err)
		}
	}
	return list, nil
}

// Import adds every coordinate in order. Each insertion regroups, exactly as
// if the points had been placed one by one.
func (s *Session) Import(coords []LatLng) error {
	for i, ll := range coords {
		if _, err := s.AddPoint(ll.Lat, ll.Lng); err != nil {
			return fmt.Errorf("importing point[%d]: %w", i, err)
		}
	}
	return nil
}
