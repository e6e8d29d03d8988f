package backdrop

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed assets/coastline.json
var coastlineJSON []byte

// LatLng is a geographic coordinate in degrees.
type LatLng struct {
	Lat, Lng float64
}

// UnmarshalJSON accepts the compact [lat, lng] pair form.
func (p *LatLng) UnmarshalJSON(b []byte) error {
	var pair [2]float64
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	p.Lat, p.Lng = pair[0], pair[1]
	return nil
}

// Coastline returns the built-in simplified world coastline, ordered so that
// consecutive entries of the same coastline are adjacent.
func Coastline() ([]LatLng, error) {
	return ParseCoastline(coastlineJSON)
}

// ParseCoastline decodes a JSON array of [lat, lng] pairs.
func ParseCoastline(data []byte) ([]LatLng, error) {
	var pts []LatLng
	if err := json.Unmarshal(data, &pts); err != nil {
		return nil, fmt.Errorf("parse coastline: %w", err)
	}
	for i, p := range pts {
		if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
			return nil, fmt.Errorf("parse coastline: point %d out of range: %v", i, p)
		}
	}
	return pts, nil
}
