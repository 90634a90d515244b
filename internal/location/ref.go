// Package location implements the map-based location picker used by the
// listing forms.
package location

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// refBase is the link format stored verbatim as a listing's location.
const refBase = "https://maps.google.com/"

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Fallback is where the marker starts when nothing else is known.
var Fallback = Point{Lat: 10.817585900291174, Lng: 78.68545440761824}

// Valid reports whether p is a finite coordinate inside WGS84 bounds.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Ref renders p as a location reference, e.g. https://maps.google.com/?q=1.5,2.25.
func (p Point) Ref() string {
	return fmt.Sprintf("%s?q=%s,%s", refBase, formatCoord(p.Lat), formatCoord(p.Lng))
}

// FallbackRef is the reference of the fallback coordinate.
func FallbackRef() string {
	return Fallback.Ref()
}

// ParseRef extracts the coordinate from a location reference. Any link with a
// "q=<lat>,<lng>" query is accepted.
func ParseRef(ref string) (Point, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return Point{}, fmt.Errorf("location: parse ref: %w", err)
	}
	q := u.Query().Get("q")
	if q == "" {
		return Point{}, fmt.Errorf("location: ref %q has no coordinates", ref)
	}
	lat, lng, ok := strings.Cut(q, ",")
	if !ok {
		return Point{}, fmt.Errorf("location: ref %q has no coordinates", ref)
	}
	p := Point{}
	if p.Lat, err = strconv.ParseFloat(strings.TrimSpace(lat), 64); err != nil {
		return Point{}, fmt.Errorf("location: latitude: %w", err)
	}
	if p.Lng, err = strconv.ParseFloat(strings.TrimSpace(lng), 64); err != nil {
		return Point{}, fmt.Errorf("location: longitude: %w", err)
	}
	if !p.Valid() {
		return Point{}, fmt.Errorf("location: ref %q out of range", ref)
	}
	return p, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
