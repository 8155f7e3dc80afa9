package h3index

import (
	"fmt"
	"strconv"
	"strings"

	h3 "github.com/uber/h3-go/v4"
)

// Parse reads an index from text. Accepted forms are the canonical hex
// string, the decimal integer and, for cells only, "lng,lat,res" (";" also
// separates).
func Parse[V Index](s string) (V, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrUnparsable)
	}
	if raw, err := strconv.ParseUint(s, 16, 64); err == nil && Valid[V](raw) {
		return V(raw), nil
	}
	if raw, err := strconv.ParseUint(s, 10, 64); err == nil && Valid[V](raw) {
		return V(raw), nil
	}
	if KindOf[V]() == KindCell {
		if c, err := parseCoordinate(s); err == nil {
			return V(c), nil
		}
	}
	return 0, fmt.Errorf("%w: %s %q", ErrUnparsable, KindOf[V](), s)
}

func parseCoordinate(s string) (Cell, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	if len(parts) != 3 {
		return 0, fmt.Errorf("expected lng,lat,res")
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, fmt.Errorf("lng: %w", err)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, fmt.Errorf("lat: %w", err)
	}
	res, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return 0, fmt.Errorf("res: %w", err)
	}
	if res < 0 || res > MaxResolution {
		return 0, fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, fmt.Errorf("coordinate out of range")
	}
	c, err := h3.LatLngToCell(h3.LatLng{Lat: lat, Lng: lng}, res)
	if err != nil {
		return 0, fmt.Errorf("h3 latlng to cell: %w", err)
	}
	return Cell(c), nil
}
