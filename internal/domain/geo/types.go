package geo

import (
	"strings"
)

// Coordinates is a resolved location in decimal degrees. Values are kept as
// strings so they can be compared exactly the way they were received.
type Coordinates struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// Normalize trims surrounding whitespace from both components.
func (c Coordinates) Normalize() Coordinates {
	return Coordinates{
		Latitude:  strings.TrimSpace(c.Latitude),
		Longitude: strings.TrimSpace(c.Longitude),
	}
}

// IsZero reports whether either component is missing.
func (c Coordinates) IsZero() bool {
	n := c.Normalize()
	return n.Latitude == "" || n.Longitude == ""
}

// String renders the provider query form "lat,long".
func (c Coordinates) String() string {
	n := c.Normalize()
	return n.Latitude + "," + n.Longitude
}

// SameCoordinates compares two optional pairs by exact string equality after
// normalization. Two unresolved pairs are equal.
func SameCoordinates(a, b *Coordinates) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Normalize() == b.Normalize()
}

// Address is the structured manual search input.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
}

// Query renders the free-text geocoding query "{street}, {city}, {state}".
func (a Address) Query() string {
	return a.Street + ", " + a.City + ", " + a.State
}

// Place names a resolved location for display and favorites.
type Place struct {
	CityName string `json:"cityName"`
	Region   string `json:"region"`
}

// Fallback names used when reverse geocoding cannot name a location.
const (
	UnknownCity   = "City Not Found"
	UnknownRegion = "Region Not Found"
)

// Request selects a resolution strategy. AutoDetect wins over Address.
type Request struct {
	Address    Address
	AutoDetect bool
}
