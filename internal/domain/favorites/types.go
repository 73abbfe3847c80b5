package favorites

import (
	"strings"

	"github.com/yanqian/weather-favorites/internal/domain/forecast"
	"github.com/yanqian/weather-favorites/internal/domain/geo"
)

// Entry is a saved location with the daily forecast captured when it was added.
type Entry struct {
	CityName    string               `json:"cityName"`
	Region      string               `json:"region"`
	Coordinates *geo.Coordinates     `json:"coordinates,omitempty"`
	Data        []forecast.DayRecord `json:"data"`
}

// Key is the store identity of an entry.
type Key struct {
	City   string
	Region string
}

// KeyOf derives the case-insensitive identity of a city/region pair.
func KeyOf(city, region string) Key {
	return Key{
		City:   strings.ToLower(strings.TrimSpace(city)),
		Region: strings.ToLower(strings.TrimSpace(region)),
	}
}

// Key returns the entry identity. Coordinates never take part in it.
func (e Entry) Key() Key {
	return KeyOf(e.CityName, e.Region)
}

// Place returns the entry's names.
func (e Entry) Place() geo.Place {
	return geo.Place{CityName: e.CityName, Region: e.Region}
}

// Clone deep-copies the entry.
func (e Entry) Clone() Entry {
	out := e
	if e.Coordinates != nil {
		c := *e.Coordinates
		out.Coordinates = &c
	}
	out.Data = forecast.CloneRecords(e.Data)
	return out
}

// RemoveRequest names the entry to delete.
type RemoveRequest struct {
	CityName string `json:"cityName"`
	Region   string `json:"region"`
}
