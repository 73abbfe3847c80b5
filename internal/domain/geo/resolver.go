package geo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// GeocodeStatusOK is the provider status that signals a usable result.
const GeocodeStatusOK = "OK"

// GeocodeResult is the parsed geocoding payload.
type GeocodeResult struct {
	Status  string
	Results []Coordinates
}

// Geocoder turns free-text addresses into candidate coordinates and names
// coordinates back.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (GeocodeResult, error)
	ReverseGeocode(ctx context.Context, c Coordinates) (Place, error)
}

// IPLocator returns the caller's approximate location as "lat,long".
type IPLocator interface {
	Locate(ctx context.Context) (string, error)
}

// Resolver resolves search input into coordinates using exactly one strategy
// per call.
type Resolver struct {
	geocoder Geocoder
	locator  IPLocator
	logger   *slog.Logger
}

// NewResolver wires the resolver to its providers.
func NewResolver(geocoder Geocoder, locator IPLocator, logger *slog.Logger) *Resolver {
	return &Resolver{
		geocoder: geocoder,
		locator:  locator,
		logger:   logger.With("component", "geo.resolver"),
	}
}

// Resolve returns coordinates for the request. Address requests are validated
// before any provider call.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Coordinates, error) {
	if req.AutoDetect {
		return r.detect(ctx)
	}
	if err := ValidateAddress(req.Address); err != nil {
		return Coordinates{}, err
	}
	return r.geocode(ctx, req.Address)
}

func (r *Resolver) geocode(ctx context.Context, addr Address) (Coordinates, error) {
	query := addr.Query()
	res, err := r.geocoder.Geocode(ctx, query)
	if err != nil {
		r.logger.Warn("geocoding request failed", "error", err)
		return Coordinates{}, &ResolutionError{Reason: ReasonGeocodingFailed, Err: err}
	}
	if res.Status != GeocodeStatusOK {
		return Coordinates{}, &ResolutionError{
			Reason: ReasonGeocodingFailed,
			Err:    fmt.Errorf("geocoding status %q", res.Status),
		}
	}
	if len(res.Results) == 0 || res.Results[0].IsZero() {
		return Coordinates{}, &ResolutionError{
			Reason: ReasonGeocodingFailed,
			Err:    errors.New("geocoding returned no results"),
		}
	}
	coords := res.Results[0].Normalize()
	r.logger.Debug("address geocoded", "coordinates", coords.String())
	return coords, nil
}

func (r *Resolver) detect(ctx context.Context) (Coordinates, error) {
	loc, err := r.locator.Locate(ctx)
	if err != nil {
		r.logger.Warn("ip lookup failed", "error", err)
		return Coordinates{}, &ResolutionError{Reason: ReasonIPLookupFailed, Err: err}
	}
	coords, err := ParseLatLong(loc)
	if err != nil {
		return Coordinates{}, &ResolutionError{Reason: ReasonIPLookupFailed, Err: err}
	}
	return coords, nil
}

// ReverseGeocode names the coordinates. Failures fall back to placeholder
// names and are only logged.
func (r *Resolver) ReverseGeocode(ctx context.Context, c Coordinates) Place {
	place, err := r.geocoder.ReverseGeocode(ctx, c.Normalize())
	if err != nil {
		r.logger.Warn("reverse geocoding failed", "coordinates", c.String(), "error", err)
		return Place{CityName: UnknownCity, Region: UnknownRegion}
	}
	if strings.TrimSpace(place.CityName) == "" {
		place.CityName = UnknownCity
	}
	if strings.TrimSpace(place.Region) == "" {
		place.Region = UnknownRegion
	}
	return place
}

// ParseLatLong splits a combined "lat,long" string and checks both parts are
// finite decimal numbers. The original text of each part is kept.
func ParseLatLong(raw string) (Coordinates, error) {
	parts := strings.Split(strings.TrimSpace(raw), ",")
	if len(parts) != 2 {
		return Coordinates{}, fmt.Errorf("malformed location %q", raw)
	}
	coords := Coordinates{Latitude: parts[0], Longitude: parts[1]}.Normalize()
	if err := checkDegrees(coords.Latitude, 90); err != nil {
		return Coordinates{}, fmt.Errorf("latitude: %w", err)
	}
	if err := checkDegrees(coords.Longitude, 180); err != nil {
		return Coordinates{}, fmt.Errorf("longitude: %w", err)
	}
	return coords, nil
}

func checkDegrees(value string, limit float64) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%q is not a number", value)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < -limit || v > limit {
		return fmt.Errorf("%q is out of range", value)
	}
	return nil
}
