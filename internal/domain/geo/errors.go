package geo

import (
	"fmt"
	"strings"
)

// Address field names reported by ValidationError.
const (
	FieldStreet = "street"
	FieldCity   = "city"
	FieldState  = "state"
)

// ValidationError lists required address fields that were blank.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field(s): %s", strings.Join(e.Fields, ", "))
}

// Has reports whether field is among the missing ones.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// ResolutionReason classifies a failed resolution.
type ResolutionReason string

const (
	ReasonGeocodingFailed ResolutionReason = "geocoding_failed"
	ReasonIPLookupFailed  ResolutionReason = "ip_lookup_failed"
)

// ResolutionError reports that a location could not be turned into coordinates.
type ResolutionError struct {
	Reason ResolutionReason
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("resolve location (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("resolve location (%s)", e.Reason)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}
