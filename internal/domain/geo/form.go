package geo

import (
	"errors"
	"fmt"
	"strings"
)

// Form is the search form state. Manual address entry and auto-detection are
// mutually exclusive; transitions go through the methods below.
type Form struct {
	Address     Address         `json:"address"`
	AutoDetect  bool            `json:"autoDetect"`
	Coordinates *Coordinates    `json:"coordinates"`
	FieldErrors map[string]bool `json:"fieldErrors"`
}

// NewForm returns an empty manual-entry form.
func NewForm() Form {
	return Form{FieldErrors: emptyFieldErrors()}
}

// SetField updates one address field and clears its error once non-blank.
func (f *Form) SetField(name, value string) error {
	switch name {
	case FieldStreet:
		f.Address.Street = value
	case FieldCity:
		f.Address.City = value
	case FieldState:
		f.Address.State = value
	default:
		return fmt.Errorf("unknown form field %q", name)
	}
	if strings.TrimSpace(value) != "" {
		f.ensureErrors()
		f.FieldErrors[name] = false
	}
	return nil
}

// SetAutoDetect toggles IP based detection. Enabling clears the manual
// address and its errors; disabling forgets any resolved coordinates.
func (f *Form) SetAutoDetect(enabled bool) {
	f.AutoDetect = enabled
	if enabled {
		f.Address = Address{}
		f.FieldErrors = emptyFieldErrors()
		return
	}
	f.Coordinates = nil
}

// SetCoordinates records coordinates resolved for the current form.
func (f *Form) SetCoordinates(c *Coordinates) {
	if c == nil {
		f.Coordinates = nil
		return
	}
	normalized := c.Normalize()
	f.Coordinates = &normalized
}

// Validate checks the manual address and records field errors. Auto-detect
// forms are always valid.
func (f *Form) Validate() error {
	f.FieldErrors = emptyFieldErrors()
	if f.AutoDetect {
		return nil
	}
	err := ValidateAddress(f.Address)
	var verr *ValidationError
	if errors.As(err, &verr) {
		for _, field := range verr.Fields {
			f.FieldErrors[field] = true
		}
	}
	return err
}

// Request converts the form into a resolution request.
func (f Form) Request() Request {
	return Request{Address: f.Address, AutoDetect: f.AutoDetect}
}

// ValidateAddress requires street, city and state to be non-blank.
func ValidateAddress(a Address) error {
	var missing []string
	if strings.TrimSpace(a.Street) == "" {
		missing = append(missing, FieldStreet)
	}
	if strings.TrimSpace(a.City) == "" {
		missing = append(missing, FieldCity)
	}
	if strings.TrimSpace(a.State) == "" {
		missing = append(missing, FieldState)
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

func (f *Form) ensureErrors() {
	if f.FieldErrors == nil {
		f.FieldErrors = emptyFieldErrors()
	}
}

func emptyFieldErrors() map[string]bool {
	return map[string]bool{FieldStreet: false, FieldCity: false, FieldState: false}
}
