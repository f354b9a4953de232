// Package filter defines the structured filters attached to a search.
package filter

// Set holds optional search filters. A nil pointer means "not set" and is
// omitted from gateway requests; Studio and HasAvailableUnits are sent only when true.
type Set struct {
	MinBeds           *float64 `json:"min_beds,omitempty"`
	MaxBeds           *float64 `json:"max_beds,omitempty"`
	MinBaths          *float64 `json:"min_baths,omitempty"`
	MaxBaths          *float64 `json:"max_baths,omitempty"`
	MinRent           *int     `json:"min_rent,omitempty"`
	MaxRent           *int     `json:"max_rent,omitempty"`
	Studio            bool     `json:"studio,omitempty"`
	City              string   `json:"city,omitempty"`
	State             string   `json:"state,omitempty"`
	HasAvailableUnits bool     `json:"has_available_units,omitempty"`
}

// IsEmpty reports whether no filter is set.
func (s Set) IsEmpty() bool {
	return s == Set{}
}

// Inverted returns the names of min/max pairs where min exceeds max.
// Such filters are passed through unchanged; callers only log them.
func (s Set) Inverted() []string {
	var out []string
	if s.MinBeds != nil && s.MaxBeds != nil && *s.MinBeds > *s.MaxBeds {
		out = append(out, "beds")
	}
	if s.MinBaths != nil && s.MaxBaths != nil && *s.MinBaths > *s.MaxBaths {
		out = append(out, "baths")
	}
	if s.MinRent != nil && s.MaxRent != nil && *s.MinRent > *s.MaxRent {
		out = append(out, "rent")
	}
	return out
}

// Float returns a pointer to v, for building sets in code.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for building sets in code.
func Int(v int) *int { return &v }
