// Package property holds the normalized property records rendered by clients.
package property

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// DefaultImage is shown when the backend metadata carries no images.
const DefaultImage = "https://images.unsplash.com/photo-1522708323590-d24dbb6b0267?ixlib=rb-4.0.3&auto=format&fit=crop&w=2340&q=80"

const (
	defaultTitle   = "Apartment"
	noAddress      = "Location information unavailable"
	noLocation     = "Location unavailable"
	defaultBathCnt = 1
)

// Coordinates is a backend-provided position.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Summary is the card-level view of a property. Absent source fields are
// zero or empty, never null.
type Summary struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Address     string       `json:"address"`
	Price       float64      `json:"price"`
	Bedrooms    float64      `json:"bedrooms"`
	Bathrooms   float64      `json:"bathrooms"`
	SquareFeet  int          `json:"squareFeet"`
	Images      []string     `json:"images"`
	Description string       `json:"description"`
	Features    []string     `json:"features"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// Detail is the full backend record. It is passed through unchanged.
type Detail = json.RawMessage

// NewID generates an Id for a property the backend returned without one.
func NewID() string {
	return "property-" + uuid.NewString()[:8]
}

// FromMetadata maps a search match's metadata into a Summary.
// An empty id gets a generated "property-" id.
func FromMetadata(id string, metadata map[string]any) Summary {
	if id == "" {
		id = NewID()
	}

	s := Summary{
		ID:          id,
		Title:       stringField(metadata, "property_name", defaultTitle),
		Address:     joinAddress(metadata),
		Price:       numberField(metadata, "min_rent", 0),
		Bedrooms:    numberField(metadata, "min_beds", 0),
		Bathrooms:   numberField(metadata, "min_baths", defaultBathCnt),
		SquareFeet:  int(numberField(metadata, "square_feet", 0)),
		Images:      images(metadata["image_urls"]),
		Description: stringField(metadata, "description", ""),
		Features:    features(metadata["amenities"]),
	}
	return s
}

func stringField(m map[string]any, key, def string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return def
}

func numberField(m map[string]any, key string, def float64) float64 {
	if v, ok := m[key].(float64); ok {
		return v
	}
	return def
}

func joinAddress(m map[string]any) string {
	var parts []string
	for _, key := range []string{"address", "city", "state"} {
		if v := stringField(m, key, ""); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return noAddress
	}
	return strings.Join(parts, ", ")
}

func images(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	case string:
		return []string{t}
	}
	return []string{DefaultImage}
}

// features lists amenities whose value is the string "true", as Title Case.
// Map order is not stable, so the result is sorted.
func features(v any) []string {
	amenities, ok := v.(map[string]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(amenities))
	for key, val := range amenities {
		if s, ok := val.(string); ok && s == "true" {
			out = append(out, titleCase(key))
		}
	}
	sort.Strings(out)
	return out
}

func titleCase(snake string) string {
	words := strings.Split(snake, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
