package vibesearch

import (
	"slices"

	"github.com/kailas-cloud/vibesearch/internal/domain/geo"
	"github.com/kailas-cloud/vibesearch/internal/domain/property"
	"github.com/kailas-cloud/vibesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/vibesearch/internal/domain/search/state"
	"github.com/kailas-cloud/vibesearch/internal/usecase/mapview"
	"github.com/kailas-cloud/vibesearch/internal/usecase/session"
)

// View selects the list or the map pager.
type View string

// Views.
const (
	ListView View = "list"
	MapView  View = "map"
)

func (v View) internal() session.View {
	if v == MapView {
		return session.MapView
	}
	return session.ListView
}

// Filters narrows a search. Nil pointers and false flags are not sent.
type Filters struct {
	MinBeds           *float64
	MaxBeds           *float64
	MinBaths          *float64
	MaxBaths          *float64
	MinRent           *int
	MaxRent           *int
	Studio            bool
	City              string
	State             string
	HasAvailableUnits bool
}

// Float returns a pointer to v, for building Filters.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for building Filters.
func Int(v int) *int { return &v }

func filtersToDomain(f *Filters) *filter.Set {
	if f == nil {
		return nil
	}
	return &filter.Set{
		MinBeds:           f.MinBeds,
		MaxBeds:           f.MaxBeds,
		MinBaths:          f.MinBaths,
		MaxBaths:          f.MaxBaths,
		MinRent:           f.MinRent,
		MaxRent:           f.MaxRent,
		Studio:            f.Studio,
		City:              f.City,
		State:             f.State,
		HasAvailableUnits: f.HasAvailableUnits,
	}
}

func filtersFromDomain(s *filter.Set) *Filters {
	if s == nil {
		return nil
	}
	return &Filters{
		MinBeds:           s.MinBeds,
		MaxBeds:           s.MaxBeds,
		MinBaths:          s.MinBaths,
		MaxBaths:          s.MaxBaths,
		MinRent:           s.MinRent,
		MaxRent:           s.MaxRent,
		Studio:            s.Studio,
		City:              s.City,
		State:             s.State,
		HasAvailableUnits: s.HasAvailableUnits,
	}
}

// State is the current search of a session.
type State struct {
	Query           string
	Filters         *Filters
	ImageURLs       []string
	ResultIDs       []string
	SearchType      string // "text", "image", "both" or "none"
	SearchPerformed bool
	HasMore         bool
}

func stateFromDomain(st state.State, hasMore bool) State {
	return State{
		Query:           st.QueryText,
		Filters:         filtersFromDomain(st.Filters),
		ImageURLs:       slices.Clone(st.ImageURLs),
		ResultIDs:       slices.Clone(st.ResultIDs),
		SearchType:      string(st.SearchType),
		SearchPerformed: st.SearchPerformed,
		HasMore:         hasMore,
	}
}

// Coordinates is a position in degrees.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Property is the card-level view of an apartment.
type Property struct {
	ID          string
	Title       string
	Address     string
	Price       float64
	Bedrooms    float64
	Bathrooms   float64
	SquareFeet  int
	Images      []string
	Description string
	Features    []string
	Coordinates *Coordinates
}

func propertyFromDomain(s property.Summary) Property {
	p := Property{
		ID:          s.ID,
		Title:       s.Title,
		Address:     s.Address,
		Price:       s.Price,
		Bedrooms:    s.Bedrooms,
		Bathrooms:   s.Bathrooms,
		SquareFeet:  s.SquareFeet,
		Images:      s.Images,
		Description: s.Description,
		Features:    s.Features,
	}
	if s.Coordinates != nil {
		p.Coordinates = &Coordinates{Latitude: s.Coordinates.Latitude, Longitude: s.Coordinates.Longitude}
	}
	return p
}

// Preview is the lightweight gateway record of an apartment.
type Preview struct {
	ID          string
	Name        string
	City        string
	State       string
	MinRent     float64
	MaxRent     float64
	Beds        string
	Baths       string
	Sqft        string
	Photos      []string
	Coordinates *Coordinates
}

func previewFromDomain(p property.Preview) Preview {
	out := Preview{
		ID:     p.ID,
		Name:   p.PropertyName,
		Beds:   p.Beds,
		Baths:  p.Baths,
		Sqft:   p.Sqft,
		Photos: p.Photos,
	}
	if p.Location != nil {
		out.City, out.State = p.Location.City, p.Location.State
	}
	if p.Rent != nil {
		out.MinRent, out.MaxRent = p.Rent.Min, p.Rent.Max
	}
	if p.Coordinates != nil {
		out.Coordinates = &Coordinates{Latitude: p.Coordinates.Latitude, Longitude: p.Coordinates.Longitude}
	}
	return out
}

// Page is the visible slice of a view.
type Page struct {
	View          View
	Items         []Property
	Total         int
	CanRevealMore bool
	HasMore       bool
}

// Location is an apartment placed on the map. Placeholder entries sit at an
// approximate position until their preview arrives; HasError entries could
// not be fetched and keep their placeholder position.
type Location struct {
	ID          string
	Property    *Property
	Latitude    float64
	Longitude   float64
	Placeholder bool
	HasError    bool
}

func locationFromDomain(l mapview.Location) Location {
	out := Location{
		ID:          l.ID,
		Latitude:    l.Point.Lat,
		Longitude:   l.Point.Lng,
		Placeholder: l.Placeholder,
		HasError:    l.HasError,
	}
	if l.Property != nil {
		p := propertyFromDomain(*l.Property)
		out.Property = &p
	}
	return out
}

// Bounds is the map viewport in degrees.
type Bounds struct {
	South float64
	West  float64
	North float64
	East  float64
}

func boundsFromDomain(b *geo.BoundingBox) *Bounds {
	if b == nil {
		return nil
	}
	return &Bounds{South: b.South, West: b.West, North: b.North, East: b.East}
}

// MapSnapshot is the current map projection.
type MapSnapshot struct {
	Locations []Location
	Bounds    *Bounds
	Pending   int
}

func snapshotFromDomain(s mapview.Snapshot) MapSnapshot {
	locs := make([]Location, len(s.Locations))
	for i, l := range s.Locations {
		locs[i] = locationFromDomain(l)
	}
	return MapSnapshot{Locations: locs, Bounds: boundsFromDomain(s.Bounds), Pending: s.Pending}
}
