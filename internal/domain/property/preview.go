package property

import (
	"regexp"
	"strconv"
	"strings"
)

// Preview is the lightweight record returned by the preview endpoint.
type Preview struct {
	ID           string       `json:"id"`
	PropertyName string       `json:"propertyName"`
	Location     *Location    `json:"location,omitempty"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
	Rent         *Rent        `json:"rent,omitempty"`
	Beds         string       `json:"beds"`
	Baths        string       `json:"baths"`
	Sqft         string       `json:"sqft"`
	Photos       []string     `json:"photos"`
}

// Location is the city and state of a preview.
type Location struct {
	City  string `json:"city"`
	State string `json:"state"`
}

// Rent is the advertised rent range.
type Rent struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

var digits = regexp.MustCompile(`\d+`)

// ToSummary converts a preview into a card Summary.
// "Studio - 2 bd" yields 0 bedrooms; otherwise the last number in beds wins.
// Baths and sqft take the first number.
func (p Preview) ToSummary() Summary {
	s := Summary{
		ID:         p.ID,
		Title:      p.PropertyName,
		Address:    noLocation,
		Bathrooms:  float64(firstNumber(p.Baths)),
		SquareFeet: firstNumber(p.Sqft),
		Images:     p.Photos,
		Features:   []string{},
	}
	if s.Title == "" {
		s.Title = defaultTitle
	}
	if p.Location != nil {
		s.Address = p.Location.City + ", " + p.Location.State
	}
	if p.Rent != nil {
		s.Price = p.Rent.Min
	}
	if !strings.Contains(strings.ToLower(p.Beds), "studio") {
		if nums := digits.FindAllString(p.Beds, -1); len(nums) > 0 {
			s.Bedrooms = float64(atoi(nums[len(nums)-1]))
		}
	}
	if s.Images == nil {
		s.Images = []string{}
	}
	if p.Coordinates != nil {
		c := *p.Coordinates
		s.Coordinates = &c
	}
	return s
}

func firstNumber(s string) int {
	if m := digits.FindString(s); m != "" {
		return atoi(m)
	}
	return 0
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
