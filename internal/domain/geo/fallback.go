package geo

import (
	"math/rand/v2"
	"sync"
)

// FallbackGeocoder synthesizes a position for a property without coordinates.
type FallbackGeocoder interface {
	Locate() Point
}

// SanFrancisco is the default center for city jitter placement.
var SanFrancisco = Point{Lat: 37.7749, Lng: -122.4194}

// ContinentalUS is the default box for uniform placement.
var ContinentalUS = BoundingBox{South: 24.5, West: -124.8, North: 49.4, East: -66.9}

// lockedRand makes a *rand.Rand safe for concurrent use.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newLockedRand(r *rand.Rand) *lockedRand {
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // placement only
	}
	return &lockedRand{r: r}
}

// between returns a uniform value in [lo, hi).
func (l *lockedRand) between(lo, hi float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return lo + l.r.Float64()*(hi-lo)
}

// CityJitter places points uniformly within ±Radius degrees of Center.
type CityJitter struct {
	Center Point
	Radius float64
	rnd    *lockedRand
}

// NewCityJitter creates a city jitter geocoder. A nil r uses a randomly seeded source.
func NewCityJitter(center Point, radiusDeg float64, r *rand.Rand) *CityJitter {
	return &CityJitter{Center: center, Radius: radiusDeg, rnd: newLockedRand(r)}
}

// Locate returns a point near the city center.
func (c *CityJitter) Locate() Point {
	return Point{
		Lat: c.rnd.between(c.Center.Lat-c.Radius, c.Center.Lat+c.Radius),
		Lng: c.rnd.between(c.Center.Lng-c.Radius, c.Center.Lng+c.Radius),
	}
}

// UniformBox places points uniformly within Box.
type UniformBox struct {
	Box BoundingBox
	rnd *lockedRand
}

// NewUniformBox creates a uniform box geocoder. A nil r uses a randomly seeded source.
func NewUniformBox(box BoundingBox, r *rand.Rand) *UniformBox {
	return &UniformBox{Box: box, rnd: newLockedRand(r)}
}

// Locate returns a point inside the box.
func (u *UniformBox) Locate() Point {
	return Point{
		Lat: u.rnd.between(u.Box.South, u.Box.North),
		Lng: u.rnd.between(u.Box.West, u.Box.East),
	}
}
