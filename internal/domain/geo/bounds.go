package geo

const (
	// BoundsPaddingRatio is the share of each axis span added on both sides.
	BoundsPaddingRatio = 0.15
	// MinBoundsPadding is the smallest padding in degrees, for near-degenerate spans.
	MinBoundsPadding = 0.01
)

// BoundingBox is an axis-aligned box in degrees.
type BoundingBox struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// ComputeBounds returns the smallest box containing points, padded on each
// axis by BoundsPaddingRatio of its span and at least MinBoundsPadding.
// It returns false when points is empty.
func ComputeBounds(points []Point) (BoundingBox, bool) {
	if len(points) == 0 {
		return BoundingBox{}, false
	}

	b := BoundingBox{South: points[0].Lat, North: points[0].Lat, West: points[0].Lng, East: points[0].Lng}
	for _, p := range points[1:] {
		b.South = min(b.South, p.Lat)
		b.North = max(b.North, p.Lat)
		b.West = min(b.West, p.Lng)
		b.East = max(b.East, p.Lng)
	}

	latPad := padding(b.North - b.South)
	lngPad := padding(b.East - b.West)
	b.South -= latPad
	b.North += latPad
	b.West -= lngPad
	b.East += lngPad
	return b, true
}

func padding(span float64) float64 {
	return max(span*BoundsPaddingRatio, MinBoundsPadding)
}
