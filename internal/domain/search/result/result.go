package result

import "github.com/kailas-cloud/vibesearch/internal/domain/property"

// Result is one ranked search match.
type Result struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// Summary maps the match metadata to card data.
func (r Result) Summary() property.Summary {
	return property.FromMetadata(r.ID, r.Metadata)
}

// AssignIDs gives each result without an Id its own generated Id, in place.
func AssignIDs(results []Result) {
	for i := range results {
		if results[i].ID == "" {
			results[i].ID = property.NewID()
		}
	}
}

// IDs returns the Ids of results in rank order.
func IDs(results []Result) []string {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.ID)
	}
	return ids
}
