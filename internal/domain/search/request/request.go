package request

import "github.com/kailas-cloud/vibesearch/internal/domain/search/filter"

// Request is one page of a search sent to the gateway.
type Request struct {
	Query     string
	Filters   filter.Set
	ImageURLs []string
	Limit     int
	Page      int
}
