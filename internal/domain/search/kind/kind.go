package kind

import "strings"

// Type classifies a search by the inputs it was built from.
type Type string

// Search type constants.
const (
	Text  Type = "text"
	Image Type = "image"
	Both  Type = "both"
	None  Type = "none"
)

// IsValid checks if the type is one of the supported values.
func (t Type) IsValid() bool {
	return t == Text || t == Image || t == Both || t == None
}

// Classify derives the search type from the query text and image URLs.
// Whitespace-only query text counts as empty.
func Classify(query string, imageURLs []string) Type {
	hasText := strings.TrimSpace(query) != ""
	hasImages := len(imageURLs) > 0
	switch {
	case hasText && hasImages:
		return Both
	case hasText:
		return Text
	case hasImages:
		return Image
	default:
		return None
	}
}
