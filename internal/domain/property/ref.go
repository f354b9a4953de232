package property

// Ref points at a property either by Id or with its summary inline.
// Views resolve Refs once at the boundary and then work with Summaries only.
type Ref struct {
	id     string
	inline *Summary
}

// ByID creates a Ref that must be resolved through a preview fetch.
func ByID(id string) Ref {
	return Ref{id: id}
}

// Inline creates a Ref that already carries its summary.
func Inline(s Summary) Ref {
	return Ref{id: s.ID, inline: &s}
}

// ID returns the referenced property Id.
func (r Ref) ID() string { return r.id }

// Summary returns the inline summary, if any.
func (r Ref) Summary() (Summary, bool) {
	if r.inline == nil {
		return Summary{}, false
	}
	return *r.inline, true
}

// IsResolved reports whether the Ref carries its summary.
func (r Ref) IsResolved() bool { return r.inline != nil }
