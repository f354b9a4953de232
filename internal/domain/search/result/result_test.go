package result

import (
	"reflect"
	"strings"
	"testing"
)

func TestIDs(t *testing.T) {
	got := IDs([]Result{{ID: "a"}, {ID: "b"}, {ID: "a"}})
	if !reflect.DeepEqual(got, []string{"a", "b", "a"}) {
		t.Errorf("IDs = %v", got)
	}
}

func TestSummary(t *testing.T) {
	r := Result{ID: "7", Metadata: map[string]any{"property_name": "Sunny Loft", "min_rent": 2400.0}}
	s := r.Summary()
	if s.ID != "7" || s.Title != "Sunny Loft" || s.Price != 2400 {
		t.Errorf("unexpected summary: %+v", s)
	}
}

func TestAssignIDs(t *testing.T) {
	results := []Result{{ID: "a"}, {ID: ""}, {ID: ""}}
	AssignIDs(results)

	if results[0].ID != "a" {
		t.Errorf("existing Id changed to %q", results[0].ID)
	}
	for _, r := range results[1:] {
		if !strings.HasPrefix(r.ID, "property-") {
			t.Errorf("generated Id = %q, want property- prefix", r.ID)
		}
	}
	if results[1].ID == results[2].ID {
		t.Errorf("generated Ids collide: %q", results[1].ID)
	}
}
