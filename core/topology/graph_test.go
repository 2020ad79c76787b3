package topology

import (
	"reflect"
	"testing"

	"github.com/railops/railsched/core/model"
)

func sec(id, from, to string, km float64) model.TrackSection {
	return model.TrackSection{ID: id, Capacity: 1, LengthKm: km, From: from, To: to}
}

func TestPathBetween(t *testing.T) {
	g := New([]model.TrackSection{
		sec("s1", "A", "B", 10),
		sec("s2", "B", "C", 10),
		sec("s3", "C", "D", 10),
		sec("sx", "B", "D", 50),
	})
	route, km, ok := g.PathBetween("s1", "s3")
	if !ok {
		t.Fatalf("expected a path from s1 to s3")
	}
	if want := []string{"s1", "s2", "s3"}; !reflect.DeepEqual(route, want) {
		t.Errorf("route mismatch: got %v want %v", route, want)
	}
	if km != 20 {
		t.Errorf("accumulated length: got %v want 20", km)
	}
	if _, _, ok := g.PathBetween("s3", "s1"); ok {
		t.Errorf("expected no path against edge direction")
	}
}

func TestSibling(t *testing.T) {
	g := New([]model.TrackSection{
		sec("s1", "A", "B", 10),
		sec("s1b", "A", "B", 12),
		sec("s2", "B", "C", 10),
	})
	sib, ok := g.Sibling("s1")
	if !ok || sib != "s1b" {
		t.Fatalf("expected sibling s1b, got %q ok=%v", sib, ok)
	}
	if _, ok := g.Sibling("s2"); ok {
		t.Errorf("s2 has no sibling")
	}
}

func TestAlternatePrefersSibling(t *testing.T) {
	g := New([]model.TrackSection{
		sec("s1", "A", "B", 10),
		sec("s2", "B", "C", 10),
		sec("s2b", "B", "C", 15),
		sec("s3", "C", "D", 10),
	})
	alt, ok := g.Alternate([]string{"s1", "s2", "s3"}, "s2")
	if !ok {
		t.Fatalf("expected an alternate route")
	}
	if want := []string{"s1", "s2b", "s3"}; !reflect.DeepEqual(alt, want) {
		t.Errorf("alternate mismatch: got %v want %v", alt, want)
	}
}

func TestAlternateDetour(t *testing.T) {
	// No sibling for s2; detour through B->E->C instead.
	g := New([]model.TrackSection{
		sec("s1", "A", "B", 10),
		sec("s2", "B", "C", 10),
		sec("s3", "C", "D", 10),
		sec("d1", "B", "E", 8),
		sec("d2", "E", "C", 8),
	})
	alt, ok := g.Alternate([]string{"s1", "s2", "s3"}, "s2")
	if !ok {
		t.Fatalf("expected a detour")
	}
	if want := []string{"s1", "d1", "d2", "s3"}; !reflect.DeepEqual(alt, want) {
		t.Errorf("detour mismatch: got %v want %v", alt, want)
	}
}

func TestAlternateNoneForEdgeSection(t *testing.T) {
	g := New([]model.TrackSection{
		sec("s1", "A", "B", 10),
		sec("s2", "B", "C", 10),
	})
	if _, ok := g.Alternate([]string{"s1", "s2"}, "s1"); ok {
		t.Errorf("expected no alternate for a route head without sibling")
	}
}
