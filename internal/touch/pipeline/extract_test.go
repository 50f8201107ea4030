package pipeline

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/contact.report/internal/touch/grid"
)

func TestContactContains(t *testing.T) {
	c := Contact{X: 10, Y: 20, W: 2, H: 3}
	tests := []struct {
		name     string
		col, row int
		expected bool
	}{
		{"inside box", 11, 21, true},
		{"left margin edge", 8, 21, true},
		{"beyond left margin", 7, 21, false},
		{"right margin edge", 14, 21, true},
		{"beyond right margin", 15, 21, false},
		{"top margin edge", 11, 18, true},
		{"beyond top margin", 11, 17, false},
		{"bottom margin edge", 11, 25, true},
		{"beyond bottom margin", 11, 26, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.contains(tt.col, tt.row); got != tt.expected {
				t.Errorf("contains(%d, %d) = %v, want %v", tt.col, tt.row, got, tt.expected)
			}
		})
	}
}

func TestContactGrowOnlyRightAndDown(t *testing.T) {
	c := Contact{X: 10, Y: 10, W: 1, H: 1}

	c.grow(13, 10)
	if c.W != 4 || c.H != 1 {
		t.Fatalf("after rightward growth: %+v, want W=4 H=1", c)
	}
	c.grow(10, 14)
	if c.W != 4 || c.H != 5 {
		t.Fatalf("after downward growth: %+v, want W=4 H=5", c)
	}

	// Cells above or left of the origin merge without moving it.
	c.grow(8, 9)
	if c != (Contact{X: 10, Y: 10, W: 4, H: 5}) {
		t.Fatalf("origin moved or box shrank: %+v", c)
	}
}

// setAdjacent writes a smoothed-score value directly, bypassing the
// calibration stages, so the extractor can be exercised in isolation.
func setAdjacent(p *Pipeline, row, col int, v uint16) {
	p.adjacent[grid.Index(row, col, p.params.LineOffset)] = v
}

func TestExtractMergesWithinExpandedBox(t *testing.T) {
	p := mustPipeline(t)

	// Two triggered cells three apart merge through the expanded box; a
	// distant cell starts its own contact.
	setAdjacent(p, 10, 10, 300)
	setAdjacent(p, 12, 13, 300)
	setAdjacent(p, 40, 40, 300)
	p.extract()

	want := []Contact{
		{X: 10, Y: 10, W: 4, H: 3},
		{X: 40, Y: 40, W: 1, H: 1},
	}
	if diff := cmp.Diff(want, p.contacts); diff != "" {
		t.Fatalf("contacts mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractThresholdIsExclusive(t *testing.T) {
	p := mustPipeline(t)
	setAdjacent(p, 10, 10, DefaultThreshold) // equal to threshold: not triggered
	setAdjacent(p, 20, 20, DefaultThreshold+1)
	p.extract()

	want := []Contact{{X: 20, Y: 20, W: 1, H: 1}}
	if diff := cmp.Diff(want, p.contacts); diff != "" {
		t.Fatalf("contacts mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractDropsCellsAtCapacity(t *testing.T) {
	p := mustPipeline(t)

	// Twelve isolated triggered cells in raster order; the arena holds ten.
	for i := 0; i < 12; i++ {
		setAdjacent(p, 1+5*(i/8), 1+7*(i%8), 300)
	}
	p.extract()

	if len(p.contacts) != DefaultMaxContacts {
		t.Fatalf("got %d contacts, want %d", len(p.contacts), DefaultMaxContacts)
	}
	// Slot 0 is used and holds the first triggered cell.
	if p.contacts[0] != (Contact{X: 1, Y: 1, W: 1, H: 1}) {
		t.Fatalf("first contact = %+v", p.contacts[0])
	}
}

func TestExtractArenaResetsBetweenFrames(t *testing.T) {
	p := mustPipeline(t)
	setAdjacent(p, 10, 10, 300)
	p.extract()
	if len(p.contacts) != 1 {
		t.Fatalf("got %d contacts, want 1", len(p.contacts))
	}

	clear(p.adjacent)
	p.extract()
	if len(p.contacts) != 0 {
		t.Fatalf("arena not reset: %d contacts on an empty frame", len(p.contacts))
	}
}
