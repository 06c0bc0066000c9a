package interact

import (
	stderrors "errors"
	stdio "io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ecomap/pkg/ecosystem"
	"github.com/matzehuels/ecomap/pkg/errors"
	"github.com/matzehuels/ecomap/pkg/store"
)

func newController(t *testing.T) (*Controller, *store.Store) {
	t.Helper()
	s := store.New(store.WithLogger(log.New(stdio.Discard)))
	var cs []ecosystem.Company
	for i, n := range []string{"Acme", "Globex", "Initech"} {
		cs = append(cs, ecosystem.NewCompany(n, "Infra", "", "", i))
	}
	s.SetCompanies(cs)
	return New(s), s
}

func TestDrag(t *testing.T) {
	c, s := newController(t)
	start, _ := s.Customization("Infra")

	if err := c.PointerDown("Infra", Body, Point{100, 100}); err != nil {
		t.Fatal(err)
	}
	if got := c.StateOf("Infra"); got != Dragging {
		t.Errorf("StateOf = %v, want dragging", got)
	}
	if err := c.PointerMove(Point{150, 130}); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Customization("Infra")
	want := ecosystem.Position{X: start.Position.X + 50, Y: start.Position.Y + 30}
	if got.Position != want || !got.ManualPosition {
		t.Errorf("position = %+v, want %+v manual", got.Position, want)
	}

	// Dragging past the origin clamps to zero.
	if err := c.PointerMove(Point{-1000, -1000}); err != nil {
		t.Fatal(err)
	}
	got, _ = s.Customization("Infra")
	if got.Position != (ecosystem.Position{}) {
		t.Errorf("position = %+v, want origin", got.Position)
	}

	g, err := c.PointerUp()
	if err != nil || g.Category != "Infra" || g.State != Dragging {
		t.Errorf("PointerUp = %+v, %v", g, err)
	}
	if _, ok := c.Active(); ok {
		t.Error("gesture still active after PointerUp")
	}
	if got := c.StateOf("Infra"); got != Idle {
		t.Errorf("StateOf after up = %v", got)
	}
}

func TestResizeHandles(t *testing.T) {
	tests := []struct {
		target Target
		dx, dy float64
		dw, dh float64
	}{
		{South, 40, 60, 0, 60},
		{East, 40, 60, 40, 0},
		{SouthEast, 40, 60, 40, 60},
	}
	for _, tt := range tests {
		t.Run(tt.target.String(), func(t *testing.T) {
			c, s := newController(t)
			start, _ := s.Customization("Infra")
			if err := c.PointerDown("Infra", tt.target, Point{}); err != nil {
				t.Fatal(err)
			}
			if c.StateOf("Infra") != Resizing {
				t.Errorf("StateOf = %v, want resizing", c.StateOf("Infra"))
			}
			if err := c.PointerMove(Point{tt.dx, tt.dy}); err != nil {
				t.Fatal(err)
			}
			c.PointerUp()

			got, _ := s.Customization("Infra")
			if got.Width != start.Width+tt.dw || got.Height != start.Height+tt.dh {
				t.Errorf("size = %gx%g, want %gx%g", got.Width, got.Height, start.Width+tt.dw, start.Height+tt.dh)
			}
			if got.Position != start.Position {
				t.Error("resize moved the box")
			}
		})
	}
}

func TestResizeClampsToMinimum(t *testing.T) {
	c, s := newController(t)
	if err := c.Nudge("Infra", SouthEast, -5000, -5000); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Customization("Infra")
	if got.Width != 200 || got.Height != 150 {
		t.Errorf("size = %gx%g, want 200x150", got.Width, got.Height)
	}
}

func TestTransitionsOutsideStateMachine(t *testing.T) {
	c, _ := newController(t)

	if err := c.PointerMove(Point{}); !stderrors.Is(err, ErrIdle) {
		t.Errorf("PointerMove while idle = %v", err)
	}
	if _, err := c.PointerUp(); !stderrors.Is(err, ErrIdle) {
		t.Errorf("PointerUp while idle = %v", err)
	}
	if err := c.PointerDown("Missing", Body, Point{}); !errors.Is(err, errors.ErrCodeCategoryNotFound) {
		t.Errorf("PointerDown(missing) = %v", err)
	}

	if err := c.PointerDown("Infra", Target(9), Point{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("PointerDown(Target(9)) = %v, want invalid input", err)
	}
	if g, ok := c.Active(); ok {
		t.Errorf("unknown target left a gesture: %+v", g)
	}

	if err := c.PointerDown("Infra", Body, Point{}); err != nil {
		t.Fatal(err)
	}
	if err := c.PointerDown("Infra", East, Point{}); !stderrors.Is(err, ErrBusy) {
		t.Errorf("second PointerDown = %v, want ErrBusy", err)
	}
	if _, err := c.CycleColumns("Infra"); !stderrors.Is(err, ErrBusy) {
		t.Errorf("CycleColumns while dragging = %v, want ErrBusy", err)
	}
	c.PointerUp()
	if _, err := c.CycleColumns("Infra"); err != nil {
		t.Errorf("CycleColumns after up = %v", err)
	}
}

func TestParseTarget(t *testing.T) {
	for _, tt := range []Target{Body, South, East, SouthEast} {
		got, err := ParseTarget(tt.String())
		if err != nil || got != tt {
			t.Errorf("ParseTarget(%q) = %v, %v", tt.String(), got, err)
		}
	}
	if _, err := ParseTarget("nw"); err == nil {
		t.Error("ParseTarget(nw) should fail")
	}
}
