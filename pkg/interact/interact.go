// Package interact turns pointer gestures into box moves and resizes.
//
// A [Controller] runs one small state machine per map:
//
//	Idle ──PointerDown(Body)────▶ Dragging ──PointerUp──▶ Idle
//	Idle ──PointerDown(Handle)──▶ Resizing ──PointerUp──▶ Idle
//
// At most one gesture is active. Every PointerMove writes the new
// position or size straight to the [Editor], so the map follows the
// pointer without running layout. PointerUp always detaches the gesture.
package interact

import (
	"math"
	"sync"

	"github.com/matzehuels/ecomap/pkg/ecosystem"
	"github.com/matzehuels/ecomap/pkg/errors"
	"github.com/matzehuels/ecomap/pkg/layout"
)

// Target is the part of a box a gesture started on.
type Target int

// Gesture targets. The handles sit on the bottom edge, the right edge and
// the bottom-right corner.
const (
	Body Target = iota
	South
	East
	SouthEast
)

func (t Target) String() string {
	switch t {
	case Body:
		return "body"
	case South:
		return "s"
	case East:
		return "e"
	case SouthEast:
		return "se"
	}
	return "unknown"
}

// Valid reports whether t is one of the defined targets.
func (t Target) Valid() bool { return t >= Body && t <= SouthEast }

// ParseTarget converts "body", "s", "e" or "se".
func ParseTarget(s string) (Target, error) {
	switch s {
	case "body", "":
		return Body, nil
	case "s":
		return South, nil
	case "e":
		return East, nil
	case "se":
		return SouthEast, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "unknown handle %q (want body, s, e or se)", s)
}

// State is the gesture state of a box.
type State int

// Gesture states.
const (
	Idle State = iota
	Dragging
	Resizing
)

func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	}
	return "idle"
}

// Point is a pointer location in canvas pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Editor is the state a controller writes to. [store.Store] implements it.
type Editor interface {
	Customization(name string) (ecosystem.CategoryCustomization, bool)
	Move(name string, p ecosystem.Position) error
	Resize(name string, width, height float64) error
	CycleColumns(name string) (int, error)
}

var (
	// ErrBusy is returned when a gesture starts while another is active.
	ErrBusy = errors.New(errors.ErrCodeInvalidInput, "another gesture is in progress")
	// ErrIdle is returned by PointerMove and PointerUp without a gesture.
	ErrIdle = errors.New(errors.ErrCodeInvalidInput, "no gesture in progress")
)

// Gesture describes the active interaction.
type Gesture struct {
	Category string             `json:"category"`
	Target   Target             `json:"target"`
	State    State              `json:"state"`
	Start    Point              `json:"start"`
	Origin   ecosystem.Position `json:"origin"`
	Width    float64            `json:"width"`
	Height   float64            `json:"height"`
}

// Controller is safe for concurrent use.
type Controller struct {
	mu     sync.Mutex
	editor Editor
	active *Gesture
}

// New creates a controller writing to e.
func New(e Editor) *Controller {
	return &Controller{editor: e}
}

// PointerDown starts a drag (target [Body]) or a resize (any handle) on
// the named category.
func (c *Controller) PointerDown(name string, target Target, at Point) error {
	if !target.Valid() {
		return errors.New(errors.ErrCodeInvalidInput, "unknown gesture target %d", int(target))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		return ErrBusy
	}
	cust, ok := c.editor.Customization(name)
	if !ok {
		return errors.New(errors.ErrCodeCategoryNotFound, "category not found: %s", name)
	}
	state := Resizing
	if target == Body {
		state = Dragging
	}
	c.active = &Gesture{
		Category: name,
		Target:   target,
		State:    state,
		Start:    at,
		Origin:   cust.Position,
		Width:    cust.Width,
		Height:   cust.Height,
	}
	return nil
}

// PointerMove applies the pointer delta since PointerDown.
//
// Drags move the box to origin+delta, never above or left of the canvas
// origin. Resizes change only the axes their handle permits and never go
// below the minimum box.
func (c *Controller) PointerMove(at Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	g := c.active
	if g == nil {
		return ErrIdle
	}
	dx, dy := at.X-g.Start.X, at.Y-g.Start.Y

	if g.State == Dragging {
		return c.editor.Move(g.Category, ecosystem.Position{
			X: math.Max(g.Origin.X+dx, 0),
			Y: math.Max(g.Origin.Y+dy, 0),
		})
	}
	w, h := g.Width, g.Height
	if g.Target == East || g.Target == SouthEast {
		w += dx
	}
	if g.Target == South || g.Target == SouthEast {
		h += dy
	}
	return c.editor.Resize(g.Category, math.Max(w, layout.MinWidth), math.Max(h, layout.MinHeight))
}

// PointerUp ends the active gesture and returns it.
func (c *Controller) PointerUp() (Gesture, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return Gesture{}, ErrIdle
	}
	g := *c.active
	c.active = nil
	return g, nil
}

// Active returns the gesture in progress, if any.
func (c *Controller) Active() (Gesture, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return Gesture{}, false
	}
	return *c.active, true
}

// StateOf returns the gesture state of the named box.
func (c *Controller) StateOf(name string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil || c.active.Category != name {
		return Idle
	}
	return c.active.State
}

// Nudge performs a complete gesture of (dx, dy) in one call.
func (c *Controller) Nudge(name string, target Target, dx, dy float64) error {
	if err := c.PointerDown(name, target, Point{}); err != nil {
		return err
	}
	moveErr := c.PointerMove(Point{X: dx, Y: dy})
	if _, err := c.PointerUp(); err != nil {
		return err
	}
	return moveErr
}

// CycleColumns advances the tile column count of the named box. It is
// rejected while that box is being dragged or resized.
func (c *Controller) CycleColumns(name string) (int, error) {
	if c.StateOf(name) != Idle {
		return 0, ErrBusy
	}
	return c.editor.CycleColumns(name)
}
