// Package hints wires a parameter-hints widget into the editor
// contribution surface. The controller owns the widget's lifecycle and
// forwards commands to it; everything else (lookup, rendering, content)
// lives in the widget implementation.
package hints

import (
	"github.com/typewright/typewright/internal/editor"
)

// ContributionID is the editor contribution id of the parameter-hints
// controller.
const ContributionID = "typewright.controller.parameterHints"

// Widget shows parameter hints for the call the cursor is inside.
type Widget interface {
	// Trigger opens the widget at the current cursor position, or
	// refreshes it if already open.
	Trigger()

	// Next advances to the next overload.
	Next()

	// Previous steps back to the previous overload.
	Previous()

	// Cancel hides the widget.
	Cancel()

	// Dispose releases the widget's resources. The widget is unusable
	// afterwards.
	Dispose()
}

// Controller forwards parameter-hint commands to its widget. It holds
// no state of its own beyond the widget reference.
type Controller struct {
	widget Widget
}

// NewController attaches a controller for the given widget to the
// editor.
func NewController(ed *editor.Editor, w Widget) *Controller {
	c := &Controller{widget: w}
	ed.AddContribution(ContributionID, c)
	return c
}

// FromEditor returns the editor's parameter-hints controller, or nil if
// none is attached.
func FromEditor(ed *editor.Editor) *Controller {
	c, _ := ed.ContributionByID(ContributionID).(*Controller)
	return c
}

// Trigger opens or refreshes the hints widget.
func (c *Controller) Trigger() { c.widget.Trigger() }

// Next advances to the next overload.
func (c *Controller) Next() { c.widget.Next() }

// Previous steps back to the previous overload.
func (c *Controller) Previous() { c.widget.Previous() }

// Cancel hides the hints widget.
func (c *Controller) Cancel() { c.widget.Cancel() }

// Dispose disposes the widget along with the controller.
func (c *Controller) Dispose() { c.widget.Dispose() }
