// Package navigator drives the insight browsing window: a sliding date range
// plus the single-expansion selection over archived records.
package navigator

import "time"

// DateWindow is a closed date range. Start never exceeds End.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// Length returns the window size.
func (w DateWindow) Length() time.Duration {
	return w.End.Sub(w.Start)
}

// Navigator holds in-memory browsing state. It is not persisted and belongs
// to a single caller.
type Navigator struct {
	window   DateWindow
	selected string
	now      func() time.Time
}

// DefaultSpanDays is the initial window: the last 7 days ending today.
const DefaultSpanDays = 7

// New returns a navigator with the default window.
func New() *Navigator {
	return NewAt(time.Now)
}

// NewAt pins the navigator's clock; tests inject a fixed now.
func NewAt(now func() time.Time) *Navigator {
	n := &Navigator{now: now}
	n.SetSpan(DefaultSpanDays)
	return n
}

// Window returns the current date window.
func (n *Navigator) Window() DateWindow {
	return n.window
}

// Shift translates both ends of the window by days, preserving its length.
// Negative days page backward.
func (n *Navigator) Shift(days int) {
	n.window.Start = n.window.Start.AddDate(0, 0, days)
	n.window.End = n.window.End.AddDate(0, 0, days)
}

// SetSpan resets the window to end today and start days-1 earlier, so a
// 7-day span always includes today.
func (n *Navigator) SetSpan(days int) {
	if days < 1 {
		days = 1
	}
	end := n.now()
	n.window = DateWindow{Start: end.AddDate(0, 0, -(days - 1)), End: end}
}

// CanShiftForward reports whether paging forward would stay within the
// present: once the window's end reaches the current date there is nothing
// newer to show.
func (n *Navigator) CanShiftForward() bool {
	return n.window.End.Before(n.now())
}

// Toggle expands the record with the given id, collapsing whatever was
// expanded before. Toggling the expanded record collapses it.
func (n *Navigator) Toggle(id string) {
	if n.selected == id {
		n.selected = ""
		return
	}
	n.selected = id
}

// Selected returns the id of the expanded record, or "" when collapsed.
func (n *Navigator) Selected() string {
	return n.selected
}
