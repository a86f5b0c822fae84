// Package completion detects the moment a list's items become all checked.
package completion

// State is the completion state of one list.
type State int

const (
	NotComplete State = iota
	AllComplete
)

func (s State) String() string {
	if s == AllComplete {
		return "all_complete"
	}
	return "not_complete"
}

// Checkable is an item that may be checked off.
type Checkable interface {
	IsChecked() bool
}

// Detector keeps one two-state machine per list. It fires only on the edge
// NotComplete → AllComplete; staying complete fires nothing and falling back
// resets silently. A list with zero items is NotComplete.
//
// Detector is not safe for concurrent use.
type Detector struct {
	states map[string]State
}

// New returns a Detector with every list NotComplete.
func New() *Detector {
	return &Detector{states: make(map[string]State)}
}

// Evaluate computes the state of a single snapshot.
func Evaluate[C Checkable](items []C) State {
	if len(items) == 0 {
		return NotComplete
	}
	for _, it := range items {
		if !it.IsChecked() {
			return NotComplete
		}
	}
	return AllComplete
}

// Observe feeds the next items snapshot for listID and reports whether the
// list just became complete.
func Observe[C Checkable](d *Detector, listID string, items []C) bool {
	next := Evaluate(items)
	prev := d.states[listID]
	d.states[listID] = next
	return prev == NotComplete && next == AllComplete
}

// State returns the last observed state of listID.
func (d *Detector) State(listID string) State {
	return d.states[listID]
}

// Forget drops the state of listID, e.g. when the list is deleted or its
// subscription is closed. It never fires.
func (d *Detector) Forget(listID string) {
	delete(d.states, listID)
}
