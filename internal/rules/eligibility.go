package rules

import (
	"sort"

	"github.com/noah-isme/sistema-ministerial-api/internal/models"
)

// Options tunes eligibility and pairing.
type Options struct {
	AllowDoubleBooking  bool
	FairnessWindowWeeks int
}

// Snapshot bundles the read-only inputs of one planning run.
type Snapshot struct {
	Week     models.Week
	Registry *Registry
	History  *History
	// Unavailable students were cancelled out of this week and are never picked,
	// even when double booking is allowed.
	Unavailable Busy
}

// Candidate is an eligible student with rotation data.
type Candidate struct {
	Student      models.Student `json:"student"`
	LastAssigned *models.Week   `json:"lastAssigned,omitempty"`
	// WeeksSince is -1 when the student never held this part type.
	WeeksSince int `json:"weeksSince"`
	// DoubleBooked is set when the student already holds a part this week. Such
	// candidates only appear when double booking is allowed, after every free one.
	DoubleBooked bool `json:"doubleBooked,omitempty"`
}

// Engine applies the qualification table to snapshots.
type Engine struct {
	table Table
	opts  Options
}

// NewEngine constructs an engine.
func NewEngine(table Table, opts Options) *Engine {
	if opts.FairnessWindowWeeks <= 0 {
		opts.FairnessWindowWeeks = 8
	}
	return &Engine{table: table, opts: opts}
}

// Table returns the qualification table in use.
func (e *Engine) Table() Table {
	return e.table
}

// Options returns the engine options.
func (e *Engine) Options() Options {
	return e.opts
}

// Eligible lists the active, qualified, non-busy students for a part type. Students
// who have gone longest without this part type come first; ties break by name then
// id. With double booking allowed, busy students follow the free ones in the same
// rotation order. An empty result is a coverage gap, not an error.
func (e *Engine) Eligible(snap *Snapshot, partType models.PartType, busy Busy) []Candidate {
	if snap == nil || snap.Registry == nil {
		return []Candidate{}
	}
	out := make([]Candidate, 0)
	for _, s := range snap.Registry.Active() {
		if snap.Unavailable.Has(s.ID) || (!e.opts.AllowDoubleBooking && busy.Has(s.ID)) {
			continue
		}
		if !e.table.Qualified(s, partType) {
			continue
		}
		c := Candidate{Student: s, WeeksSince: -1, DoubleBooked: busy.Has(s.ID)}
		if last, ok := snap.History.LastAssigned(s.ID, partType); ok {
			lastCopy := last
			c.LastAssigned = &lastCopy
			c.WeeksSince = snap.Week.WeeksSince(last)
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.DoubleBooked != b.DoubleBooked:
			return !a.DoubleBooked
		case a.LastAssigned == nil && b.LastAssigned != nil:
			return true
		case a.LastAssigned != nil && b.LastAssigned == nil:
			return false
		case a.LastAssigned != nil && !a.LastAssigned.Equal(*b.LastAssigned):
			return a.LastAssigned.Before(*b.LastAssigned)
		}
		return lessByName(a.Student, b.Student)
	})
	return out
}
