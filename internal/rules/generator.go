package rules

import (
	"github.com/noah-isme/sistema-ministerial-api/internal/models"
)

// PlanInput is everything the planner needs for one week.
type PlanInput struct {
	Snapshot *Snapshot
	Parts    []models.MeetingPart
	// Existing holds the week's stored assignments keyed implicitly by part id.
	Existing []models.Assignment
	// Regenerate also reprocesses FILLED parts. Reviewed parts are never touched.
	Regenerate bool
}

// Outcome is the planned assignment for one part.
type Outcome struct {
	Part       models.MeetingPart `json:"part"`
	Assignment models.Assignment  `json:"assignment"`
	Changed    bool               `json:"changed"`
	Preserved  bool               `json:"preserved"`
}

// Statistics summarises a planning run.
type Statistics struct {
	TotalParts       int `json:"totalParts"`
	Filled           int `json:"filled"`
	Unfillable       int `json:"unfillable"`
	AssistantPending int `json:"assistantPending"`
	Preserved        int `json:"preserved"`
	Written          int `json:"written"`
	ActiveStudents   int `json:"activeStudents"`
}

// Plan is the result of planning one week. Coverage gaps are listed, not raised.
type Plan struct {
	Week             models.Week `json:"week"`
	Outcomes         []Outcome   `json:"outcomes"`
	Unfillable       []string    `json:"unfillable"`
	AssistantPending []string    `json:"assistantPending"`
	Statistics       Statistics  `json:"statistics"`
}

// Changed returns the assignments that must be written.
func (p Plan) Changed() []models.Assignment {
	out := make([]models.Assignment, 0, p.Statistics.Written)
	for _, o := range p.Outcomes {
		if o.Changed {
			out = append(out, o.Assignment)
		}
	}
	return out
}

// Assignments returns the resulting assignment of every part in program order.
func (p Plan) Assignments() []models.Assignment {
	out := make([]models.Assignment, 0, len(p.Outcomes))
	for _, o := range p.Outcomes {
		out = append(out, o.Assignment)
	}
	return out
}

// Plan fills the week's parts. Reviewed parts (CONFIRMED, REASSIGNED) and, unless
// Regenerate is set, FILLED parts keep their students, who count as busy. The
// remaining parts are filled in catalog order: treasures, ministry, living.
func (e *Engine) Plan(in PlanInput) Plan {
	snap := &Snapshot{Registry: NewRegistry(nil)}
	if in.Snapshot != nil {
		local := *in.Snapshot
		snap = &local
	}
	unavailable := Busy{}
	for id := range snap.Unavailable {
		unavailable.Mark(id)
	}
	snap.Unavailable = unavailable
	parts := SortParts(in.Parts)

	existing := make(map[string]models.Assignment, len(in.Existing))
	for _, a := range in.Existing {
		existing[a.PartID] = a
	}
	for _, a := range in.Existing {
		if a.Status == models.AssignmentStatusCancelled {
			snap.Unavailable.Mark(a.Primary())
		}
	}

	busy := Busy{}
	keep := make(map[string]bool, len(parts))
	for _, part := range parts {
		prev, ok := existing[part.ID]
		if !ok || prev.Status == models.AssignmentStatusCancelled {
			continue
		}
		switch {
		case prev.State.Locked():
			keep[part.ID] = true
			busy.Mark(prev.Primary(), prev.Assistant())
		case prev.State == models.PartStateFilled && !in.Regenerate && e.primaryHolds(snap, part, prev):
			keep[part.ID] = true
			busy.Mark(prev.Primary())
			if e.assistantHolds(snap, part, prev) {
				busy.Mark(prev.Assistant())
			}
		}
	}

	plan := Plan{
		Week:             snap.Week,
		Outcomes:         make([]Outcome, 0, len(parts)),
		Unfillable:       []string{},
		AssistantPending: []string{},
	}
	if snap.Registry != nil {
		plan.Statistics.ActiveStudents = len(snap.Registry.Active())
	}

	for _, part := range parts {
		prev, hasPrev := existing[part.ID]
		var outcome Outcome
		switch {
		case keep[part.ID] && prev.State.Locked():
			outcome = Outcome{Part: part, Assignment: prev, Preserved: true}
		case keep[part.ID]:
			outcome = e.completeAssistant(snap, part, prev, busy)
		default:
			outcome = e.fill(snap, part, prev, hasPrev, busy)
		}
		plan.record(outcome)
	}
	return plan
}

// primaryHolds reports whether a generated primary may keep the part: still active,
// still qualified for the type and not cancelled out of the week.
func (e *Engine) primaryHolds(snap *Snapshot, part models.MeetingPart, prev models.Assignment) bool {
	if snap.Registry == nil || snap.Unavailable.Has(prev.Primary()) {
		return false
	}
	s, ok := snap.Registry.Get(prev.Primary())
	return ok && s.Active && e.table.Qualified(s, part.Type)
}

// assistantHolds re-applies pairing rules 1 to 3 to a stored assistant.
func (e *Engine) assistantHolds(snap *Snapshot, part models.MeetingPart, prev models.Assignment) bool {
	if !part.NeedsAssistant || prev.Assistant() == "" || snap.Registry == nil {
		return false
	}
	primary, ok := snap.Registry.Get(prev.Primary())
	if !ok {
		return false
	}
	assistant, ok := snap.Registry.Get(prev.Assistant())
	if !ok {
		return false
	}
	return e.CheckAssistant(snap, part.Type, primary, assistant, Busy{}) == ""
}

func (e *Engine) fill(snap *Snapshot, part models.MeetingPart, prev models.Assignment, hasPrev bool, busy Busy) Outcome {
	next := models.Assignment{
		CongregationID: part.CongregationID,
		Week:           snap.Week,
		PartID:         part.ID,
		PartType:       part.Type,
		State:          models.PartStateUnfillable,
		Status:         models.AssignmentStatusDesignated,
	}
	if hasPrev {
		next.ID = prev.ID
		next.Notes = prev.Notes
		next.CreatedAt = prev.CreatedAt
	}

	candidates := e.Eligible(snap, part.Type, busy)
	if len(candidates) > 0 {
		primary := candidates[0].Student
		busy.Mark(primary.ID)
		next.PrimaryStudentID = stringPtr(primary.ID)
		next.State = models.PartStateFilled
		if part.NeedsAssistant {
			if assistant, ok := e.ResolveAssistant(snap, part.Type, primary, busy); ok {
				busy.Mark(assistant.ID)
				next.AssistantStudentID = stringPtr(assistant.ID)
			} else {
				next.AssistantPending = true
			}
		}
	}

	return Outcome{Part: part, Assignment: next, Changed: !hasPrev || differs(prev, next)}
}

// completeAssistant retries pairing for a kept FILLED part still waiting for an
// assistant, or one whose assistant no longer passes the pairing rules.
func (e *Engine) completeAssistant(snap *Snapshot, part models.MeetingPart, prev models.Assignment, busy Busy) Outcome {
	outcome := Outcome{Part: part, Assignment: prev}
	if !part.NeedsAssistant {
		return outcome
	}
	if e.assistantHolds(snap, part, prev) {
		return outcome
	}
	primary, ok := snap.Registry.Get(prev.Primary())
	if !ok {
		return outcome
	}

	next := prev
	next.AssistantStudentID = nil
	next.AssistantPending = true
	if assistant, found := e.ResolveAssistant(snap, part.Type, primary, busy); found {
		busy.Mark(assistant.ID)
		next.AssistantStudentID = stringPtr(assistant.ID)
		next.AssistantPending = false
	}
	outcome.Assignment = next
	outcome.Changed = differs(prev, next)
	return outcome
}

func (p *Plan) record(o Outcome) {
	p.Outcomes = append(p.Outcomes, o)
	p.Statistics.TotalParts++
	if o.Preserved {
		p.Statistics.Preserved++
	}
	if o.Changed {
		p.Statistics.Written++
	}
	a := o.Assignment
	if a.Primary() == "" {
		p.Statistics.Unfillable++
		p.Unfillable = append(p.Unfillable, o.Part.ID)
		return
	}
	p.Statistics.Filled++
	if a.AssistantPending {
		p.Statistics.AssistantPending++
		p.AssistantPending = append(p.AssistantPending, o.Part.ID)
	}
}

func differs(a, b models.Assignment) bool {
	return a.Primary() != b.Primary() ||
		a.Assistant() != b.Assistant() ||
		a.State != b.State ||
		a.Status != b.Status ||
		a.AssistantPending != b.AssistantPending
}

func stringPtr(v string) *string {
	return &v
}
