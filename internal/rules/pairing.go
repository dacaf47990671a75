package rules

import (
	"sort"

	"github.com/noah-isme/sistema-ministerial-api/internal/models"
)

// AssistantRejection explains why a candidate assistant was refused.
type AssistantRejection string

const (
	RejectSelf        AssistantRejection = "same_student"
	RejectInactive    AssistantRejection = "inactive"
	RejectUnqualified AssistantRejection = "unqualified"
	RejectGender      AssistantRejection = "opposite_gender_unrelated"
	RejectBusy        AssistantRejection = "already_assigned"
)

// CheckAssistant applies pairing rules 1 to 3 to one candidate. It returns an empty
// rejection when the pair is allowed.
func (e *Engine) CheckAssistant(snap *Snapshot, partType models.PartType, primary, candidate models.Student, busy Busy) AssistantRejection {
	if candidate.ID == primary.ID {
		return RejectSelf
	}
	if !candidate.Active {
		return RejectInactive
	}
	spec, _ := Spec(partType)
	if !spec.HelperAssistant && !e.table.Qualified(candidate, partType) {
		return RejectUnqualified
	}
	if candidate.Gender != primary.Gender {
		if snap == nil || snap.Registry == nil || !snap.Registry.Related(primary.ID, candidate.ID) {
			return RejectGender
		}
	}
	if (snap != nil && snap.Unavailable.Has(candidate.ID)) || (!e.opts.AllowDoubleBooking && busy.Has(candidate.ID)) {
		return RejectBusy
	}
	return ""
}

// ResolveAssistant picks an assistant for primary. Among allowed candidates it
// prefers students still free this week, then the same gender, then the fewest
// assistant roles in the fairness window, then name. It returns false when nobody qualifies; the caller flags the part as
// waiting for an assistant instead of pairing incorrectly.
func (e *Engine) ResolveAssistant(snap *Snapshot, partType models.PartType, primary models.Student, busy Busy) (models.Student, bool) {
	if snap == nil || snap.Registry == nil {
		return models.Student{}, false
	}
	from := snap.Week.Add(-e.opts.FairnessWindowWeeks)

	type option struct {
		student    models.Student
		free       bool
		sameGender bool
		load       int
	}
	options := make([]option, 0)
	for _, candidate := range snap.Registry.Active() {
		if e.CheckAssistant(snap, partType, primary, candidate, busy) != "" {
			continue
		}
		options = append(options, option{
			student:    candidate,
			free:       !busy.Has(candidate.ID),
			sameGender: candidate.Gender == primary.Gender,
			load:       snap.History.AssistantCount(candidate.ID, from, snap.Week),
		})
	}
	if len(options) == 0 {
		return models.Student{}, false
	}
	sort.SliceStable(options, func(i, j int) bool {
		a, b := options[i], options[j]
		if a.free != b.free {
			return a.free
		}
		if a.sameGender != b.sameGender {
			return a.sameGender
		}
		if a.load != b.load {
			return a.load < b.load
		}
		return lessByName(a.student, b.student)
	})
	return options[0].student, true
}
