package rules

import (
	"sort"
	"strings"

	"github.com/noah-isme/sistema-ministerial-api/internal/models"
)

// Registry is a read-only snapshot of a congregation's students.
type Registry struct {
	students []models.Student
	byID     map[string]models.Student
}

// NewRegistry indexes the students. Later duplicates of an id are ignored.
func NewRegistry(students []models.Student) *Registry {
	r := &Registry{
		students: make([]models.Student, 0, len(students)),
		byID:     make(map[string]models.Student, len(students)),
	}
	for _, s := range students {
		if _, exists := r.byID[s.ID]; exists {
			continue
		}
		r.byID[s.ID] = s
		r.students = append(r.students, s)
	}
	sort.SliceStable(r.students, func(i, j int) bool {
		return lessByName(r.students[i], r.students[j])
	})
	return r
}

// Get returns the student with the given id.
func (r *Registry) Get(id string) (models.Student, bool) {
	if r == nil {
		return models.Student{}, false
	}
	s, ok := r.byID[id]
	return s, ok
}

// Students returns every student sorted by name.
func (r *Registry) Students() []models.Student {
	if r == nil {
		return nil
	}
	return r.students
}

// Active returns the active students sorted by name.
func (r *Registry) Active() []models.Student {
	if r == nil {
		return nil
	}
	out := make([]models.Student, 0, len(r.students))
	for _, s := range r.students {
		if s.Active {
			out = append(out, s)
		}
	}
	return out
}

// Related reports whether two students share a household: the same family group,
// one being the other's guardian, or a common guardian.
func (r *Registry) Related(aID, bID string) bool {
	if r == nil {
		return false
	}
	a, okA := r.byID[aID]
	b, okB := r.byID[bID]
	if !okA || !okB {
		return false
	}
	if group := a.FamilyGroup(); group != "" && group == b.FamilyGroup() {
		return true
	}
	if a.Guardian() == b.ID || b.Guardian() == a.ID {
		return true
	}
	return a.Guardian() != "" && a.Guardian() == b.Guardian()
}

func lessByName(a, b models.Student) bool {
	an, bn := strings.ToLower(a.FullName), strings.ToLower(b.FullName)
	if an != bn {
		return an < bn
	}
	return a.ID < b.ID
}

// History indexes past participations by student.
type History struct {
	lastByType    map[string]map[models.PartType]models.Week
	assistedWeeks map[string][]models.Week
}

// NewHistory builds the index, skipping entries of the excluded week.
func NewHistory(entries []models.AssignmentHistory, exclude models.Week) *History {
	h := &History{
		lastByType:    make(map[string]map[models.PartType]models.Week),
		assistedWeeks: make(map[string][]models.Week),
	}
	for _, e := range entries {
		if e.StudentID == "" || e.Week.Equal(exclude) {
			continue
		}
		if e.Assistant {
			h.assistedWeeks[e.StudentID] = append(h.assistedWeeks[e.StudentID], e.Week)
			continue
		}
		byType, ok := h.lastByType[e.StudentID]
		if !ok {
			byType = make(map[models.PartType]models.Week)
			h.lastByType[e.StudentID] = byType
		}
		if last, seen := byType[e.PartType]; !seen || last.Before(e.Week) {
			byType[e.PartType] = e.Week
		}
	}
	return h
}

// LastAssigned returns the most recent week the student held the part type as primary.
func (h *History) LastAssigned(studentID string, partType models.PartType) (models.Week, bool) {
	if h == nil {
		return models.Week{}, false
	}
	w, ok := h.lastByType[studentID][partType]
	return w, ok
}

// AssistantCount counts assistant roles in weeks [from, to).
func (h *History) AssistantCount(studentID string, from, to models.Week) int {
	if h == nil {
		return 0
	}
	n := 0
	for _, w := range h.assistedWeeks[studentID] {
		if !w.Before(from) && w.Before(to) {
			n++
		}
	}
	return n
}

// Busy tracks students already holding a part in the week being planned.
type Busy map[string]struct{}

// Mark records the ids as busy, ignoring empty ones.
func (b Busy) Mark(ids ...string) {
	for _, id := range ids {
		if id != "" {
			b[id] = struct{}{}
		}
	}
}

// Has reports whether the id is busy.
func (b Busy) Has(id string) bool {
	_, ok := b[id]
	return ok
}
