package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sistema-ministerial-api/internal/models"
)

func student(id, name string, gender models.Gender, cargo models.Cargo, age int) models.Student {
	return models.Student{ID: id, FullName: name, Gender: gender, Cargo: cargo, Age: age, Active: true}
}

func withFamily(s models.Student, group string) models.Student {
	s.FamilyGroupID = &group
	return s
}

func mustWeek(t *testing.T, raw string) models.Week {
	t.Helper()
	w, err := models.ParseWeek(raw)
	require.NoError(t, err)
	return w
}

func part(id string, ordinal int, partType models.PartType) models.MeetingPart {
	spec, _ := Spec(partType)
	return models.MeetingPart{
		ID:             id,
		Ordinal:        ordinal,
		Section:        spec.Section,
		Type:           partType,
		NeedsAssistant: spec.NeedsAssistant,
	}
}

func snapshotFor(t *testing.T, week string, students []models.Student, history []models.AssignmentHistory) *Snapshot {
	t.Helper()
	w := mustWeek(t, week)
	return &Snapshot{
		Week:     w,
		Registry: NewRegistry(students),
		History:  NewHistory(history, w),
	}
}

func ids(candidates []Candidate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Student.ID)
	}
	return out
}
