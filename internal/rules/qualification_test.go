package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sistema-ministerial-api/internal/models"
)

func TestQualificationsBaptizedMale(t *testing.T) {
	table := NewTable(18)

	set := table.Qualifications(models.CargoBaptizedPublisher, models.GenderMale, 25)
	assert.Equal(t, models.PartTypes, set.Types())
}

func TestQualificationsNewStudentFemale(t *testing.T) {
	table := NewTable(18)

	set := table.Qualifications(models.CargoNewStudent, models.GenderFemale, 20)
	assert.Equal(t, []models.PartType{
		models.PartBibleReading,
		models.PartStarting,
		models.PartFollowing,
		models.PartMaking,
		models.PartExplaining,
	}, set.Types())
	assert.False(t, set.Has(models.PartTalk))
	assert.False(t, set.Has(models.PartGems))
	assert.False(t, set.Has(models.PartCBS))
}

func TestQualificationsGovernanceMatrix(t *testing.T) {
	table := NewTable(18)
	restricted := []models.PartType{models.PartTalk, models.PartGems, models.PartCBS}

	cases := []struct {
		name   string
		cargo  models.Cargo
		gender models.Gender
		full   bool
	}{
		{"elder", models.CargoElder, models.GenderMale, true},
		{"servant", models.CargoMinisterialServant, models.GenderMale, true},
		{"male pioneer", models.CargoRegularPioneer, models.GenderMale, true},
		{"female pioneer", models.CargoRegularPioneer, models.GenderFemale, false},
		{"female baptized", models.CargoBaptizedPublisher, models.GenderFemale, false},
		{"unbaptized male", models.CargoUnbaptizedPublisher, models.GenderMale, false},
		{"new male student", models.CargoNewStudent, models.GenderMale, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			set := table.Qualifications(tc.cargo, tc.gender, 40)
			for _, pt := range restricted {
				assert.Equal(t, tc.full, set.Has(pt), pt)
			}
			assert.True(t, set.Has(models.PartStarting))
			assert.True(t, set.Has(models.PartBibleReading))
		})
	}
}

func TestQualificationsMinorLosesCBS(t *testing.T) {
	table := NewTable(18)

	set := table.Qualifications(models.CargoBaptizedPublisher, models.GenderMale, 16)
	assert.False(t, set.Has(models.PartCBS))
	assert.True(t, set.Has(models.PartTalk))
	assert.Equal(t, 7, set.Len())

	adult := table.Qualifications(models.CargoBaptizedPublisher, models.GenderMale, 18)
	assert.True(t, adult.Has(models.PartCBS))
}

func TestQualificationsUnknownValuesAreEmpty(t *testing.T) {
	table := NewTable(0)

	assert.Equal(t, DefaultMinorAge, table.MinorAge)
	assert.Equal(t, 0, table.Qualifications("bispo", models.GenderMale, 30).Len())
	assert.Equal(t, 0, table.Qualifications(models.CargoElder, "outro", 30).Len())
	assert.NotNil(t, table.Qualifications("bispo", models.GenderMale, 30).Types())
}
