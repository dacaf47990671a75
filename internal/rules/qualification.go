package rules

import "github.com/noah-isme/sistema-ministerial-api/internal/models"

// DefaultMinorAge is the age below which a student is treated as a minor.
const DefaultMinorAge = 18

// PartTypeSet is a set of part types backed by a bitmask. The zero value is empty.
type PartTypeSet uint16

func bit(t models.PartType) PartTypeSet {
	for i, known := range models.PartTypes {
		if known == t {
			return 1 << uint(i)
		}
	}
	return 0
}

// NewPartTypeSet builds a set from the given types, ignoring unknown ones.
func NewPartTypeSet(types ...models.PartType) PartTypeSet {
	var s PartTypeSet
	for _, t := range types {
		s |= bit(t)
	}
	return s
}

// Has reports whether t is in the set.
func (s PartTypeSet) Has(t models.PartType) bool {
	b := bit(t)
	return b != 0 && s&b != 0
}

// Without returns a copy of the set minus t.
func (s PartTypeSet) Without(t models.PartType) PartTypeSet {
	return s &^ bit(t)
}

// Len returns the number of part types in the set.
func (s PartTypeSet) Len() int {
	n := 0
	for _, t := range models.PartTypes {
		if s.Has(t) {
			n++
		}
	}
	return n
}

// Types lists the members in program order. It never returns nil.
func (s PartTypeSet) Types() []models.PartType {
	out := make([]models.PartType, 0, len(models.PartTypes))
	for _, t := range models.PartTypes {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

var (
	allParts = NewPartTypeSet(models.PartTypes...)

	participatoryParts = NewPartTypeSet(
		models.PartBibleReading,
		models.PartStarting,
		models.PartFollowing,
		models.PartMaking,
		models.PartExplaining,
	)
)

// Table maps (cargo, gender, age) to the part types a student may take.
type Table struct {
	MinorAge int
}

// NewTable returns a table using minorAge, or DefaultMinorAge when minorAge <= 0.
func NewTable(minorAge int) Table {
	if minorAge <= 0 {
		minorAge = DefaultMinorAge
	}
	return Table{MinorAge: minorAge}
}

// Qualifications returns the part types allowed for the combination. Unknown cargo
// or gender yields the empty set.
func (t Table) Qualifications(cargo models.Cargo, gender models.Gender, age int) PartTypeSet {
	if !cargo.Valid() || !gender.Valid() {
		return 0
	}

	set := participatoryParts
	if gender == models.GenderMale && cargo.Baptized() {
		set = allParts
	}

	minorAge := t.MinorAge
	if minorAge <= 0 {
		minorAge = DefaultMinorAge
	}
	if age < minorAge {
		set = set.Without(models.PartCBS)
	}
	return set
}

// For returns the qualification set of a student.
func (t Table) For(s models.Student) PartTypeSet {
	return t.Qualifications(s.Cargo, s.Gender, s.Age)
}

// Qualified reports whether the student may take the part type.
func (t Table) Qualified(s models.Student, partType models.PartType) bool {
	return t.For(s).Has(partType)
}
