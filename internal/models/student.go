package models

import (
	"fmt"
	"time"
)

// Gender is stored with the congregation's Portuguese vocabulary.
type Gender string

const (
	GenderMale   Gender = "masculino"
	GenderFemale Gender = "feminino"
)

// Valid reports whether the gender is one of the known values.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Cargo is a student's congregation privilege.
type Cargo string

const (
	CargoElder               Cargo = "anciao"
	CargoMinisterialServant  Cargo = "servo_ministerial"
	CargoRegularPioneer      Cargo = "pioneiro_regular"
	CargoBaptizedPublisher   Cargo = "publicador_batizado"
	CargoUnbaptizedPublisher Cargo = "publicador_nao_batizado"
	CargoNewStudent          Cargo = "estudante_novo"
)

// Cargos lists every known cargo in descending privilege order.
var Cargos = []Cargo{
	CargoElder,
	CargoMinisterialServant,
	CargoRegularPioneer,
	CargoBaptizedPublisher,
	CargoUnbaptizedPublisher,
	CargoNewStudent,
}

// Valid reports whether the cargo is known.
func (c Cargo) Valid() bool {
	for _, known := range Cargos {
		if c == known {
			return true
		}
	}
	return false
}

// Baptized reports whether the cargo implies baptism.
func (c Cargo) Baptized() bool {
	switch c {
	case CargoElder, CargoMinisterialServant, CargoRegularPioneer, CargoBaptizedPublisher:
		return true
	default:
		return false
	}
}

// ParseCargo converts raw input into a Cargo.
func ParseCargo(raw string) (Cargo, error) {
	c := Cargo(raw)
	if !c.Valid() {
		return "", fmt.Errorf("unknown cargo %q", raw)
	}
	return c, nil
}

// Student is a congregation member who can receive meeting parts.
type Student struct {
	ID             string    `db:"id" json:"id"`
	CongregationID string    `db:"congregation_id" json:"congregationId"`
	FullName       string    `db:"full_name" json:"fullName"`
	Gender         Gender    `db:"gender" json:"gender"`
	Cargo          Cargo     `db:"cargo" json:"cargo"`
	Age            int       `db:"age" json:"age"`
	Active         bool      `db:"active" json:"active"`
	FamilyGroupID  *string   `db:"family_group_id" json:"familyGroupId,omitempty"`
	GuardianID     *string   `db:"guardian_id" json:"guardianId,omitempty"`
	Notes          string    `db:"notes" json:"notes"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// FamilyGroup returns the family group id or an empty string.
func (s Student) FamilyGroup() string {
	if s.FamilyGroupID == nil {
		return ""
	}
	return *s.FamilyGroupID
}

// Guardian returns the guardian id or an empty string.
func (s Student) Guardian() string {
	if s.GuardianID == nil {
		return ""
	}
	return *s.GuardianID
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	CongregationID string
	Search         string
	Cargo          Cargo
	Gender         Gender
	Active         *bool
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}

// StudentDetail adds the derived qualification set to a student.
type StudentDetail struct {
	Student
	Qualifications []PartType `json:"qualifications"`
}
