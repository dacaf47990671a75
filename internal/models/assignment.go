package models

import "time"

// PartState tracks a part through generation and instructor review.
type PartState string

const (
	PartStatePending    PartState = "PENDING"
	PartStateFilled     PartState = "FILLED"
	PartStateUnfillable PartState = "UNFILLABLE"
	PartStateConfirmed  PartState = "CONFIRMED"
	PartStateReassigned PartState = "REASSIGNED"
)

// Locked reports whether the generator must leave the part untouched.
func (s PartState) Locked() bool {
	return s == PartStateConfirmed || s == PartStateReassigned
}

var partTransitions = map[PartState][]PartState{
	PartStatePending:    {PartStateFilled, PartStateUnfillable, PartStateReassigned},
	PartStateFilled:     {PartStateFilled, PartStateUnfillable, PartStateConfirmed, PartStateReassigned, PartStatePending},
	PartStateUnfillable: {PartStateFilled, PartStateUnfillable, PartStateConfirmed, PartStateReassigned, PartStatePending},
	PartStateReassigned: {PartStateConfirmed, PartStateReassigned, PartStatePending},
	PartStateConfirmed:  {PartStatePending},
}

// CanTransition reports whether a part may move from one state to another.
func CanTransition(from, to PartState) bool {
	for _, next := range partTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AssignmentStatus is the designation status shown to the congregation.
type AssignmentStatus string

const (
	AssignmentStatusDesignated AssignmentStatus = "designado"
	AssignmentStatusDone       AssignmentStatus = "realizado"
	AssignmentStatusCancelled  AssignmentStatus = "cancelado"
)

// Assignment binds up to two students to one meeting part of one week.
type Assignment struct {
	ID                 string           `db:"id" json:"id"`
	CongregationID     string           `db:"congregation_id" json:"congregationId"`
	Week               Week             `db:"week" json:"week"`
	PartID             string           `db:"part_id" json:"partId"`
	PartType           PartType         `db:"part_type" json:"partType"`
	PrimaryStudentID   *string          `db:"primary_student_id" json:"primaryStudentId,omitempty"`
	AssistantStudentID *string          `db:"assistant_student_id" json:"assistantStudentId,omitempty"`
	AssistantPending   bool             `db:"assistant_pending" json:"assistantPending"`
	State              PartState        `db:"state" json:"state"`
	Status             AssignmentStatus `db:"status" json:"status"`
	Notes              string           `db:"notes" json:"notes"`
	CreatedAt          time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time        `db:"updated_at" json:"updatedAt"`
}

// Primary returns the primary student id or an empty string.
func (a Assignment) Primary() string {
	if a.PrimaryStudentID == nil {
		return ""
	}
	return *a.PrimaryStudentID
}

// Assistant returns the assistant student id or an empty string.
func (a Assignment) Assistant() string {
	if a.AssistantStudentID == nil {
		return ""
	}
	return *a.AssistantStudentID
}

// AssignmentHistory is one past participation used for rotation fairness.
type AssignmentHistory struct {
	StudentID string   `db:"student_id" json:"studentId"`
	PartType  PartType `db:"part_type" json:"partType"`
	Week      Week     `db:"week" json:"week"`
	Assistant bool     `db:"assistant" json:"assistant"`
}
