package models

import "time"

// FamilyGroup links students of one household. Opposite-gender pairing is only
// allowed between members of the same group.
type FamilyGroup struct {
	ID             string    `db:"id" json:"id"`
	CongregationID string    `db:"congregation_id" json:"congregationId"`
	Name           string    `db:"name" json:"name"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

// FamilyGroupDetail includes member identifiers.
type FamilyGroupDetail struct {
	FamilyGroup
	MemberIDs []string `json:"memberIds"`
}
