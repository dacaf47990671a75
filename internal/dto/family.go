package dto

// CreateFamilyRequest captures POST /families payload.
type CreateFamilyRequest struct {
	Name      string   `json:"name" validate:"required,min=2,max=120"`
	MemberIDs []string `json:"memberIds" validate:"omitempty,dive,uuid"`
}

// ReplaceFamilyMembersRequest captures PUT /families/:id/members payload.
type ReplaceFamilyMembersRequest struct {
	MemberIDs []string `json:"memberIds" validate:"dive,uuid"`
}
