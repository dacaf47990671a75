package dto

// CreateStudentRequest captures POST /students payload.
type CreateStudentRequest struct {
	FullName      string  `json:"fullName" validate:"required,min=2,max=120"`
	Gender        string  `json:"gender" validate:"required,oneof=masculino feminino"`
	Cargo         string  `json:"cargo" validate:"required,oneof=anciao servo_ministerial pioneiro_regular publicador_batizado publicador_nao_batizado estudante_novo"`
	Age           int     `json:"age" validate:"min=0,max=120"`
	Active        *bool   `json:"active,omitempty"`
	FamilyGroupID *string `json:"familyGroupId,omitempty" validate:"omitempty,uuid"`
	GuardianID    *string `json:"guardianId,omitempty" validate:"omitempty,uuid"`
	Notes         string  `json:"notes" validate:"max=500"`
}

// UpdateStudentRequest captures PUT /students/:id payload. Cargo changes are promotions or demotions.
type UpdateStudentRequest struct {
	FullName      string  `json:"fullName" validate:"required,min=2,max=120"`
	Gender        string  `json:"gender" validate:"required,oneof=masculino feminino"`
	Cargo         string  `json:"cargo" validate:"required,oneof=anciao servo_ministerial pioneiro_regular publicador_batizado publicador_nao_batizado estudante_novo"`
	Age           int     `json:"age" validate:"min=0,max=120"`
	Active        bool    `json:"active"`
	FamilyGroupID *string `json:"familyGroupId,omitempty" validate:"omitempty,uuid"`
	GuardianID    *string `json:"guardianId,omitempty" validate:"omitempty,uuid"`
	Notes         string  `json:"notes" validate:"max=500"`
}

// StudentQuery holds GET /students query parameters.
type StudentQuery struct {
	Search    string `form:"search"`
	Cargo     string `form:"cargo" validate:"omitempty,oneof=anciao servo_ministerial pioneiro_regular publicador_batizado publicador_nao_batizado estudante_novo"`
	Gender    string `form:"gender" validate:"omitempty,oneof=masculino feminino"`
	Active    *bool  `form:"active"`
	Page      int    `form:"page" validate:"omitempty,min=1"`
	Limit     int    `form:"limit" validate:"omitempty,min=1,max=100"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder" validate:"omitempty,oneof=asc desc ASC DESC"`
}
