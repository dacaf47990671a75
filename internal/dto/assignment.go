package dto

import "github.com/noah-isme/sistema-ministerial-api/internal/models"

// GenerateAssignmentsRequest captures POST /generate-assignments payload.
type GenerateAssignmentsRequest struct {
	Week               string             `json:"week" validate:"required,datetime=2006-01-02"`
	Parts              []ProgramPartInput `json:"parts,omitempty" validate:"omitempty,dive"`
	AllowDoubleBooking *bool              `json:"allowDoubleBooking,omitempty"`
	Regenerate         bool               `json:"regenerate"`
}

// GenerationStatistics summarises one generation run.
type GenerationStatistics struct {
	TotalParts       int   `json:"totalParts"`
	Filled           int   `json:"filled"`
	Unfillable       int   `json:"unfillable"`
	AssistantPending int   `json:"assistantPending"`
	Preserved        int   `json:"preserved"`
	Written          int   `json:"written"`
	ActiveStudents   int   `json:"activeStudents"`
	DurationMs       int64 `json:"durationMs"`
}

// GenerateAssignmentsResponse is returned by POST /generate-assignments.
type GenerateAssignmentsResponse struct {
	Week             string               `json:"week"`
	Assignments      []AssignmentView     `json:"assignments"`
	Unfillable       []string             `json:"unfillable"`
	AssistantPending []string             `json:"assistantPending"`
	Statistics       GenerationStatistics `json:"statistics"`
}

// AssignmentView is an assignment with the student names the UI displays.
type AssignmentView struct {
	models.Assignment
	PartTitle     string         `json:"partTitle"`
	PartOrdinal   int            `json:"partOrdinal"`
	PartSection   models.Section `json:"partSection"`
	PrimaryName   string         `json:"primaryName,omitempty"`
	AssistantName string         `json:"assistantName,omitempty"`
}

// ReassignRequest captures POST /assignments/:id/reassign payload.
type ReassignRequest struct {
	PrimaryStudentID   string  `json:"primaryStudentId" validate:"required,uuid"`
	AssistantStudentID *string `json:"assistantStudentId,omitempty" validate:"omitempty,uuid"`
	Notes              string  `json:"notes" validate:"max=500"`
}

// UpdateAssignmentStatusRequest captures POST /assignments/:id/status payload.
type UpdateAssignmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=realizado cancelado"`
	Notes  string `json:"notes" validate:"max=500"`
}

// EligibleCandidate is one row of the eligibility preview.
type EligibleCandidate struct {
	StudentID    string  `json:"studentId"`
	FullName     string  `json:"fullName"`
	Gender       string  `json:"gender"`
	Cargo        string  `json:"cargo"`
	LastAssigned *string `json:"lastAssigned,omitempty"`
	WeeksSince   int     `json:"weeksSince"`
	Busy         bool    `json:"busy"`
}
