package dto

// ProgramPartInput is one part of a weekly program payload. Section and
// needsAssistant default from the part catalog and must agree with it when sent.
type ProgramPartInput struct {
	Ordinal         int    `json:"ordinal" yaml:"ordinal" validate:"required,min=1"`
	Type            string `json:"type" yaml:"type" validate:"required,oneof=talk gems bible_reading starting following making explaining cbs"`
	Section         string `json:"section,omitempty" yaml:"section,omitempty" validate:"omitempty,oneof=treasures ministry living"`
	Title           string `json:"title" yaml:"title" validate:"max=200"`
	DurationMinutes int    `json:"durationMinutes" yaml:"durationMinutes" validate:"min=0,max=60"`
	NeedsAssistant  *bool  `json:"needsAssistant,omitempty" yaml:"needsAssistant,omitempty"`
}

// CreateProgramRequest captures POST /weeks/:week/program payload.
type CreateProgramRequest struct {
	Parts []ProgramPartInput `json:"parts" validate:"required,min=1,dive"`
}
