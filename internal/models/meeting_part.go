package models

import (
	"fmt"
	"time"
)

// Section is one of the three blocks of the midweek meeting.
type Section string

const (
	SectionTreasures Section = "treasures"
	SectionMinistry  Section = "ministry"
	SectionLiving    Section = "living"
)

// Order returns the processing rank of the section; unknown sections sort last.
func (s Section) Order() int {
	switch s {
	case SectionTreasures:
		return 0
	case SectionMinistry:
		return 1
	case SectionLiving:
		return 2
	default:
		return 3
	}
}

// PartType drives qualification lookup for a meeting part.
type PartType string

const (
	PartTalk         PartType = "talk"
	PartGems         PartType = "gems"
	PartBibleReading PartType = "bible_reading"
	PartStarting     PartType = "starting"
	PartFollowing    PartType = "following"
	PartMaking       PartType = "making"
	PartExplaining   PartType = "explaining"
	PartCBS          PartType = "cbs"
)

// PartTypes lists every known part type in program order.
var PartTypes = []PartType{
	PartTalk,
	PartGems,
	PartBibleReading,
	PartStarting,
	PartFollowing,
	PartMaking,
	PartExplaining,
	PartCBS,
}

// Valid reports whether the part type is known.
func (t PartType) Valid() bool {
	for _, known := range PartTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParsePartType converts raw input into a PartType.
func ParsePartType(raw string) (PartType, error) {
	t := PartType(raw)
	if !t.Valid() {
		return "", fmt.Errorf("unknown part type %q", raw)
	}
	return t, nil
}

// MeetingPart is one agenda item of a week's program.
type MeetingPart struct {
	ID              string    `db:"id" json:"id"`
	CongregationID  string    `db:"congregation_id" json:"congregationId"`
	Week            Week      `db:"week" json:"week"`
	Ordinal         int       `db:"ordinal" json:"ordinal"`
	Section         Section   `db:"section" json:"section"`
	Type            PartType  `db:"type" json:"type"`
	Title           string    `db:"title" json:"title"`
	DurationMinutes int       `db:"duration_minutes" json:"durationMinutes"`
	NeedsAssistant  bool      `db:"needs_assistant" json:"needsAssistant"`
	Published       bool      `db:"published" json:"published"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}
