package rules

import (
	"fmt"
	"sort"

	"github.com/noah-isme/sistema-ministerial-api/internal/models"
)

// PartSpec describes the fixed properties of a part type.
type PartSpec struct {
	Type            models.PartType `json:"type"`
	Section         models.Section  `json:"section"`
	Title           string          `json:"title"`
	DefaultDuration int             `json:"defaultDuration"`
	NeedsAssistant  bool            `json:"needsAssistant"`
	// HelperAssistant allows any active student to play the householder.
	HelperAssistant bool `json:"helperAssistant"`
	MaleOnly        bool `json:"maleOnly"`
}

var catalog = map[models.PartType]PartSpec{
	models.PartTalk:         {Type: models.PartTalk, Section: models.SectionTreasures, Title: "Discurso", DefaultDuration: 10, MaleOnly: true},
	models.PartGems:         {Type: models.PartGems, Section: models.SectionTreasures, Title: "Joias espirituais", DefaultDuration: 10, MaleOnly: true},
	models.PartBibleReading: {Type: models.PartBibleReading, Section: models.SectionTreasures, Title: "Leitura da Bíblia", DefaultDuration: 4},
	models.PartStarting:     {Type: models.PartStarting, Section: models.SectionMinistry, Title: "Iniciando conversas", DefaultDuration: 3, NeedsAssistant: true, HelperAssistant: true},
	models.PartFollowing:    {Type: models.PartFollowing, Section: models.SectionMinistry, Title: "Cultivando o interesse", DefaultDuration: 4, NeedsAssistant: true, HelperAssistant: true},
	models.PartMaking:       {Type: models.PartMaking, Section: models.SectionMinistry, Title: "Fazendo discípulos", DefaultDuration: 5, NeedsAssistant: true, HelperAssistant: true},
	models.PartExplaining:   {Type: models.PartExplaining, Section: models.SectionMinistry, Title: "Explicando suas crenças", DefaultDuration: 5, NeedsAssistant: true, HelperAssistant: true},
	models.PartCBS:          {Type: models.PartCBS, Section: models.SectionLiving, Title: "Estudo bíblico de congregação", DefaultDuration: 30, MaleOnly: true},
}

// Spec returns the catalog entry for a part type.
func Spec(t models.PartType) (PartSpec, bool) {
	spec, ok := catalog[t]
	return spec, ok
}

// Catalog lists all part specs in program order.
func Catalog() []PartSpec {
	out := make([]PartSpec, 0, len(catalog))
	for _, t := range models.PartTypes {
		out = append(out, catalog[t])
	}
	return out
}

// NormalizePart fills catalog-derived fields and rejects parts that contradict the
// catalog. declaredAssistant is the caller-supplied needsAssistant flag, if any.
func NormalizePart(part models.MeetingPart, declaredAssistant *bool) (models.MeetingPart, error) {
	spec, ok := Spec(part.Type)
	if !ok {
		return part, fmt.Errorf("part %d: unknown type %q", part.Ordinal, part.Type)
	}
	if part.Ordinal <= 0 {
		return part, fmt.Errorf("part %s: ordinal must be positive", part.Type)
	}
	if part.Section == "" {
		part.Section = spec.Section
	}
	if part.Section != spec.Section {
		return part, fmt.Errorf("part %d: type %s belongs to section %s, not %s", part.Ordinal, part.Type, spec.Section, part.Section)
	}
	if declaredAssistant != nil && *declaredAssistant != spec.NeedsAssistant {
		return part, fmt.Errorf("part %d: type %s has needsAssistant=%t", part.Ordinal, part.Type, spec.NeedsAssistant)
	}
	part.NeedsAssistant = spec.NeedsAssistant
	if part.DurationMinutes < 0 {
		return part, fmt.Errorf("part %d: duration must not be negative", part.Ordinal)
	}
	if part.DurationMinutes == 0 {
		part.DurationMinutes = spec.DefaultDuration
	}
	if part.Title == "" {
		part.Title = spec.Title
	}
	return part, nil
}

// SortParts orders parts treasures first, then ministry, then living, by ordinal.
// Stricter parts come first so they are filled before the pool is consumed.
func SortParts(parts []models.MeetingPart) []models.MeetingPart {
	sorted := make([]models.MeetingPart, len(parts))
	copy(sorted, parts)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Section.Order() != b.Section.Order() {
			return a.Section.Order() < b.Section.Order()
		}
		if a.Ordinal != b.Ordinal {
			return a.Ordinal < b.Ordinal
		}
		return a.ID < b.ID
	})
	return sorted
}
