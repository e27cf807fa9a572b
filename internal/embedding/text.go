package embedding

import (
	"strings"

	"github.com/deeptech-ai/talent-cli/internal/model"
)

// BuildExpertText assembles the canonical text an expert's embedding is
// computed from. Sections are pipe-joined and empty sections are skipped, so
// two experts with identical populated fields always produce identical text
// regardless of which optional fields are absent.
func BuildExpertText(e model.Expert) string {
	var parts []string

	add := func(label, value string) {
		value = strings.TrimSpace(value)
		if value != "" {
			parts = append(parts, label+": "+value)
		}
	}

	add("Name", e.Name)
	add("Experience", e.Bio)
	add("Skills", strings.Join(e.Skills, ", "))
	add("Domains", strings.Join(e.Domains, ", "))
	add("Expertise Areas", strings.Join(e.ExpertiseAreas, ", "))
	add("Patents", e.Patents)
	add("Publications", e.Papers)
	add("Products", e.Products)

	return strings.Join(parts, " | ")
}
