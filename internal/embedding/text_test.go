package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/deeptech-ai/talent-cli/internal/model"
)

func TestBuildExpertText_Full(t *testing.T) {
	e := model.Expert{
		Name:           "Ada Lovelace",
		Bio:            "15 years in scientific computing",
		Skills:         []string{"Python", "CUDA"},
		Domains:        []string{"ml-infrastructure"},
		ExpertiseAreas: []string{"numerical methods"},
		Patents:        "2 granted",
		Papers:         "Analytical Engine Notes",
		Products:       "Bernoulli program",
	}

	got := BuildExpertText(e)
	want := "Name: Ada Lovelace | Experience: 15 years in scientific computing | " +
		"Skills: Python, CUDA | Domains: ml-infrastructure | " +
		"Expertise Areas: numerical methods | Patents: 2 granted | " +
		"Publications: Analytical Engine Notes | Products: Bernoulli program"
	assert.Equal(t, want, got)
}

func TestBuildExpertText_SkipsEmptySections(t *testing.T) {
	e := model.Expert{
		Name:   "Grace Hopper",
		Skills: []string{"COBOL"},
	}
	assert.Equal(t, "Name: Grace Hopper | Skills: COBOL", BuildExpertText(e))
}

func TestBuildExpertText_Deterministic(t *testing.T) {
	e := model.Expert{Name: "A", Skills: []string{"x", "y"}}
	assert.Equal(t, BuildExpertText(e), BuildExpertText(e))
}
