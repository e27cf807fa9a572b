package embedding

import (
	"regexp"
	"strings"
)

// Calibration constants for rescaling raw cosine similarity into a 0-100
// range. Same-domain short-text similarities cluster roughly in [-0.2, 0.8],
// so the affine map (cos - offset) * scale spreads realistic values across
// the full range. Tunable against labeled data; the shape to preserve is
// "near 0 raw maps low, 0.7+ raw maps near 100".
const (
	matchScoreOffset = 0.1
	matchScoreScale  = 140

	coherenceOffset = 0.3
	coherenceScale  = 140
)

// JobMatchScore rescales the cosine similarity between a resume embedding and
// a job-description embedding into [0, 100].
func JobMatchScore(resume, jobDescription []float32) float64 {
	sim := CosineSimilarity(resume, jobDescription)
	return clamp((sim-matchScoreOffset)*matchScoreScale, 0, 100)
}

// ProfileCoherence scores cross-document consistency in [0, 100] as the
// rescaled mean pairwise cosine similarity. Fewer than two vectors is
// perfectly coherent by convention, not by computation.
func ProfileCoherence(vectors [][]float32) float64 {
	if len(vectors) < 2 {
		return 100
	}
	var sum float64
	var pairs int
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			sum += CosineSimilarity(vectors[i], vectors[j])
			pairs++
		}
	}
	avg := sum / float64(pairs)
	return clamp((avg-coherenceOffset)*coherenceScale, 0, 100)
}

var (
	yearPattern  = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	digitPattern = regexp.MustCompile(`\d`)
	techPattern  = regexp.MustCompile(`(api|algorithm|database|framework|ml|ai|cloud)`)
)

// structureKeywords are section headings a substantive profile document
// tends to contain.
var structureKeywords = []string{
	"experience", "education", "skills", "projects", "work",
	"responsibilities", "achievements", "certifications", "publications",
}

// DocumentQualityScore is a coarse 0-100 heuristic for "is this a real,
// substantive document": length buckets, structural section keywords, and
// information-density signals. It is a secondary signal only, never the
// primary ranking criterion.
func DocumentQualityScore(text string) float64 {
	if text == "" {
		return 0
	}

	score := 0.0

	// Length (0-30).
	switch n := len(text); {
	case n > 5000:
		score += 30
	case n > 2000:
		score += 20
	case n > 500:
		score += 10
	}

	// Structure (0-40).
	lower := strings.ToLower(text)
	found := 0
	for _, kw := range structureKeywords {
		if strings.Contains(lower, kw) {
			found++
		}
	}
	score += minFloat(float64(found)*5, 40)

	// Information density (0-30).
	if yearPattern.MatchString(text) {
		score += 10
	}
	if digitPattern.MatchString(text) {
		score += 10
	}
	if techPattern.MatchString(lower) {
		score += 10
	}

	return minFloat(score, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
