// Package aggregate merges per-source document extractions into one canonical
// candidate profile. All functions are pure: no I/O, no clocks, no shared
// state, so independent aggregations can run concurrently.
package aggregate

import (
	"sort"
	"strings"

	"github.com/deeptech-ai/talent-cli/internal/model"
)

// DocumentSeparator delimits per-document text inside CombinedText. The join
// order is the input order, so identical inputs always produce byte-identical
// combined text (and therefore reproducible embeddings).
const DocumentSeparator = "\n\n---DOCUMENT SEPARATOR---\n\n"

const topTopicLimit = 10

// AggregateProfile merges documents into a single profile. An empty input
// yields the all-zero profile, not an error: upstream extraction is
// unreliable by nature and missing data degrades the profile rather than
// failing the call.
func AggregateProfile(docs []model.SourceDocument) model.CandidateProfile {
	if len(docs) == 0 {
		return emptyProfile()
	}

	p := model.CandidateProfile{
		Name:            resolveName(docs),
		CombinedText:    combineText(docs),
		YearsExperience: maxExperience(docs),
		Skills:          mergeSkills(docs),
		ResearchTitles:  mergeTitles(docs),
		ResearchSummary: longestSummary(docs),
		TopTopics:       mergeTopics(docs),
		DocumentCount:   len(docs),
		SourceTypes:     distinctSourceTypes(docs),
	}
	p.SkillCount = len(p.Skills)
	p.CertificationCount = countCertifications(docs)

	for _, d := range docs {
		p.PaperCount += d.PaperCount
		p.PatentCount += d.PatentCount
		p.BlogPostCount += d.BlogPostCount
		p.CommunityAnswers += d.CommunityAnswers
		p.Upvotes += d.Upvotes
		p.GitHubRepos += d.GitHubRepos
		p.GitHubStars += d.GitHubStars
		p.GitHubCommits += d.GitHubCommits
	}

	return p
}

// CoverageScore rewards source diversity, not volume: distinct source types
// are counted and mapped through a step function (1 source is easy to
// fabricate; four independently corroborating sources are not).
func CoverageScore(docs []model.SourceDocument) float64 {
	types := make(map[model.SourceType]struct{})
	for _, d := range docs {
		types[d.SourceType] = struct{}{}
	}
	switch n := len(types); {
	case n >= 4:
		return 20
	case n == 3:
		return 12
	case n == 2:
		return 5
	default:
		return 0
	}
}

func emptyProfile() model.CandidateProfile {
	return model.CandidateProfile{
		Name:           "Unknown",
		Skills:         []string{},
		ResearchTitles: []string{},
		TopTopics:      []string{},
		SourceTypes:    []model.SourceType{},
	}
}

// resolveName returns the most frequent non-"Unknown" name, ties broken by
// first occurrence in document order.
func resolveName(docs []model.SourceDocument) string {
	counts := make(map[string]int)
	firstSeen := make(map[string]int)
	order := 0
	for _, d := range docs {
		if d.Name == "" || d.Name == "Unknown" {
			continue
		}
		if _, ok := counts[d.Name]; !ok {
			firstSeen[d.Name] = order
			order++
		}
		counts[d.Name]++
	}
	if len(counts) == 0 {
		return "Unknown"
	}

	best := ""
	for name := range counts {
		if best == "" ||
			counts[name] > counts[best] ||
			(counts[name] == counts[best] && firstSeen[name] < firstSeen[best]) {
			best = name
		}
	}
	return best
}

// maxExperience trusts the single most information-dense source rather than
// summing: a resume and a portfolio usually describe the same employment
// history, so summing would double-count it.
func maxExperience(docs []model.SourceDocument) float64 {
	max := 0.0
	for _, d := range docs {
		if d.YearsExperience > max {
			max = d.YearsExperience
		}
	}
	return max
}

// mergeSkills deduplicates case-insensitively, keeps the first-seen casing as
// canonical, and orders by descending cross-source frequency with first-seen
// order breaking ties.
func mergeSkills(docs []model.SourceDocument) []string {
	type entry struct {
		canonical string
		count     int
		order     int
	}
	byKey := make(map[string]*entry)
	var entries []*entry
	for _, d := range docs {
		for _, s := range d.Skills {
			if s == "" {
				continue
			}
			key := strings.ToLower(s)
			e, ok := byKey[key]
			if !ok {
				e = &entry{canonical: s, order: len(entries)}
				byKey[key] = e
				entries = append(entries, e)
			}
			e.count++
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].order < entries[j].order
	})

	skills := make([]string, 0, len(entries))
	for _, e := range entries {
		skills = append(skills, e.canonical)
	}
	return skills
}

func countCertifications(docs []model.SourceDocument) int {
	certs := make(map[string]struct{})
	for _, d := range docs {
		for _, c := range d.Certifications {
			if c != "" {
				certs[strings.ToLower(c)] = struct{}{}
			}
		}
	}
	return len(certs)
}

// mergeTitles unions research titles with exact-string dedup, preserving
// first-seen order. Fuzzy matching is deliberately not attempted.
func mergeTitles(docs []model.SourceDocument) []string {
	seen := make(map[string]struct{})
	titles := []string{}
	for _, d := range docs {
		for _, t := range d.ResearchTitles {
			if t == "" {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			titles = append(titles, t)
		}
	}
	return titles
}

// longestSummary picks the single longest non-empty research summary as a
// proxy for the most detailed one.
func longestSummary(docs []model.SourceDocument) string {
	best := ""
	for _, d := range docs {
		if len(d.ResearchSummary) > len(best) {
			best = d.ResearchSummary
		}
	}
	return best
}

// mergeTopics counts topic frequency across all documents, folding GitHub
// languages in as pseudo-topics, and returns the top topics by frequency with
// first-seen order breaking ties.
func mergeTopics(docs []model.SourceDocument) []string {
	type entry struct {
		topic string
		count int
		order int
	}
	byTopic := make(map[string]*entry)
	var entries []*entry
	add := func(topic string) {
		if topic == "" {
			return
		}
		e, ok := byTopic[topic]
		if !ok {
			e = &entry{topic: topic, order: len(entries)}
			byTopic[topic] = e
			entries = append(entries, e)
		}
		e.count++
	}
	for _, d := range docs {
		for _, t := range d.TopTopics {
			add(t)
		}
		if d.SourceType == model.SourceTypeGitHub {
			for _, lang := range d.GitHubLanguages {
				add(lang)
			}
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].order < entries[j].order
	})

	n := len(entries)
	if n > topTopicLimit {
		n = topTopicLimit
	}
	topics := make([]string, 0, n)
	for _, e := range entries[:n] {
		topics = append(topics, e.topic)
	}
	return topics
}

func combineText(docs []model.SourceDocument) string {
	var texts []string
	for _, d := range docs {
		if d.RawText != "" {
			texts = append(texts, d.RawText)
		}
	}
	return strings.Join(texts, DocumentSeparator)
}

func distinctSourceTypes(docs []model.SourceDocument) []model.SourceType {
	seen := make(map[model.SourceType]struct{})
	types := []model.SourceType{}
	for _, d := range docs {
		if _, ok := seen[d.SourceType]; ok {
			continue
		}
		seen[d.SourceType] = struct{}{}
		types = append(types, d.SourceType)
	}
	return types
}
