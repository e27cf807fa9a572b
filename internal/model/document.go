package model

// SourceType identifies the channel a document was extracted from.
type SourceType string

const (
	SourceTypeResume     SourceType = "resume"
	SourceTypePortfolio  SourceType = "portfolio"
	SourceTypeResearch   SourceType = "research"
	SourceTypeGitHub     SourceType = "github"
	SourceTypeEngagement SourceType = "engagement"
)

// SourceDocument is one extraction result from a single input (a resume file,
// a portfolio URL, a research paper, a GitHub profile). Documents are
// aggregation inputs only; they are never persisted. Fields the upstream
// extractor could not fill stay at their zero value and the aggregator
// treats that as "not reported".
type SourceDocument struct {
	SourceType SourceType `json:"source_type"`
	SourceName string     `json:"source_name"`
	RawText    string     `json:"raw_text"`

	Name            string   `json:"name,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	Certifications  []string `json:"certifications,omitempty"`
	YearsExperience float64  `json:"years_experience,omitempty"`

	// Research fields.
	PaperCount      int      `json:"paper_count,omitempty"`
	PatentCount     int      `json:"patent_count,omitempty"`
	ResearchTitles  []string `json:"research_titles,omitempty"`
	ResearchSummary string   `json:"research_summary,omitempty"`

	// Engagement and GitHub fields. Each source reports a disjoint
	// platform, so these are additive across documents.
	BlogPostCount    int      `json:"blog_post_count,omitempty"`
	CommunityAnswers int      `json:"community_answers,omitempty"`
	Upvotes          int      `json:"upvotes,omitempty"`
	GitHubRepos      int      `json:"github_repos,omitempty"`
	GitHubStars      int      `json:"github_stars,omitempty"`
	GitHubCommits    int      `json:"github_commits,omitempty"`
	GitHubLanguages  []string `json:"github_languages,omitempty"`

	TopTopics []string `json:"top_topics,omitempty"`

	// Provenance.
	CharCount        int    `json:"char_count,omitempty"`
	ExtractionMethod string `json:"extraction_method,omitempty"`
}
