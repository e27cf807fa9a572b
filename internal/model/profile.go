package model

// CandidateProfile is the canonical merged representation of a candidate
// across all processed source documents. It is recomputed in full on every
// aggregation call; see internal/aggregate.
type CandidateProfile struct {
	Name         string `json:"name"`
	CombinedText string `json:"combined_text"`

	YearsExperience    float64  `json:"years_experience"`
	Skills             []string `json:"skills"`
	SkillCount         int      `json:"skill_count"`
	CertificationCount int      `json:"certification_count"`

	// Research.
	PaperCount      int      `json:"paper_count"`
	PatentCount     int      `json:"patent_count"`
	ResearchTitles  []string `json:"research_titles"`
	ResearchSummary string   `json:"research_summary"`

	// Engagement.
	BlogPostCount    int `json:"blog_post_count"`
	CommunityAnswers int `json:"community_answers"`
	Upvotes          int `json:"upvotes"`
	GitHubRepos      int `json:"github_repos"`
	GitHubStars      int `json:"github_stars"`
	GitHubCommits    int `json:"github_commits"`

	TopTopics []string `json:"top_topics"`

	// Metadata.
	DocumentCount int          `json:"document_count"`
	SourceTypes   []SourceType `json:"source_types"`
}
