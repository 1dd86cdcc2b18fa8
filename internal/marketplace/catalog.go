// Package marketplace is the Sokosumi agent marketplace: a static catalog
// of hireable agents, an in-memory job table and an optional live
// passthrough to the Sokosumi API.
package marketplace

import (
	"fmt"
	"strings"
)

// Categories used by the catalog
const (
	CategoryResearch = "Research"
	CategoryAnalysis = "Analysis"
	CategoryDesign   = "Design/UX"
	CategorySecurity = "Security"
)

// ResultKind selects the shape of a simulated job result
type ResultKind int

const (
	KindGeneral ResultKind = iota
	KindResearch
	KindSEO
	KindSentiment
)

func (k ResultKind) String() string {
	switch k {
	case KindResearch:
		return "research_report"
	case KindSEO:
		return "seo_analysis"
	case KindSentiment:
		return "sentiment_analysis"
	default:
		return "general_analysis"
	}
}

// Pricing is the per-task price of an agent
type Pricing struct {
	PerTask  float64 `json:"per_task"`
	Currency string  `json:"currency"`
}

// Agent is a hireable marketplace agent
type Agent struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Category        string     `json:"category"`
	Description     string     `json:"description"`
	Capabilities    []string   `json:"capabilities"`
	Pricing         Pricing    `json:"pricing"`
	Rating          float64    `json:"rating"`
	TotalJobs       int        `json:"total_jobs"`
	Verified        bool       `json:"verified"`
	DID             string     `json:"did"`
	ResponseTimeAvg string     `json:"response_time_avg"`
	Kind            ResultKind `json:"-"`
}

func usd(v float64) Pricing { return Pricing{PerTask: v, Currency: "USD"} }

var catalog = []Agent{
	{
		ID: "sok_agent_researcher_001", Name: "Deep Web Researcher", Category: CategoryResearch,
		Description:  "Advanced web research with verified citations and comprehensive analysis",
		Capabilities: []string{"web search", "data extraction", "citation verification", "report generation"},
		Pricing:      usd(2.50), Rating: 4.8, TotalJobs: 1247,
		DID: "did:masumi:sok_researcher_8f7a3b2c", ResponseTimeAvg: "5-10 minutes", Kind: KindResearch,
	},
	{
		ID: "sok_agent_seo_analyst_001", Name: "SEO Insight Analyzer", Category: CategoryAnalysis,
		Description:  "Comprehensive SEO analysis with keyword optimization and competitor insights",
		Capabilities: []string{"keyword analysis", "competitor research", "backlink analysis", "content optimization"},
		Pricing:      usd(3.00), Rating: 4.9, TotalJobs: 892,
		DID: "did:masumi:sok_seo_4c5d6e7f", ResponseTimeAvg: "10-15 minutes", Kind: KindSEO,
	},
	{
		ID: "sok_agent_sentiment_001", Name: "Sentiment Detector Pro", Category: CategoryAnalysis,
		Description:  "Real-time sentiment analysis across social media and news sources",
		Capabilities: []string{"sentiment scoring", "trend detection", "brand monitoring", "crisis alerts"},
		Pricing:      usd(1.75), Rating: 4.7, TotalJobs: 2156,
		DID: "did:masumi:sok_sentiment_9a8b7c6d", ResponseTimeAvg: "2-5 minutes", Kind: KindSentiment,
	},
	{
		ID: "sok_agent_ux_tester_001", Name: "Visual UX Analyzer", Category: CategoryDesign,
		Description:  "AI-powered visual attention heatmaps and UX testing",
		Capabilities: []string{"heatmap generation", "attention analysis", "usability scoring", "accessibility check"},
		Pricing:      usd(4.00), Rating: 4.6, TotalJobs: 567,
		DID: "did:masumi:sok_ux_2e3f4g5h", ResponseTimeAvg: "15-20 minutes",
	},
	{
		ID: "sok_agent_youtube_001", Name: "YouTube Channel Analyzer", Category: CategoryResearch,
		Description:  "Deep analysis of YouTube channels, content strategy, and audience insights",
		Capabilities: []string{"channel analytics", "content analysis", "audience insights", "growth recommendations"},
		Pricing:      usd(2.25), Rating: 4.8, TotalJobs: 743,
		DID: "did:masumi:sok_youtube_6i7j8k9l", ResponseTimeAvg: "8-12 minutes",
	},
	{
		ID: "sok_agent_statista_001", Name: "Statista Data Agent", Category: CategoryResearch,
		Description:  "Access and analyze Statista datasets for market intelligence",
		Capabilities: []string{"data queries", "market research", "statistical analysis", "trend forecasting"},
		Pricing:      usd(3.50), Rating: 4.9, TotalJobs: 1089,
		DID: "did:masumi:sok_statista_0m1n2o3p", ResponseTimeAvg: "5-8 minutes",
	},
	{
		ID: "sok_agent_deepfake_001", Name: "Deepfake Detector", Category: CategorySecurity,
		Description:  "Advanced AI-powered deepfake detection and media authenticity verification",
		Capabilities: []string{"image analysis", "video verification", "audio authentication", "manipulation detection"},
		Pricing:      usd(5.00), Rating: 4.7, TotalJobs: 234,
		DID: "did:masumi:sok_deepfake_4q5r6s7t", ResponseTimeAvg: "10-15 minutes",
	},
	{
		ID: "sok_agent_instagram_001", Name: "Instagram Insights Agent", Category: CategoryAnalysis,
		Description:  "Comprehensive Instagram page analysis with engagement metrics and growth strategies",
		Capabilities: []string{"engagement analysis", "hashtag optimization", "competitor benchmarking", "content scheduling"},
		Pricing:      usd(2.00), Rating: 4.8, TotalJobs: 1567,
		DID: "did:masumi:sok_instagram_8u9v0w1x", ResponseTimeAvg: "5-10 minutes",
	},
}

func init() {
	for i := range catalog {
		catalog[i].Verified = true
	}
}

// Catalog returns a copy of the static catalog
func Catalog() []Agent {
	out := make([]Agent, len(catalog))
	copy(out, catalog)
	return out
}

func lookup(id string) (Agent, bool) {
	for _, a := range catalog {
		if a.ID == id {
			return a, true
		}
	}
	return Agent{}, false
}

// FindByName resolves a catalog entry by display name, case-insensitively
func FindByName(name string) (Agent, bool) {
	name = strings.TrimSpace(name)
	for _, a := range catalog {
		if strings.EqualFold(a.Name, name) {
			return a, true
		}
	}
	return Agent{}, false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

type resultFunc func(task string) map[string]interface{}

var resultShapes = map[ResultKind]resultFunc{
	KindResearch: func(task string) map[string]interface{} {
		return map[string]interface{}{
			"type":    KindResearch.String(),
			"summary": fmt.Sprintf("Research completed for: %s...", truncate(task, 100)),
			"findings": []string{
				"Key insight 1: Market trends indicate growing demand",
				"Key insight 2: Competitor analysis reveals opportunities",
				"Key insight 3: Customer sentiment is predominantly positive",
			},
			"sources": []map[string]interface{}{
				{"title": "Industry Report 2025", "url": "https://example.com/report1", "relevance": 0.95},
				{"title": "Market Analysis Q4", "url": "https://example.com/report2", "relevance": 0.87},
			},
			"confidence_score": 0.92,
		}
	},
	KindSEO: func(task string) map[string]interface{} {
		return map[string]interface{}{
			"type":    KindSEO.String(),
			"summary": fmt.Sprintf("SEO analysis completed for: %s...", truncate(task, 100)),
			"keywords": []map[string]interface{}{
				{"keyword": "primary keyword", "volume": 12000, "difficulty": 45},
				{"keyword": "secondary keyword", "volume": 8500, "difficulty": 38},
			},
			"recommendations": []string{
				"Optimize meta descriptions for target keywords",
				"Improve internal linking structure",
				"Create content clusters around main topics",
			},
			"score": 78,
		}
	},
	KindSentiment: func(task string) map[string]interface{} {
		return map[string]interface{}{
			"type":              KindSentiment.String(),
			"summary":           fmt.Sprintf("Sentiment analysis completed for: %s...", truncate(task, 100)),
			"overall_sentiment": "positive",
			"sentiment_score":   0.73,
			"breakdown": map[string]interface{}{
				"positive": 62,
				"neutral":  28,
				"negative": 10,
			},
			"key_topics": []string{"product quality", "customer service", "pricing"},
		}
	},
	KindGeneral: func(task string) map[string]interface{} {
		return map[string]interface{}{
			"type":    KindGeneral.String(),
			"summary": fmt.Sprintf("Task completed: %s...", truncate(task, 100)),
			"status":  "success",
			"data":    map[string]interface{}{"analysis": "Complete", "quality_score": 0.88},
		}
	},
}

func simulatedResult(kind ResultKind, task string) map[string]interface{} {
	gen, ok := resultShapes[kind]
	if !ok {
		gen = resultShapes[KindGeneral]
	}
	return gen(task)
}
