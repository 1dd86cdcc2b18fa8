package registry

import (
	"fmt"

	"github.com/agenthub-x/agenthub/internal/ledger"
)

// MasumiProfile is the identity-network view of a persona
type MasumiProfile struct {
	Name              string   `json:"name"`
	DID               string   `json:"did"`
	ReputationScore   float64  `json:"reputation_score"`
	TotalTransactions int      `json:"total_transactions"`
	Services          []string `json:"services,omitempty"`
	FeePerRequest     float64  `json:"fee_per_request"`
	AvgResponseMs     int      `json:"avg_response_ms,omitempty"`
	Verified          bool     `json:"verified"`
	IsSimulated       bool     `json:"is_simulated"`
}

// MasumiDID derives the stable display DID of a persona
func MasumiDID(name string) string {
	return fmt.Sprintf("did:masumi:cardano:%s_%s", ledger.Slug(name), ledger.DeterministicHex(name, 8))
}

func defaultProfiles() map[string]MasumiProfile {
	seed := []MasumiProfile{
		{Name: "SocialGenie", ReputationScore: 4.8, TotalTransactions: 1247, Services: []string{"social_media", "content_creation", "scheduling", "analytics"}, FeePerRequest: 0.05, AvgResponseMs: 1200},
		{Name: "MailMind", ReputationScore: 4.7, TotalTransactions: 892, Services: []string{"email_marketing", "campaign_automation", "ab_testing"}, FeePerRequest: 0.04, AvgResponseMs: 800},
		{Name: "ComplianceGuard", ReputationScore: 4.9, TotalTransactions: 2103, Services: []string{"aml_kyc", "compliance", "risk_monitoring", "audit"}, FeePerRequest: 0.08, AvgResponseMs: 2100},
		{Name: "InsightBot", ReputationScore: 4.6, TotalTransactions: 1567, Services: []string{"analytics", "business_intelligence", "reporting", "prediction"}, FeePerRequest: 0.06, AvgResponseMs: 1500},
		{Name: "ShopAssist", ReputationScore: 4.7, TotalTransactions: 3421, Services: []string{"customer_support", "recommendations", "order_management"}, FeePerRequest: 0.03, AvgResponseMs: 600},
		{Name: "StyleAdvisor", ReputationScore: 4.5, TotalTransactions: 987, Services: []string{"styling", "recommendations", "trend_analysis", "visual_search"}, FeePerRequest: 0.05, AvgResponseMs: 1000},
		{Name: "YieldMaximizer", ReputationScore: 4.8, TotalTransactions: 1834, Services: []string{"defi", "yield_optimization", "liquidity", "auto_compound"}, FeePerRequest: 0.10, AvgResponseMs: 1800},
		{Name: "TradeMind", ReputationScore: 4.7, TotalTransactions: 1256, Services: []string{"trading", "market_analysis", "risk_management", "portfolio"}, FeePerRequest: 0.12, AvgResponseMs: 2300},
	}
	out := make(map[string]MasumiProfile, len(seed))
	for _, p := range seed {
		p.DID = MasumiDID(p.Name)
		p.Verified = true
		out[p.Name] = p
	}
	return out
}

// Profile returns the Masumi profile of name. Unknown names, including the
// hub, get an unverified fallback with reputation 4.5.
func (r *Registry) Profile(name string, simulated bool) MasumiProfile {
	r.mu.RLock()
	p, ok := r.profiles[name]
	r.mu.RUnlock()
	if !ok {
		p = MasumiProfile{
			Name:            name,
			DID:             MasumiDID(name),
			ReputationScore: 4.5,
			FeePerRequest:   0.05,
		}
	}
	p.Services = append([]string(nil), p.Services...)
	p.IsSimulated = simulated
	return p
}

// Profiles returns every registered profile in catalogue order
func (r *Registry) Profiles(simulated bool) []MasumiProfile {
	names := r.Names()
	out := make([]MasumiProfile, 0, len(names))
	for _, n := range names {
		out = append(out, r.Profile(n, simulated))
	}
	return out
}

var collaborators = map[string][]string{
	"SocialGenie":     {"InsightBot", "MailMind"},
	"MailMind":        {"InsightBot", "SocialGenie"},
	"ComplianceGuard": {"InsightBot", "TradeMind"},
	"InsightBot":      {"ComplianceGuard", "TradeMind", "YieldMaximizer"},
	"ShopAssist":      {"StyleAdvisor", "InsightBot"},
	"StyleAdvisor":    {"ShopAssist", "InsightBot"},
	"YieldMaximizer":  {"TradeMind", "InsightBot"},
	"TradeMind":       {"YieldMaximizer", "InsightBot", "ComplianceGuard"},
}

// Collaborators returns the preferred in-platform collaborators of name
func Collaborators(name string) []string {
	return append([]string(nil), collaborators[name]...)
}

// PartnerPreference lists the marketplace agents a persona prefers to hire
type PartnerPreference struct {
	Keywords   []string
	Categories []string
	Preferred  []string
}

var partners = map[string]PartnerPreference{
	"SocialGenie": {
		Keywords:   []string{"social media", "content", "engagement", "followers", "instagram", "twitter", "tiktok", "youtube"},
		Categories: []string{"Research", "Analysis"},
		Preferred:  []string{"Instagram Insights Agent", "YouTube Channel Analyzer", "Sentiment Detector Pro"},
	},
	"MailMind": {
		Keywords:   []string{"email", "newsletter", "campaign", "subscribers", "open rate", "click rate"},
		Categories: []string{"Analysis", "Research"},
		Preferred:  []string{"SEO Insight Analyzer", "Sentiment Detector Pro"},
	},
	"ComplianceGuard": {
		Keywords:   []string{"compliance", "aml", "kyc", "regulatory", "fraud", "risk", "audit"},
		Categories: []string{"Security", "Research"},
		Preferred:  []string{"Deepfake Detector", "Deep Web Researcher", "Contract Analyzer Pro"},
	},
	"InsightBot": {
		Keywords:   []string{"analytics", "data", "metrics", "statistics", "trends", "market research"},
		Categories: []string{"Research", "Analysis"},
		Preferred:  []string{"Statista Data Agent", "Deep Web Researcher", "Sentiment Detector Pro"},
	},
	"ShopAssist": {
		Keywords:   []string{"customer", "support", "orders", "returns", "products", "shopping"},
		Categories: []string{"Analysis", "Research"},
		Preferred:  []string{"Sentiment Detector Pro", "Visual UX Analyzer"},
	},
	"StyleAdvisor": {
		Keywords:   []string{"fashion", "style", "design", "trends", "visual", "aesthetic"},
		Categories: []string{"Design/UX", "Research"},
		Preferred:  []string{"Visual UX Analyzer", "Deep Web Researcher"},
	},
	"YieldMaximizer": {
		Keywords:   []string{"defi", "yield", "liquidity", "apy", "staking", "farming", "crypto"},
		Categories: []string{"Research", "Analysis"},
		Preferred:  []string{"Statista Data Agent", "Deep Web Researcher"},
	},
	"TradeMind": {
		Keywords:   []string{"trading", "market", "technical analysis", "crypto", "stocks", "price"},
		Categories: []string{"Research", "Analysis"},
		Preferred:  []string{"Statista Data Agent", "Sentiment Detector Pro", "Deep Web Researcher"},
	},
}

// Partners returns the marketplace preferences of name
func Partners(name string) (PartnerPreference, bool) {
	p, ok := partners[name]
	return p, ok
}
