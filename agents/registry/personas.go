// Package registry holds the persona catalogue: prompts, usage counters,
// Masumi profiles and collaboration affinities. It is built once per
// process and shared by reference.
package registry

import (
	"errors"
	"sort"
	"sync"

	"github.com/agenthub-x/agenthub/config"
)

// HubName is the coordinator persona used when nothing else matches.
const HubName = "AgentHub"

// Domains
const (
	DomainWorkflow   = "Workflow Automation"
	DomainCompliance = "Data & Compliance"
	DomainSupport    = "Customer Support"
	DomainDeFi       = "DeFi Services"
)

// ErrPersonaNotFound is returned for unknown persona names
var ErrPersonaNotFound = errors.New("persona not found")

// Persona is a named specialist with a fixed system prompt.
type Persona struct {
	Name          string
	Description   string
	Domain        string
	Icon          string
	SystemPrompt  string
	UsesServed    int
	AvgResponseMs int
	Status        string
}

var seedPersonas = []Persona{
	{Name: "SocialGenie", Description: "Automate social media content creation and scheduling with AI-powered insights", Domain: DomainWorkflow, Icon: "Sparkles", UsesServed: 1247, AvgResponseMs: 1200},
	{Name: "MailMind", Description: "Intelligent email marketing automation with personalization at scale", Domain: DomainWorkflow, Icon: "Mail", UsesServed: 892, AvgResponseMs: 800},
	{Name: "ComplianceGuard", Description: "Real-time AML/KYC monitoring with regulatory compliance automation", Domain: DomainCompliance, Icon: "ShieldCheck", UsesServed: 2103, AvgResponseMs: 2100},
	{Name: "InsightBot", Description: "Advanced business intelligence with predictive analytics and reporting", Domain: DomainCompliance, Icon: "BarChart3", UsesServed: 1567, AvgResponseMs: 1500},
	{Name: "ShopAssist", Description: "24/7 e-commerce customer support with intelligent product recommendations", Domain: DomainSupport, Icon: "ShoppingBag", UsesServed: 3421, AvgResponseMs: 600},
	{Name: "StyleAdvisor", Description: "Personalized product styling and recommendation engine", Domain: DomainSupport, Icon: "Palette", UsesServed: 987, AvgResponseMs: 1000},
	{Name: "YieldMaximizer", Description: "Automated DeFi yield optimization across multiple protocols", Domain: DomainDeFi, Icon: "Banknote", UsesServed: 1834, AvgResponseMs: 1800},
	{Name: "TradeMind", Description: "Autonomous trading strategies with risk management", Domain: DomainDeFi, Icon: "TrendingUp", UsesServed: 1256, AvgResponseMs: 2300},
}

// Registry is the concurrency-safe persona table
type Registry struct {
	mu       sync.RWMutex
	personas map[string]*Persona
	order    []string
	profiles map[string]MasumiProfile
}

// New builds the default registry
func New() *Registry {
	r := &Registry{
		personas: make(map[string]*Persona, len(seedPersonas)),
		profiles: defaultProfiles(),
	}
	for _, p := range seedPersonas {
		p := p
		p.SystemPrompt = SystemPrompt(p.Name)
		p.Status = "online"
		r.personas[p.Name] = &p
		r.order = append(r.order, p.Name)
	}
	return r
}

// ApplyOverrides replaces fields of known personas. Unknown names are
// returned so the caller can log them.
func (r *Registry) ApplyOverrides(overrides map[string]config.PersonaOverride) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var unknown []string
	for name, o := range overrides {
		p, ok := r.personas[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		if o.Description != "" {
			p.Description = o.Description
		}
		if o.SystemPrompt != "" {
			p.SystemPrompt = o.SystemPrompt
		}
		if o.Status != "" {
			p.Status = o.Status
		}
		if o.FeeADA != nil {
			prof := r.profiles[name]
			prof.FeePerRequest = *o.FeeADA
			r.profiles[name] = prof
		}
	}
	sort.Strings(unknown)
	return unknown
}

// Get returns a copy of the named persona
func (r *Registry) Get(name string) (Persona, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.personas[name]
	if !ok {
		return Persona{}, false
	}
	return *p, true
}

// List returns all personas in catalogue order
func (r *Registry) List() []Persona {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Persona, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, *r.personas[n])
	}
	return out
}

// Names returns persona names in catalogue order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// IncrementUsage bumps the served counter
func (r *Registry) IncrementUsage(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.personas[name]
	if !ok {
		return ErrPersonaNotFound
	}
	p.UsesServed++
	return nil
}

// Hub returns the coordinator persona used as fallback
func (r *Registry) Hub() Persona {
	return Persona{
		Name:         HubName,
		Description:  "Central coordinator for the AgentHub marketplace",
		Domain:       "Platform",
		Icon:         "Network",
		SystemPrompt: HubPrompt,
		Status:       "online",
	}
}
