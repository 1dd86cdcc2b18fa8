package collaboration

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthub-x/agenthub/internal/marketplace"
	"github.com/agenthub-x/agenthub/llm"
	"github.com/agenthub-x/agenthub/types"
)

type stubLLM struct {
	reply  string
	err    error
	calls  int
	system string
}

func (s *stubLLM) Chat(ctx context.Context, system, user string, opts ...llm.CallOption) (string, error) {
	s.calls++
	s.system = system
	return s.reply, s.err
}

func (s *stubLLM) Complete(ctx context.Context, system string, msgs []llm.Message, opts ...llm.CallOption) (string, error) {
	return s.Chat(ctx, system, "", opts...)
}

type recorder struct {
	mu     sync.Mutex
	events []string
	data   []map[string]interface{}
}

func (r *recorder) Emit(t string, d map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, t)
	r.data = append(r.data, d)
}

func newOrchestrator(reply string, em Emitter) (*Orchestrator, *stubLLM) {
	stub := &stubLLM{reply: reply}
	return New(marketplace.New(nil, nil), stub, em, 0, nil), stub
}

func intp(v int) *int { return &v }

func TestLowConfidenceNeverHires(t *testing.T) {
	reply := `{"needs_collaboration":true,"confidence":0.29,"recommended_agents":[
		{"agent_id":"sok_agent_sentiment_001","agent_name":"Sentiment Detector Pro","task_description":"x","priority":1}]}`
	o, stub := newOrchestrator(reply, nil)

	out := o.Collaborate(context.Background(), "ShopAssist", "what do customers think", true)
	assert.False(t, out.Occurred)
	assert.Empty(t, out.Results)
	assert.Empty(t, out.Context)
	assert.Equal(t, 1, stub.calls)
	assert.Empty(t, o.market.ListJobs())
}

func TestSelect(t *testing.T) {
	recs := []Recommendation{
		{AgentName: "d"},
		{AgentName: "c", Priority: intp(3)},
		{AgentName: "a", Priority: intp(1)},
		{AgentName: "b", Priority: intp(2)},
		{AgentName: "a2", Priority: intp(1)},
	}
	tests := []struct {
		name string
		a    Analysis
		want []string
	}{
		{"not needed", Analysis{NeedsCollaboration: false, Confidence: 0.9, RecommendedAgents: recs}, nil},
		{"below threshold", Analysis{NeedsCollaboration: true, Confidence: 0.1, RecommendedAgents: recs}, nil},
		{"empty list", Analysis{NeedsCollaboration: true, Confidence: 0.9}, nil},
		{"capped by priority", Analysis{NeedsCollaboration: true, Confidence: 0.3, RecommendedAgents: recs}, []string{"a", "a2", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, r := range Select(tt.a) {
				got = append(got, r.AgentName)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCollaborateHiresAtMostThree(t *testing.T) {
	reply := `{"needs_collaboration":true,"confidence":0.9,"recommended_agents":[
		{"agent_id":"sok_agent_researcher_001","agent_name":"Deep Web Researcher","task_description":"research","priority":1},
		{"agent_id":"sok_agent_sentiment_001","agent_name":"Sentiment Detector Pro","task_description":"sentiment","priority":2},
		{"agent_id":"sok_agent_seo_analyst_001","agent_name":"SEO Insight Analyzer","task_description":"seo","priority":3},
		{"agent_id":"sok_agent_statista_001","agent_name":"Statista Data Agent","task_description":"stats","priority":3},
		{"agent_id":"sok_agent_ux_tester_001","agent_name":"Visual UX Analyzer","task_description":"ux","priority":3}]}`
	rec := &recorder{}
	o, _ := newOrchestrator(reply, rec)

	out := o.Collaborate(context.Background(), "InsightBot", "market trends", true)
	require.True(t, out.Occurred)
	require.Len(t, out.Results, 3)
	for _, r := range out.Results {
		assert.Equal(t, marketplace.JobCompleted, r.Status)
		assert.NotNil(t, r.Result)
		assert.True(t, r.IsSimulated)
	}
	assert.Equal(t, "Deep Web Researcher", out.Results[0].AgentName)

	sentiment := out.Results[1].Result
	for _, k := range []string{"overall_sentiment", "sentiment_score", "breakdown"} {
		assert.Contains(t, sentiment, k)
	}

	want := []string{types.EventCollaborationStart}
	for i := 0; i < 3; i++ {
		want = append(want, types.EventAgentHiring, types.EventAgentWorking, types.EventAgentCompleted)
	}
	want = append(want, types.EventCollaborationComplete)
	assert.Equal(t, want, rec.events)
	assert.Equal(t, "InsightBot", rec.data[1]["hiring_agent"])
	assert.Equal(t, 2, rec.data[7]["index"])

	s := o.Stats()
	assert.EqualValues(t, 3, s.Hires)
	assert.EqualValues(t, 1, s.Collaborations)
}

func TestUnresolvableRecommendationIsSkipped(t *testing.T) {
	reply := `{"needs_collaboration":true,"confidence":0.9,"recommended_agents":[
		{"agent_name":"Imaginary Agent","task_description":"x","priority":1},
		{"agent_name":"Statista Data Agent","task_description":"numbers","priority":2}]}`
	o, _ := newOrchestrator(reply, nil)

	out := o.Collaborate(context.Background(), "TradeMind", "btc outlook", true)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "sok_agent_statista_001", out.Results[0].AgentID)
	assert.EqualValues(t, 1, o.Stats().Skipped)
	assert.EqualValues(t, 0, o.Stats().FailedHires)
}

func TestUnknownAgentIDFails(t *testing.T) {
	reply := `{"needs_collaboration":true,"confidence":0.9,"recommended_agents":[
		{"agent_id":"sok_missing","agent_name":"Ghost","task_description":"x","priority":1}]}`
	o, _ := newOrchestrator(reply, nil)

	out := o.Collaborate(context.Background(), "TradeMind", "btc outlook", true)
	require.True(t, out.Occurred)
	require.Len(t, out.Results, 1)
	assert.Equal(t, marketplace.JobFailed, out.Results[0].Status)
	assert.Zero(t, out.Results[0].Cost)

	s := Summarize(out.Results)
	assert.Equal(t, 1, s.AgentsHired)
	assert.Equal(t, 0, s.SuccessfulHires)
}

func TestRecommendOnly(t *testing.T) {
	reply := `{"needs_collaboration":true,"confidence":0.9,"recommended_agents":[
		{"agent_id":"sok_agent_statista_001","agent_name":"Statista Data Agent","priority":1},
		{"agent_id":"sok_agent_researcher_001","agent_name":"Deep Web Researcher","priority":2}]}`
	o, _ := newOrchestrator(reply, nil)

	out := o.Collaborate(context.Background(), "YieldMaximizer", "apy", false)
	assert.True(t, out.Occurred)
	assert.Empty(t, out.Results)
	assert.Equal(t, "Collaboration recommended with: Statista Data Agent, Deep Web Researcher", out.Context)
	assert.EqualValues(t, 0, o.Stats().Hires)
}

func TestAnalysisFailureMeansNoCollaboration(t *testing.T) {
	for _, stub := range []*stubLLM{{err: errors.New("boom")}, {reply: "sure, hire everyone"}} {
		o := New(marketplace.New(nil, nil), stub, nil, 0, nil)
		out := o.Collaborate(context.Background(), "MailMind", "newsletter", true)
		assert.Equal(t, Outcome{}, out)
	}
	o := New(marketplace.New(nil, nil), nil, nil, 0, nil)
	assert.Equal(t, Outcome{}, o.Collaborate(context.Background(), "MailMind", "newsletter", true))
}

func TestAnalysisPromptListsCatalog(t *testing.T) {
	o, stub := newOrchestrator(`{"needs_collaboration":false}`, nil)
	_, err := o.Analyze(context.Background(), "SocialGenie", "grow my instagram")
	require.NoError(t, err)
	assert.Contains(t, stub.system, "Current AgentHub Agent: SocialGenie")
	assert.Contains(t, stub.system, "Instagram Insights Agent, YouTube Channel Analyzer, Sentiment Detector Pro")
	for _, a := range marketplace.Catalog() {
		assert.True(t, strings.Contains(stub.system, "- "+a.Name+" ["+a.ID+"]"), a.Name)
	}
}
