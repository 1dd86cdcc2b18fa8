package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthub-x/agenthub/resilience"
)

func TestListAgentsFiltersByCategory(t *testing.T) {
	m := New(nil, nil)
	ctx := context.Background()

	all := m.ListAgents(ctx, "", 0)
	assert.Len(t, all.Agents, 8)
	assert.Equal(t, SourceSimulation, all.Source)
	assert.True(t, all.IsSimulated)

	research := m.ListAgents(ctx, "research", 2)
	assert.Equal(t, 3, research.Total)
	assert.Len(t, research.Agents, 2)
	for _, a := range research.Agents {
		assert.Equal(t, CategoryResearch, a.Category)
	}
}

func TestHireThenLazyCompletion(t *testing.T) {
	m := New(nil, nil)
	ctx := context.Background()

	hired, err := m.Hire(ctx, "sok_agent_researcher_001", "map the EV charging market", "")
	require.NoError(t, err)
	assert.Equal(t, JobProcessing, hired.Job.Status)
	assert.Equal(t, DefaultRequester, hired.Job.Requester)
	assert.Regexp(t, `^job_[0-9a-f]{8}$`, hired.Job.JobID)
	assert.Regexp(t, `^tx_masumi_[0-9a-f]{16}$`, hired.Job.BlockchainTx)
	assert.InDelta(t, 2.50, hired.Job.Cost, 1e-9)
	assert.Nil(t, hired.Job.Result)
	require.Len(t, hired.Activities, 2)

	first, err := m.JobStatus(ctx, hired.Job.JobID)
	require.NoError(t, err)
	assert.Equal(t, JobCompleted, first.Status)
	require.NotNil(t, first.Result)
	require.NotNil(t, first.CompletedAt)
	assert.Equal(t, "research_report", first.Result["type"])

	second, err := m.JobStatus(ctx, hired.Job.JobID)
	require.NoError(t, err)
	assert.Equal(t, first.Result, second.Result)
	assert.Equal(t, first.CompletedAt, second.CompletedAt)
}

func TestSentimentResultShape(t *testing.T) {
	m := New(nil, nil)
	ctx := context.Background()

	hired, err := m.Hire(ctx, "sok_agent_sentiment_001", "brand perception", "SocialGenie")
	require.NoError(t, err)
	job, err := m.JobStatus(ctx, hired.Job.JobID)
	require.NoError(t, err)

	for _, field := range []string{"overall_sentiment", "sentiment_score", "breakdown"} {
		assert.Contains(t, job.Result, field)
	}
}

func TestResultKinds(t *testing.T) {
	tests := []struct {
		agentID string
		want    string
	}{
		{"sok_agent_seo_analyst_001", "seo_analysis"},
		{"sok_agent_ux_tester_001", "general_analysis"},
		{"sok_agent_statista_001", "general_analysis"},
	}
	m := New(nil, nil)
	for _, tt := range tests {
		t.Run(tt.agentID, func(t *testing.T) {
			hired, err := m.Hire(context.Background(), tt.agentID, "task", "")
			require.NoError(t, err)
			job, err := m.JobStatus(context.Background(), hired.Job.JobID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, job.Result["type"])
		})
	}
}

func TestUnknownIDs(t *testing.T) {
	m := New(nil, nil)
	_, err := m.Hire(context.Background(), "sok_missing", "x", "")
	assert.ErrorIs(t, err, ErrAgentNotFound)
	_, err = m.JobStatus(context.Background(), "job_nope")
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, _, err = m.GetAgent(context.Background(), "sok_missing")
	assert.ErrorIs(t, err, ErrAgentNotFound)
}

func TestConcurrentHires(t *testing.T) {
	m := New(nil, nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := m.Hire(context.Background(), "sok_agent_seo_analyst_001", "t", "")
			if assert.NoError(t, err) {
				_, err = m.JobStatus(context.Background(), h.Job.JobID)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
	assert.Len(t, m.ListJobs(), 20)
}

func TestFindByName(t *testing.T) {
	a, ok := FindByName("statista data agent")
	require.True(t, ok)
	assert.Equal(t, "sok_agent_statista_001", a.ID)
	_, ok = FindByName("Contract Analyzer Pro")
	assert.False(t, ok)
}

func TestLiveClientUsedWhenConfigured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer live-key-0123456789abcdefghij", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/jobs":
			var body createJobRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "InsightBot", body.Requester)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"job_id": "job_remote", "status": "queued", "agent_id": body.AgentID})
		case "/api/jobs/job_remote":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"job_id": "job_remote", "status": "completed", "result": map[string]interface{}{"type": "remote"}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	m := New(NewClient(srv.URL, "live-key-0123456789abcdefghij", nil), nil)
	hired, err := m.Hire(context.Background(), "sok_agent_seo_analyst_001", "audit", "InsightBot")
	require.NoError(t, err)
	assert.True(t, hired.IsLive)
	assert.Equal(t, "job_remote", hired.Job.JobID)

	job, err := m.JobStatus(context.Background(), "job_remote")
	require.NoError(t, err)
	assert.Equal(t, JobCompleted, job.Status)
	assert.Equal(t, "remote", job.Result["type"])
}

func TestLiveFailureFallsBackToSimulation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", nil)
	c.guard.WithRetry(&resilience.RetryConfig{MaxAttempts: 1})
	m := New(c, nil)

	list := m.ListAgents(context.Background(), "", 10)
	assert.Equal(t, SourceSimulation, list.Source)

	hired, err := m.Hire(context.Background(), "sok_agent_seo_analyst_001", "audit", "")
	require.NoError(t, err)
	assert.True(t, hired.IsSimulated)
}
