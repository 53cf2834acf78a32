package workflow

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func rawProps(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func loginReadGraph(t *testing.T) LogicFlowGraph {
	t.Helper()
	return LogicFlowGraph{
		Nodes: []Node{
			{ID: "start", Type: "start"},
			{ID: "login", Type: "http", Properties: rawProps(t, map[string]interface{}{
				"method": "POST", "url": "{{baseUrl}}/login",
			})},
			{ID: "extract_token", Type: "extract", Properties: rawProps(t, map[string]interface{}{
				"path": "token", "var": "token",
			})},
			{ID: "get_user", Type: "http", Properties: rawProps(t, map[string]interface{}{
				"method": "GET", "url": "{{baseUrl}}/me",
				"headers": map[string]string{"Authorization": "Bearer {{token}}"},
			})},
			{ID: "assert_user", Type: "assert", Properties: rawProps(t, map[string]interface{}{
				"path": "user_id", "equals": "42",
			})},
		},
		Edges: []Edge{
			{ID: "e1", Source: "start", Target: "login"},
			{ID: "e2", Source: "login", Target: "extract_token"},
			{ID: "e3", Source: "extract_token", Target: "get_user"},
			{ID: "e4", Source: "get_user", Target: "assert_user"},
		},
	}
}

func TestTopologicalOrderIsValidForEveryEdge(t *testing.T) {
	g := loginReadGraph(t)
	order, err := topologicalOrder(g, CycleSkip)
	require.NoError(t, err)

	index := make(map[string]int, len(order))
	for i, n := range order {
		index[n.ID] = i
	}
	for _, e := range g.Edges {
		require.Less(t, index[e.Source], index[e.Target], "edge %s->%s must respect topological order", e.Source, e.Target)
	}
}

func TestCycleStrictRejectsCyclicGraph(t *testing.T) {
	g := LogicFlowGraph{
		Nodes: []Node{{ID: "a", Type: "start"}, {ID: "b", Type: "start"}},
		Edges: []Edge{{ID: "e1", Source: "a", Target: "b"}, {ID: "e2", Source: "b", Target: "a"}},
	}
	_, err := topologicalOrder(g, CycleStrict)
	require.Error(t, err)
}

func TestCycleSkipSilentlyOmitsCycleMembers(t *testing.T) {
	g := LogicFlowGraph{
		Nodes: []Node{
			{ID: "a", Type: "start"},
			{ID: "b", Type: "start"},
			{ID: "c", Type: "start"},
		},
		Edges: []Edge{
			{ID: "e1", Source: "b", Target: "c"},
			{ID: "e2", Source: "c", Target: "b"},
		},
	}

	orderSkip, err := topologicalOrder(g, CycleSkip)
	require.NoError(t, err)
	require.Len(t, orderSkip, 1)
	require.Equal(t, "a", orderSkip[0].ID)

	_, err = topologicalOrder(g, CycleStrict)
	require.Error(t, err)
}

func TestApplyVarsSubstitutesPlaceholders(t *testing.T) {
	out := applyVars("Bearer {{token}} for {{user}}", map[string]string{"token": "T", "user": "alice"})
	require.Equal(t, "Bearer T for alice", out)
}

func TestLoginThenReadWorkflowSucceeds(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token":"T"}`))
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer T", r.Header.Get("Authorization"))
		w.Write([]byte(`{"user_id":"42"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	runner, err := NewRunner(RunnerConfig{Kind: EngineLocalJson})
	require.NoError(t, err)

	def := WorkflowDefinition{Key: "login-read", Graph: loginReadGraph(t), Engine: EngineLocalJson}
	result, err := runner.Run(def, map[string]interface{}{"baseUrl": server.URL})
	require.NoError(t, err)

	require.True(t, result.Success)
	require.Empty(t, result.ErrorMessage)

	var loginStatus, getStatus StepResult
	for _, r := range result.StepResults {
		switch r.ID {
		case "login":
			loginStatus = r
		case "get_user":
			getStatus = r
		}
	}
	require.Equal(t, http.StatusOK, loginStatus.HTTPStatus)
	require.Equal(t, http.StatusOK, getStatus.HTTPStatus)
}

func TestWorkflowFailsWhenAssertionMismatches(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token":"T"}`))
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user_id":"43"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	runner, err := NewRunner(RunnerConfig{Kind: EngineLocalJson})
	require.NoError(t, err)

	def := WorkflowDefinition{Key: "login-read", Graph: loginReadGraph(t), Engine: EngineLocalJson}
	result, err := runner.Run(def, map[string]interface{}{"baseUrl": server.URL})
	require.NoError(t, err)

	require.False(t, result.Success)
	require.NotEmpty(t, result.ErrorMessage)

	var assertResult StepResult
	var foundEndTime bool
	for _, r := range result.StepResults {
		if r.ID == "assert_user" {
			assertResult = r
		}
		if !r.EndTime.IsZero() {
			foundEndTime = true
		}
	}
	require.False(t, assertResult.Success)
	require.NotEmpty(t, assertResult.Error)
	require.True(t, foundEndTime, "later-dependent steps still record start/end times")
}

func TestFlowableEngineRequiresBackendEndpoint(t *testing.T) {
	_, err := NewRunner(RunnerConfig{Kind: EngineFlowable})
	require.Error(t, err)

	var notConfigured *ErrBackendNotConfigured
	require.ErrorAs(t, err, &notConfigured)
}
