package workflow

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// EngineKind selects the backend a WorkflowEngineRunner executes against.
type EngineKind string

const (
	// EngineLocalJson runs the graph in-process against the Kahn's-
	// algorithm executor in this package — the only backend actually
	// implemented.
	EngineLocalJson EngineKind = "local_json"
	// EngineFlowable would dispatch to a Camunda/Flowable-compatible BPMN
	// engine; not implemented.
	EngineFlowable EngineKind = "flowable"
	// EngineZeebe would dispatch to a Zeebe workflow cluster; not
	// implemented.
	EngineZeebe EngineKind = "zeebe"
)

// ParseEngineKind maps an environment-variable-style string onto an
// EngineKind, defaulting unknown or empty values to EngineLocalJson.
func ParseEngineKind(s string) EngineKind {
	switch EngineKind(s) {
	case EngineFlowable:
		return EngineFlowable
	case EngineZeebe:
		return EngineZeebe
	default:
		return EngineLocalJson
	}
}

// ErrBackendNotConfigured is returned by NewRunner when kind names a
// backend with no configured endpoint. This replaces the original design's
// silent fallback to LocalJson for Flowable/Zeebe — per §9's own
// recommendation, an operator who configures a backend and gets no error
// deserves to know it never ran.
type ErrBackendNotConfigured struct {
	Kind EngineKind
}

func (e *ErrBackendNotConfigured) Error() string {
	return fmt.Sprintf("workflow: engine kind %q requires a configured backend endpoint, none given", e.Kind)
}

// RunnerConfig configures a WorkflowEngineRunner.
type RunnerConfig struct {
	Kind            EngineKind
	CycleMode       CycleMode
	BackendEndpoint string        // required for Flowable/Zeebe
	HTTPClient      *http.Client  // defaults to http.DefaultClient
	HTTPTimeout     time.Duration // applied to HTTPClient if non-zero and HTTPClient is nil
}

// WorkflowEngineRunner executes WorkflowDefinitions against the backend
// named by its EngineKind.
type WorkflowEngineRunner struct {
	kind       EngineKind
	cycleMode  CycleMode
	httpClient *http.Client
}

// NewRunner constructs a WorkflowEngineRunner. Flowable/Zeebe kinds without
// a BackendEndpoint fail immediately rather than silently downgrading to
// LocalJson.
func NewRunner(cfg RunnerConfig) (*WorkflowEngineRunner, error) {
	kind := cfg.Kind
	if kind == "" {
		kind = EngineLocalJson
	}

	if (kind == EngineFlowable || kind == EngineZeebe) && cfg.BackendEndpoint == "" {
		return nil, &ErrBackendNotConfigured{Kind: kind}
	}

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
		if cfg.HTTPTimeout > 0 {
			client = &http.Client{Timeout: cfg.HTTPTimeout}
		}
	}

	return &WorkflowEngineRunner{kind: kind, cycleMode: cfg.CycleMode, httpClient: client}, nil
}

// StartResult is the outcome of one workflow run.
type StartResult struct {
	InstanceID   string                 `json:"instanceId"`
	Engine       EngineKind             `json:"engine"`
	Success      bool                   `json:"success"`
	DurationMs   int64                  `json:"durationMs"`
	ErrorMessage string                 `json:"errorMessage,omitempty"`
	Output       map[string]interface{} `json:"output"`
	StepResults  []StepResult           `json:"-"`
	Logs         []string               `json:"-"`
}

// Run executes def against r's configured backend, flattening input into
// the run's initial variable table.
func (r *WorkflowEngineRunner) Run(def WorkflowDefinition, input map[string]interface{}) (StartResult, error) {
	switch r.kind {
	case EngineFlowable, EngineZeebe:
		return StartResult{}, fmt.Errorf("workflow: engine %q is not implemented", r.kind)
	}

	start := time.Now().UTC()
	instanceID := uuid.NewString()

	order, err := topologicalOrder(def.Graph, r.cycleMode)
	if err != nil {
		return StartResult{
			InstanceID:   instanceID,
			Engine:       EngineLocalJson,
			Success:      false,
			DurationMs:   time.Since(start).Milliseconds(),
			ErrorMessage: err.Error(),
		}, nil
	}

	ctx := NewExecutionContext(input)
	var results []StepResult
	success := true

	for _, node := range order {
		result := executeNode(r.httpClient, node, ctx)
		ctx.StepResults[node.ID] = result
		results = append(results, result)
		if !result.Success {
			success = false
		}
	}

	out := StartResult{
		InstanceID: instanceID,
		Engine:     EngineLocalJson,
		Success:    success,
		DurationMs: time.Since(start).Milliseconds(),
		Output: map[string]interface{}{
			"summary": summarize(results),
			"vars":    ctx.Vars,
		},
		StepResults: results,
		Logs:        ctx.Logs,
	}
	if !success {
		out.ErrorMessage = "one or more workflow steps failed"
	}
	return out, nil
}

func summarize(results []StepResult) string {
	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
		}
	}
	return fmt.Sprintf("%d steps, %d failed", len(results), failed)
}
