// Package workflowplugin implements the workflow-plugin harness described
// in §4.9: loading LogicFlow graph files from disk, running each once per
// invocation, and exposing an on-demand HTTP API for listing/triggering
// individual graphs.
package workflowplugin

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pcfengzi/monitor-ai-bot/internal/workflow"
)

// scheduleHint reads an optional top-level "schedule" key a graph file may
// carry alongside its nodes/edges (a cron expression, e.g. "*/5 * * * *").
// It is not part of LogicFlowGraph itself — the engine never looks at it —
// it only tells the harness whether to also register the graph on a cron
// scheduler (see Plugin.registerCronJobs).
type scheduleHint struct {
	Schedule string `json:"schedule"`
}

// LoadGraphsFromDir reads every ".json" file directly under dir and parses
// it as a LogicFlowGraph, keying each WorkflowDefinition by the file's stem
// (e.g. "login-read.json" -> key "login-read"). A missing or unreadable
// directory yields an empty, non-error result — the harness should run
// with zero graphs rather than refuse to start. The returned map holds the
// optional per-graph cron schedule, keyed the same way.
func LoadGraphsFromDir(dir string) ([]workflow.WorkflowDefinition, map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, nil
	}

	var defs []workflow.WorkflowDefinition
	schedules := make(map[string]string)

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", path, err)
		}

		var graph workflow.LogicFlowGraph
		if err := json.Unmarshal(raw, &graph); err != nil {
			return nil, nil, fmt.Errorf("parse %s: %w", path, err)
		}

		key := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		defs = append(defs, workflow.WorkflowDefinition{
			Key:    key,
			Graph:  graph,
			Engine: workflow.EngineLocalJson,
		})

		var hint scheduleHint
		if json.Unmarshal(raw, &hint) == nil && hint.Schedule != "" {
			schedules[key] = hint.Schedule
		}
	}
	return defs, schedules, nil
}
