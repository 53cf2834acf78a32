// Package main is the workflow-engine plugin artifact: built with
// `go build -buildmode=plugin` and loaded by the host through
// internal/pluginhost's dynamic discovery path. It exports the three ABI
// symbols (abi.SymbolMeta, abi.SymbolRunWithCtx, abi.SymbolPluginAPIInfo)
// the host's dynamicHandler looks up by name, wrapping a single
// workflowplugin.Plugin instance so the plugin-local state (the sync.Once
// HTTP server guard, the cron scheduler) survives across ticks the same way
// a built-in plugin's state would.
package main

import (
	"os"

	"github.com/pcfengzi/monitor-ai-bot/internal/abi"
	"github.com/pcfengzi/monitor-ai-bot/internal/workflowplugin"
)

var instance = workflowplugin.NewPlugin(graphDir())

func graphDir() string {
	if dir := os.Getenv("WORKFLOW_GRAPH_DIR"); dir != "" {
		return dir
	}
	if dir := os.Getenv("API_MONITOR_WORKFLOW_DIR"); dir != "" {
		return dir
	}
	return workflowplugin.DefaultGraphDir
}

// Meta is looked up via abi.SymbolMeta.
func Meta() abi.PluginMeta {
	return instance.Meta()
}

// RunWithCtx is looked up via abi.SymbolRunWithCtx.
func RunWithCtx(ctx *abi.PluginContext) {
	instance.RunWithCtx(ctx)
}

// PluginAPIInfo is looked up via abi.SymbolPluginAPIInfo.
func PluginAPIInfo() abi.PluginAPIInfo {
	info, _ := instance.APIInfo()
	return info
}
