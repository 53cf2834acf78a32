// Package pluginhost implements C5: discovery of plugin artifacts, dynamic
// loading through Go's plugin package, and the fixed-interval tick loop that
// invokes every discovered plugin — built-in or dynamically loaded — through
// one uniform PluginHandler shape.
package pluginhost

import "github.com/pcfengzi/monitor-ai-bot/internal/abi"

// PluginHandler is the in-process shape both built-in plugins (Go types
// registered via init(), mirroring the teacher's GlobalPluginRegistry) and
// dynamically-loaded plugins (adapted from their exported Meta/RunWithCtx/Run
// symbols by dynamicHandler in discovery.go) present to the tick loop.
type PluginHandler interface {
	Meta() abi.PluginMeta
	// RunWithCtx invokes the plugin's entry point. Implementations backed by
	// a legacy Run()-only dynamic plugin call Run and ignore ctx.
	RunWithCtx(ctx *abi.PluginContext)
	// APIInfo returns the plugin's announced HTTP listener, if any.
	APIInfo() (abi.PluginAPIInfo, bool)
}

// BasePlugin gives built-in plugins a default "no HTTP API" APIInfo so they
// only need to implement Meta and RunWithCtx, mirroring the teacher's
// BasePlugin no-op method embedding in internal/plugins/base_plugin.go.
type BasePlugin struct{}

func (BasePlugin) APIInfo() (abi.PluginAPIInfo, bool) { return abi.PluginAPIInfo{}, false }
