package pluginhost

import (
	"fmt"
	"os"
	"path/filepath"
	"plugin"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pcfengzi/monitor-ai-bot/internal/abi"
)

// pluginSuffix is the only artifact extension Go's plugin package can load
// at runtime; unlike the original C-ABI host, there is no per-platform
// .dylib/.dll variant to special-case.
const pluginSuffix = ".so"

// Discovery enumerates dynamic plugin artifacts on disk and loads them
// through Go's plugin package, caching already-opened libraries by path
// since plugin.Open is not idempotent-cheap and the tick loop calls
// Discover every tick (§8 "discovery idempotence").
type Discovery struct {
	dir    string
	log    zerolog.Logger
	opened map[string]*plugin.Plugin
}

// NewDiscovery constructs a Discovery rooted at dir. A non-existent or
// unreadable directory is tolerated; Discover simply returns an empty list,
// mirroring PluginDiscovery.discoverDynamicPlugins.
func NewDiscovery(dir string, log zerolog.Logger) *Discovery {
	return &Discovery{dir: dir, log: log, opened: make(map[string]*plugin.Plugin)}
}

// Discover returns plugin artifact paths under dir with the .so suffix, in
// directory-listing order (§4.5 tie-break), tolerating a missing directory.
func (d *Discovery) Discover() []string {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		d.log.Info().Str("dir", d.dir).Err(err).Msg("plugin directory not readable, skipping discovery this tick")
		return nil
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), pluginSuffix) {
			paths = append(paths, filepath.Join(d.dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths
}

// Load opens (or returns the cached handle for) the plugin artifact at path
// and adapts its exported symbols into a PluginHandler. The opened library
// is never closed — Go's plugin package offers no such operation, which
// makes the spec's "intentionally leak the library handle" §4.5/§9 rule
// structural rather than a discipline the host must remember to apply.
func (d *Discovery) Load(path string) (PluginHandler, error) {
	p, ok := d.opened[path]
	if !ok {
		opened, err := plugin.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open plugin %s: %w", path, err)
		}
		d.opened[path] = opened
		p = opened
	}
	return newDynamicHandler(p)
}

// dynamicHandler adapts a dynamically-loaded plugin's exported symbols into
// the uniform PluginHandler shape used by the tick loop.
type dynamicHandler struct {
	meta          func() abi.PluginMeta
	runWithCtx    func(ctx *abi.PluginContext)
	run           func()
	pluginAPIInfo func() abi.PluginAPIInfo
}

func newDynamicHandler(p *plugin.Plugin) (*dynamicHandler, error) {
	metaSym, err := p.Lookup(abi.SymbolMeta)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", abi.SymbolMeta, err)
	}
	metaFn, ok := metaSym.(func() abi.PluginMeta)
	if !ok {
		return nil, fmt.Errorf("symbol %s has unexpected type %T", abi.SymbolMeta, metaSym)
	}

	h := &dynamicHandler{meta: metaFn}

	if sym, err := p.Lookup(abi.SymbolRunWithCtx); err == nil {
		if fn, ok := sym.(func(ctx *abi.PluginContext)); ok {
			h.runWithCtx = fn
		}
	}
	if sym, err := p.Lookup(abi.SymbolRun); err == nil {
		if fn, ok := sym.(func()); ok {
			h.run = fn
		}
	}
	if h.runWithCtx == nil && h.run == nil {
		return nil, fmt.Errorf("plugin exports neither %s nor %s", abi.SymbolRunWithCtx, abi.SymbolRun)
	}

	if sym, err := p.Lookup(abi.SymbolPluginAPIInfo); err == nil {
		if fn, ok := sym.(func() abi.PluginAPIInfo); ok {
			h.pluginAPIInfo = fn
		}
	}

	return h, nil
}

func (h *dynamicHandler) Meta() abi.PluginMeta { return h.meta() }

func (h *dynamicHandler) RunWithCtx(ctx *abi.PluginContext) {
	if h.runWithCtx != nil {
		h.runWithCtx(ctx)
		return
	}
	h.run()
}

func (h *dynamicHandler) APIInfo() (abi.PluginAPIInfo, bool) {
	if h.pluginAPIInfo == nil {
		return abi.PluginAPIInfo{}, false
	}
	return h.pluginAPIInfo(), true
}
