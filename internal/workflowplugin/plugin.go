package workflowplugin

import (
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"github.com/pcfengzi/monitor-ai-bot/internal/abi"
	"github.com/pcfengzi/monitor-ai-bot/internal/workflow"
)

// DefaultGraphDir is used when NewPlugin is given an empty directory.
const DefaultGraphDir = "workflows"

// APIPort is the fixed port the harness's on-demand HTTP API listens on,
// matching the original plugin's reserved port assignment.
const APIPort uint16 = 5601

// envAllowList names the environment variables seeded into every run's
// initial vars, per §4.9.
var envAllowList = []string{"USER", "PASS", "EXPECTED_USER_ID"}

// Plugin is the workflow-engine harness's PluginHandler implementation. It
// loads graph files from GraphDir once per invocation, runs each exactly
// once, and emits api_flow_success/api_flow_duration_ms metrics per run.
type Plugin struct {
	GraphDir string

	serverOnce sync.Once
	cronSched  *cron.Cron
}

// NewPlugin constructs a harness reading graphs from dir, defaulting to
// DefaultGraphDir when dir is empty.
func NewPlugin(dir string) *Plugin {
	if dir == "" {
		dir = DefaultGraphDir
	}
	return &Plugin{GraphDir: dir}
}

// Meta implements pluginhost.PluginHandler.
func (p *Plugin) Meta() abi.PluginMeta {
	return abi.PluginMeta{Name: "workflow-engine", Version: "0.1.0", Kind: "workflow"}
}

// APIInfo implements pluginhost.PluginHandler: the harness exposes a small
// read/trigger API on APIPort once its HTTP server is started.
func (p *Plugin) APIInfo() (abi.PluginAPIInfo, bool) {
	return abi.PluginAPIInfo{Port: APIPort, Prefix: "/"}, true
}

// RunWithCtx implements pluginhost.PluginHandler: loads every graph under
// GraphDir, runs each once synchronously against the engine kind named by
// WORKFLOW_ENGINE, and emits per-run metrics. The on-demand HTTP API is
// started at most once via sync.Once, mirroring the original's
// SERVER_STARTED OnceLock guard.
func (p *Plugin) RunWithCtx(ctx *abi.PluginContext) {
	ctx.LogFn(abi.LevelInfo, "workflow-engine: run_with_ctx called")

	defs, schedules, err := LoadGraphsFromDir(p.GraphDir)
	if err != nil {
		ctx.LogFn(abi.LevelError, "workflow-engine: failed to load graphs: "+err.Error())
		return
	}
	ctx.LogFn(abi.LevelInfo, "workflow-engine: loaded graph definitions from "+p.GraphDir)

	kind := workflow.ParseEngineKind(os.Getenv("WORKFLOW_ENGINE"))

	runner, err := workflow.NewRunner(workflow.RunnerConfig{Kind: kind})
	if err != nil {
		ctx.LogFn(abi.LevelError, "workflow-engine: "+err.Error())
		return
	}

	input := seedVarsFromEnv()

	store := newDefinitionStore(defs, runner)

	for _, def := range defs {
		runOnceAndEmit(ctx, runner, def, input)
	}

	p.serverOnce.Do(func() {
		go p.startServer(store)
		p.registerCronJobs(ctx, store, schedules, input)
	})
}

func seedVarsFromEnv() map[string]interface{} {
	vars := make(map[string]interface{}, len(envAllowList))
	for _, key := range envAllowList {
		if v, ok := os.LookupEnv(key); ok {
			vars[key] = v
		}
	}
	return vars
}

func runOnceAndEmit(ctx *abi.PluginContext, runner *workflow.WorkflowEngineRunner, def workflow.WorkflowDefinition, input map[string]interface{}) {
	start := time.Now()
	result, err := runner.Run(def, input)
	duration := time.Since(start)

	if err != nil {
		ctx.LogFn(abi.LevelError, "workflow-engine: run "+def.Key+" failed: "+err.Error())
		ctx.EmitMetricFn(abi.MetricSample{Name: "api_flow_success", Value: 0, TimestampMs: nowMs()})
		return
	}

	successValue := 0.0
	if result.Success {
		successValue = 1.0
	}
	ctx.EmitMetricFn(abi.MetricSample{Name: "api_flow_success", Value: successValue, TimestampMs: nowMs()})
	ctx.EmitMetricFn(abi.MetricSample{Name: "api_flow_duration_ms", Value: float64(duration.Milliseconds()), TimestampMs: nowMs()})
}

func nowMs() int64 { return time.Now().UTC().UnixMilli() }

// registerCronJobs wires any graph carrying an optional "schedule" front-
// matter field onto a robfig/cron/v3 scheduler, so it also runs on its own
// cadence independent of the host's tick interval.
func (p *Plugin) registerCronJobs(ctx *abi.PluginContext, store *definitionStore, schedules map[string]string, input map[string]interface{}) {
	if len(schedules) == 0 {
		return
	}

	p.cronSched = cron.New()
	for key, expr := range schedules {
		key, expr := key, expr
		def, ok := store.get(key)
		if !ok {
			continue
		}
		if _, err := p.cronSched.AddFunc(expr, func() {
			runOnceAndEmit(ctx, store.runner, def, input)
		}); err != nil {
			ctx.LogFn(abi.LevelWarn, "workflow-engine: invalid cron schedule for "+key+": "+err.Error())
		}
	}
	p.cronSched.Start()
}

func (p *Plugin) startServer(store *definitionStore) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	registerAPI(router, store)
	// Bind failures here are not fatal to the host: the tick loop already
	// ran every graph once this invocation; the on-demand API is best-effort.
	_ = http.ListenAndServe("127.0.0.1:"+strconv.Itoa(int(APIPort)), router)
}
