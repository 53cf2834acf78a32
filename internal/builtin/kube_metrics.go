// Package builtin holds plugins compiled directly into the host binary
// rather than loaded as separate shared-object artifacts (§4.5's built-in
// plugin path). Each file here self-registers with pluginhost's global
// registry from an init() func, mirroring the teacher's
// GlobalPluginRegistry registration convention.
package builtin

import (
	"context"
	"time"

	"github.com/pcfengzi/monitor-ai-bot/internal/abi"
	"github.com/pcfengzi/monitor-ai-bot/internal/k8s"
	"github.com/pcfengzi/monitor-ai-bot/internal/pluginhost"
)

func init() {
	pluginhost.Register("kube-metrics", func() pluginhost.PluginHandler {
		return &KubeMetricsPlugin{}
	})
}

// kubeMetricsTimeout bounds how long one tick's metrics-server queries may
// take before the plugin gives up for that invocation.
const kubeMetricsTimeout = 4 * time.Second

// KubeMetricsPlugin emits per-node and per-pod CPU/memory usage samples
// from the cluster's metrics-server on every tick. The underlying
// *k8s.Client is constructed lazily on first use and reused across ticks —
// outside a cluster (no in-cluster config, no kubeconfig) construction
// fails every tick, which is logged and otherwise harmless: the plugin
// simply contributes no samples until a cluster becomes reachable.
type KubeMetricsPlugin struct {
	pluginhost.BasePlugin
	client *k8s.Client
}

// Meta implements pluginhost.PluginHandler.
func (p *KubeMetricsPlugin) Meta() abi.PluginMeta {
	return abi.PluginMeta{Name: "kube-metrics", Version: "0.1.0", Kind: "builtin"}
}

// RunWithCtx implements pluginhost.PluginHandler.
func (p *KubeMetricsPlugin) RunWithCtx(ctx *abi.PluginContext) {
	if p.client == nil {
		client, err := k8s.NewClient()
		if err != nil {
			ctx.LogFn(abi.LevelWarn, "kube-metrics: cluster unreachable: "+err.Error())
			return
		}
		p.client = client
	}

	c, cancel := context.WithTimeout(context.Background(), kubeMetricsTimeout)
	defer cancel()

	nodes, err := p.client.ListNodeUsage(c)
	if err != nil {
		ctx.LogFn(abi.LevelError, "kube-metrics: list node usage: "+err.Error())
	}
	for _, n := range nodes {
		now := time.Now().UTC().UnixMilli()
		ctx.EmitMetricFn(abi.MetricSample{Name: "node_cpu_millis{node=" + n.Name + "}", Value: float64(n.CPUMillis), TimestampMs: now})
		ctx.EmitMetricFn(abi.MetricSample{Name: "node_memory_kib{node=" + n.Name + "}", Value: float64(n.MemoryKiB), TimestampMs: now})
	}

	pods, err := p.client.ListPodUsage(c, "")
	if err != nil {
		ctx.LogFn(abi.LevelError, "kube-metrics: list pod usage: "+err.Error())
		return
	}
	for _, pod := range pods {
		now := time.Now().UTC().UnixMilli()
		label := "{namespace=" + pod.Namespace + ",pod=" + pod.Name + "}"
		ctx.EmitMetricFn(abi.MetricSample{Name: "pod_cpu_millis" + label, Value: float64(pod.CPUMillis), TimestampMs: now})
		ctx.EmitMetricFn(abi.MetricSample{Name: "pod_memory_kib" + label, Value: float64(pod.MemoryKiB), TimestampMs: now})
	}
}
