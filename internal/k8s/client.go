// Package k8s provides a minimal Kubernetes client for the kube-metrics
// built-in plugin: cluster auto-configuration (in-cluster or kubeconfig)
// plus node/pod resource-usage queries against the metrics.k8s.io API.
package k8s

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	metricsv1beta1 "k8s.io/metrics/pkg/client/clientset/versioned"
)

// Client wraps the core clientset and the metrics-server clientset behind
// one auto-configured connection. Both fields are interface-typed so tests
// can substitute the corresponding fake clientsets.
type Client struct {
	clientset kubernetes.Interface
	metrics   metricsv1beta1.Interface
	config    *rest.Config
	namespace string
}

// NewClient creates a new Kubernetes client, auto-detecting in-cluster vs.
// local kubeconfig configuration.
func NewClient() (*Client, error) {
	config, err := getConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get kubeconfig: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	metricsClient, err := metricsv1beta1.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics clientset: %w", err)
	}

	namespace := os.Getenv("NAMESPACE")
	if namespace == "" {
		namespace = "default"
	}

	return &Client{clientset: clientset, metrics: metricsClient, config: config, namespace: namespace}, nil
}

// getConfig returns Kubernetes config (in-cluster or kubeconfig).
func getConfig() (*rest.Config, error) {
	config, err := rest.InClusterConfig()
	if err == nil {
		return config, nil
	}

	kubeconfig := os.Getenv("KUBECONFIG")
	if kubeconfig == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		kubeconfig = filepath.Join(home, ".kube", "config")
	}

	config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build config from kubeconfig: %w", err)
	}
	return config, nil
}

// NewForTest builds a Client around an already-constructed clientset pair,
// bypassing cluster auto-configuration. Exported so other packages' tests
// (e.g. the kube-metrics built-in) can wire in fake clientsets too;
// production code always goes through NewClient.
func NewForTest(clientset kubernetes.Interface, metrics metricsv1beta1.Interface) *Client {
	return &Client{clientset: clientset, metrics: metrics, namespace: "default"}
}

// GetClientset returns the underlying core Kubernetes clientset.
func (c *Client) GetClientset() kubernetes.Interface {
	return c.clientset
}

// NodeUsage is one node's instantaneous CPU/memory usage as reported by the
// metrics-server aggregated API.
type NodeUsage struct {
	Name      string
	CPUMillis int64
	MemoryKiB int64
}

// PodUsage is one pod's instantaneous CPU/memory usage, summed across its
// containers.
type PodUsage struct {
	Namespace string
	Name      string
	CPUMillis int64
	MemoryKiB int64
}

// ListNodeUsage queries metrics.k8s.io for every node's current usage.
func (c *Client) ListNodeUsage(ctx context.Context) ([]NodeUsage, error) {
	list, err := c.metrics.MetricsV1beta1().NodeMetricses().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list node metrics: %w", err)
	}

	usage := make([]NodeUsage, 0, len(list.Items))
	for _, item := range list.Items {
		usage = append(usage, NodeUsage{
			Name:      item.Name,
			CPUMillis: item.Usage.Cpu().MilliValue(),
			MemoryKiB: item.Usage.Memory().Value() / 1024,
		})
	}
	return usage, nil
}

// ListPodUsage queries metrics.k8s.io for every pod's current usage within
// namespace. An empty namespace lists across all namespaces.
func (c *Client) ListPodUsage(ctx context.Context, namespace string) ([]PodUsage, error) {
	list, err := c.metrics.MetricsV1beta1().PodMetricses(namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("list pod metrics: %w", err)
	}

	usage := make([]PodUsage, 0, len(list.Items))
	for _, item := range list.Items {
		var cpu, mem int64
		for _, container := range item.Containers {
			cpu += container.Usage.Cpu().MilliValue()
			mem += container.Usage.Memory().Value() / 1024
		}
		usage = append(usage, PodUsage{Namespace: item.Namespace, Name: item.Name, CPUMillis: cpu, MemoryKiB: mem})
	}
	return usage, nil
}

// GetNodes returns the cluster's nodes via the core API, used when
// metrics-server data should be correlated against node capacity/labels.
func (c *Client) GetNodes(ctx context.Context) (*corev1.NodeList, error) {
	return c.clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
}
