package k8s

import (
	"context"
	"testing"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	kubefake "k8s.io/client-go/kubernetes/fake"
	metricsv1beta1api "k8s.io/metrics/pkg/apis/metrics/v1beta1"
	metricsfake "k8s.io/metrics/pkg/client/clientset/versioned/fake"

	"github.com/stretchr/testify/require"
)

func TestListNodeUsageConvertsQuantitiesToMillisAndKiB(t *testing.T) {
	metrics := metricsfake.NewSimpleClientset(&metricsv1beta1api.NodeMetrics{
		ObjectMeta: metav1.ObjectMeta{Name: "node-a"},
		Usage: corev1.ResourceList{
			corev1.ResourceCPU:    resource.MustParse("250m"),
			corev1.ResourceMemory: resource.MustParse("512Ki"),
		},
	})

	client := NewForTest(kubefake.NewSimpleClientset(), metrics)
	usage, err := client.ListNodeUsage(context.Background())
	require.NoError(t, err)
	require.Len(t, usage, 1)
	require.Equal(t, "node-a", usage[0].Name)
	require.Equal(t, int64(250), usage[0].CPUMillis)
	require.Equal(t, int64(512), usage[0].MemoryKiB)
}

func TestListPodUsageSumsAcrossContainers(t *testing.T) {
	metrics := metricsfake.NewSimpleClientset(&metricsv1beta1api.PodMetrics{
		ObjectMeta: metav1.ObjectMeta{Name: "api-0", Namespace: "monitor"},
		Containers: []metricsv1beta1api.ContainerMetrics{
			{Name: "app", Usage: corev1.ResourceList{
				corev1.ResourceCPU:    resource.MustParse("100m"),
				corev1.ResourceMemory: resource.MustParse("1Mi"),
			}},
			{Name: "sidecar", Usage: corev1.ResourceList{
				corev1.ResourceCPU:    resource.MustParse("50m"),
				corev1.ResourceMemory: resource.MustParse("256Ki"),
			}},
		},
	})

	client := NewForTest(kubefake.NewSimpleClientset(), metrics)
	usage, err := client.ListPodUsage(context.Background(), "monitor")
	require.NoError(t, err)
	require.Len(t, usage, 1)
	require.Equal(t, int64(150), usage[0].CPUMillis)
	require.Equal(t, int64(1024+256), usage[0].MemoryKiB)
}

func TestGetNodesListsFromCoreAPI(t *testing.T) {
	clientset := kubefake.NewSimpleClientset(&corev1.Node{ObjectMeta: metav1.ObjectMeta{Name: "node-a"}})
	client := NewForTest(clientset, metricsfake.NewSimpleClientset())

	nodes, err := client.GetNodes(context.Background())
	require.NoError(t, err)
	require.Len(t, nodes.Items, 1)
	require.Equal(t, "node-a", nodes.Items[0].Name)
}
