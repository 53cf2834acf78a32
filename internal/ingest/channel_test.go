package ingest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pcfengzi/monitor-ai-bot/internal/telemetry"
)

func TestChannelDeliversInFIFOOrderPerProducer(t *testing.T) {
	ch := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var seen []string

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ch.Run(ctx, func(m Message) {
			mu.Lock()
			seen = append(seen, m.Metric.Name)
			mu.Unlock()
		})
	}()

	for i := 0; i < 5; i++ {
		ch.SendMetric(telemetry.Metric{Name: seqName(i)})
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 5
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for i, name := range seen {
		require.Equal(t, seqName(i), name)
	}
}

func TestChannelSendNeverBlocksEvenWithoutConsumer(t *testing.T) {
	ch := New()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			ch.SendLog(telemetry.LogEvent{Message: "x"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Send blocked with no consumer draining")
	}
}

func TestChannelDropsSendsAfterClose(t *testing.T) {
	ch := New()
	ch.Close()
	ch.SendLog(telemetry.LogEvent{Message: "dropped"})
	require.Empty(t, ch.drain())
}

func seqName(i int) string {
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	return names[i%len(names)]
}
