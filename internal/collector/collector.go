// Package collector samples Go runtime stats and host CPU/RAM usage and
// writes them into a metric sink.
package collector

import (
	"context"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/mkraev/metricflow/internal/domain"
)

const (
	UnitBytes   = "Bytes"
	UnitCount   = "Count"
	UnitPercent = "Percent"
)

// Sink receives sampled values. *emitter.Emitter satisfies it.
type Sink interface {
	Put(name, unit string, value float64, dims ...domain.Dimension)
	SummaryPut(name, unit string, value float64, dims ...domain.Dimension)
	Sample(name, unit string, value, rate float64, dims ...domain.Dimension)
}

// Collector periodically samples Go runtime stats plus host CPU/RAM metrics
// and forwards every sample to the sink.
type Collector struct {
	sink Sink
	stop chan struct{}
	wg   sync.WaitGroup
}

func New(sink Sink) *Collector {
	return &Collector{
		sink: sink,
		stop: make(chan struct{}),
	}
}

// Start launches background goroutines that sample at the given interval
// until the context is cancelled or Stop is called.
func (c *Collector) Start(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer t.Stop()
		var ms runtime.MemStats
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stop:
				return
			case <-t.C:
				runtime.ReadMemStats(&ms)
				c.sampleRuntime(&ms)
			}
		}
	}()

	tSys := time.NewTicker(interval)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer tSys.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stop:
				return
			case <-tSys.C:
				c.sampleHost()
			}
		}
	}()
}

// Stop signals every collector goroutine to halt and waits for them to finish.
func (c *Collector) Stop() {
	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
	c.wg.Wait()
}

func (c *Collector) sampleRuntime(ms *runtime.MemStats) {
	c.sink.SummaryPut("heap_alloc", UnitBytes, float64(ms.HeapAlloc))
	c.sink.SummaryPut("heap_inuse", UnitBytes, float64(ms.HeapInuse))
	c.sink.SummaryPut("heap_objects", UnitCount, float64(ms.HeapObjects))
	c.sink.SummaryPut("stack_inuse", UnitBytes, float64(ms.StackInuse))
	c.sink.SummaryPut("gc_cpu_fraction", UnitPercent, ms.GCCPUFraction*100)
	c.sink.Put("num_gc", UnitCount, float64(ms.NumGC))
	c.sink.Put("goroutines", UnitCount, float64(runtime.NumGoroutine()))
	// Allocation counters are high-frequency noise, keep one in ten.
	c.sink.Sample("mallocs", UnitCount, float64(ms.Mallocs), 0.1)
}

func (c *Collector) sampleHost() {
	if vm, err := mem.VirtualMemory(); err == nil && vm != nil {
		c.sink.Put("mem_total", UnitBytes, float64(vm.Total))
		c.sink.Put("mem_free", UnitBytes, float64(vm.Free))
		c.sink.SummaryPut("mem_used_percent", UnitPercent, vm.UsedPercent)
	}
	if pct, err := cpu.Percent(0, true); err == nil {
		for i, p := range pct {
			c.sink.SummaryPut("cpu_utilization", UnitPercent, p,
				domain.Dimension{Name: "core", Value: strconv.Itoa(i)})
		}
	}
}
