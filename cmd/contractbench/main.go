// Command contractbench measures contract dispatch throughput against a
// naive channel-based MPMC queue baseline, under increasing worker counts,
// and renders the comparison as a bar chart, mirroring
// original_source/src/executable/benchmark's per-thread execution-count
// harness (simplified: no CPU pinning, since that is platform-specific and
// outside this port's scope).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	workcontract "github.com/gsingh-ds/go-work-contract"
)

func main() {
	duration := flag.Duration("duration", time.Second, "how long to run each worker-count trial")
	maxWorkers := flag.Int("max-workers", 8, "largest worker count to trial (doubles from 1)")
	out := flag.String("out", "contractbench.html", "path to write the rendered chart")
	flag.Parse()

	var workerCounts []int
	for w := 1; w <= *maxWorkers; w *= 2 {
		workerCounts = append(workerCounts, w)
	}

	var contractThroughput, channelThroughput []float64
	for _, w := range workerCounts {
		n := runTrial(w, *duration)
		contractThroughput = append(contractThroughput, n)
		b := runChannelBaseline(w, *duration)
		channelThroughput = append(channelThroughput, b)
		fmt.Printf("workers=%d contract-executions/sec=%.0f channel-executions/sec=%.0f\n", w, n, b)
	}

	if err := render(*out, workerCounts, contractThroughput, channelThroughput); err != nil {
		log.Fatalf("contractbench: render chart: %v", err)
	}
}

// runTrial creates one always-pending contract per worker and lets workers
// race to dispatch them for duration, returning aggregate executions/sec.
func runTrial(workers int, duration time.Duration) float64 {
	g, err := workcontract.NewGroup(&workcontract.GroupConfig{Capacity: 4096, Segments: workers})
	if err != nil {
		log.Fatalf("contractbench: NewGroup: %v", err)
	}

	var executions int64
	for i := 0; i < workers; i++ {
		_, err := g.CreateContract(func(tok workcontract.Token) {
			atomic.AddInt64(&executions, 1)
			tok.Schedule()
		}, workcontract.WithInitialState(workcontract.Scheduled))
		if err != nil {
			log.Fatalf("contractbench: CreateContract: %v", err)
		}
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(hint uint64) {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					g.ExecuteNextContract(hint)
				}
			}
		}(uint64(w))
	}

	time.Sleep(duration)
	close(stop)
	wg.Wait()

	return float64(atomic.LoadInt64(&executions)) / duration.Seconds()
}

// runChannelBaseline measures the same always-pending-work throughput as
// runTrial, but against a naive channel-based MPMC queue instead of a
// Group: one work item per worker, requeued after each execution, with
// workers racing a single shared channel instead of a signal tree. This is
// the comparison spec.md's "benchmarks are the primary justification"
// calls for.
func runChannelBaseline(workers int, duration time.Duration) float64 {
	queue := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		queue <- struct{}{}
	}

	var executions int64
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				case <-queue:
					atomic.AddInt64(&executions, 1)
					select {
					case queue <- struct{}{}:
					default:
					}
				}
			}
		}()
	}

	time.Sleep(duration)
	close(stop)
	wg.Wait()

	return float64(atomic.LoadInt64(&executions)) / duration.Seconds()
}

func render(path string, workers []int, contractThroughput, channelThroughput []float64) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "contract dispatch throughput vs. channel baseline",
			Subtitle: "executions/sec by worker count",
		}),
	)

	labels := make([]string, len(workers))
	contractItems := make([]opts.BarData, len(workers))
	channelItems := make([]opts.BarData, len(workers))
	for i, w := range workers {
		labels[i] = fmt.Sprintf("%d", w)
		contractItems[i] = opts.BarData{Value: contractThroughput[i]}
		channelItems[i] = opts.BarData{Value: channelThroughput[i]}
	}
	bar.SetXAxis(labels).
		AddSeries("contract executions/sec", contractItems).
		AddSeries("channel baseline executions/sec", channelItems)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return bar.Render(f)
}
