package perftests

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	bidding "voltbay/internal/biddingService"
	"voltbay/internal/clock"
	"voltbay/internal/repository"

	"github.com/shopspring/decimal"
)

// LoadScenario defines configurable benchmark parameters
type LoadScenario struct {
	Name            string
	NumUsers        int
	NumAuctions     int
	ReadRatio       int
	MaxBidIncrement int
	Burst           bool // if true, no delay between ops
}

// OperationMetrics collects latencies safely
type OperationMetrics struct {
	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(d time.Duration) {
	om.mu.Lock()
	om.latencies = append(om.latencies, d)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (min, max, avg, p95, p99 time.Duration) {
	om.mu.Lock()
	latencies := append([]time.Duration(nil), om.latencies...)
	om.mu.Unlock()
	if len(latencies) == 0 {
		return
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	min = latencies[0]
	max = latencies[len(latencies)-1]

	var total time.Duration
	for _, d := range latencies {
		total += d
	}
	avg = total / time.Duration(len(latencies))
	p95 = latencies[int(0.95*float64(len(latencies)))]
	p99 = latencies[int(0.99*float64(len(latencies)))]
	return
}

// setupRepo creates the store and bidding service with open auctions
func setupRepo(numAuctions int) ([]string, *bidding.BiddingService) {
	repo := repository.NewMemoryRepo()
	svc := bidding.NewBiddingService(repo, clock.NewFixed(benchNow))
	ids := make([]string, numAuctions)
	for i := range ids {
		ids[i] = fmt.Sprintf("00000000-0000-0000-0000-%012d", i)
		seedAuction(repo, ids[i], 100, benchNow.Add(time.Hour))
	}
	return ids, svc
}

// Benchmark_Load_BiddingSystem runs multiple scenarios
func Benchmark_Load_BiddingSystem(b *testing.B) {
	scenarios := []LoadScenario{
		{"Low-Contention-WriteHeavy", 200, 200, 0, 50, false},
		{"High-Contention-WriteHeavy", 500, 10, 0, 20, false},
		{"Mixed-Workload", 300, 50, 7, 30, false},
		{"ReadHeavy", 200, 50, 9, 20, false},
		{"Edge-Case-SingleAuction", 100, 1, 5, 10, false},
		{"Peak-Burst", 500, 50, 0, 20, true},
	}

	for _, s := range scenarios {
		b.Run(s.Name, func(b *testing.B) {
			runParallelScenario(b, s)
		})
	}
}

func runParallelScenario(b *testing.B, s LoadScenario) {
	b.ReportAllocs()

	ctx := context.Background()
	ids, svc := setupRepo(s.NumAuctions)

	var totalOps, successfulBids, rejectedBids, totalReads int64
	auctionSuccess := make([]int64, s.NumAuctions)
	auctionTop := make([]int64, s.NumAuctions)
	metrics := &OperationMetrics{}

	start := time.Now()

	b.RunParallel(func(pb *testing.PB) {
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

		for pb.Next() {
			idx := rnd.Intn(s.NumAuctions)
			opStart := time.Now()

			if rnd.Intn(10) < s.ReadRatio {
				if _, err := svc.ListBids(ctx, ids[idx]); err != nil {
					b.Logf("ignored read error: %v", err)
				}
				atomic.AddInt64(&totalReads, 1)
			} else {
				top := atomic.AddInt64(&auctionTop[idx], int64(rnd.Intn(s.MaxBidIncrement)+1))
				amount := decimal.NewFromInt(100 + top)
				userID := fmt.Sprintf("user_%d", rnd.Intn(s.NumUsers))
				if _, err := svc.PlaceBid(ctx, ids[idx], userID, amount); err != nil {
					atomic.AddInt64(&rejectedBids, 1)
				} else {
					atomic.AddInt64(&successfulBids, 1)
					atomic.AddInt64(&auctionSuccess[idx], 1)
				}
			}

			metrics.Record(time.Since(opStart))
			atomic.AddInt64(&totalOps, 1)

			if !s.Burst {
				time.Sleep(time.Millisecond)
			}
		}
	})

	elapsed := time.Since(start)
	throughput := float64(atomic.LoadInt64(&totalOps)) / elapsed.Seconds()
	min, max, avg, p95, p99 := metrics.Stats()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	b.Logf(
		"Scenario: %s | Auctions: %d | Total Ops: %d | Accepted Bids: %d | Rejected Bids: %d | Reads: %d | Elapsed: %s | Throughput: %.2f ops/sec | Latency(us) min: %.2f avg: %.2f max: %.2f p95: %.2f p99: %.2f | Memory Alloc: %.2f MB",
		s.Name, s.NumAuctions, totalOps, successfulBids, rejectedBids, totalReads, elapsed,
		throughput,
		float64(min.Microseconds()), float64(avg.Microseconds()), float64(max.Microseconds()),
		float64(p95.Microseconds()), float64(p99.Microseconds()),
		float64(mem.Alloc)/1024/1024,
	)

	for i, v := range auctionSuccess {
		if v > 0 {
			b.Logf("Auction %d accepted bids: %d", i, v)
		}
	}
}
