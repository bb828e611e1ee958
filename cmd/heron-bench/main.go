// Benchmark tool for load-testing a running Heron server.
//
// Usage:
//
//	go run cmd/heron-bench/main.go -url http://localhost:8080 -n 10000
//
// This tool:
//  1. Generates random in-range patient records
//  2. Sends each record to POST /predict
//  3. Verifies every response against a local reference scorer
//  4. Reports latency, throughput, and prediction distribution
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opensource-health/heron/internal/domain"
	"github.com/opensource-health/heron/internal/scoring"
)

// Metrics tracks benchmark results.
type Metrics struct {
	TotalProcessed int64
	TotalErrors    int64
	Mismatches     int64
	Positives      int64
	Negatives      int64

	mu        sync.Mutex
	latencies []time.Duration
	stages    map[string]int64
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Heron base URL")
	count := flag.Int("n", 10000, "Number of records to send")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	seed := flag.Int64("seed", 42, "Random seed for record generation")
	verbose := flag.Bool("verbose", false, "Print each record result")
	flag.Parse()

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║              HERON BENCHMARK - /predict load test             ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nHeron URL: %s\n", *baseURL)
	fmt.Printf("Records:   %d\n", *count)
	fmt.Printf("Workers:   %d\n", *workers)
	fmt.Printf("Seed:      %d\n", *seed)
	fmt.Println()

	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Heron not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Heron is running:")
		fmt.Println("  go run cmd/heron/main.go")
		os.Exit(1)
	}
	fmt.Println("✓ Heron is healthy")

	records := generateRecords(*count, *seed)
	fmt.Printf("✓ Generated %d records\n", len(records))

	fmt.Printf("\nRunning benchmark with %d workers...\n", *workers)
	startTime := time.Now()
	metrics := runBenchmark(records, *baseURL, *workers, *verbose)
	duration := time.Since(startTime)

	printResults(metrics, duration)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// generateRecords produces random records satisfying every field rule,
// including diastolic < systolic.
func generateRecords(count int, seed int64) []domain.PatientRecord {
	rng := rand.New(rand.NewSource(seed))

	records := make([]domain.PatientRecord, 0, count)
	for len(records) < count {
		systolic := 60 + rng.Intn(241)  // 60-300
		diastolic := 30 + rng.Intn(171) // 30-200
		if diastolic >= systolic {
			continue
		}
		records = append(records, domain.PatientRecord{
			Age:         1 + rng.Intn(120),
			BMI:         10 + rng.Float64()*60,
			Cholesterol: 50 + rng.Intn(551),
			Systolic:    systolic,
			Diastolic:   diastolic,
		})
	}
	return records
}

func runBenchmark(records []domain.PatientRecord, baseURL string, numWorkers int, verbose bool) *Metrics {
	metrics := &Metrics{stages: make(map[string]int64)}
	reference := scoring.NewEngine(scoring.DefaultWeightTable())

	work := make(chan domain.PatientRecord, 100)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}

			for rec := range work {
				start := time.Now()
				result, err := predict(client, baseURL, rec)
				elapsed := time.Since(start)

				atomic.AddInt64(&metrics.TotalProcessed, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: %+v -> %v\n", rec, err)
					}
					continue
				}

				metrics.mu.Lock()
				metrics.latencies = append(metrics.latencies, elapsed)
				metrics.stages[result.BPStage]++
				metrics.mu.Unlock()

				if result.Prediction == 1 {
					atomic.AddInt64(&metrics.Positives, 1)
				} else {
					atomic.AddInt64(&metrics.Negatives, 1)
				}

				// The server must agree with a local engine bit for bit.
				want := reference.Assess(rec)
				if result.RiskScore != want.RiskScore || result.Prediction != want.Prediction ||
					result.Confidence != want.Confidence || result.BPStage != want.BPStage {
					atomic.AddInt64(&metrics.Mismatches, 1)
					if verbose {
						fmt.Printf("MISMATCH: %+v -> got %+v, want %+v\n", rec, result, want)
					}
				}

				if verbose {
					fmt.Printf("  %3d/%3d mmHg | score %3d | pred %d | %-8s | %v\n",
						rec.Systolic, rec.Diastolic, result.RiskScore, result.Prediction, result.BPStage, elapsed.Round(time.Microsecond))
				}
			}
		}()
	}

	for _, rec := range records {
		work <- rec
	}
	close(work)

	wg.Wait()

	return metrics
}

func predict(client *http.Client, baseURL string, rec domain.PatientRecord) (*domain.RiskAssessment, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result domain.RiskAssessment
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println("\n╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                      BENCHMARK RESULTS                        ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")

	fmt.Printf("\n📊 PREDICTIONS\n")
	fmt.Printf("   Total Processed:  %d\n", m.TotalProcessed)
	fmt.Printf("   Positive (1):     %d\n", m.Positives)
	fmt.Printf("   Negative (0):     %d\n", m.Negatives)
	fmt.Printf("   Errors:           %d\n", m.TotalErrors)
	fmt.Printf("   Mismatches:       %d\n", m.Mismatches)

	fmt.Printf("\n🩺 BP STAGE DISTRIBUTION\n")
	m.mu.Lock()
	stages := []string{domain.StageNormal, domain.StageElevated, domain.StageOne, domain.StageTwo, domain.StageUnknown}
	for _, stage := range stages {
		if n, ok := m.stages[stage]; ok {
			fmt.Printf("   %-10s %8d\n", stage, n)
		}
	}

	latencies := make([]time.Duration, len(m.latencies))
	copy(latencies, m.latencies)
	m.mu.Unlock()

	fmt.Printf("\n⏱️  PERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if len(latencies) > 0 {
		sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

		var total time.Duration
		for _, l := range latencies {
			total += l
		}

		percentile := func(p float64) time.Duration {
			idx := int(p * float64(len(latencies)-1))
			return latencies[idx]
		}

		fmt.Printf("   Avg Latency:      %v\n", (total / time.Duration(len(latencies))).Round(time.Microsecond))
		fmt.Printf("   p50 Latency:      %v\n", percentile(0.50).Round(time.Microsecond))
		fmt.Printf("   p95 Latency:      %v\n", percentile(0.95).Round(time.Microsecond))
		fmt.Printf("   p99 Latency:      %v\n", percentile(0.99).Round(time.Microsecond))
		fmt.Printf("   Throughput:       %.2f req/sec\n", float64(m.TotalProcessed)/duration.Seconds())
	}

	if m.Mismatches == 0 && m.TotalErrors == 0 {
		fmt.Println("\n✅ Server responses match the reference engine")
	} else if m.Mismatches > 0 {
		fmt.Println("\n❌ Server responses diverge from the reference engine")
	}

	fmt.Println()
}
