// Package main load-tests the FizzBuzz server with a rotating range of numbers
package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// stats aggregates request outcomes across workers. Latencies are in microseconds.
type stats struct {
	requests atomic.Int64
	errors   atomic.Int64
	total    atomic.Int64
	min      atomic.Int64
	max      atomic.Int64
}

func newStats() *stats {
	s := &stats{}
	s.min.Store(1<<63 - 1)
	return s
}

func (s *stats) ok(latency int64) {
	s.requests.Add(1)
	s.total.Add(latency)
	for {
		old := s.min.Load()
		if latency >= old || s.min.CompareAndSwap(old, latency) {
			break
		}
	}
	for {
		old := s.max.Load()
		if latency <= old || s.max.CompareAndSwap(old, latency) {
			break
		}
	}
}

func (s *stats) fail() {
	s.errors.Add(1)
}

func (s *stats) report(duration time.Duration, concurrency int) {
	reqs := s.requests.Load()
	avg := float64(0)
	if reqs > 0 {
		avg = float64(s.total.Load()) / float64(reqs)
	}
	minLat := s.min.Load()
	if reqs == 0 {
		minLat = 0
	}
	rps := float64(reqs) / duration.Seconds()

	fmt.Println("\n========== RESULTS ==========")
	fmt.Printf("Total requests:  %d\n", reqs)
	fmt.Printf("Total errors:    %d\n", s.errors.Load())
	fmt.Printf("Duration:        %v\n", duration)
	fmt.Printf("Concurrency:     %d\n", concurrency)
	fmt.Println()
	fmt.Printf("RPS:             %.2f\n", rps)
	fmt.Printf("RPM:             %.0f\n", rps*60)
	fmt.Println()
	fmt.Printf("Latency avg:     %.2f µs (%.3f ms)\n", avg, avg/1000)
	fmt.Printf("Latency min:     %d µs (%.3f ms)\n", minLat, float64(minLat)/1000)
	fmt.Printf("Latency max:     %d µs (%.3f ms)\n", s.max.Load(), float64(s.max.Load())/1000)
}

func worker(ctx context.Context, client *http.Client, target string, maxN int64, next *atomic.Int64, s *stats) {
	for ctx.Err() == nil {
		n := next.Add(1)%maxN + 1
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s?n=%d", target, n), nil)
		if err != nil {
			s.fail()
			return
		}
		start := time.Now()
		resp, err := client.Do(req)
		latency := time.Since(start).Microseconds()
		if err != nil {
			// Requests cut off by the deadline are not failures
			if ctx.Err() == nil {
				s.fail()
			}
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			s.ok(latency)
		} else {
			s.fail()
		}
	}
}

func newClient(concurrency int, insecure bool) *http.Client {
	tr := &http.Transport{
		MaxIdleConns:        concurrency * 2,
		MaxIdleConnsPerHost: concurrency * 2,
		IdleConnTimeout:     90 * time.Second,
	}
	if insecure {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	return &http.Client{Transport: tr, Timeout: 5 * time.Second}
}

func progress(ctx context.Context, s *stats) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	elapsed := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			elapsed++
			reqs := s.requests.Load()
			fmt.Printf("[%ds] Requests: %d, Errors: %d, RPS: %.0f\n",
				elapsed, reqs, s.errors.Load(), float64(reqs)/float64(elapsed))
		}
	}
}

func main() {
	target := flag.String("url", "http://localhost:8080/", "Target URL (n is appended as a query parameter)")
	maxN := flag.Int64("max", 100, "Numbers sent cycle through 1..max")
	duration := flag.Duration("duration", 10*time.Second, "Test duration")
	concurrency := flag.Int("c", 10, "Number of concurrent workers")
	insecure := flag.Bool("insecure", false, "Skip TLS certificate verification")
	flag.Parse()

	if *maxN < 1 {
		fmt.Fprintln(os.Stderr, "-max must be at least 1")
		os.Exit(2)
	}

	fmt.Printf("Benchmarking %s with n in 1..%d\n", *target, *maxN)
	fmt.Printf("Duration: %v, Concurrency: %d\n\n", *duration, *concurrency)

	client := newClient(*concurrency, *insecure)

	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	s := newStats()
	var next atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(ctx, client, *target, *maxN, &next, s)
		}()
	}

	go progress(ctx, s)

	wg.Wait()
	s.report(*duration, *concurrency)

	if s.errors.Load() > 0 {
		os.Exit(1)
	}
}
