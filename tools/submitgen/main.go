// submitgen is a tiny, dependency-free HTTP load generator tailored for the
// scheduler demo. It reuses HTTP connections (keep-alive) and supports
// concurrency so a bulk-submit scenario (e.g. 8000 items with deadlines
// spread over a window) runs quickly against a local demo instance.
//
// Usage example:
//
//	submitgen -base=http://127.0.0.1:8080 -n=8000 -c=16 -window=5s
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

func main() {
	base := flag.String("base", "http://127.0.0.1:8080", "Base URL including scheme and host")
	path := flag.String("path", "/submit", "Request path")
	n := flag.Int("n", 8000, "Total items to submit")
	conc := flag.Int("c", 16, "Number of concurrent workers")
	window := flag.Duration("window", 5*time.Second, "Deadlines are spread uniformly at random across [0, window) from now")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall timeout for the run")
	seed := flag.Int64("seed", 1, "PRNG seed, for reproducible deadline spread")
	flag.Parse()

	if *n <= 0 || *conc <= 0 {
		fmt.Fprintln(os.Stderr, "-n and -c must be > 0")
		os.Exit(2)
	}

	baseURL := strings.TrimRight(*base, "/")
	p := *path
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	fullURL := baseURL + p

	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        256,
		MaxIdleConnsPerHost: 256,
		IdleConnTimeout:     30 * time.Second,
	}
	client := &http.Client{Transport: tr, Timeout: 5 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	rng := rand.New(rand.NewSource(*seed))
	deadlines := make([]int64, *n)
	for i := range deadlines {
		deadlines[i] = rng.Int63n(int64(*window))
	}

	start := time.Now()
	var done, failed int64

	var wg sync.WaitGroup
	work := make(chan int64, *n)
	for _, d := range deadlines {
		work <- d
	}
	close(work)

	for w := 0; w < *conc; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for deadlineNanos := range work {
				select {
				case <-ctx.Done():
					return
				default:
				}
				body, _ := json.Marshal(struct {
					AfterMS int64 `json:"after_ms"`
				}{AfterMS: deadlineNanos / int64(time.Millisecond)})

				req, _ := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(body))
				req.Header.Set("Content-Type", "application/json")
				resp, err := client.Do(req)
				if err != nil || resp.StatusCode >= 400 {
					atomic.AddInt64(&failed, 1)
					if resp != nil {
						_, _ = io.Copy(io.Discard, resp.Body)
						_ = resp.Body.Close()
					}
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
				atomic.AddInt64(&done, 1)
			}
		}()
	}
	wg.Wait()

	elapsed := time.Since(start)
	fmt.Printf("submitgen: submitted=%d failed=%d elapsed=%s rate=%.0f/s\n",
		atomic.LoadInt64(&done), atomic.LoadInt64(&failed), elapsed, float64(*n)/elapsed.Seconds())
}
