package backtest

import (
	"fmt"
	"io"
	"log"
	"runtime"
	"sync"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/strategies"
)

// Variant is one configuration in a parameter sweep. Every variant needs
// its own strategy instance: strategies carry per-run state and runs
// execute concurrently.
type Variant struct {
	Name     string
	Config   Config
	Strategy strategies.Strategy
}

// SweepResult pairs a variant with its run outcome.
type SweepResult struct {
	Name   string
	Result *Result
	Err    error
}

// Sweep runs every variant over the same candle series, workers runs at a
// time. Runs share nothing but the immutable series, so they parallelize
// cleanly. Results come back in variant order; a failed variant carries
// its error and does not stop the others.
func Sweep(series *market.Series, variants []Variant, workers int) []SweepResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(variants) {
		workers = len(variants)
	}

	results := make([]SweepResult, len(variants))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = runVariant(series, variants[i])
			}
		}()
	}

	for i := range variants {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

func runVariant(series *market.Series, v Variant) SweepResult {
	out := SweepResult{Name: v.Name}

	eng, err := New(v.Config, v.Strategy)
	if err != nil {
		out.Err = fmt.Errorf("variant %s: %w", v.Name, err)
		return out
	}
	// Keep concurrent runs from interleaving per-trade output.
	eng.SetLogger(log.New(io.Discard, "", 0))

	out.Result, out.Err = eng.Run(series)
	if out.Err != nil {
		out.Err = fmt.Errorf("variant %s: %w", v.Name, out.Err)
	}
	return out
}
