package testutil

import "sync"

// ConcurrentResult collects the outcomes of one RunConcurrent batch.
type ConcurrentResult struct {
	Successes int32
	Errs      []error
}

// RunConcurrent runs fn in parallel goroutines and gathers the outcomes.
// All goroutines are released together so racing operations actually
// overlap instead of starting spread out by scheduler latency.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	slots := make([]error, goroutines)
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Go(func() {
			<-start
			slots[i] = fn(i)
		})
	}
	close(start)
	wg.Wait()

	res := &ConcurrentResult{}
	for _, err := range slots {
		if err != nil {
			res.Errs = append(res.Errs, err)
			continue
		}
		res.Successes++
	}
	return res
}
