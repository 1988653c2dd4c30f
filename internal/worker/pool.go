// Package worker runs per-country resolution concurrently. Each country's
// rows are independent, the admin Index is read-only and the normalizers'
// tables are immutable during a run, so countries can be processed in
// parallel and their claim sets merged by set union afterwards.
package worker

import (
	"context"
	"sort"
	"sync"

	"github.com/threewkit/threew/internal/model"
)

// CountryJob is one country's batch of source rows.
type CountryJob struct {
	Country string
	Rows    []model.SourceRow
}

// CountryResult carries one country's resolved rows back to the merger.
type CountryResult struct {
	Country  string
	Resolved []model.ResolvedRow
	Skipped  int // Rows dropped for missing sector or organization
	Err      error
}

// ProcessFunc resolves one country batch. It must only read shared state.
type ProcessFunc func(ctx context.Context, job CountryJob) CountryResult

// Pool fans country jobs out over a fixed number of workers.
type Pool struct {
	workers    int
	process    ProcessFunc
	jobQueue   chan CountryJob
	results    chan CountryResult
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
}

// NewPool creates a pool with the given number of workers.
func NewPool(workers int, process ProcessFunc) *Pool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workers:    workers,
		process:    process,
		jobQueue:   make(chan CountryJob, workers*2),
		results:    make(chan CountryResult, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := p.process(p.ctx, job)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues one country for processing.
func (p *Pool) Submit(job CountryJob) {
	select {
	case <-p.ctx.Done():
		return
	case p.jobQueue <- job:
	}
}

// Wait closes the queue, waits for all countries to finish and returns
// their results sorted by country. Completion order varies with worker
// scheduling; the sort keeps downstream output stable.
func (p *Pool) Wait() []CountryResult {
	close(p.jobQueue)
	go func() {
		p.wg.Wait()
		p.closeResults()
	}()

	var results []CountryResult
	for result := range p.results {
		results = append(results, result)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Country < results[j].Country })
	return results
}

// Shutdown stops the pool immediately, abandoning queued jobs.
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
