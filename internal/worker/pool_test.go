package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/threewkit/threew/internal/model"
)

func countingProcess(executed *int32) ProcessFunc {
	return func(ctx context.Context, job CountryJob) CountryResult {
		atomic.AddInt32(executed, 1)
		resolved := make([]model.ResolvedRow, len(job.Rows))
		for i, row := range job.Rows {
			resolved[i] = model.ResolvedRow{Row: row, Resolution: model.Resolution{Confidence: model.ConfidenceExact}}
		}
		return CountryResult{Country: job.Country, Resolved: resolved}
	}
}

func TestNewPool_WorkerFloor(t *testing.T) {
	p := NewPool(0, countingProcess(new(int32)))
	if p.workers != 1 {
		t.Errorf("expected floor of 1 worker, got %d", p.workers)
	}
	p = NewPool(-3, countingProcess(new(int32)))
	if p.workers != 1 {
		t.Errorf("expected floor of 1 worker, got %d", p.workers)
	}
}

func TestPool_ProcessesAllCountries(t *testing.T) {
	var executed int32
	p := NewPool(3, countingProcess(&executed))
	p.Start()

	countries := []string{"ZWE", "AFG", "MLI", "COD", "YEM"}
	for _, c := range countries {
		p.Submit(CountryJob{Country: c, Rows: []model.SourceRow{{CountryISO3: c}}})
	}
	results := p.Wait()

	if int(atomic.LoadInt32(&executed)) != len(countries) {
		t.Fatalf("expected %d jobs executed, got %d", len(countries), executed)
	}
	if len(results) != len(countries) {
		t.Fatalf("expected %d results, got %d", len(countries), len(results))
	}
	// Results come back sorted by country regardless of completion order.
	for i := 1; i < len(results); i++ {
		if results[i-1].Country > results[i].Country {
			t.Fatalf("results not sorted: %s before %s", results[i-1].Country, results[i].Country)
		}
	}
	for _, r := range results {
		if len(r.Resolved) != 1 {
			t.Errorf("country %s: expected 1 resolved row, got %d", r.Country, len(r.Resolved))
		}
	}
}

func TestPool_ErrorsReported(t *testing.T) {
	p := NewPool(2, func(ctx context.Context, job CountryJob) CountryResult {
		if job.Country == "BAD" {
			return CountryResult{Country: job.Country, Err: errors.New("broken source")}
		}
		return CountryResult{Country: job.Country}
	})
	p.Start()
	p.Submit(CountryJob{Country: "BAD"})
	p.Submit(CountryJob{Country: "AFG"})
	results := p.Wait()

	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("expected 1 failed country, got %d", failed)
	}
}

func TestPool_Shutdown(t *testing.T) {
	p := NewPool(1, func(ctx context.Context, job CountryJob) CountryResult {
		select {
		case <-time.After(5 * time.Second):
		case <-ctx.Done():
			return CountryResult{Country: job.Country, Err: ctx.Err()}
		}
		return CountryResult{Country: job.Country}
	})
	p.Start()
	p.Submit(CountryJob{Country: "AFG"})

	done := make(chan struct{})
	go func() {
		p.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not complete in time")
	}
}
