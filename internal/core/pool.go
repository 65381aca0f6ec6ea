package core

import (
	"context"
	"log/slog"
	"sort"
	"sync"
)

// Defaults for chunked normalization.
const (
	DefaultChunkSize = 500
	DefaultWorkers   = 4
)

// chunkJob is a contiguous range of rows [start, end).
type chunkJob struct {
	index      int
	start, end int
}

// chunkResult carries the normalized rows of one chunk.
type chunkResult struct {
	index int
	rows  []NormalizedRow
}

// chunkPool normalizes rows in fixed-size chunks on a set of workers and
// merges the chunks back in file order. Cancellation is observed only
// between chunks.
type chunkPool struct {
	workers   int
	chunkSize int
	logger    *slog.Logger
}

func newChunkPool(workers, chunkSize int, logger *slog.Logger) *chunkPool {
	if workers <= 0 {
		workers = 1
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &chunkPool{workers: workers, chunkSize: chunkSize, logger: logger}
}

// run calls fn for each row index in [0, n) and returns the results in index
// order. If ctx is cancelled, run returns ctx.Err() once in-progress chunks
// finish; partial results are discarded.
func (p *chunkPool) run(ctx context.Context, n int, fn func(i int) NormalizedRow) ([]NormalizedRow, error) {
	if n == 0 {
		return []NormalizedRow{}, nil
	}

	var jobs []chunkJob
	for start := 0; start < n; start += p.chunkSize {
		end := min(start+p.chunkSize, n)
		jobs = append(jobs, chunkJob{index: len(jobs), start: start, end: end})
	}

	workers := min(p.workers, len(jobs))
	jobsChan := make(chan chunkJob, len(jobs))
	resultsChan := make(chan chunkResult, len(jobs))

	for _, j := range jobs {
		jobsChan <- j
	}
	close(jobsChan)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobsChan {
				if ctx.Err() != nil {
					return
				}
				rows := make([]NormalizedRow, 0, job.end-job.start)
				for i := job.start; i < job.end; i++ {
					rows = append(rows, fn(i))
				}
				resultsChan <- chunkResult{index: job.index, rows: rows}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	results := make([]chunkResult, 0, len(jobs))
	for r := range resultsChan {
		results = append(results, r)
	}

	if err := ctx.Err(); err != nil {
		p.logger.Debug("normalization cancelled", "chunks_done", len(results), "chunks", len(jobs))
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].index < results[j].index
	})

	out := make([]NormalizedRow, 0, n)
	for _, r := range results {
		out = append(out, r.rows...)
	}
	return out, nil
}
