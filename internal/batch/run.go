package batch

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/hquery"
	"github.com/GriffinCanCode/hquery/internal/output"
)

// Apply runs every query against q. A failing query is reported in its
// entry and does not stop the others.
func Apply(q *hquery.Query, queries Queries) []output.Entry {
	entries := make([]output.Entry, len(queries))
	for i, nq := range queries {
		entries[i].Name = nq.Name
		res, err := q.Query(nq.Text)
		if err != nil {
			entries[i].Error = err.Error()
			continue
		}
		entries[i].Kind = res.Kind()
		entries[i].Items = res.Strings()
	}
	return entries
}

// Runner evaluates queries over files with a bounded worker pool
type Runner struct {
	Workers int
	Options []hquery.Option
	Log     *zap.Logger
}

// Run loads each path and applies queries to it. Records come back in the
// order of paths. Per-file failures are recorded, not returned.
func (r *Runner) Run(ctx context.Context, paths []string, queries Queries) []output.Record {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, max(len(paths), 1))

	records := make([]output.Record, len(paths))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				records[i] = r.runFile(paths[i], queries, log)
			}
		}()
	}

	next := 0
feed:
	for ; next < len(paths) && ctx.Err() == nil; next++ {
		select {
		case jobs <- next:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	for i := next; i < len(paths); i++ {
		records[i] = output.Record{Source: paths[i], Error: ctx.Err().Error()}
	}
	return records
}

func (r *Runner) runFile(path string, queries Queries, log *zap.Logger) output.Record {
	rec := output.Record{Source: path}

	f, err := os.Open(path)
	if err != nil {
		rec.Error = fmt.Sprintf("open: %v", err)
		return rec
	}
	defer f.Close()

	q, err := hquery.NewFromReader(f, r.Options...)
	if err != nil {
		log.Warn("skipping document", zap.String("path", path), zap.Error(err))
		rec.Error = err.Error()
		return rec
	}

	rec.Queries = Apply(q, queries)
	log.Debug("document queried", zap.String("path", path), zap.Int("queries", len(queries)))
	return rec
}
