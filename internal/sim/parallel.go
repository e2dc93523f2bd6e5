package sim

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Ensemble runs the same options under consecutive integer seeds.
type Ensemble struct {
	opts      Options
	numRuns   int
	seedStart int64
	log       *zap.Logger
}

func NewEnsemble(opts Options, numRuns int, seedStart int64, log *zap.Logger) *Ensemble {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ensemble{opts: opts, numRuns: numRuns, seedStart: seedStart, log: log}
}

// Run builds one simulator per seed, hands it to prepare (spawning, colliders,
// metrics) and runs all of them concurrently. Results are in seed order.
func (e *Ensemble) Run(ctx context.Context, cfg RunConfig, prepare func(*Simulator) error) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			opts := e.opts
			opts.Seed = SeedFromInt64(e.seedStart + int64(i))

			s, err := New(opts, e.log.With(zap.Int64("seed", e.seedStart+int64(i))))
			if err != nil {
				return err
			}
			if prepare != nil {
				if err := prepare(s); err != nil {
					return err
				}
			}

			results[i], err = s.Run(ctx, cfg)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ParallelFor executes fn over [0, n) in chunks of at least minChunk items.
func ParallelFor(n, minChunk int, fn func(start, end int)) {
	workers := runtime.GOMAXPROCS(0)
	if n <= minChunk || workers <= 1 {
		fn(0, n)
		return
	}

	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}
