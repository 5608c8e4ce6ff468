package beam

import (
	"context"
	"errors"
	"fmt"

	"github.com/speechrecog/anylas"
	"github.com/unixpickle/essentials"
)

// DecodeBatch runs a search on every example of an
// encoded batch.
//
// Up to workers examples are decoded concurrently.
// If workers is 0, GOMAXPROCS goroutines are used.
// Each example gets its own start state from d.
//
// If any search fails, the remaining searches are
// canceled and the error of the lowest failing example is
// returned.
func (s *Searcher) DecodeBatch(ctx context.Context, d anylas.Decoder, batch *anylas.Batch,
	workers int) ([][]*Hypothesis, error) {
	if err := batch.Validate(); err != nil {
		return nil, essentials.AddCtx("decode batch", err)
	}
	if workers < 0 {
		return nil, essentials.AddCtx("decode batch",
			fmt.Errorf("%w: %d workers", ErrInvalidConfiguration, workers))
	}

	innerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([][]*Hypothesis, batch.Size)
	errs := make([]error, batch.Size)
	essentials.ConcurrentMap(workers, batch.Size, func(i int) {
		if err := innerCtx.Err(); err != nil {
			errs[i] = err
			return
		}
		results[i], errs[i] = s.Decode(innerCtx, d, d.Start(), batch.Example(i))
		if errs[i] != nil {
			cancel()
		}
	})

	if err := firstError(ctx, errs); err != nil {
		return nil, err
	}
	return results, nil
}

// firstError finds the error of the lowest failing
// example, skipping cancellations caused by other
// failures.
func firstError(ctx context.Context, errs []error) error {
	var canceled error
	for i, err := range errs {
		if err == nil {
			continue
		}
		err = essentials.AddCtx(fmt.Sprintf("decode example %d", i), err)
		if errors.Is(err, context.Canceled) && ctx.Err() == nil {
			if canceled == nil {
				canceled = err
			}
			continue
		}
		return err
	}
	return canceled
}
