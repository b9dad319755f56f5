// Package parallel runs a mapping function over an iterator with bounded
// concurrency.
package parallel

import (
	"context"
	"iter"

	"golang.org/x/sync/errgroup"
)

type result[D any] struct {
	d D
	e error
}

// Map applies mapFunc to every input element using at most limit concurrent
// calls. Results arrive in completion order. Map is context aware: a
// canceled context stops feeding new elements and ends the iteration.
//
//	for out, err := range parallel.NewMap(ctx, 4, fn).Iter(input) {}
type Map[E, D any] struct {
	parentCtx    context.Context
	cancelParent context.CancelFunc
	g            *errgroup.Group
	gctx         context.Context
	mapped       chan result[D]
	mapFunc      func(context.Context, E) (D, error)
}

// NewMap creates a Map. A limit below one is treated as one.
func NewMap[E, D any](parentCtx context.Context, limit int, mapFunc func(context.Context, E) (D, error)) *Map[E, D] {
	if limit < 1 {
		limit = 1
	}
	parentCtx, cancelParent := context.WithCancel(parentCtx)
	g, gctx := errgroup.WithContext(parentCtx)
	// one extra slot for the feeding goroutine
	g.SetLimit(limit + 1)

	return &Map[E, D]{
		parentCtx:    parentCtx,
		cancelParent: cancelParent,
		g:            g,
		gctx:         gctx,
		mapped:       make(chan result[D], limit),
		mapFunc:      mapFunc,
	}
}

func (s *Map[E, D]) goWorkers(seq iter.Seq2[E, error]) {
	s.g.Go(func() error {
		for entry, nerr := range seq {
			if s.gctx.Err() != nil {
				return s.gctx.Err()
			}
			if nerr != nil {
				var zero D
				select {
				case <-s.gctx.Done():
					return s.gctx.Err()
				case s.mapped <- result[D]{d: zero, e: nerr}:
				}
				continue
			}
			s.g.Go(func() error {
				d, mapErr := s.mapFunc(s.gctx, entry)
				select {
				case <-s.gctx.Done():
					return s.gctx.Err()
				case s.mapped <- result[D]{d: d, e: mapErr}:
				}
				return nil
			})
		}
		return nil
	})
}

// Iter starts the workers and yields mapped values as they complete. Input
// errors are passed through unchanged. When iteration stops early, Iter
// cancels outstanding work and waits for every goroutine to exit.
func (s *Map[E, D]) Iter(seq iter.Seq2[E, error]) iter.Seq2[D, error] {
	return func(yield func(D, error) bool) {
		s.goWorkers(seq)

		go func() {
			_ = s.g.Wait()
			close(s.mapped)
		}()

		defer func() {
			s.cancelParent()
			for range s.mapped {
			}
		}()

		for r := range s.mapped {
			if s.parentCtx.Err() != nil {
				return
			}
			if !yield(r.d, r.e) {
				return
			}
		}
	}
}
