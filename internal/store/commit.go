package store

import (
	"context"
	"errors"
	"log/slog"

	"github.com/John-Robertt/pacservice-go/internal/model"
)

type mutation struct {
	ctx   context.Context
	op    string
	apply func(reg *model.Registry) (any, error)
	done  chan result
}

type result struct {
	value any
	err   error
}

// writer serves the mutation queue. The queue channel is unbuffered, so
// submitters are handed over in the order they blocked on it.
func (s *Store) writer() {
	defer close(s.done)
	for {
		select {
		case m := <-s.queue:
			s.run(m)
		case <-s.closing:
			for {
				select {
				case m := <-s.queue:
					s.run(m)
				default:
					return
				}
			}
		}
	}
}

// run executes one mutation to completion. Once started it ignores m.ctx.
func (s *Store) run(m *mutation) {
	if err := m.ctx.Err(); err != nil {
		m.done <- result{err: err}
		return
	}

	// The published value is never mutated, so its clone is the rollback
	// snapshot and the working copy at once.
	working := s.published().Clone()
	v, err := m.apply(&working)
	if err != nil {
		mutationsTotal.WithLabelValues(m.op, "rejected").Inc()
		m.done <- result{err: err}
		return
	}

	if err := s.persist(working); err != nil {
		mutationsTotal.WithLabelValues(m.op, "failed").Inc()
		s.logger.Error("registry write failed, mutation rolled back",
			slog.String("op", m.op),
			slog.String("path", s.path),
			slog.Any("error", err),
		)
		m.done <- result{err: err}
		return
	}

	s.publish(working)
	mutationsTotal.WithLabelValues(m.op, "ok").Inc()
	s.logger.Debug("registry mutation committed", slog.String("op", m.op), slog.Int("proxies", len(working.Proxies)))
	m.done <- result{value: v}
}

// commit queues fn behind earlier mutations and waits for its outcome. fn
// receives a private copy of the registry and must not retain it; values it
// returns must not alias the copy.
func commit[T any](ctx context.Context, s *Store, op string, fn func(reg *model.Registry) (T, error)) (T, error) {
	var zero T
	if err := s.Load(ctx); err != nil {
		return zero, err
	}

	m := &mutation{
		ctx: ctx,
		op:  op,
		apply: func(reg *model.Registry) (any, error) {
			return fn(reg)
		},
		done: make(chan result, 1),
	}

	select {
	case <-s.closing:
		return zero, ErrClosed
	default:
	}
	select {
	case s.queue <- m:
	case <-s.closing:
		return zero, ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	res := <-m.done
	if res.err != nil {
		return zero, res.err
	}
	v, ok := res.value.(T)
	if !ok {
		return zero, errors.New("store: unexpected mutation result type")
	}
	return v, nil
}
