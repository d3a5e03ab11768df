package service

import (
	"context"
	"errors"
	"fmt"
)

// saga collects compensations for completed steps.
type saga struct {
	steps []compensation
}

type compensation struct {
	name string
	undo func(ctx context.Context) error
}

func (s *saga) onFailure(name string, undo func(ctx context.Context) error) {
	s.steps = append(s.steps, compensation{name: name, undo: undo})
}

// rollback runs every compensation, newest first, even if some of them fail.
// It detaches from ctx cancellation so an aborted request still cleans up.
func (s *saga) rollback(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)
	var errs []error
	for i := len(s.steps) - 1; i >= 0; i-- {
		if err := s.steps[i].undo(ctx); err != nil {
			errs = append(errs, fmt.Errorf("compensate %s: %w", s.steps[i].name, err))
		}
	}
	return errors.Join(errs...)
}
