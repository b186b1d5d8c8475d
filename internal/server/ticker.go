package server

import (
	"context"
	"sync"
	"time"
)

// TickerService runs fn every interval until Stop. fn receives a context
// that is cancelled by Stop.
type TickerService struct {
	every time.Duration
	fn    func(ctx context.Context)

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// NewTickerService returns a Service that calls fn on each tick.
//
// Precondition: every > 0; fn must be non-nil.
func NewTickerService(every time.Duration, fn func(ctx context.Context)) *TickerService {
	if every <= 0 {
		panic("server: NewTickerService: interval must be positive")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &TickerService{every: every, fn: fn, ctx: ctx, cancel: cancel}
}

// Start blocks, calling fn on each tick, until Stop.
func (t *TickerService) Start() error {
	ticker := time.NewTicker(t.every)
	defer ticker.Stop()
	for {
		select {
		case <-t.ctx.Done():
			return nil
		case <-ticker.C:
			t.fn(t.ctx)
		}
	}
}

// Stop ends Start. It is safe to call more than once.
func (t *TickerService) Stop() {
	t.once.Do(t.cancel)
}
