package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// EscalationProcessor fires escalation checkpoints that have passed by now.
type EscalationProcessor interface {
	ProcessEscalations(ctx context.Context, now time.Time, batch int) (int, error)
}

// EscalationWorker polls open ticket SLAs on a fixed interval.
type EscalationWorker struct {
	processor EscalationProcessor
	interval  time.Duration
	batch     int
	logger    *zap.Logger
	now       func() time.Time
}

// NewEscalationWorker builds a worker; a non-positive interval means five minutes.
func NewEscalationWorker(processor EscalationProcessor, interval time.Duration, logger *zap.Logger) *EscalationWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EscalationWorker{processor: processor, interval: interval, batch: 500, logger: logger, now: time.Now}
}

// Run checks immediately and then on every tick until ctx is cancelled.
func (w *EscalationWorker) Run(ctx context.Context) {
	w.logger.Info("escalation worker started", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.RunOnce(ctx, w.now())
		select {
		case <-ctx.Done():
			w.logger.Info("escalation worker stopped")
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single pass and returns the number of escalations fired.
func (w *EscalationWorker) RunOnce(ctx context.Context, now time.Time) int {
	n, err := w.processor.ProcessEscalations(ctx, now, w.batch)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("escalation pass failed", zap.Error(err))
		}
		return n
	}
	if n > 0 {
		w.logger.Info("escalations triggered", zap.Int("count", n))
	}
	return n
}
