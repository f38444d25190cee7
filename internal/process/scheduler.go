package process

// scheduler.go runs passes on a fixed interval until the context is
// cancelled. A failed pass is logged and the loop continues; the next pass
// picks up any fix made to the definitions file or the inputs.

import (
	"context"
	"log/slog"
	"time"
)

// Run executes a pass immediately, then every interval. It returns when ctx
// is cancelled.
func (p *Processor) Run(ctx context.Context, interval time.Duration) {
	slog.Info("processor started",
		"definitions_file", p.definitionsFile,
		"poll_interval", interval.String(),
	)

	// Run immediately on startup
	p.runPass(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("processor stopped")
			return
		case <-ticker.C:
			p.runPass(ctx)
		}
	}
}

func (p *Processor) runPass(ctx context.Context) {
	if _, err := p.Execute(ctx); err != nil {
		slog.Warn("pass finished with errors", "error", err)
	}
}
