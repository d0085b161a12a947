package capture

import (
	"context"
	"log/slog"
	"time"
)

// Backoff bounds for reconnect attempts.
const (
	reconnectMin = time.Second
	reconnectMax = 30 * time.Second
)

// Reconnecting wraps a source factory and transparently re-opens the source
// whenever a read fails. NextFrame only returns an error once ctx is done,
// so transient camera failures never surface into the decision loop.
type Reconnecting struct {
	open    func(ctx context.Context) (FrameSource, error)
	source  FrameSource
	backoff time.Duration
}

// NewReconnecting wraps the given factory.
func NewReconnecting(open func(ctx context.Context) (FrameSource, error)) *Reconnecting {
	return &Reconnecting{open: open, backoff: reconnectMin}
}

// NextFrame reads from the current source, reconnecting with capped
// exponential backoff on any failure.
func (r *Reconnecting) NextFrame(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if r.source == nil {
			source, err := r.open(ctx)
			if err != nil {
				slog.Warn("Frame source connect failed", "error", err, "retry_in", r.backoff)
				if !r.wait(ctx) {
					return nil, ctx.Err()
				}
				continue
			}
			slog.Info("Frame source connected")
			r.source = source
			r.backoff = reconnectMin
		}

		frame, err := r.source.NextFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("Frame read failed, reconnecting", "error", err)
			r.source.Close()
			r.source = nil
			continue
		}
		return frame, nil
	}
}

func (r *Reconnecting) wait(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(r.backoff):
	}
	r.backoff *= 2
	if r.backoff > reconnectMax {
		r.backoff = reconnectMax
	}
	return true
}

// Close releases the current underlying source, if any.
func (r *Reconnecting) Close() error {
	if r.source != nil {
		err := r.source.Close()
		r.source = nil
		return err
	}
	return nil
}
