// Package capture supplies encoded frames to the decision loop. The core
// never retries acquisition itself; the Reconnecting wrapper owns
// reconnect-on-failure so a flapping camera degrades to a slower frame
// cadence instead of an error reaching the pipeline.
package capture

import "context"

// FrameSource yields one encoded frame per call.
type FrameSource interface {
	// NextFrame blocks until a frame is available, ctx is cancelled, or
	// the source fails.
	NextFrame(ctx context.Context) ([]byte, error)

	Close() error
}
