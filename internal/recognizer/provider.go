// Package recognizer abstracts embedding generation behind a Provider
// interface and offers a registry that resolves the active provider by
// trying configured names in priority order.
package recognizer

import (
	"context"
	"errors"
)

var (
	// ErrNoProvider is returned when no configured provider initializes.
	ErrNoProvider = errors.New("no recognizer provider available")

	// ErrNoFace is returned by Embed when the image holds no usable subject.
	ErrNoFace = errors.New("no face detected in image")
)

// Provider maps raw image bytes to a fixed-length embedding vector.
// Embed must be deterministic for a given model/input pair.
type Provider interface {
	// Name distinguishes the model; enrollments record it and probes are
	// only compared against enrollments with the same name.
	Name() string

	Embed(ctx context.Context, image []byte) ([]float32, error)
}

// FaceDetector is an optional cheap fast-path a provider may expose so the
// presence gate can skip the full embedding cost on empty frames. Providers
// without it are treated as "always present" (fail open).
type FaceDetector interface {
	HasFace(ctx context.Context, image []byte) (bool, error)
}
