package recognizer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

func init() {
	image.RegisterFormat("bmp", "BM", bmp.Decode, bmp.DecodeConfig)
}

// hashedDim keeps the fallback vector a fixed, comparable length.
const hashedDim = 128

// Hashed is a deterministic, model-free provider used as the last-resort
// fallback when no real recognizer service is reachable. It cannot tell
// faces apart with any biometric rigor; it exists so the pipeline keeps a
// well-defined shape on hardware without an inference runtime.
type Hashed struct{}

// NewHashed returns the fallback provider. It never fails to initialize.
func NewHashed() *Hashed { return &Hashed{} }

// Name implements Provider.
func (h *Hashed) Name() string { return "hashed" }

// Embed downscales the image to 64x64 to suppress pixel noise, hashes the
// normalized pixels, and expands the digest into a 128-dim vector. Frames
// that fail to decode are hashed raw so the result is still deterministic.
func (h *Hashed) Embed(_ context.Context, imageBytes []byte) ([]float32, error) {
	normalized := imageBytes
	if src, _, err := image.Decode(bytes.NewReader(imageBytes)); err == nil {
		dst := image.NewRGBA(image.Rect(0, 0, 64, 64))
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		normalized = dst.Pix
	}

	digest := sha256.Sum256(normalized)
	vector := make([]float32, hashedDim)
	for i := range vector {
		vector[i] = float32(digest[i%len(digest)]) / 255
	}
	return vector, nil
}
