package recognizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Service calls an inference sidecar over HTTP for embedding generation and
// face detection. The sidecar owns the actual model (InsightFace, FaceNet,
// ...); the daemon only sees vectors.
type Service struct {
	name    string
	baseURL string
	client  *http.Client
}

// NewService probes the sidecar's health endpoint and returns a provider
// bound to it. A sidecar that does not answer is reported as an error so
// the registry can fall through to the next candidate.
func NewService(name, baseURL string, timeout time.Duration) (*Service, error) {
	s := &Service{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/healthz", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build health request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding service unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding service unhealthy: status %d", resp.StatusCode)
	}
	return s, nil
}

// Name implements Provider.
func (s *Service) Name() string { return s.name }

// Embed posts the frame to the sidecar and returns the embedding vector.
func (s *Service) Embed(ctx context.Context, image []byte) ([]float32, error) {
	var out struct {
		Vector []float32 `json:"vector"`
	}
	if err := s.post(ctx, "/embed", image, &out); err != nil {
		return nil, err
	}
	if len(out.Vector) == 0 {
		return nil, ErrNoFace
	}
	return out.Vector, nil
}

// HasFace implements the optional FaceDetector fast path using the
// sidecar's detection-only endpoint, which is much cheaper than a full
// embedding pass.
func (s *Service) HasFace(ctx context.Context, image []byte) (bool, error) {
	var out struct {
		HasFace bool `json:"has_face"`
	}
	if err := s.post(ctx, "/detect", image, &out); err != nil {
		return false, err
	}
	return out.HasFace, nil
}

func (s *Service) post(ctx context.Context, path string, image []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(image))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("embedding service request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("embedding service returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode embedding response: %w", err)
	}
	return nil
}
