package capture

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
)

// maxFrameBytes bounds a single JPEG part so a corrupt stream cannot eat
// the device's memory.
const maxFrameBytes = 8 << 20

// MJPEGSource reads frames from an MJPEG-over-HTTP camera stream
// (multipart/x-mixed-replace), the common still-pipeline of IP cameras.
type MJPEGSource struct {
	url    string
	resp   *http.Response
	reader *multipart.Reader
}

// OpenMJPEG connects to the stream and parses the multipart boundary.
func OpenMJPEG(ctx context.Context, url string) (*MJPEGSource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build stream request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("stream returned status %d", resp.StatusCode)
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || params["boundary"] == "" {
		resp.Body.Close()
		return nil, fmt.Errorf("stream is not multipart (content-type %q)", resp.Header.Get("Content-Type"))
	}
	if mediaType != "multipart/x-mixed-replace" {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected stream media type %q", mediaType)
	}

	return &MJPEGSource{
		url:    url,
		resp:   resp,
		reader: multipart.NewReader(resp.Body, params["boundary"]),
	}, nil
}

// NextFrame returns the next JPEG part of the stream.
func (s *MJPEGSource) NextFrame(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	part, err := s.reader.NextPart()
	if err != nil {
		return nil, fmt.Errorf("stream read failed: %w", err)
	}
	defer part.Close()

	frame, err := io.ReadAll(io.LimitReader(part, maxFrameBytes))
	if err != nil {
		return nil, fmt.Errorf("frame read failed: %w", err)
	}
	if len(frame) == 0 {
		return nil, fmt.Errorf("stream produced empty frame")
	}
	return frame, nil
}

// Close terminates the stream connection.
func (s *MJPEGSource) Close() error {
	return s.resp.Body.Close()
}
