// Package remote is the HTTP client for the cloud access-control service.
// All requests carry the device identifier; responses are the service's
// fixed JSON contract.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Client talks to the remote sync/event API on behalf of one device.
type Client struct {
	baseURL  string
	deviceID string
	token    string
	signer   *TokenSigner
	client   *http.Client
}

// New creates a client for the given API base. token is an optional static
// bearer token; secret, when non-empty, enables signed short-lived device
// tokens instead (see TokenSigner).
func New(baseURL, deviceID, token, secret string, timeout time.Duration) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		deviceID: deviceID,
		token:    token,
		client:   &http.Client{Timeout: timeout},
	}
	if secret != "" {
		c.signer = NewTokenSigner(deviceID, secret)
	}
	return c
}

func (c *Client) authorize(req *http.Request) error {
	req.Header.Set("X-Device-Id", c.deviceID)
	switch {
	case c.signer != nil:
		token, err := c.signer.Sign()
		if err != nil {
			return fmt.Errorf("failed to sign device token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	case c.token != "":
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return nil
}

// resolve turns a catalog-relative URL into an absolute one.
func (c *Client) resolve(url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	if !strings.HasPrefix(url, "/") {
		url = "/" + url
	}
	return c.baseURL + url
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if err := c.authorize(req); err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s returned status %d: %s",
			req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

// get issues an authorized GET and returns the response body.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

// post issues an authorized POST with a JSON body.
func (c *Client) post(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}

// UploadCapture pushes a captured frame to the enrollment endpoint so an
// operator can enroll a person from the device's own camera.
func (c *Client) UploadCapture(ctx context.Context, personName string, image []byte) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("person_name", personName); err != nil {
		return fmt.Errorf("failed to write form field: %w", err)
	}
	if err := mw.WriteField("captured_at", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to write form field: %w", err)
	}
	fw, err := mw.CreateFormFile("image", "capture.jpg")
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := fw.Write(image); err != nil {
		return fmt.Errorf("failed to write capture: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/raspberry/upload-capture", &buf)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return nil
}
