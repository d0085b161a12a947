package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/faceguard/faceguard/internal/models"
)

// FetchCatalog pulls the device's catalog: users, photo descriptors, access
// windows, and config overrides. Any embeddings present in the payload are
// discarded; vectors are always derived locally from the photo bytes.
func (c *Client) FetchCatalog(ctx context.Context) (*models.Cache, error) {
	body, err := c.get(ctx, c.baseURL+"/raspberry/sync")
	if err != nil {
		return nil, fmt.Errorf("sync fetch failed: %w", err)
	}

	catalog := models.NewCache()
	if err := json.Unmarshal(body, catalog); err != nil {
		return nil, fmt.Errorf("failed to decode sync payload: %w", err)
	}
	catalog.Embeddings = catalog.Embeddings[:0]
	return catalog, nil
}

// FetchPhoto downloads one catalog photo. The URL may be absolute or
// relative to the API base.
func (c *Client) FetchPhoto(ctx context.Context, url string) ([]byte, error) {
	body, err := c.get(ctx, c.resolve(url))
	if err != nil {
		return nil, fmt.Errorf("photo fetch failed: %w", err)
	}
	return body, nil
}

// PostEvent reports one access event. A non-2xx response is an error for
// the caller to log; the client never retries.
func (c *Client) PostEvent(ctx context.Context, event models.AccessEvent) error {
	if err := c.post(ctx, c.baseURL+"/raspberry/events/log", event); err != nil {
		return fmt.Errorf("event post failed: %w", err)
	}
	return nil
}
