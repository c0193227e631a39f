package blob

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Bucket stores blobs in a remote object bucket over its storage HTTP API.
// Objects live at {baseURL}/object/{bucket}/{key}.
type Bucket struct {
	baseURL    string
	bucket     string
	serviceKey string
	httpClient *http.Client
}

// NewBucket configures a remote bucket store.
func NewBucket(baseURL, bucket, serviceKey string) *Bucket {
	return &Bucket{
		baseURL:    baseURL,
		bucket:     bucket,
		serviceKey: serviceKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (b *Bucket) objectURL(key string) string {
	return fmt.Sprintf("%s/object/%s/%s", b.baseURL, b.bucket, url.PathEscape(key))
}

func (b *Bucket) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.serviceKey)
	return req, nil
}

// Put uploads the blob, replacing any existing object under the key.
func (b *Bucket) Put(ctx context.Context, key string, r io.Reader) error {
	req, err := b.newRequest(ctx, http.MethodPost, b.objectURL(key), r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("x-upsert", "true")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("upload object: bucket returned status %d", resp.StatusCode)
	}
	return nil
}

// Get streams the object body. The caller closes the reader.
func (b *Bucket) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	req, err := b.newRequest(ctx, http.MethodGet, b.objectURL(key), nil)
	if err != nil {
		return nil, err
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download object: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_ = resp.Body.Close()
		return nil, ErrNotFound
	case resp.StatusCode >= 400:
		_ = resp.Body.Close()
		return nil, fmt.Errorf("download object: bucket returned status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// Delete removes the object. A 404 from the bucket is treated as success.
func (b *Bucket) Delete(ctx context.Context, key string) error {
	req, err := b.newRequest(ctx, http.MethodDelete, b.objectURL(key), nil)
	if err != nil {
		return err
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete object: bucket returned status %d", resp.StatusCode)
	}
	return nil
}
