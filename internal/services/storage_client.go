package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// StorageClient uploads blobs to a hosted storage bucket.
type StorageClient struct {
	baseURL    string
	bucket     string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
}

func NewStorageClient(baseURL, bucket, apiKey string, log *zap.Logger) *StorageClient {
	return &StorageClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		bucket:  bucket,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log,
	}
}

// Upload stores data under path and returns the object's public URL.
func (c *StorageClient) Upload(ctx context.Context, path, contentType string, data []byte) (string, error) {
	path = strings.TrimLeft(path, "/")
	url := fmt.Sprintf("%s/object/%s/%s", c.baseURL, c.bucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("storage service returned %d: %s", resp.StatusCode, string(body))
	}

	c.log.Debug("blob uploaded", zap.String("path", path), zap.Int("bytes", len(data)))
	return c.PublicURL(path), nil
}

func (c *StorageClient) PublicURL(path string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", c.baseURL, c.bucket, strings.TrimLeft(path, "/"))
}
