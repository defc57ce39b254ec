package minio

import (
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"docsort/internal/config"
	"docsort/internal/ports"
)

// Client mirrors processed documents into an S3-compatible bucket and
// answers storage-state queries for snapshots.
type Client struct {
	api    *minio.Client
	bucket string
}

var _ ports.ObjectStore = (*Client)(nil)

// New creates a client from the config section.
func New(cfg config.S3Config) (*Client, error) {
	api, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	return &Client{api: api, bucket: cfg.Bucket}, nil
}

// Exists reports whether the object is present in the bucket.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.api.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat object %s: %w", key, err)
	}
	return true, nil
}

// Metadata returns the user metadata stored with the object.
func (c *Client) Metadata(ctx context.Context, key string) (map[string]string, error) {
	info, err := c.api.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat object %s: %w", key, err)
	}

	meta := make(map[string]string, len(info.UserMetadata)+2)
	for k, v := range info.UserMetadata {
		meta[strings.ToLower(k)] = v
	}
	meta["size"] = fmt.Sprintf("%d", info.Size)
	meta["etag"] = info.ETag
	return meta, nil
}

// Upload stores the local file under key.
func (c *Client) Upload(ctx context.Context, localPath, key string) error {
	_, err := c.api.FPutObject(ctx, c.bucket, key, localPath, minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// Remove deletes the object; removing a missing key is not an error.
func (c *Client) Remove(ctx context.Context, key string) error {
	err := c.api.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == 404
}
