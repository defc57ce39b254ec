package ports

import "context"

// ObjectStore abstracts the object-storage backend used for snapshot
// storage-state capture and optional mirroring of processed documents.
type ObjectStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Metadata(ctx context.Context, key string) (map[string]string, error)
	Upload(ctx context.Context, localPath, key string) error
	Remove(ctx context.Context, key string) error
}
