package port

import "context"

// BlobStore stores file bytes by bucket and key. Failures wrap ErrStorage.
type BlobStore interface {
	Put(ctx context.Context, bucket, key string, content []byte) (string, error)
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Exists(ctx context.Context, bucket, key string) bool
	Delete(ctx context.Context, bucket, key string) error
}
