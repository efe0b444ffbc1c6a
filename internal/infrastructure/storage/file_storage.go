package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/quote-validator/internal/application/port"
)

var bucketPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9\-_]*$`)

// LocalBlobStore implements port.BlobStore on the local filesystem.
// Each bucket is a directory under baseDir.
type LocalBlobStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalBlobStore creates a new LocalBlobStore and its bucket directories
func NewLocalBlobStore(baseDir string, logger *zap.Logger, buckets ...string) (*LocalBlobStore, error) {
	s := &LocalBlobStore{
		baseDir: baseDir,
		logger:  logger,
	}
	for _, bucket := range buckets {
		dir, err := s.bucketDir(bucket)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %v: %w", bucket, err, port.ErrStorage)
		}
	}
	return s, nil
}

// Put writes content under bucket/key and returns the key
func (s *LocalBlobStore) Put(ctx context.Context, bucket, key string, content []byte) (string, error) {
	fullPath, err := s.resolve(bucket, key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		s.logger.Error("Failed to create bucket directory",
			zap.String("bucket", bucket),
			zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %v: %w", err, port.ErrStorage)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write blob",
			zap.String("bucket", bucket),
			zap.String("key", key),
			zap.Error(err))
		return "", fmt.Errorf("failed to write blob: %v: %w", err, port.ErrStorage)
	}

	s.logger.Debug("Blob stored",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Int("size", len(content)))

	return key, nil
}

// Get reads the content stored under bucket/key
func (s *LocalBlobStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	fullPath, err := s.resolve(bucket, key)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		s.logger.Error("Failed to read blob",
			zap.String("bucket", bucket),
			zap.String("key", key),
			zap.Error(err))
		return nil, fmt.Errorf("failed to read blob %s/%s: %v: %w", bucket, key, err, port.ErrStorage)
	}
	return content, nil
}

// Exists reports whether bucket/key holds a blob
func (s *LocalBlobStore) Exists(ctx context.Context, bucket, key string) bool {
	fullPath, err := s.resolve(bucket, key)
	if err != nil {
		return false
	}
	info, err := os.Stat(fullPath)
	return err == nil && !info.IsDir()
}

// Delete removes bucket/key. Deleting a missing blob succeeds.
func (s *LocalBlobStore) Delete(ctx context.Context, bucket, key string) error {
	fullPath, err := s.resolve(bucket, key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Error("Failed to delete blob",
			zap.String("bucket", bucket),
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("failed to delete blob: %v: %w", err, port.ErrStorage)
	}
	return nil
}

func (s *LocalBlobStore) bucketDir(bucket string) (string, error) {
	if !bucketPattern.MatchString(bucket) {
		return "", fmt.Errorf("invalid bucket name %q: %w", bucket, port.ErrStorage)
	}
	return filepath.Join(s.baseDir, bucket), nil
}

// resolve maps bucket/key to a path and rejects keys escaping the bucket
func (s *LocalBlobStore) resolve(bucket, key string) (string, error) {
	dir, err := s.bucketDir(bucket)
	if err != nil {
		return "", err
	}
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid blob key %q: %w", key, port.ErrStorage)
	}

	fullPath := filepath.Join(dir, key)
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %v: %w", err, port.ErrStorage)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve bucket path: %v: %w", err, port.ErrStorage)
	}
	if !strings.HasPrefix(absPath, absDir+string(filepath.Separator)) {
		return "", fmt.Errorf("key escapes bucket: %s: %w", key, port.ErrStorage)
	}
	return fullPath, nil
}

var _ port.BlobStore = (*LocalBlobStore)(nil)
