package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/lissants/berkaraoke/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// StoredObject describes one object in the recordings bucket.
type StoredObject struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// MinioStore stores recording artifacts in the shared MinIO bucket.
// Object keys double as artifact identifiers: the key is minted here,
// but only a successful PutObject makes it an artifact id.
type MinioStore struct {
	bucket string
	prefix string
}

// NewMinioStore creates a store over the configured recordings bucket.
func NewMinioStore(cfg *config.Config) *MinioStore {
	return &MinioStore{
		bucket: cfg.MinioBucket,
		prefix: "recordings",
	}
}

// Store writes the audio object and returns its artifact identifier.
func (s *MinioStore) Store(ctx context.Context, r io.Reader, size int64, fileName, contentType string) (string, error) {
	client := GetMinioClient()
	if client == nil {
		return "", fmt.Errorf("minio client not initialized")
	}

	key := path.Join(s.prefix, uuid.New().String()+path.Ext(fileName))

	opts := minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"filename": fileName},
	}
	info, err := client.PutObject(ctx, s.bucket, key, r, size, opts)
	if err != nil {
		return "", fmt.Errorf("failed to store object %s: %w", fileName, err)
	}

	return info.Key, nil
}

// ListAll lists every object under the recordings prefix. Diagnostic only.
func (s *MinioStore) ListAll(ctx context.Context) (int, []StoredObject, error) {
	client := GetMinioClient()
	if client == nil {
		return 0, nil, fmt.Errorf("minio client not initialized")
	}

	var objects []StoredObject
	objectCh := client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.prefix,
		Recursive: true,
	})
	for object := range objectCh {
		if object.Err != nil {
			return 0, nil, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		objects = append(objects, StoredObject{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ContentType:  object.ContentType,
		})
	}

	return len(objects), objects, nil
}
