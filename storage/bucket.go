package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/lissants/berkaraoke/config"

	"github.com/minio/minio-go/v7"
)

// BucketStats aggregates bucket usage numbers.
type BucketStats struct {
	TotalObjects int64
	TotalSize    int64
	LastModified time.Time
}

// ListBucketObjects lists objects under the given prefix together with
// aggregate stats. Used by the minio maintenance command.
func ListBucketObjects(cfg *config.Config, prefix string) ([]StoredObject, *BucketStats, error) {
	client := GetMinioClient()
	if client == nil {
		return nil, nil, fmt.Errorf("minio client not initialized")
	}

	ctx := context.Background()
	stats := &BucketStats{}
	var objects []StoredObject

	objectCh := client.ListObjects(ctx, cfg.MinioBucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})
	for object := range objectCh {
		if object.Err != nil {
			return nil, nil, fmt.Errorf("failed to list objects: %w", object.Err)
		}

		stats.TotalObjects++
		stats.TotalSize += object.Size
		if object.LastModified.After(stats.LastModified) {
			stats.LastModified = object.LastModified
		}

		objects = append(objects, StoredObject{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ContentType:  object.ContentType,
		})
	}

	return objects, stats, nil
}

// PrintBucketStatus prints a bucket usage report to stdout.
func PrintBucketStatus(cfg *config.Config, prefix string) error {
	objects, stats, err := ListBucketObjects(cfg, prefix)
	if err != nil {
		return err
	}

	fmt.Printf("Bucket: %s\n", cfg.MinioBucket)
	fmt.Printf("Prefix: %s\n", prefix)
	fmt.Printf("Objects: %d\n", stats.TotalObjects)
	fmt.Printf("Total size: %s\n", FormatSize(stats.TotalSize))
	if !stats.LastModified.IsZero() {
		fmt.Printf("Last modified: %s\n", stats.LastModified.Format(time.RFC3339))
	}
	fmt.Println()
	for _, obj := range objects {
		fmt.Printf("  %s  %s  %s\n", obj.Key, FormatSize(obj.Size), obj.LastModified.Format("2006-01-02 15:04:05"))
	}

	return nil
}

// FormatSize renders a byte count in human-readable form.
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
