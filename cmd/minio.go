package cmd

import (
	"fmt"
	"log"

	"github.com/lissants/berkaraoke/config"
	"github.com/lissants/berkaraoke/storage"

	"github.com/spf13/cobra"
)

var (
	minioPrefix string
	minioStats  bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Inspect the recording bucket",
	Long:  `List uploaded recording artifacts in the MinIO bucket, or print aggregate bucket statistics.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("MinIO: %s, bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		if err := storage.InitMinio(cfg); err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}

		if minioStats {
			if err := storage.PrintBucketStatus(cfg, minioPrefix); err != nil {
				log.Fatalf("Failed to read bucket statistics: %v", err)
			}
			return
		}

		objects, stats, err := storage.ListBucketObjects(cfg, minioPrefix)
		if err != nil {
			log.Fatalf("Failed to list bucket objects: %v", err)
		}
		for _, obj := range objects {
			fmt.Printf("%-60s %10s  %s\n", obj.Key, storage.FormatSize(obj.Size), obj.LastModified.Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("\n%d objects, %s total\n", stats.TotalObjects, storage.FormatSize(stats.TotalSize))
	},
}

func init() {
	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "recordings", "Object key prefix to list")
	minioCmd.Flags().BoolVarP(&minioStats, "stats", "s", false, "Print bucket statistics only")
	rootCmd.AddCommand(minioCmd)
}
