package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/lissants/berkaraoke/config"
	"github.com/lissants/berkaraoke/db"

	"github.com/spf13/cobra"
)

var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Inspect the Redis catalog cache",
	Long:  `Check the Redis connection and print the cached genre and artist catalogs, if any.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		fmt.Printf("Redis: %s:%s, DB: %d\n", cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)

		if err := db.ConnectRedis(cfg); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		fmt.Println("Redis connection OK")

		ctx := context.Background()

		genres, err := db.GetCachedGenres(ctx)
		switch {
		case db.IsCacheMiss(err):
			fmt.Println("Genre catalog: not cached")
		case err != nil:
			log.Fatalf("Failed to read genre catalog: %v", err)
		default:
			fmt.Printf("Genre catalog (%d): %v\n", len(genres), genres)
		}

		artists, err := db.GetCachedArtists(ctx)
		switch {
		case db.IsCacheMiss(err):
			fmt.Println("Artist catalog: not cached")
		case err != nil:
			log.Fatalf("Failed to read artist catalog: %v", err)
		default:
			fmt.Printf("Artist catalog (%d): %v\n", len(artists), artists)
		}

		if err := db.CloseRedis(); err != nil {
			log.Printf("Error closing Redis connection: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
