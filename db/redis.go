package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lissants/berkaraoke/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the global Redis client.
var RedisClient *redis.Client

const (
	genreCatalogKey  = "catalog:genres"
	artistCatalogKey = "catalog:artists"
	catalogTTL       = 10 * time.Minute
)

// ConnectRedis initializes the Redis connection.
func ConnectRedis(cfg *config.Config) error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := RedisClient.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return nil
}

// CloseRedis closes the Redis connection.
func CloseRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}

// GetCachedGenres returns the cached genre catalog, or redis.Nil-wrapped miss.
func GetCachedGenres(ctx context.Context) ([]string, error) {
	return getCachedCatalog(ctx, genreCatalogKey)
}

// SetCachedGenres stores the genre catalog with a short TTL.
func SetCachedGenres(ctx context.Context, genres []string) error {
	return setCachedCatalog(ctx, genreCatalogKey, genres)
}

// GetCachedArtists returns the cached artist catalog.
func GetCachedArtists(ctx context.Context) ([]string, error) {
	return getCachedCatalog(ctx, artistCatalogKey)
}

// SetCachedArtists stores the artist catalog with a short TTL.
func SetCachedArtists(ctx context.Context, artists []string) error {
	return setCachedCatalog(ctx, artistCatalogKey, artists)
}

func getCachedCatalog(ctx context.Context, key string) ([]string, error) {
	if RedisClient == nil {
		return nil, fmt.Errorf("redis client not initialized")
	}

	data, err := RedisClient.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, fmt.Errorf("failed to decode cached catalog %s: %w", key, err)
	}
	return values, nil
}

func setCachedCatalog(ctx context.Context, key string, values []string) error {
	if RedisClient == nil {
		return fmt.Errorf("redis client not initialized")
	}

	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode catalog %s: %w", key, err)
	}
	return RedisClient.Set(ctx, key, data, catalogTTL).Err()
}

// IsCacheMiss reports whether err is a plain cache miss.
func IsCacheMiss(err error) bool {
	return err == redis.Nil
}
