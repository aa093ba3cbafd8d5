package database

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix   = "hotdog:"
	redisSequenceKey = redisKeyPrefix + "dogs:seq"
	redisURLIndexKey = redisKeyPrefix + "dogs:urls"
	redisTimelineKey = redisKeyPrefix + "dogs:timeline"
)

// RedisDatabase keeps every record in its own hash, a url->id hash that enforces
// uniqueness and a sorted set scored by id that lists every record.
type RedisDatabase struct {
	client *redis.Client
}

func NewRedisDatabase(connectionString string) (DatabaseService, error) {
	options, err := redis.ParseURL(connectionString)
	if err != nil {
		return nil, newStorageError("open", fmt.Errorf("invalid redis url: %w", err))
	}
	return &RedisDatabase{client: redis.NewClient(options)}, nil
}

func redisRecordKey(id int64) string {
	return redisKeyPrefix + "dog:" + strconv.FormatInt(id, 10)
}

// CreateDatabase has no schema to create; it verifies the server is reachable.
func (r *RedisDatabase) CreateDatabase() error {
	if err := r.client.Ping(context.Background()).Err(); err != nil {
		return newStorageError("ping", err)
	}
	return nil
}

func (r *RedisDatabase) DoesDatabaseExist() bool {
	return r.client.Ping(context.Background()).Err() == nil
}

func (r *RedisDatabase) Close() error {
	return r.client.Close()
}

func (r *RedisDatabase) CreateSavedImage(ctx context.Context, url string) (*SavedImage, error) {
	id, err := r.client.Incr(ctx, redisSequenceKey).Result()
	if err != nil {
		return nil, newStorageError("allocate id", err)
	}

	// HSETNX is the uniqueness check; the id allocated above is simply skipped on conflict.
	claimed, err := r.client.HSetNX(ctx, redisURLIndexKey, url, id).Result()
	if err != nil {
		return nil, newStorageError("claim url", err)
	}
	if !claimed {
		return nil, ErrDuplicateURL
	}

	createdAt := time.Now().UTC()
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, redisRecordKey(id),
			"id", id,
			"url", url,
			"created_at", createdAt.Format(time.RFC3339Nano))
		pipe.ZAdd(ctx, redisTimelineKey, redis.Z{Score: float64(id), Member: id})
		return nil
	})
	if err != nil {
		// release the claim so the url can be saved again
		_ = r.client.HDel(ctx, redisURLIndexKey, url).Err()
		return nil, newStorageError("insert", err)
	}

	return &SavedImage{ID: id, URL: url, CreatedAt: createdAt}, nil
}

func (r *RedisDatabase) GetSavedImages(ctx context.Context) ([]*SavedImage, error) {
	members, err := r.client.ZRevRange(ctx, redisTimelineKey, 0, -1).Result()
	if err != nil {
		return nil, newStorageError("query", err)
	}

	images := make([]*SavedImage, 0, len(members))
	if len(members) == 0 {
		return images, nil
	}

	pipe := r.client.Pipeline()
	commands := make([]*redis.MapStringStringCmd, len(members))
	for i, member := range members {
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			return nil, newStorageError("query", fmt.Errorf("invalid timeline member %q: %w", member, err))
		}
		commands[i] = pipe.HGetAll(ctx, redisRecordKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, newStorageError("query", err)
	}

	for _, cmd := range commands {
		fields := cmd.Val()
		image, err := savedImageFromHash(fields)
		if err != nil {
			return nil, newStorageError("scan", err)
		}
		images = append(images, image)
	}

	// ids are allocated before created_at is stamped, so concurrent saves can
	// interleave; created_at is the primary order.
	sort.SliceStable(images, func(i, j int) bool {
		if !images[i].CreatedAt.Equal(images[j].CreatedAt) {
			return images[i].CreatedAt.After(images[j].CreatedAt)
		}
		return images[i].ID > images[j].ID
	})
	return images, nil
}

func savedImageFromHash(fields map[string]string) (*SavedImage, error) {
	id, err := strconv.ParseInt(fields["id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid id %q: %w", fields["id"], err)
	}
	createdAt, err := parseTimestamp(fields["created_at"])
	if err != nil {
		return nil, err
	}
	return &SavedImage{ID: id, URL: fields["url"], CreatedAt: createdAt}, nil
}
