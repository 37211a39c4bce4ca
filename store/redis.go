package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"imgcsv/models"
)

const (
	jobKeyPrefix = "imgcsv:job:"
	jobIndexKey  = "imgcsv:jobs"
	jobTTL       = 7 * 24 * time.Hour
)

// RedisStore keeps job history in redis so invocations on different hosts
// see the same submissions. Jobs expire after a week; the index is trimmed
// lazily on List.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		PoolTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Save(ctx context.Context, job *models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, jobKeyPrefix+job.RequestID, data, jobTTL)
	pipe.ZAdd(ctx, jobIndexKey, redis.Z{
		Score:  float64(job.SubmittedAt.Unix()),
		Member: job.RequestID,
	})
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Get(ctx context.Context, requestID string) (*models.Job, error) {
	data, err := s.client.Get(ctx, jobKeyPrefix+requestID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var job models.Job
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// List returns jobs newest first. Index entries whose job key already
// expired are removed as they are encountered.
func (s *RedisStore) List(ctx context.Context) ([]*models.Job, error) {
	ids, err := s.client.ZRevRange(ctx, jobIndexKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*models.Job, 0, len(ids))
	for _, id := range ids {
		job, err := s.Get(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				s.client.ZRem(ctx, jobIndexKey, id)
				continue
			}
			return nil, err
		}
		out = append(out, job)
	}
	return out, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
