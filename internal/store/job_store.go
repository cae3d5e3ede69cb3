package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hoopsight/api/internal/model"
)

// JobStore owns persistence of VideoJob records. Update is atomic with
// respect to concurrent updates to the same id; the pipeline relies on
// that atomicity as its only synchronization primitive (single in-flight
// analysis per job).
type JobStore interface {
	Create(ctx context.Context, job *model.VideoJob) error
	Get(ctx context.Context, id string) (*model.VideoJob, error)
	// Update loads the job, applies mutate, and writes the result back in
	// one atomic step. If mutate returns an error nothing is written and
	// the error is returned unchanged.
	Update(ctx context.Context, id string, mutate func(*model.VideoJob) error) (*model.VideoJob, error)
}

// RedisJobStore implements JobStore on redis. Jobs are stored as JSON
// under job:<id>; compare-and-set semantics come from WATCH/MULTI/EXEC
// optimistic transactions.
type RedisJobStore struct {
	redis *redis.Client
}

const txRetries = 5

func NewRedisJobStore(redisClient *redis.Client) *RedisJobStore {
	return &RedisJobStore{redis: redisClient}
}

func jobKey(id string) string {
	return fmt.Sprintf("job:%s", id)
}

// Create persists a new job record. Jobs are never expired or deleted.
func (s *RedisJobStore) Create(ctx context.Context, job *model.VideoJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, jobKey(job.ID), data, 0).Err()
}

// Get loads a job record
func (s *RedisJobStore) Get(ctx context.Context, id string) (*model.VideoJob, error) {
	data, err := s.redis.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
		}
		return nil, err
	}

	var job model.VideoJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}

	return &job, nil
}

// Update applies mutate under WATCH so two concurrent updates to the
// same job cannot interleave; the losing transaction is retried against
// the fresh record.
func (s *RedisJobStore) Update(ctx context.Context, id string, mutate func(*model.VideoJob) error) (*model.VideoJob, error) {
	key := jobKey(id)
	var updated *model.VideoJob

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return fmt.Errorf("%w: %s", ErrJobNotFound, id)
		}
		if err != nil {
			return err
		}

		var job model.VideoJob
		if err := json.Unmarshal(data, &job); err != nil {
			return err
		}

		if err := mutate(&job); err != nil {
			return err
		}

		out, err := json.Marshal(&job)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		if err == nil {
			updated = &job
		}
		return err
	}

	for i := 0; i < txRetries; i++ {
		err := s.redis.Watch(ctx, txf, key)
		if err == redis.TxFailedErr {
			// Key changed under us, retry against the fresh value
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}

	return nil, fmt.Errorf("job %s: too many concurrent updates", id)
}
