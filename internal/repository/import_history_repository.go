package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

const (
	importRunKeyPrefix = "imports:run:"
	importRunIndexKey  = "imports:runs"
)

// ImportHistoryRepository keeps recent import runs in Redis.
type ImportHistoryRepository struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
	limit  int
}

// NewImportHistoryRepository constructs the repository. A nil client makes every
// write a no-op and every read a cache miss.
func NewImportHistoryRepository(client *redis.Client, logger *zap.Logger, ttl time.Duration, limit int) *ImportHistoryRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limit <= 0 {
		limit = 20
	}
	return &ImportHistoryRepository{client: client, logger: logger, ttl: ttl, limit: limit}
}

// Enabled reports whether a Redis client is configured.
func (r *ImportHistoryRepository) Enabled() bool {
	return r.client != nil
}

// Save stores a run and pushes it to the head of the recent-runs index.
func (r *ImportHistoryRepository) Save(ctx context.Context, run *models.ImportRun) error {
	if r.client == nil {
		return nil
	}
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal import run %s: %w", run.ID, err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, importRunKeyPrefix+run.ID, payload, r.ttl)
	pipe.LPush(ctx, importRunIndexKey, run.ID)
	pipe.LTrim(ctx, importRunIndexKey, 0, int64(r.limit-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save import run %s: %w", run.ID, err)
	}
	return nil
}

// Get returns a stored run or appErrors.ErrCacheMiss.
func (r *ImportHistoryRepository) Get(ctx context.Context, id string) (*models.ImportRun, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}
	raw, err := r.client.Get(ctx, importRunKeyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get import run %s: %w", id, err)
	}
	var run models.ImportRun
	if err := json.Unmarshal(raw, &run); err != nil {
		return nil, fmt.Errorf("unmarshal import run %s: %w", id, err)
	}
	return &run, nil
}

// List returns the most recent runs, newest first. Expired entries are skipped.
func (r *ImportHistoryRepository) List(ctx context.Context, limit int) ([]models.ImportRun, error) {
	if r.client == nil {
		return []models.ImportRun{}, nil
	}
	if limit <= 0 || limit > r.limit {
		limit = r.limit
	}
	ids, err := r.client.LRange(ctx, importRunIndexKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis list import runs: %w", err)
	}
	runs := make([]models.ImportRun, 0, len(ids))
	for _, id := range ids {
		run, err := r.Get(ctx, id)
		if err != nil {
			if err == appErrors.ErrCacheMiss {
				r.logger.Debug("import run expired", zap.String("id", id))
				continue
			}
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, nil
}

// Close releases the underlying Redis connection if present.
func (r *ImportHistoryRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
