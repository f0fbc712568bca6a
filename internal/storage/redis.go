package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/saga-engine/pkg/memory"
	"github.com/jwebster45206/saga-engine/pkg/state"
)

// RedisStorage implements Storage on a single Redis instance. Saves
// are JSON values; memory chunks carry a per-save membership set plus
// one set per keyword for retrieval.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a Redis storage instance.
func NewRedisStorage(redisURL string, logger *slog.Logger) *RedisStorage {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})
	return &RedisStorage{
		client: rdb,
		logger: logger,
	}
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	return nil
}

// WaitForConnection waits for Redis to become available during
// startup.
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)
			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}
		r.logger.Info("Redis connection established")
		return nil
	}
	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Save file operations

func saveKey(id uuid.UUID) string {
	return "save:" + id.String()
}

const saveIndexKey = "saves"

func (r *RedisStorage) PutSave(ctx context.Context, save *state.SaveFile) error {
	save.UpdatedAt = time.Now()

	data, err := json.Marshal(save)
	if err != nil {
		return fmt.Errorf("failed to marshal save: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, saveKey(save.ID), data, 0)
	pipe.SAdd(ctx, saveIndexKey, save.ID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Failed to store save", "save_id", save.ID, "error", err)
		return fmt.Errorf("failed to store save: %w", err)
	}
	return nil
}

func (r *RedisStorage) GetSave(ctx context.Context, id uuid.UUID) (*state.SaveFile, error) {
	data, err := r.client.Get(ctx, saveKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load save: %w", err)
	}

	var save state.SaveFile
	if err := json.Unmarshal([]byte(data), &save); err != nil {
		return nil, fmt.Errorf("failed to unmarshal save: %w", err)
	}

	// Derived character stats are never trusted from storage.
	if save.State != nil {
		save.State.Hydrate()
	}
	return &save, nil
}

func (r *RedisStorage) DeleteSave(ctx context.Context, id uuid.UUID) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, saveKey(id))
	pipe.SRem(ctx, saveIndexKey, id.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete save: %w", err)
	}
	return nil
}

func (r *RedisStorage) ListSaves(ctx context.Context) ([]uuid.UUID, error) {
	members, err := r.client.SMembers(ctx, saveIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			r.logger.Warn("Skipping malformed save id in index", "value", m)
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Memory chunk operations

func chunkKey(chunkID string) string {
	return "memchunk:" + chunkID
}

func chunkSetKey(saveID string) string {
	return "memchunks:" + saveID
}

func keywordKey(saveID, keyword string) string {
	return "memkw:" + saveID + ":" + keyword
}

func (r *RedisStorage) PutMemoryChunk(ctx context.Context, chunk memory.Chunk) error {
	data, err := json.Marshal(chunk)
	if err != nil {
		return fmt.Errorf("failed to marshal memory chunk: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, chunkKey(chunk.ID), data, 0)
	pipe.SAdd(ctx, chunkSetKey(chunk.SaveID), chunk.ID)
	for _, kw := range chunk.Keywords {
		pipe.SAdd(ctx, keywordKey(chunk.SaveID, kw), chunk.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store memory chunk: %w", err)
	}
	return nil
}

func (r *RedisStorage) MemoryChunksBySave(ctx context.Context, saveID string) ([]memory.Chunk, error) {
	ids, err := r.client.SMembers(ctx, chunkSetKey(saveID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list memory chunks: %w", err)
	}
	return r.loadChunks(ctx, ids)
}

func (r *RedisStorage) MemoryChunksByKeywords(ctx context.Context, saveID string, keywords []string) ([]memory.Chunk, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		keys = append(keys, keywordKey(saveID, kw))
	}
	ids, err := r.client.SUnion(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to query keyword index: %w", err)
	}
	return r.loadChunks(ctx, ids)
}

func (r *RedisStorage) loadChunks(ctx context.Context, ids []string) ([]memory.Chunk, error) {
	chunks := make([]memory.Chunk, 0, len(ids))
	for _, id := range ids {
		data, err := r.client.Get(ctx, chunkKey(id)).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load memory chunk %s: %w", id, err)
		}
		var chunk memory.Chunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			r.logger.Warn("Skipping malformed memory chunk", "chunk_id", id, "error", err)
			continue
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func (r *RedisStorage) DeleteMemoryChunks(ctx context.Context, saveID string) error {
	chunks, err := r.MemoryChunksBySave(ctx, saveID)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	for _, chunk := range chunks {
		pipe.Del(ctx, chunkKey(chunk.ID))
		for _, kw := range chunk.Keywords {
			pipe.SRem(ctx, keywordKey(saveID, kw), chunk.ID)
		}
	}
	pipe.Del(ctx, chunkSetKey(saveID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete memory chunks: %w", err)
	}
	return nil
}
