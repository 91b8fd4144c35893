package convo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"shopbot/internal/domain"
)

// RedisContextStore keeps each session's slots as one JSON document under
// a single key, so Set/Decay stay one round trip and the key TTL acts as
// the wall-clock backstop for abandoned sessions.
type RedisContextStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Logger   *slog.Logger
}

func NewRedisContextStore(cfg RedisConfig) (*RedisContextStore, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	cfg.Logger.Info("connected to redis context store", "addr", cfg.Addr, "db", cfg.DB)

	return &RedisContextStore{client: client, ttl: cfg.TTL, logger: cfg.Logger}, nil
}

// NewRedisContextStoreFromClient wraps an existing client. Used by tests.
func NewRedisContextStoreFromClient(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisContextStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisContextStore{client: client, ttl: ttl, logger: logger}
}

func (r *RedisContextStore) Close() error { return r.client.Close() }

func sessionKey(sessionID string) string { return "convo:" + sessionID }

func (r *RedisContextStore) load(ctx context.Context, sessionID string) (map[string]domain.ContextSlot, error) {
	data, err := r.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return map[string]domain.ContextSlot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var slots map[string]domain.ContextSlot
	if err := json.Unmarshal(data, &slots); err != nil {
		// Malformed document: treat as empty rather than poisoning the session.
		r.logger.Warn("discarding malformed context document", "session", sessionID, "err", err)
		return map[string]domain.ContextSlot{}, nil
	}
	return slots, nil
}

func (r *RedisContextStore) save(ctx context.Context, sessionID string, slots map[string]domain.ContextSlot) error {
	key := sessionKey(sessionID)
	if len(slots) == 0 {
		return r.client.Del(ctx, key).Err()
	}
	data, err := json.Marshal(slots)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, r.ttl).Err()
}

func (r *RedisContextStore) Set(ctx context.Context, sessionID string, slot domain.ContextSlot) error {
	slots, err := r.load(ctx, sessionID)
	if err != nil {
		return err
	}
	slots[slot.Name] = slot
	return r.save(ctx, sessionID, slots)
}

func (r *RedisContextStore) Get(ctx context.Context, sessionID, name string) (*domain.ContextSlot, error) {
	slots, err := r.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	slot, ok := slots[name]
	if !ok {
		return nil, nil
	}
	return &slot, nil
}

func (r *RedisContextStore) Delete(ctx context.Context, sessionID, name string) error {
	slots, err := r.load(ctx, sessionID)
	if err != nil {
		return err
	}
	if _, ok := slots[name]; !ok {
		return nil
	}
	delete(slots, name)
	return r.save(ctx, sessionID, slots)
}

func (r *RedisContextStore) Decay(ctx context.Context, sessionID string) error {
	slots, err := r.load(ctx, sessionID)
	if err != nil {
		return err
	}
	for name, slot := range slots {
		// Same rule as the memory store: lifespan N survives N follow-up
		// turns, dropping when the decremented lifespan goes negative.
		slot.Lifespan--
		if slot.Lifespan < 0 {
			delete(slots, name)
			continue
		}
		slots[name] = slot
	}
	return r.save(ctx, sessionID, slots)
}
