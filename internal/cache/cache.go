// Package cache keeps recently computed scoreboard snapshots so that many
// clients polling the same tournament do not each hit the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Shivanand-hulikatti/coursecast/internal/config"
	"github.com/Shivanand-hulikatti/coursecast/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when no snapshot is cached.
var ErrMiss = errors.New("cache miss")

// Scoreboard stores scoreboard snapshots keyed by tournament and generation.
//
// Every write to a tournament bumps its generation through Invalidate. A
// reader takes the generation before loading from the store and caches its
// result under that generation, so a load that raced with a write lands
// under a generation no later reader asks for.
type Scoreboard interface {
	Generation(ctx context.Context, tournamentID uuid.UUID) (int64, error)
	Get(ctx context.Context, tournamentID uuid.UUID, gen int64) (*model.Snapshot, error)
	Set(ctx context.Context, tournamentID uuid.UUID, gen int64, snap *model.Snapshot) error
	Invalidate(ctx context.Context, tournamentID uuid.UUID) error
}

// Nop is a Scoreboard that never stores anything.
type Nop struct{}

func (Nop) Generation(context.Context, uuid.UUID) (int64, error)           { return 0, nil }
func (Nop) Get(context.Context, uuid.UUID, int64) (*model.Snapshot, error) { return nil, ErrMiss }
func (Nop) Set(context.Context, uuid.UUID, int64, *model.Snapshot) error   { return nil }
func (Nop) Invalidate(context.Context, uuid.UUID) error                    { return nil }

// generationTTL bounds how long an idle tournament's counter is kept. It
// must outlive any snapshot TTL.
const generationTTL = 24 * time.Hour

// Redis is a Scoreboard backed by Redis with a fixed TTL per entry.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Dial connects to Redis and verifies the connection.
func Dial(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedis(client, cfg.TTL), nil
}

func genKey(tournamentID uuid.UUID) string {
	return "scoreboard:" + tournamentID.String() + ":gen"
}

func snapKey(tournamentID uuid.UUID, gen int64) string {
	return "scoreboard:" + tournamentID.String() + ":" + strconv.FormatInt(gen, 10)
}

// Generation returns the tournament's current generation, 0 when it has
// never been invalidated.
func (r *Redis) Generation(ctx context.Context, tournamentID uuid.UUID) (int64, error) {
	gen, err := r.client.Get(ctx, genKey(tournamentID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("get scoreboard generation: %w", err)
	}
	return gen, nil
}

// Get returns the snapshot cached under gen or ErrMiss.
func (r *Redis) Get(ctx context.Context, tournamentID uuid.UUID, gen int64) (*model.Snapshot, error) {
	data, err := r.client.Get(ctx, snapKey(tournamentID, gen)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("get scoreboard: %w", err)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode scoreboard: %w", err)
	}
	return &snap, nil
}

// Set stores a snapshot under gen for the configured TTL.
func (r *Redis) Set(ctx context.Context, tournamentID uuid.UUID, gen int64, snap *model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode scoreboard: %w", err)
	}
	if err := r.client.Set(ctx, snapKey(tournamentID, gen), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("set scoreboard: %w", err)
	}
	return nil
}

// Invalidate moves the tournament to a new generation. Snapshots cached
// under older generations are never read again and expire on their own.
func (r *Redis) Invalidate(ctx context.Context, tournamentID uuid.UUID) error {
	pipe := r.client.TxPipeline()
	pipe.Incr(ctx, genKey(tournamentID))
	pipe.Expire(ctx, genKey(tournamentID), generationTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("invalidate scoreboard: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
