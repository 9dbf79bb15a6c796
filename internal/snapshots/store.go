package snapshots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	scheduleLatestKey  = "sched:snapshot:schedule:latest"
	waitlistLatestKey  = "sched:snapshot:waitlist:latest"
	scheduleHistoryKey = "sched:snapshot:schedule:history"
	waitlistHistoryKey = "sched:snapshot:waitlist:history"
)

// ErrNoSnapshot indicates no snapshot has been saved yet.
var ErrNoSnapshot = errors.New("snapshots: none saved")

// Store persists exported schedule and waitlist state in Redis so callers
// wanting durability can snapshot the in-memory core.
type Store struct {
	client       *redis.Client
	historyLimit int64
}

// NewStore creates a Redis-backed snapshot store. historyLimit bounds how
// many past snapshots are retained per kind.
func NewStore(client *redis.Client, historyLimit int) *Store {
	if client == nil {
		panic("snapshots: redis client cannot be nil")
	}
	if historyLimit <= 0 {
		historyLimit = 20
	}
	return &Store{client: client, historyLimit: int64(historyLimit)}
}

// SaveSchedule stores a schedule export as the latest snapshot and appends
// it to the bounded history.
func (s *Store) SaveSchedule(ctx context.Context, payload []byte) error {
	return s.save(ctx, scheduleLatestKey, scheduleHistoryKey, payload)
}

// SaveWaitlist stores a waitlist export as the latest snapshot and appends
// it to the bounded history.
func (s *Store) SaveWaitlist(ctx context.Context, payload []byte) error {
	return s.save(ctx, waitlistLatestKey, waitlistHistoryKey, payload)
}

func (s *Store) save(ctx context.Context, latestKey, historyKey string, payload []byte) error {
	entry := fmt.Sprintf("%d|%s", time.Now().UnixMilli(), payload)

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, latestKey, payload, 0)
	pipe.LPush(ctx, historyKey, entry)
	pipe.LTrim(ctx, historyKey, 0, s.historyLimit-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("snapshots: save failed: %w", err)
	}
	return nil
}

// LatestSchedule returns the most recent schedule snapshot.
func (s *Store) LatestSchedule(ctx context.Context) ([]byte, error) {
	return s.latest(ctx, scheduleLatestKey)
}

// LatestWaitlist returns the most recent waitlist snapshot.
func (s *Store) LatestWaitlist(ctx context.Context) ([]byte, error) {
	return s.latest(ctx, waitlistLatestKey)
}

func (s *Store) latest(ctx context.Context, key string) ([]byte, error) {
	payload, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("snapshots: read failed: %w", err)
	}
	return payload, nil
}

// HistoryLen reports how many schedule snapshots are retained.
func (s *Store) HistoryLen(ctx context.Context) (int64, error) {
	n, err := s.client.LLen(ctx, scheduleHistoryKey).Result()
	if err != nil {
		return 0, fmt.Errorf("snapshots: history read failed: %w", err)
	}
	return n, nil
}
