// File: repositories/cached_roster_repository.go
package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/Dosada05/mergington-activities/models"
	"github.com/redis/go-redis/v9"
)

const rosterCacheKey = "roster:v1"

// cachedRosterRepository is a read-through Redis cache in front of another
// repository. Writes go to the backend first and then refresh the cache.
// Redis failures are logged and never fail the call.
type cachedRosterRepository struct {
	next   RosterRepository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedRosterRepository(next RosterRepository, client *redis.Client, ttl time.Duration, logger *slog.Logger) RosterRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &cachedRosterRepository{next: next, client: client, ttl: ttl, logger: logger}
}

func (r *cachedRosterRepository) Load(ctx context.Context) (models.Roster, error) {
	data, err := r.client.Get(ctx, rosterCacheKey).Bytes()
	switch {
	case err == nil:
		var roster models.Roster
		if jsonErr := json.Unmarshal(data, &roster); jsonErr == nil && roster != nil {
			return roster, nil
		}
		r.logger.WarnContext(ctx, "discarding undecodable cached roster", slog.String("key", rosterCacheKey))
	case !errors.Is(err, redis.Nil):
		r.logger.WarnContext(ctx, "roster cache read failed", slog.Any("error", err))
	}

	roster, err := r.next.Load(ctx)
	if err != nil {
		return nil, err
	}
	r.store(ctx, roster)
	return roster, nil
}

func (r *cachedRosterRepository) Save(ctx context.Context, roster models.Roster) error {
	if err := r.next.Save(ctx, roster); err != nil {
		r.invalidate(ctx)
		return err
	}
	r.store(ctx, roster)
	return nil
}

func (r *cachedRosterRepository) Update(ctx context.Context, fn UpdateFunc) (models.Roster, error) {
	roster, err := r.next.Update(ctx, fn)
	if err != nil {
		return nil, err
	}
	r.store(ctx, roster)
	return roster, nil
}

func (r *cachedRosterRepository) store(ctx context.Context, roster models.Roster) {
	data, err := json.Marshal(roster)
	if err != nil {
		r.logger.WarnContext(ctx, "failed to encode roster for cache", slog.Any("error", err))
		return
	}
	if err := r.client.Set(ctx, rosterCacheKey, data, r.ttl).Err(); err != nil {
		r.logger.WarnContext(ctx, "roster cache write failed", slog.Any("error", err))
	}
}

func (r *cachedRosterRepository) invalidate(ctx context.Context) {
	if err := r.client.Del(ctx, rosterCacheKey).Err(); err != nil {
		r.logger.WarnContext(ctx, "roster cache invalidation failed", slog.Any("error", err))
	}
}
