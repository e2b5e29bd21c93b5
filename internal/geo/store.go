package geo

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"food-delivery/internal/domain"
)

const (
	// DefaultKey holds the GEO set of courier positions.
	DefaultKey = "courier:locations"
	// DefaultTTL bounds how stale a position may get before it is ignored.
	DefaultTTL = 24 * time.Hour
)

// Nearby is a courier found by a radius query.
type Nearby struct {
	CourierID  int64
	DistanceKm float64
	Point      domain.Point
}

// RedisStore keeps the last known courier position in a Redis GEO set.
// A companion sorted set records when each position was written so that
// records older than the TTL can be pruned individually.
type RedisStore struct {
	rdb   redis.Cmdable
	key   string
	tsKey string
	ttl   time.Duration
	now   func() time.Time
}

// NewRedisStore returns a store using DefaultKey.
func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		rdb:   rdb,
		key:   DefaultKey,
		tsKey: DefaultKey + ":ts",
		ttl:   ttl,
		now:   time.Now,
	}
}

func member(id int64) string { return strconv.FormatInt(id, 10) }

// Update writes the position of a courier, last write wins.
func (s *RedisStore) Update(ctx context.Context, courierID int64, p domain.Point) error {
	m := member(courierID)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.GeoAdd(ctx, s.key, &redis.GeoLocation{Name: m, Longitude: p.Lon, Latitude: p.Lat})
		pipe.ZAdd(ctx, s.tsKey, redis.Z{Score: float64(s.now().Unix()), Member: m})
		pipe.Expire(ctx, s.key, s.ttl)
		pipe.Expire(ctx, s.tsKey, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("geo update courier %d: %w", courierID, err)
	}
	return nil
}

// QueryNearby returns up to limit couriers within radiusKm of center,
// nearest first. Equal distances are ordered by courier id.
func (s *RedisStore) QueryNearby(ctx context.Context, center domain.Point, radiusKm float64, limit int) ([]Nearby, error) {
	if err := s.pruneStale(ctx); err != nil {
		return nil, err
	}

	locs, err := s.rdb.GeoRadius(ctx, s.key, center.Lon, center.Lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Count:     limit,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("geo radius: %w", err)
	}

	out := make([]Nearby, 0, len(locs))
	for _, l := range locs {
		id, err := strconv.ParseInt(l.Name, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, Nearby{
			CourierID:  id,
			DistanceKm: l.Dist,
			Point:      domain.Point{Lat: l.Latitude, Lon: l.Longitude},
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		return out[i].CourierID < out[j].CourierID
	})
	return out, nil
}

// Remove deletes a courier position.
func (s *RedisStore) Remove(ctx context.Context, courierID int64) error {
	m := member(courierID)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, s.key, m)
		pipe.ZRem(ctx, s.tsKey, m)
		return nil
	})
	if err != nil {
		return fmt.Errorf("geo remove courier %d: %w", courierID, err)
	}
	return nil
}

func (s *RedisStore) pruneStale(ctx context.Context) error {
	cutoff := s.now().Add(-s.ttl).Unix()
	stale, err := s.rdb.ZRangeByScore(ctx, s.tsKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(cutoff, 10),
	}).Result()
	if err != nil {
		return fmt.Errorf("geo prune: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}
	members := make([]any, len(stale))
	for i, m := range stale {
		members[i] = m
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, s.key, members...)
		pipe.ZRem(ctx, s.tsKey, members...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("geo prune: %w", err)
	}
	return nil
}
