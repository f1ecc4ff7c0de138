package quota

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// admitScript runs rollover, the conditional increment and threshold
// check-and-set server-side, so the whole transition is one atomic step even
// under concurrent bursts for the same tenant.
//
// Returns {admitted, count, fired80, fired90, fired100}.
var admitScript = redis.NewScript(`
local key = KEYS[1]
local period = ARGV[1]
local limit = tonumber(ARGV[2])

if redis.call('HGET', key, 'period') ~= period then
  redis.call('HSET', key, 'period', period, 'count', 0, 't80', 0, 't90', 0, 't100', 0)
end

local count = tonumber(redis.call('HGET', key, 'count') or '0')
if limit >= 0 and count >= limit then
  return {0, count, 0, 0, 0}
end

count = redis.call('HINCRBY', key, 'count', 1)

local fired = {0, 0, 0}
if limit > 0 then
  local pct = math.floor(count * 100 / limit)
  local thresholds = {80, 90, 100}
  for i, t in ipairs(thresholds) do
    local field = 't' .. t
    if pct >= t and redis.call('HGET', key, field) ~= '1' then
      redis.call('HSET', key, field, 1)
      fired[i] = 1
    end
  end
end

return {1, count, fired[1], fired[2], fired[3]}
`)

// RedisStore keeps one hash per tenant counter.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps the shared client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func counterKey(restaurantID string) string {
	return "quota:" + restaurantID
}

// Admit executes the atomic admission script.
func (s *RedisStore) Admit(ctx context.Context, restaurantID, period string, limit int64) (AdmitResult, error) {
	raw, err := admitScript.Run(ctx, s.client, []string{counterKey(restaurantID)}, period, limit).Result()
	if err != nil {
		return AdmitResult{}, fmt.Errorf("quota admit script: %w", err)
	}

	reply, ok := raw.([]interface{})
	if !ok || len(reply) != 5 {
		return AdmitResult{}, fmt.Errorf("quota admit script: unexpected reply %v", raw)
	}

	result := AdmitResult{
		Admitted: asInt64(reply[0]) == 1,
		Count:    asInt64(reply[1]),
		Limit:    limit,
	}
	for i, threshold := range Thresholds {
		if asInt64(reply[2+i]) == 1 {
			result.Crossed = append(result.Crossed, threshold)
		}
	}
	return result, nil
}

// Count returns the counter for the given period, treating a stale or
// missing counter as zero.
func (s *RedisStore) Count(ctx context.Context, restaurantID, period string) (int64, error) {
	fields, err := s.client.HMGet(ctx, counterKey(restaurantID), "period", "count").Result()
	if err != nil {
		return 0, fmt.Errorf("quota count: %w", err)
	}
	storedPeriod, _ := fields[0].(string)
	if storedPeriod != period {
		return 0, nil
	}
	storedCount, _ := fields[1].(string)
	var count int64
	_, _ = fmt.Sscan(storedCount, &count)
	return count, nil
}

// Reset forces the counter to an empty state for the given period.
func (s *RedisStore) Reset(ctx context.Context, restaurantID, period string) error {
	err := s.client.HSet(ctx, counterKey(restaurantID),
		"period", period, "count", 0, "t80", 0, "t90", 0, "t100", 0).Err()
	if err != nil {
		return fmt.Errorf("quota reset: %w", err)
	}
	return nil
}

func asInt64(v interface{}) int64 {
	n, _ := v.(int64)
	return n
}
