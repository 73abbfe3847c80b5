package forecastcache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/weather-favorites/internal/domain/forecast"
)

// ValkeyStore caches timelines in a Valkey-compatible database.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new cache backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "weather"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

// Get implements forecast.Cache.
func (s *ValkeyStore) Get(ctx context.Context, key string) (forecast.Timeline, bool, error) {
	cmd := s.client.B().Get().Key(s.entryKey(key)).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return forecast.Timeline{}, false, nil
		}
		return forecast.Timeline{}, false, err
	}
	var tl forecast.Timeline
	if err := json.Unmarshal([]byte(payload), &tl); err != nil {
		return forecast.Timeline{}, false, err
	}
	return tl, true, nil
}

// Set implements forecast.Cache.
func (s *ValkeyStore) Set(ctx context.Context, key string, tl forecast.Timeline, ttl time.Duration) error {
	payload, err := json.Marshal(tl)
	if err != nil {
		return err
	}
	builder := s.client.B().Set().Key(s.entryKey(key)).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) entryKey(key string) string {
	return s.prefix + ":" + key
}

var _ forecast.Cache = (*ValkeyStore)(nil)
