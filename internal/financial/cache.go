package financial

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const (
	cacheVersionKey = "financial:version"
	// BumpChannel carries version bumps to other instances.
	BumpChannel = "financial.bump"
)

var (
	cacheMetricsMu   sync.Mutex
	cacheLookups     *prometheus.CounterVec
	cacheMetricsErr  error
	cacheMetricsDone bool
)

// SetupCacheMetrics registers the cache hit/miss counter once.
func SetupCacheMetrics(reg prometheus.Registerer) error {
	cacheMetricsMu.Lock()
	defer cacheMetricsMu.Unlock()
	if cacheMetricsDone {
		return cacheMetricsErr
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_financial_cache_lookups_total",
		Help: "Financial metrics cache lookups by view and result.",
	}, []string{"view", "result"})
	if err := reg.Register(counter); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			cacheMetricsErr = err
			cacheMetricsDone = true
			return err
		}
		existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			cacheMetricsErr = fmt.Errorf("financial cache metrics: unexpected collector type %T", already.ExistingCollector)
			cacheMetricsDone = true
			return cacheMetricsErr
		}
		counter = existing
	}
	cacheLookups = counter
	cacheMetricsDone = true
	return nil
}

func recordLookup(view string, hit bool) {
	if cacheLookups == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(view, result).Inc()
}

// Cache stores computed views in Redis under a global version that Bump advances.
// A nil Cache, or one without a client or TTL, always calls the loader. Redis errors
// during a lookup are logged and the loader result is served uncached.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache returns nil when ttl is not positive.
func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if client == nil || ttl <= 0 {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{client: client, ttl: ttl, logger: logger.With("module", "financial.cache")}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// Version returns the current cache version, initialising it when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if !c.enabled() {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, cacheVersionKey).Int64()
	if errors.Is(err, redis.Nil) || (err == nil && ver <= 0) {
		if err := c.client.SetNX(ctx, cacheVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, cacheVersionKey).Int64()
	}
	return ver, err
}

// BuildKey joins parts and appends the current version. It returns an empty key when
// the version cannot be read; FetchJSON bypasses the cache for an empty key.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) string {
	joined := strings.Join(parts, ":")
	if !c.enabled() {
		return joined
	}
	ver, err := c.Version(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "cache version unavailable", slog.String("key", joined), slog.Any("error", err))
		return ""
	}
	return joined + ":" + strconv.FormatInt(ver, 10)
}

// FetchJSON decodes a cached value into dest or fills it from load. Only load errors
// are returned.
func (c *Cache) FetchJSON(ctx context.Context, view, key string, dest any, load func(context.Context) (any, error)) error {
	if load == nil {
		return errors.New("financial cache: loader required")
	}
	useCache := c.enabled() && key != ""
	if useCache {
		payload, err := c.client.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			if err := json.Unmarshal(payload, dest); err == nil {
				recordLookup(view, true)
				return nil
			}
			c.logger.WarnContext(ctx, "cache entry unreadable", slog.String("key", key))
		case !errors.Is(err, redis.Nil):
			c.logger.WarnContext(ctx, "cache lookup", slog.String("key", key), slog.Any("error", err))
		}
		recordLookup(view, false)
	}
	value, err := load(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if useCache {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "cache store", slog.String("key", key), slog.Any("error", err))
		}
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates every cached view and notifies listeners.
func (c *Cache) Bump(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	ver, err := c.client.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, BumpChannel, strconv.FormatInt(ver, 10)).Err()
}

// ListenForInvalidation follows version bumps published on channel until ctx is done.
func (c *Cache) ListenForInvalidation(ctx context.Context, channel string) error {
	if !c.enabled() {
		return nil
	}
	if channel == "" {
		channel = BumpChannel
	}
	pubsub := c.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				ver, err := strconv.ParseInt(msg.Payload, 10, 64)
				if err != nil {
					_ = c.client.Incr(ctx, cacheVersionKey).Err()
					continue
				}
				current, err := c.client.Get(ctx, cacheVersionKey).Int64()
				if err != nil || current < ver {
					_ = c.client.Set(ctx, cacheVersionKey, ver, 0).Err()
				}
			}
		}
	}()
	return nil
}

func periodKey(start, end time.Time) string {
	return start.UTC().Format(time.RFC3339Nano) + "_" + end.UTC().Format(time.RFC3339Nano)
}
