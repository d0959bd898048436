package dashboard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// RenderCache stores chart HTML by input fingerprint. Implementations must not keep
// the result of a failed render.
type RenderCache interface {
	GetOrRender(ctx context.Context, key string, render func() (string, error)) (string, error)
}

// ChartCache keeps rendered charts in process memory for a fixed lifetime.
// Concurrent misses on one key share a single render.
type ChartCache struct {
	lifetime time.Duration
	now      func() time.Time
	group    singleflight.Group

	mu        sync.Mutex
	snapshots map[string]chartSnapshot
}

type chartSnapshot struct {
	body    string
	staleAt time.Time
}

var _ RenderCache = (*ChartCache)(nil)

// NewChartCache returns a cache whose entries live for lifetime. Zero or negative
// lifetimes render on every call.
func NewChartCache(lifetime time.Duration) *ChartCache {
	return &ChartCache{
		lifetime:  lifetime,
		now:       time.Now,
		snapshots: map[string]chartSnapshot{},
	}
}

func (c *ChartCache) GetOrRender(_ context.Context, key string, render func() (string, error)) (string, error) {
	if c == nil || c.lifetime <= 0 {
		return render()
	}
	if body, ok := c.lookup(key); ok {
		return body, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		if body, ok := c.lookup(key); ok {
			return body, nil
		}
		body, err := render()
		if err != nil {
			return "", err
		}
		c.store(key, body)
		return body, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Len counts stored snapshots, including ones not yet swept.
func (c *ChartCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.snapshots)
}

func (c *ChartCache) lookup(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.snapshots[key]
	if !ok {
		return "", false
	}
	if !c.now().Before(snap.staleAt) {
		delete(c.snapshots, key)
		return "", false
	}
	return snap.body, true
}

// store sweeps stale snapshots so keys for old inputs do not accumulate.
func (c *ChartCache) store(key, body string) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, snap := range c.snapshots {
		if !now.Before(snap.staleAt) {
			delete(c.snapshots, k)
		}
	}
	c.snapshots[key] = chartSnapshot{body: body, staleAt: now.Add(c.lifetime)}
}

// chartFingerprint hashes the JSON form of a chart input. Unencodable input maps to
// one shared key.
func chartFingerprint(input any) string {
	raw, err := json.Marshal(input)
	if err != nil {
		return "unencodable"
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:12])
}
