package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/mikeboe/agent-helper/pkg/trip"
)

const geocodePrefix = "geocode:"

// GeocodeCache wraps a geocoder. Only found coordinates are cached; misses
// and errors always reach the wrapped geocoder again.
type GeocodeCache struct {
	Next   trip.Geocoder
	Store  Store
	TTL    time.Duration
	Logger *slog.Logger
}

func NewGeocodeCache(next trip.Geocoder, store Store, ttl time.Duration) *GeocodeCache {
	return &GeocodeCache{Next: next, Store: store, TTL: ttl, Logger: slog.Default()}
}

func geocodeKey(place string) string {
	return geocodePrefix + strings.ToLower(strings.TrimSpace(place))
}

func (c *GeocodeCache) Geocode(ctx context.Context, place string) (*trip.Coordinate, error) {
	key := geocodeKey(place)

	raw, err := c.Store.Get(ctx, key)
	switch {
	case err == nil:
		var coord trip.Coordinate
		if jerr := json.Unmarshal(raw, &coord); jerr == nil {
			return &coord, nil
		}
		c.Logger.Warn("Discarding corrupt cache entry", "key", key)
	case !errors.Is(err, ErrKeyNotFound):
		c.Logger.Warn("Geocode cache read failed", "key", key, "error", err)
	}

	coord, err := c.Next.Geocode(ctx, place)
	if err != nil || coord == nil {
		return coord, err
	}

	data, _ := json.Marshal(coord)
	if err := c.Store.Set(ctx, key, data, c.TTL); err != nil {
		c.Logger.Warn("Geocode cache write failed", "key", key, "error", err)
	}
	return coord, nil
}
