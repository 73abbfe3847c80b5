package favorites

import (
	"context"
	"sync"

	"github.com/yanqian/weather-favorites/internal/domain/geo"
)

// Client is a read mirror of the store. It never applies a mutation locally:
// every add or remove attempt is followed by a reload, so the mirror only ever
// shows what the store accepted.
type Client struct {
	store Service

	mu      sync.RWMutex
	entries []Entry
	issued  uint64
	applied uint64
}

// NewClient creates an empty mirror over store.
func NewClient(store Service) *Client {
	return &Client{store: store}
}

// Sync reloads the mirror. Responses that arrive after a newer reload has
// been applied are dropped.
func (c *Client) Sync(ctx context.Context) error {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.mu.Unlock()

	entries, err := c.store.List(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.applied {
		return nil
	}
	c.applied = seq
	c.entries = make([]Entry, len(entries))
	for i, e := range entries {
		c.entries[i] = e.Clone()
	}
	return nil
}

// Entries returns a copy of the mirrored list.
func (c *Client) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Clone()
	}
	return out
}

// Find returns the mirrored entry with the given identity.
func (c *Client) Find(city, region string) (Entry, bool) {
	key := KeyOf(city, region)
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		if e.Key() == key {
			return e.Clone(), true
		}
	}
	return Entry{}, false
}

// Contains reports whether the place is a favorite: it has the store identity
// of an entry and the coordinates match exactly.
func (c *Client) Contains(place geo.Place, coords *geo.Coordinates) bool {
	key := KeyOf(place.CityName, place.Region)
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		if e.Key() == key && geo.SameCoordinates(e.Coordinates, coords) {
			return true
		}
	}
	return false
}

// Add forwards to the store and reloads. The store's verdict is returned.
func (c *Client) Add(ctx context.Context, entry Entry) error {
	err := c.store.Add(ctx, entry)
	if syncErr := c.Sync(ctx); err == nil {
		return syncErr
	}
	return err
}

// Remove forwards to the store and reloads. The store's verdict is returned.
func (c *Client) Remove(ctx context.Context, city, region string) error {
	err := c.store.Remove(ctx, RemoveRequest{CityName: city, Region: region})
	if syncErr := c.Sync(ctx); err == nil {
		return syncErr
	}
	return err
}
