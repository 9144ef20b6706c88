package calendar

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// ViewKey identifies a packed view. Anchor is the first date of the view
// range, so all reference dates in one week or month share an entry.
type ViewKey struct {
	Mode       ViewMode
	Anchor     CalendarDate
	ProviderID *int64
	ResourceID *int64
}

// NewViewKey normalizes ref to the view anchor.
func NewViewKey(mode ViewMode, ref CalendarDate, f Filter) ViewKey {
	return ViewKey{Mode: mode, Anchor: Anchor(mode, ref), ProviderID: f.ProviderID, ResourceID: f.ResourceID}
}

func optID(id *int64) string {
	if id == nil {
		return "*"
	}
	return strconv.FormatInt(*id, 10)
}

// String renders the key as "mode:anchor:provider:resource" with "*" for an
// unset filter. Cache backends use it as the storage key.
func (k ViewKey) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", k.Mode, k.Anchor, optID(k.ProviderID), optID(k.ResourceID))
}

// Covers reports whether the keyed view shows appointments on d.
func (k ViewKey) Covers(d CalendarDate) bool {
	first, last := RangeFor(k.Mode, k.Anchor)
	return inRange(d, first, last)
}

// ViewCache memoizes packed views between requests.
type ViewCache interface {
	Get(ctx context.Context, key ViewKey) (*PackedView, bool, error)
	Set(ctx context.Context, key ViewKey, v *PackedView) error
	// InvalidateDates drops every cached view whose range contains one of dates.
	InvalidateDates(ctx context.Context, dates ...CalendarDate) error
	InvalidateAll(ctx context.Context) error
}

type memoryEntry struct {
	key       ViewKey
	view      *PackedView
	expiresAt time.Time
}

// MemoryViewCache is a process-local ViewCache with lazy expiration. Stored
// views are shared, so callers must treat them as read-only.
type MemoryViewCache struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryViewCache(ttl time.Duration) *MemoryViewCache {
	return &MemoryViewCache{
		entries: make(map[string]*memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryViewCache) Get(_ context.Context, key ViewKey) (*PackedView, bool, error) {
	k := key.String()
	c.mu.RLock()
	e, ok := c.entries[k]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if c.ttl > 0 && c.now().After(e.expiresAt) {
		c.mu.Lock()
		// A Set may have replaced the entry since the read lock was released.
		if cur, ok := c.entries[k]; ok && cur == e {
			delete(c.entries, k)
		}
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.view, true, nil
}

func (c *MemoryViewCache) Set(_ context.Context, key ViewKey, v *PackedView) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key.String()] = &memoryEntry{key: key, view: v, expiresAt: c.now().Add(c.ttl)}
	return nil
}

func (c *MemoryViewCache) InvalidateDates(_ context.Context, dates ...CalendarDate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		for _, d := range dates {
			if e.key.Covers(d) {
				delete(c.entries, k)
				break
			}
		}
	}
	return nil
}

func (c *MemoryViewCache) InvalidateAll(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*memoryEntry)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryViewCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// NoopViewCache never stores anything.
type NoopViewCache struct{}

func (NoopViewCache) Get(context.Context, ViewKey) (*PackedView, bool, error) { return nil, false, nil }
func (NoopViewCache) Set(context.Context, ViewKey, *PackedView) error         { return nil }
func (NoopViewCache) InvalidateDates(context.Context, ...CalendarDate) error  { return nil }
func (NoopViewCache) InvalidateAll(context.Context) error                     { return nil }
