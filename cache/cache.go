// Copyright (C) 2017-2026  Nexedi SA and Contributors.
//                          Kirill Smelkov <kirr@nexedi.com>
//
// This program is free software: you can Use, Study, Modify and Redistribute
// it under the terms of the GNU General Public License version 3, or (at your
// option) any later version, as published by the Free Software Foundation.
//
// You can also Link and Combine this program with other software covered by
// the terms of any of the Free Software licenses or any of the Open Source
// Initiative approved licenses and Convey the resulting work. Corresponding
// source of such a combination shall include the source code for all other
// software used.
//
// This program is distributed WITHOUT ANY WARRANTY; without even the implied
// warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
//
// See COPYING file for full licensing terms.
// See https://www.nexedi.com/licensing for rationale and options.

// Package cache provides RAM caching layer over a data loader.
//
// Every cached entry is on two intrusive lists at the same time: on the LRU
// list of all loaded entries, and, if the cache has TTL, on the list of
// entries that expire in the same second.
package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"lab.nexedi.com/kirr/go123/mem"
	"lab.nexedi.com/kirr/go123/xerr"

	"lab.nexedi.com/kirr/ilist/internal/log"
	"lab.nexedi.com/kirr/ilist/internal/task"
	taskctx "lab.nexedi.com/kirr/ilist/internal/xcontext/task"
	"lab.nexedi.com/kirr/ilist/list"
)

// errNilBuf is reported when Loader breaks its contract and returns no data and no error.
var errNilBuf = errors.New("loader returned nil buffer")

// Loader is the interface Cache loads data through on miss.
type Loader interface {
	// Load returns data for key.
	//
	// Reference to returned buf is passed to the cache. buf must be != nil
	// when err is nil.
	Load(ctx context.Context, key string) (buf *mem.Buf, err error)
}

// Cache provides RAM caching layer that can be used over a Loader.
//
// It is safe to use Cache from multiple goroutines simultaneously.
type Cache struct {
	loader Loader
	now    func() time.Time

	// everything below, including all list links of all entries, is
	// protected by mu.
	mu       sync.Mutex
	entryMap map[string]*entry

	lru     *list.List[lruTag, lruEntry] // loaded entries, least recently used first
	size    int                          // cached data size in bytes
	sizeMax int                          // cache is allowed to occupy not more than this

	ttl       time.Duration                                // 0 - entries do not expire
	expiry    map[int64]*list.List[expiryTag, expiryEntry] // deadline -> entries expiring then
	deadlinev []int64                                      // keys of expiry, ascending

	stats *stats
}

// entry is information about 1 cached key.
//
// Loaded entry is on Cache.lru and, if it has deadline, on Cache.expiry list
// for that deadline. Entry that is being loaded is on no list.
type entry struct {
	key string

	inLRU    list.Links[lruTag, lruEntry]
	inExpiry list.Links[expiryTag, expiryEntry]

	// loading result
	buf *mem.Buf
	err error

	// done when loading finished
	ready sync.WaitGroup

	// protected by Cache.mu:

	deadline int64 // unix seconds; 0 - never expires

	// how many waiters for buf there are while entry is being loaded.
	// after data is loaded, load will do .buf.XIncref() .waitBufRef times.
	// = -1 after loading is complete.
	waitBufRef int32
}

// lruEntry is how entries are seen on Cache.lru.
type lruEntry interface {
	lruLinks() *list.Links[lruTag, lruEntry]
	cacheEntry() *entry
	size() int
}

// expiryEntry is how entries are seen on Cache.expiry lists.
type expiryEntry interface {
	expiryLinks() *list.Links[expiryTag, expiryEntry]
	cacheEntry() *entry
	expiresAt() int64
}

type lruTag struct{}
type expiryTag struct{}

func (lruTag) Links(e lruEntry) *list.Links[lruTag, lruEntry] { return e.lruLinks() }
func (expiryTag) Links(e expiryEntry) *list.Links[expiryTag, expiryEntry] { return e.expiryLinks() }

func (e *entry) lruLinks() *list.Links[lruTag, lruEntry] { return &e.inLRU }
func (e *entry) expiryLinks() *list.Links[expiryTag, expiryEntry] { return &e.inExpiry }
func (e *entry) cacheEntry() *entry { return e }
func (e *entry) size() int { return e.buf.Len() }
func (e *entry) expiresAt() int64 { return e.deadline }

func (e *entry) String() string { return e.key }

// New creates new cache backed up by loader.
//
// The cache will use not more than ~ sizeMax bytes of RAM for cached data.
func New(loader Loader, sizeMax int) *Cache {
	c := &Cache{
		loader:   loader,
		now:      time.Now,
		entryMap: make(map[string]*entry),
		lru:      list.New[lruTag, lruEntry](),
		sizeMax:  max(sizeMax, 0),
		expiry:   make(map[int64]*list.List[expiryTag, expiryEntry]),
	}
	c.stats = c.newStats()
	return c
}

// SetSizeMax adjusts how much RAM cache can use for cached data.
func (c *Cache) SetSizeMax(sizeMax int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sizeMax = max(sizeMax, 0)
	c.gc()
}

// SetTTL adjusts for how long entries loaded from now on stay in the cache.
//
// ttl=0 means forever. Deadlines of entries already in the cache are not changed.
func (c *Cache) SetTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl = ttl
}

// Load loads data for key via cache.
//
// If data is already in cache - cached content is returned.
// The caller receives its own reference to buf and must Release it when done.
func (c *Cache) Load(ctx context.Context, key string) (buf *mem.Buf, err error) {
	defer xerr.Contextf(&err, "cache: load %s", key)

	e, eNew := c.lookup(key, +1)

	// e is not in cache - this goroutine becomes responsible for loading it
	if eNew {
		c.stats.misses.Inc()
		c.load(ctx, e, false)

	// e is already in cache - use it
	} else {
		c.stats.hits.Inc()
		e.ready.Wait()
		c.mu.Lock()
		// e might be already evicted
		if list.Linked[lruTag, lruEntry](e) {
			c.lru.MoveBack(e)
		}
		c.mu.Unlock()
	}

	if e.err != nil {
		return nil, e.err
	}
	return e.buf, nil
}

// Prefetch arranges for data to be eventually present in cache.
//
// If data is not yet in cache loading for it is started in the background.
// Until first Load, prefetched data is the first candidate for eviction.
//
// Prefetch does not wait for loading to complete and does not return any error.
func (c *Cache) Prefetch(ctx context.Context, key string) {
	e, eNew := c.lookup(key, 0)
	if eNew {
		c.stats.misses.Inc()
		go c.load(taskctx.Runningf(ctx, "prefetch %s", key), e, true)
	}
}

// Preload loads data for keys into cache in parallel.
//
// It returns after all loads completed, with the first error encountered.
func (c *Cache) Preload(ctx context.Context, keys ...string) (err error) {
	defer task.Runningf(&ctx, "preload %d keys", len(keys))(&err)

	wg, ctx := errgroup.WithContext(ctx)
	for _, key := range keys {
		wg.Go(func() error {
			buf, err := c.Load(ctx, key)
			if err != nil {
				return err
			}
			buf.Release()
			return nil
		})
	}
	return wg.Wait()
}

// Invalidate drops data for key from the cache.
//
// If data for key is being loaded, the loaded data will not be cached.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryMap[key]
	switch {
	case e == nil:
		// nothing
	case e.loaded():
		c.evict(e)
	default:
		delete(c.entryMap, key)
	}
}

// Expire evicts all entries whose deadline has passed.
//
// It returns how many entries were evicted.
func (c *Cache) Expire(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	// collect whole buckets of expired entries; splice is O(1) per bucket
	now := c.now().Unix()
	dead := list.New[expiryTag, expiryEntry]()
	for len(c.deadlinev) > 0 && c.deadlinev[0] <= now {
		deadline := c.deadlinev[0]
		bucket := c.expiry[deadline]
		dead.ConcatBack(bucket)
		bucket.Release()
		delete(c.expiry, deadline)
		c.deadlinev = c.deadlinev[1:]
	}

	n := 0
	for e := range dead.All() {
		c.evict(e.cacheEntry())
		n++
	}
	dead.Release()

	if n != 0 {
		c.stats.expirations.Add(float64(n))
		log.V(1).Infof(ctx, "cache: expired %d entries", n)
	}
	return n
}

// Purge drops all data from the cache.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for e := range c.lru.All() {
		c.evict(e.cacheEntry())
	}
	// entries being loaded; their loading will see they were dropped
	clear(c.entryMap)
}

// Len returns number of entries in the cache.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Size returns size of data in the cache.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// lookup returns entry corresponding to key.
//
// eNew indicates whether e is new and so loading on it has not been
// initiated yet. If so the caller should proceed to loading e via load.
//
// wantBufRef indicates how much caller wants returned e.buf to be incref'ed.
// For entry that is not yet loaded the increment is scheduled to be done
// by load.
func (c *Cache) lookup(key string, wantBufRef int) (e *entry, eNew bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e = c.entryMap[key]
	if e != nil && e.loaded() && e.expired(c.now()) {
		c.evict(e)
		c.stats.expirations.Inc()
		e = nil
	}

	if e == nil {
		e = &entry{key: key}
		e.ready.Add(1)
		c.entryMap[key] = e
		eNew = true
	}

	for ; wantBufRef > 0; wantBufRef-- {
		if e.loaded() {
			e.buf.XIncref()
		} else {
			e.waitBufRef++
		}
	}

	return e, eNew
}

// load performs data loading from the loader into e.
//
// e must be new just created by lookup with eNew=true. Loading completion is
// signalled by marking e.ready done.
//
// prefetch=y puts e in front of LRU instead of its back.
func (c *Cache) load(ctx context.Context, e *entry, prefetch bool) {
	buf, err := c.loader.Load(ctx, e.key)
	if err == nil && buf == nil {
		err = errNilBuf
	}
	if err != nil {
		buf.XRelease()
		buf = nil
		log.Warningf(ctx, "cache: load %s: %s", e.key, err)
	}

	c.mu.Lock()

	e.buf = buf
	e.err = err
	// sync .waitBufRef -> .buf
	for ; err == nil && e.waitBufRef > 0; e.waitBufRef-- {
		e.buf.XIncref()
	}
	e.waitBufRef = -1

	switch {
	// errors are not cached
	case err != nil:
		if c.entryMap[e.key] == e {
			delete(c.entryMap, e.key)
		}

	// e was invalidated while loading - drop cache's reference
	case c.entryMap[e.key] != e:
		e.buf.Release()

	default:
		if prefetch {
			c.lru.InsertFront(e)
		} else {
			c.lru.InsertBack(e)
		}
		c.size += e.buf.Len()

		if c.ttl > 0 {
			e.deadline = deadlineOf(c.now().Add(c.ttl))
			c.expiryList(e.deadline).InsertBack(e)
		}

		c.gc()
	}

	c.mu.Unlock()

	// notify waiters outside of the lock
	e.ready.Done()
}

// deadlineOf rounds t up to unix seconds.
func deadlineOf(t time.Time) int64 {
	s := t.Unix()
	if t.Nanosecond() != 0 {
		s++
	}
	return s
}

// expiryList returns list of entries that expire at deadline.
//
// must be called with c.mu locked.
func (c *Cache) expiryList(deadline int64) *list.List[expiryTag, expiryEntry] {
	l := c.expiry[deadline]
	if l == nil {
		l = list.New[expiryTag, expiryEntry]()
		c.expiry[deadline] = l
		i, _ := slices.BinarySearch(c.deadlinev, deadline)
		c.deadlinev = slices.Insert(c.deadlinev, i, deadline)
	}
	return l
}

// dropExpiryList forgets list of entries that expire at deadline if it became empty.
//
// The list might be already forgotten, e.g. by Expire.
//
// must be called with c.mu locked.
func (c *Cache) dropExpiryList(deadline int64) {
	l := c.expiry[deadline]
	if l == nil || !l.Empty() {
		return
	}
	l.Release()
	delete(c.expiry, deadline)
	if i, ok := slices.BinarySearch(c.deadlinev, deadline); ok {
		c.deadlinev = slices.Delete(c.deadlinev, i, i+1)
	}
}

// ---- garbage collection ----

// gc evicts least recently used entries until cache fits into sizeMax.
//
// must be called with c.mu locked.
func (c *Cache) gc() {
	for c.size > c.sizeMax {
		p := c.lru.HeadNext()
		if p.IsSentinel() {
			panic("cache: gc: empty .lru but .size > .sizeMax")
		}
		c.evict(p.View().cacheEntry())
		c.stats.evictions.Inc()
	}
}

// evict drops loaded entry e from the cache.
//
// e is removed from all lists it is on. Reference to e.buf held by the cache
// is released.
//
// must be called with c.mu locked.
func (c *Cache) evict(e *entry) {
	list.Remove[lruTag, lruEntry](e)
	if list.Linked[expiryTag, expiryEntry](e) {
		list.Remove[expiryTag, expiryEntry](e)
		c.dropExpiryList(e.deadline)
	}
	if c.entryMap[e.key] == e {
		delete(c.entryMap, e.key)
	}
	c.size -= e.size()
	e.buf.Release()
}

// loaded reports whether e was already loaded.
//
// must be called with c.mu locked.
func (e *entry) loaded() bool {
	return e.waitBufRef == -1
}

// expired reports whether e's deadline passed by now.
func (e *entry) expired(now time.Time) bool {
	return e.deadline != 0 && e.deadline <= now.Unix()
}
