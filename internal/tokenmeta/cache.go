package tokenmeta

import (
	"container/list"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/amadimichael/evmsim/internal/simtypes"
)

// cacheKey identifies one resolved lookup. Two different suspected standards
// for the same address are resolved and cached independently, since Eip20
// resolution reads decimals() while Eip721/Eip1155 do not.
type cacheKey struct {
	address  common.Address
	standard simtypes.Standard
}

// metadataCache is a thread-safe LRU cache of resolved TokenInfo, with
// per-entry TTL expiration so a token whose metadata changes (or a
// misresolved call retried) doesn't stay wrong for the life of the process.
// It exists to avoid re-resolving the same contract's metadata within a
// single simulation run and across runs within a process's lifetime — there
// is exactly one caller (Resolver.Resolve) and exactly one (key, value)
// shape, so it is baked in rather than left generic over K/V.
type metadataCache struct {
	mu         sync.Mutex
	capacity   int
	defaultTTL time.Duration
	items      map[cacheKey]*list.Element
	evictList  *list.List
}

type metadataCacheEntry struct {
	key       cacheKey
	value     simtypes.TokenInfo
	expiresAt time.Time
}

func newMetadataCache(capacity int, defaultTTL time.Duration) *metadataCache {
	return &metadataCache{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		items:      make(map[cacheKey]*list.Element),
		evictList:  list.New(),
	}
}

func (c *metadataCache) Get(key cacheKey) (simtypes.TokenInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return simtypes.TokenInfo{}, false
	}

	ent := elem.Value.(*metadataCacheEntry)
	if !ent.expiresAt.IsZero() && time.Now().After(ent.expiresAt) {
		c.removeElement(elem)
		return simtypes.TokenInfo{}, false
	}

	c.evictList.MoveToFront(elem)
	return ent.value, true
}

func (c *metadataCache) Set(key cacheKey, info simtypes.TokenInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.defaultTTL > 0 {
		expiresAt = time.Now().Add(c.defaultTTL)
	}

	if elem, ok := c.items[key]; ok {
		c.evictList.MoveToFront(elem)
		ent := elem.Value.(*metadataCacheEntry)
		ent.value = info
		ent.expiresAt = expiresAt
		return
	}

	ent := &metadataCacheEntry{key: key, value: info, expiresAt: expiresAt}
	elem := c.evictList.PushFront(ent)
	c.items[key] = elem

	if c.evictList.Len() > c.capacity {
		c.removeElement(c.evictList.Back())
	}
}

func (c *metadataCache) removeElement(elem *list.Element) {
	c.evictList.Remove(elem)
	ent := elem.Value.(*metadataCacheEntry)
	delete(c.items, ent.key)
}
