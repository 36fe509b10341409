package store

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

/*
LRUCache is a Least Recently Used eviction policy.

Kept as an alternative to ClockReplacer; the buffer pool works with either.
*/
type LRUCache struct {
	items *lru.Cache[FrameID, struct{}]
}

func NewLRUCache(size uint) *LRUCache {
	// Only errors on a non-positive size.
	items, err := lru.New[FrameID, struct{}](int(size))
	if err != nil {
		panic(err)
	}

	return &LRUCache{items: items}
}

func (c *LRUCache) Victim() *FrameID {
	frameID, _, ok := c.items.RemoveOldest()
	if !ok {
		return nil
	}

	return &frameID
}

func (c *LRUCache) Remove(frameID FrameID) {
	c.items.Remove(frameID)
}

func (c *LRUCache) Add(frameID FrameID) {
	c.items.ContainsOrAdd(frameID, struct{}{})
}

func (c *LRUCache) Size() uint {
	return uint(c.items.Len())
}
