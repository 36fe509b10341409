package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
)

/*
LinearProbeHashTable is a disk-resident, static-size open-addressed hash
index.

The table is a header page registering a list of block pages, each holding a
fixed array of key-value slots with occupancy bitmaps. Every page access is
brokered through the buffer pool; nothing is cached outside of it.

A key hashes to a bucket group (hash modulo the bucket count), which selects
a block page, and to a probe start within that block (hash modulo the slot
count). Probing is linear and stays within the block: when a block fills up,
inserts into its probe region fail rather than spill into a neighbor block.
Removals leave tombstones so probe chains survive them.

A reader/writer latch guards the table structure. Slot-level mutation happens
under the shared mode inside pinned pages; only structural changes, growing
the block list, take the exclusive mode.
*/
type LinearProbeHashTable[K any, V comparable] struct {
	bufferPool   *BufferPool
	headerPageID PageID
	keyCodec     Codec[K]
	valueCodec   Codec[V]
	compare      func(a, b K) int
	slots        uint32
	tableLatch   sync.RWMutex
}

/*
NewLinearProbeHashTable creates a hash table with the given number of
buckets, allocating its header page through the buffer pool. Block pages are
allocated lazily during insertion.
*/
func NewLinearProbeHashTable[K any, V comparable](
	bufferPool *BufferPool,
	numBuckets uint32,
	keyCodec Codec[K],
	valueCodec Codec[V],
	compare func(a, b K) int,
) (*LinearProbeHashTable[K, V], error) {
	if numBuckets == 0 {
		return nil, errors.New("hash table needs at least one bucket")
	}
	if numBuckets > MaxBlockEntries {
		return nil, fmt.Errorf("%d buckets cannot be registered in one header page (max %d)", numBuckets, MaxBlockEntries)
	}

	headerPage, err := bufferPool.NewPage()
	if err != nil {
		return nil, err
	}

	header := NewHashHeaderPage(headerPage)
	header.SetPageID(headerPage.ID())
	header.SetSize(numBuckets)

	if err := bufferPool.UnpinPage(headerPage.ID(), true); err != nil {
		return nil, err
	}

	return &LinearProbeHashTable[K, V]{
		bufferPool:   bufferPool,
		headerPageID: headerPage.ID(),
		keyCodec:     keyCodec,
		valueCodec:   valueCodec,
		compare:      compare,
		slots:        BlockArraySize(keyCodec.EncodedSize() + valueCodec.EncodedSize()),
	}, nil
}

/*
OpenLinearProbeHashTable attaches to an existing hash table whose header
lives at the given page ID.
*/
func OpenLinearProbeHashTable[K any, V comparable](
	bufferPool *BufferPool,
	headerPageID PageID,
	keyCodec Codec[K],
	valueCodec Codec[V],
	compare func(a, b K) int,
) (*LinearProbeHashTable[K, V], error) {
	headerPage, err := bufferPool.FetchPage(headerPageID)
	if err != nil {
		return nil, err
	}

	header := NewHashHeaderPage(headerPage)
	size := header.Size()
	recordedID := header.PageID()

	if err := bufferPool.UnpinPage(headerPageID, false); err != nil {
		return nil, err
	}
	if size == 0 || recordedID != headerPageID {
		return nil, fmt.Errorf("page %d does not hold a hash table header", headerPageID)
	}

	return &LinearProbeHashTable[K, V]{
		bufferPool:   bufferPool,
		headerPageID: headerPageID,
		keyCodec:     keyCodec,
		valueCodec:   valueCodec,
		compare:      compare,
		slots:        BlockArraySize(keyCodec.EncodedSize() + valueCodec.EncodedSize()),
	}, nil
}

// HeaderPageID returns the page ID of the table's header page.
func (h *LinearProbeHashTable[K, V]) HeaderPageID() PageID {
	return h.headerPageID
}

/*
Insert stores a key-value pair.

Returns false if the identical pair is already present, if the probe region
of the target block has no free slot left, or if the buffer pool cannot
serve the required pages.
*/
func (h *LinearProbeHashTable[K, V]) Insert(txn *Transaction, key K, value V) bool {
	headerPage, err := h.bufferPool.FetchPage(h.headerPageID)
	if err != nil {
		return false
	}
	header := NewHashHeaderPage(headerPage)

	hash := h.hashKey(key)
	idx := uint32(hash % uint64(header.Size()))
	offset := uint32(hash % uint64(h.slots))

	h.tableLatch.RLock()
	needExtend := header.NumBlocks() <= idx
	h.tableLatch.RUnlock()

	if needExtend {
		h.tableLatch.Lock()
		ok := h.extendBlocks(header, idx)
		h.tableLatch.Unlock()

		if !ok {
			_ = h.bufferPool.UnpinPage(h.headerPageID, true)
			return false
		}
	}

	h.tableLatch.RLock()
	bucketID := header.BlockPageID(idx)
	blockPage, err := h.bufferPool.FetchPage(bucketID)
	if err != nil {
		h.tableLatch.RUnlock()
		_ = h.bufferPool.UnpinPage(h.headerPageID, true)
		return false
	}
	block := NewHashBlockPage(blockPage, h.keyCodec, h.valueCodec)

	inserted := false
	for iter := offset; iter < h.slots; iter++ {
		if block.IsReadable(iter) && h.compare(block.KeyAt(iter), key) == 0 && block.ValueAt(iter) == value {
			break // identical pair already present
		}
		if block.Insert(iter, key, value) {
			inserted = true
			break
		}
	}
	h.tableLatch.RUnlock()

	_ = h.bufferPool.UnpinPage(bucketID, inserted)
	_ = h.bufferPool.UnpinPage(h.headerPageID, true)

	return inserted
}

/*
GetValue collects the values of every live pair with the given key in the
key's probe region. The second return value indicates whether any were
found.
*/
func (h *LinearProbeHashTable[K, V]) GetValue(txn *Transaction, key K) ([]V, bool) {
	headerPage, err := h.bufferPool.FetchPage(h.headerPageID)
	if err != nil {
		return nil, false
	}
	header := NewHashHeaderPage(headerPage)

	hash := h.hashKey(key)
	idx := uint32(hash % uint64(header.Size()))
	offset := uint32(hash % uint64(h.slots))

	var result []V

	h.tableLatch.RLock()
	bucketID := header.BlockPageID(idx)
	if bucketID != InvalidPageID {
		if blockPage, err := h.bufferPool.FetchPage(bucketID); err == nil {
			block := NewHashBlockPage(blockPage, h.keyCodec, h.valueCodec)

			for iter := offset; iter < h.slots; iter++ {
				if block.IsReadable(iter) && h.compare(block.KeyAt(iter), key) == 0 {
					result = append(result, block.ValueAt(iter))
				}
			}

			_ = h.bufferPool.UnpinPage(bucketID, false)
		}
	}
	h.tableLatch.RUnlock()

	_ = h.bufferPool.UnpinPage(h.headerPageID, false)

	return result, len(result) > 0
}

/*
Remove deletes the first live pair matching both key and value, leaving a
tombstone in its slot. Returns false if no such pair lives in the key's
probe region.
*/
func (h *LinearProbeHashTable[K, V]) Remove(txn *Transaction, key K, value V) bool {
	headerPage, err := h.bufferPool.FetchPage(h.headerPageID)
	if err != nil {
		return false
	}
	header := NewHashHeaderPage(headerPage)

	hash := h.hashKey(key)
	idx := uint32(hash % uint64(header.Size()))
	offset := uint32(hash % uint64(h.slots))

	removed := false

	h.tableLatch.RLock()
	bucketID := header.BlockPageID(idx)
	if bucketID != InvalidPageID {
		if blockPage, err := h.bufferPool.FetchPage(bucketID); err == nil {
			block := NewHashBlockPage(blockPage, h.keyCodec, h.valueCodec)

			for iter := offset; iter < h.slots; iter++ {
				if block.IsReadable(iter) && h.compare(block.KeyAt(iter), key) == 0 && block.ValueAt(iter) == value {
					block.Remove(iter)
					removed = true
					break
				}
			}

			_ = h.bufferPool.UnpinPage(bucketID, removed)
		}
	}
	h.tableLatch.RUnlock()

	_ = h.bufferPool.UnpinPage(h.headerPageID, false)

	return removed
}

/*
GetSize returns the number of block pages registered in the header. Note
that this counts pages, not live entries.
*/
func (h *LinearProbeHashTable[K, V]) GetSize() uint {
	headerPage, err := h.bufferPool.FetchPage(h.headerPageID)
	if err != nil {
		return 0
	}

	h.tableLatch.RLock()
	count := NewHashHeaderPage(headerPage).NumBlocks()
	h.tableLatch.RUnlock()

	_ = h.bufferPool.UnpinPage(h.headerPageID, false)

	return uint(count)
}

/*
Resize is reserved. The table's bucket count is fixed at construction;
growing it would require rehashing every block under the exclusive table
latch, which the base design does not implement.
*/
func (h *LinearProbeHashTable[K, V]) Resize(initialSize uint) {
}

// extendBlocks grows the header's block list until it covers the given
// bucket group index. Callers must hold the table latch exclusively and the
// header page pinned.
func (h *LinearProbeHashTable[K, V]) extendBlocks(header HashHeaderPage, idx uint32) bool {
	for header.NumBlocks() <= idx {
		blockPage, err := h.bufferPool.NewPage()
		if err != nil {
			return false
		}

		// A fresh page is all zeroes, which already is a valid empty block.
		registered := header.AddBlockPageID(blockPage.ID())
		if err := h.bufferPool.UnpinPage(blockPage.ID(), false); err != nil {
			return false
		}
		if !registered {
			return false
		}
	}

	return true
}

// hashKey hashes a key over its encoded form, so that equal keys hash
// equally regardless of their in-memory representation.
func (h *LinearProbeHashTable[K, V]) hashKey(key K) uint64 {
	buf := make([]byte, h.keyCodec.EncodedSize())
	h.keyCodec.Encode(buf, key)

	return xxhash.Sum64(buf)
}
