package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
)

// ErrNoFreeFrame is returned when every buffer frame is pinned and none can
// be evicted.
var ErrNoFreeFrame = errors.New("unable to reserve buffer frame")

// ErrPageNotFound is returned when an operation requires a page to be
// resident in the buffer pool and it is not.
var ErrPageNotFound = errors.New("page not found")

/*
BufferPool is a cache-like structure that buffers Pages from a Disk.

It owns a fixed array of frames, a page table mapping resident page IDs to
frames, and a free list of unused frames. Frames are handed out from the free
list first; once that is exhausted, the eviction policy elects a victim,
which is written back if dirty.

A single mutex guards the frame array and free list. The page table is a
concurrent map so that resident lookups stay cheap.
*/
type BufferPool struct {
	mu         sync.Mutex
	disk       Disk
	pages      []*Page
	pageTable  *xsync.MapOf[PageID, FrameID]
	eviction   CacheEviction
	freeFrames []FrameID
	log        *LogManager
}

/*
NewBufferPool creates a new buffer pool with a given size (number of pages).

The log manager may be nil.
*/
func NewBufferPool(size uint, disk Disk, eviction CacheEviction, log *LogManager) *BufferPool {
	freeFrames := make([]FrameID, size)
	for i := range freeFrames {
		freeFrames[i] = FrameID(i)
	}

	return &BufferPool{
		disk:       disk,
		pages:      make([]*Page, size),
		pageTable:  xsync.NewMapOf[PageID, FrameID](),
		eviction:   eviction,
		freeFrames: freeFrames,
		log:        log,
	}
}

/*
NewPage allocates a new page on the disk and caches it in the buffer pool.

The returned page is pinned once and zero-initialized.

This method returns an error if there are
- no free frames and no frame can be evicted from the buffer, or
- the disk cannot allocate a new page.
*/
func (b *BufferPool) NewPage() (*Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID, err := b.getFrame()
	if err != nil {
		return nil, err
	}

	page, err := b.disk.AllocatePage()
	if err != nil {
		b.freeFrames = append(b.freeFrames, *frameID)
		return nil, err
	}

	page.pinCount = 1
	b.eviction.Remove(*frameID)
	b.pageTable.Store(page.id, *frameID)
	b.pages[*frameID] = page

	return page, nil
}

/*
FetchPage fetches a page from the buffer cache or from disk.

The returned page is pinned; every successful fetch must be paired with
exactly one UnpinPage.

This method returns an error if there are
- no free frames and no frame can be evicted from the buffer, or
- the page cannot be found on disk.
*/
func (b *BufferPool) FetchPage(pageID PageID) (*Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// try fetch from cache
	if frameID, ok := b.pageTable.Load(pageID); ok {
		page := b.pages[frameID]
		page.pinCount++
		b.eviction.Remove(frameID)

		return page, nil
	}

	frameID, err := b.getFrame()
	if err != nil {
		return nil, err
	}

	// try fetch from disk
	page, err := b.disk.ReadPage(pageID)
	if err != nil {
		// The reserved frame holds no page, so it must not become an
		// eviction candidate; back to the free list instead.
		b.freeFrames = append(b.freeFrames, *frameID)
		return nil, err
	}

	page.pinCount++
	b.eviction.Remove(*frameID)
	b.pageTable.Store(pageID, *frameID)
	b.pages[*frameID] = page

	return page, nil
}

/*
UnpinPage unpins a page for the current caller, potentially flagging the page
as dirty. Once the pin count drops to zero the page is up for eviction.

Unpinning a page that is not resident is a no-op; some callers legitimately
double-unpin. Unpinning a resident page whose pin count is already zero is a
caller bug and returns an error.
*/
func (b *BufferPool) UnpinPage(pageID PageID, isDirty bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID, ok := b.pageTable.Load(pageID)
	if !ok {
		return nil
	}

	page := b.pages[frameID]
	if page.pinCount == 0 {
		b.log.Error("unpin of page with zero pin count", "page", pageID)
		return fmt.Errorf("page %d is not pinned", pageID)
	}

	page.decrementPinCount()
	page.isDirty = page.isDirty || isDirty

	if page.pinCount == 0 {
		b.eviction.Add(frameID)
	}

	return nil
}

/*
FlushPage writes a resident dirty page through to disk and marks it clean.
Flushing a resident clean page is a no-op.

Returns ErrPageNotFound if the page is not resident.
*/
func (b *BufferPool) FlushPage(pageID PageID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	frameID, ok := b.pageTable.Load(pageID)
	if !ok {
		return ErrPageNotFound
	}

	return b.flushFrame(frameID)
}

/*
FlushAllPages writes every resident dirty page through to disk.

Returns an array of potential errors that happened.
*/
func (b *BufferPool) FlushAllPages() []error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	b.pageTable.Range(func(_ PageID, frameID FrameID) bool {
		if err := b.flushFrame(frameID); err != nil {
			errs = append(errs, err)
		}
		return true
	})

	return errs
}

/*
DeletePage deletes a page from the buffer pool and disk.

Deleting a page that is not resident is a no-op. A pinned page cannot be
deleted; the caller must retry after unpinning.
*/
func (b *BufferPool) DeletePage(pageID PageID) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if pageID == InvalidPageID {
		return nil
	}

	frameID, ok := b.pageTable.Load(pageID)
	if !ok {
		return nil
	}

	page := b.pages[frameID]
	if page.pinCount > 0 {
		return errors.New("page cannot be deleted from buffer: pin count > 0")
	}
	if page.id != pageID {
		return fmt.Errorf("inconsistent state: page.id (%d) != pageID (%d)", page.id, pageID)
	}

	b.disk.DeallocatePage(pageID)
	b.pageTable.Delete(pageID)
	b.eviction.Remove(frameID)
	b.pages[frameID] = nil
	b.freeFrames = append(b.freeFrames, frameID)

	return nil
}

/*
getFrame reserves a frame, either from the free list or by evicting a victim
elected by the eviction policy. An evicted page is written back to disk first
if dirty, and its page table entry is removed.

Callers must hold b.mu. Upon any error the caller owns no frame.
*/
func (b *BufferPool) getFrame() (*FrameID, error) {
	if len(b.freeFrames) > 0 {
		frameID := b.freeFrames[0]
		b.freeFrames = b.freeFrames[1:]
		return &frameID, nil
	}

	frameID := b.eviction.Victim()
	if frameID == nil {
		return nil, ErrNoFreeFrame
	}

	page := b.pages[*frameID]
	if page != nil {
		if page.isDirty {
			page.isDirty = false
			if err := b.disk.WritePage(page); err != nil {
				page.isDirty = true
				b.eviction.Add(*frameID)
				return nil, err
			}
		}

		b.pageTable.Delete(page.id)
		b.pages[*frameID] = nil
	}

	return frameID, nil
}

// flushFrame writes the frame's page to disk if dirty. Callers must hold b.mu.
func (b *BufferPool) flushFrame(frameID FrameID) error {
	page := b.pages[frameID]
	if !page.isDirty {
		return nil
	}

	page.isDirty = false
	if err := b.disk.WritePage(page); err != nil {
		page.isDirty = true
		return err
	}

	return nil
}
