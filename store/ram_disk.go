package store

import (
	"errors"
)

/*
RAMDisk is a memory mock of a disk.

Written pages are stored as snapshots, and reads hand out copies, so that a
page living in a buffer frame never aliases the disk's copy. Allocated pages
that were never written read back zeroed, like a freshly extended file.
*/
type RAMDisk struct {
	capacity    uint32
	nextPageID  PageID
	deallocated map[PageID]bool
	pages       map[PageID]*Page
}

func NewRAMDisk(initialSize uint32, capacity uint32) *RAMDisk {
	return &RAMDisk{
		capacity:    capacity,
		nextPageID:  0,
		deallocated: make(map[PageID]bool),
		pages:       make(map[PageID]*Page, initialSize),
	}
}

func (r *RAMDisk) AllocatePage() (*Page, error) {
	if uint32(r.nextPageID) >= r.capacity {
		return nil, errors.New("unable to allocate page on RAM disk")
	}

	page := &Page{id: r.nextPageID}
	r.nextPageID++

	return page, nil
}

func (r *RAMDisk) DeallocatePage(id PageID) {
	if id < 0 || id >= r.nextPageID || r.deallocated[id] {
		return
	}

	delete(r.pages, id)
	r.deallocated[id] = true
}

func (r *RAMDisk) ReadPage(id PageID) (*Page, error) {
	if id < 0 || id >= r.nextPageID || r.deallocated[id] {
		return nil, errors.New("page not found")
	}

	if page, ok := r.pages[id]; ok {
		return page.clone(), nil
	}

	// allocated but never written
	return &Page{id: id}, nil
}

func (r *RAMDisk) WritePage(page *Page) error {
	if page.id < 0 || page.id >= r.nextPageID || r.deallocated[page.id] {
		return errors.New("page not allocated")
	}

	r.pages[page.id] = page.clone()

	return nil
}

func (r *RAMDisk) Occupied() uint32 {
	return uint32(r.nextPageID) - uint32(len(r.deallocated))
}

func (r *RAMDisk) Capacity() uint32 {
	return r.capacity
}

func (r *RAMDisk) Close() error {
	return nil
}
