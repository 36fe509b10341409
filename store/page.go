package store

// PageSize is the default page size of a whole page.
const PageSize = 4096

// PageMetadataSize is the size of the page metadata. Equivalent to the starting index of page data.
const PageMetadataSize = 8

// PageDataSize is the buffer size for data to be stored in a Page.
const PageDataSize = PageSize - PageMetadataSize

// PageID identifies a page on disk. IDs are allocated by a Disk and never
// invented by the buffer pool.
type PageID int32

// InvalidPageID marks a frame or reference that holds no page.
const InvalidPageID PageID = -1

// FrameID is the cache frame ID (index) associated with a Page.
type FrameID uint32

/*
Page is a fixed-length block of PageSize that contains some bytes of metadata and a large data buffer of PageDataSize.
*/
type Page struct {
	// id of the page.
	id PageID
	// pinCount tracks the number of concurrent accesses.
	pinCount uint16
	// isDirty indicates the page was modified after being read.
	isDirty bool
	// data stores the raw page data.
	data [PageDataSize]byte
}

// ID returns the page's ID.
func (p *Page) ID() PageID {
	return p.id
}

// PinCount returns the number of active pins on the page.
func (p *Page) PinCount() uint16 {
	return p.pinCount
}

// IsDirty indicates whether the page was modified since it was last read
// from, or written to, disk.
func (p *Page) IsDirty() bool {
	return p.isDirty
}

// Data returns the page's data buffer. Callers must hold a pin while reading
// or writing it.
func (p *Page) Data() *[PageDataSize]byte {
	return &p.data
}

// decrementPinCount decrements the pin count unless it was 0 already.
func (p *Page) decrementPinCount() {
	if p.pinCount > 0 {
		p.pinCount--
	}
}

// clone returns an unpinned, clean copy of the page's ID and data.
func (p *Page) clone() *Page {
	c := &Page{id: p.id}
	c.data = p.data
	return c
}
