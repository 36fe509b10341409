package store

import (
	"encoding/binary"
)

/*
following results stem from a 4088-byte data buffer with
- 4-byte own page ID
- 4-byte bucket count
- 4-byte block count
*/

// headerBlockIDsStart is the byte offset of the block page ID array within
// the header page's data.
const headerBlockIDsStart = 12

// MaxBlockEntries is the number of block page IDs a header page can register.
const MaxBlockEntries = (PageDataSize - headerBlockIDsStart) / 4

/*
HashHeaderPage is a typed view over the pinned page holding a hash table's
header.

Header layout:

	[ pageID (4) | size (4) | numBlocks (4) | blockPageIDs (4 each) ]

The view decodes and encodes in place; callers must hold a pin on the
underlying page and unpin it dirty after mutating.
*/
type HashHeaderPage struct {
	page *Page
}

func NewHashHeaderPage(page *Page) HashHeaderPage {
	return HashHeaderPage{page: page}
}

// PageID returns the header's own page ID as recorded on the page.
func (h HashHeaderPage) PageID() PageID {
	return PageID(int32(binary.BigEndian.Uint32(h.page.data[0:4])))
}

func (h HashHeaderPage) SetPageID(id PageID) {
	binary.BigEndian.PutUint32(h.page.data[0:4], uint32(id))
}

// Size returns the number of buckets the hash table was created with.
func (h HashHeaderPage) Size() uint32 {
	return binary.BigEndian.Uint32(h.page.data[4:8])
}

func (h HashHeaderPage) SetSize(size uint32) {
	binary.BigEndian.PutUint32(h.page.data[4:8], size)
}

// NumBlocks returns the number of block pages registered so far.
func (h HashHeaderPage) NumBlocks() uint32 {
	return binary.BigEndian.Uint32(h.page.data[8:12])
}

// BlockPageID returns the page ID of the block at the given index, or
// InvalidPageID if the index is out of range.
func (h HashHeaderPage) BlockPageID(index uint32) PageID {
	if index >= h.NumBlocks() {
		return InvalidPageID
	}

	offset := headerBlockIDsStart + index*4
	return PageID(int32(binary.BigEndian.Uint32(h.page.data[offset : offset+4])))
}

// AddBlockPageID registers a newly allocated block page. Returns false if
// the header is full.
func (h HashHeaderPage) AddBlockPageID(id PageID) bool {
	numBlocks := h.NumBlocks()
	if numBlocks >= MaxBlockEntries {
		return false
	}

	offset := headerBlockIDsStart + numBlocks*4
	binary.BigEndian.PutUint32(h.page.data[offset:offset+4], uint32(id))
	binary.BigEndian.PutUint32(h.page.data[8:12], numBlocks+1)

	return true
}
