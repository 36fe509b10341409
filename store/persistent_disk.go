package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
)

const metaStoreFile = "store.meta"
const pageStoreFile = "pages.data"

/*
PersistentDisk is a disk backed by a directory on the file system.

The directory holds two files: a meta data file recording the allocation
state, and a page file holding one PageSize slot per allocated page ID. A
slot starts with the page's ID plus one (so an all-zero, never-written slot
is distinguishable from a slot holding page 0) and a CRC32 checksum of the
payload, followed by the payload itself.

Pages of deallocated IDs keep their slot; the ID is retired and never handed
out again.
*/
type PersistentDisk struct {
	Directory          string
	nextPageID         PageID
	deallocatedPageIDs []PageID
	pageFile           *os.File
}

func NewPersistentDisk(directory string) (*PersistentDisk, error) {
	d := &PersistentDisk{
		Directory:          directory,
		deallocatedPageIDs: make([]PageID, 0),
	}

	err := d.initialize()

	return d, err
}

func (d *PersistentDisk) initialize() error {
	file, err := os.Open(d.metaFilePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Initializing a new store in this directory. Currently this
			// only involves us dumping our current meta data to disk.
			if err := d.storeMetaData(); err != nil {
				return err
			}
		} else {
			return fmt.Errorf("unexpected IO error while checking existence of meta data file: %v", err)
		}
	} else {
		// File exists, so there's already a store present in this directory.
		// Close file, and load meta data from disk.
		file.Close()
		if err := d.loadMetaData(); err != nil {
			return err
		}
	}

	d.pageFile, err = os.OpenFile(d.pageFilePath(), os.O_RDWR|os.O_CREATE, 0660)
	if err != nil {
		return fmt.Errorf("IO error while opening page file: %v", err)
	}

	return nil
}

func (d *PersistentDisk) AllocatePage() (*Page, error) {
	if uint32(d.nextPageID) >= d.Capacity() {
		return nil, errors.New("unable to allocate page on disk")
	}

	p := &Page{id: d.nextPageID}
	d.nextPageID++

	return p, nil
}

func (d *PersistentDisk) DeallocatePage(id PageID) {
	if id < 0 || id >= d.nextPageID {
		return
	}
	for _, existing := range d.deallocatedPageIDs {
		if existing == id {
			return
		}
	}

	d.deallocatedPageIDs = append(d.deallocatedPageIDs, id)
}

func (d *PersistentDisk) ReadPage(id PageID) (*Page, error) {
	if id < 0 || id >= d.nextPageID {
		return nil, errors.New("page not found")
	}
	for _, deallocated := range d.deallocatedPageIDs {
		if deallocated == id {
			return nil, errors.New("page not found")
		}
	}

	buf := make([]byte, PageSize)
	n, err := d.pageFile.ReadAt(buf, int64(id)*PageSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("IO error while reading page %d: %v", id, err)
	}
	if n < PageSize {
		// Slot was never written; the page reads back zeroed.
		return &Page{id: id}, nil
	}

	marker := binary.BigEndian.Uint32(buf[0:4])
	checksum := binary.BigEndian.Uint32(buf[4:8])
	if marker == 0 {
		// Slot exists but was never written.
		return &Page{id: id}, nil
	}
	if PageID(marker-1) != id {
		return nil, fmt.Errorf("page file corrupted: slot %d holds page %d", id, marker-1)
	}
	if checksum != crc32.ChecksumIEEE(buf[PageMetadataSize:]) {
		return nil, fmt.Errorf("page file corrupted: checksum mismatch on page %d", id)
	}

	p := &Page{id: id}
	copy(p.data[:], buf[PageMetadataSize:])

	return p, nil
}

func (d *PersistentDisk) WritePage(page *Page) error {
	if page.id < 0 || page.id >= d.nextPageID {
		return errors.New("page not allocated")
	}

	buf := make([]byte, PageSize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(page.id)+1)
	copy(buf[PageMetadataSize:], page.data[:])
	binary.BigEndian.PutUint32(buf[4:8], crc32.ChecksumIEEE(buf[PageMetadataSize:]))

	if _, err := d.pageFile.WriteAt(buf, int64(page.id)*PageSize); err != nil {
		return fmt.Errorf("IO error while writing page %d: %v", page.id, err)
	}

	return nil
}

func (d *PersistentDisk) Occupied() uint32 {
	return uint32(d.nextPageID) - uint32(len(d.deallocatedPageIDs))
}

func (d *PersistentDisk) Capacity() uint32 {
	return MaxPagesOnDisk
}

func (d *PersistentDisk) Close() error {
	if err := d.storeMetaData(); err != nil {
		return err
	}

	return d.pageFile.Close()
}

// loadMetaData loads the disk's meta data from file.
func (d *PersistentDisk) loadMetaData() error {
	data, err := os.ReadFile(d.metaFilePath())
	if err != nil {
		return fmt.Errorf("IO error while trying to read meta data: %v", err)
	}

	return d.decodeMetaData(data)
}

// storeMetaData stores the disk's meta data to file.
func (d *PersistentDisk) storeMetaData() error {
	metaData := d.encodeMetaData()

	err := os.WriteFile(d.metaFilePath(), metaData, 0660)
	if err != nil {
		return fmt.Errorf("IO error while trying to write meta data: %v", err)
	}

	return nil
}

// encodeMetaData encodes the disk's meta data into a byte slice.
func (d *PersistentDisk) encodeMetaData() []byte {
	// 4 bytes for nextPageID
	// 8 bytes for length of deallocatedPageIDs
	// 4 bytes for each entry in deallocatedPageIDs
	// 4 bytes checksum
	dataLength := 4 + 8 + len(d.deallocatedPageIDs)*4 + 4
	data := make([]byte, dataLength)

	binary.BigEndian.PutUint32(data[0:4], uint32(d.nextPageID))
	binary.BigEndian.PutUint64(data[4:12], uint64(len(d.deallocatedPageIDs)))
	for i, id := range d.deallocatedPageIDs {
		binary.BigEndian.PutUint32(data[12+i*4:12+(i+1)*4], uint32(id))
	}

	// Take care not to include the 4 0x00 bytes where the checksum will be
	// placed *in* the checksum.
	checksum := crc32.ChecksumIEEE(data[:dataLength-4])
	binary.BigEndian.PutUint32(data[dataLength-4:], checksum)

	return data
}

// decodeMetaData decodes meta data and sets the disk's meta data to it.
//
// If the provided binary data is not a valid encoding, an error is returned.
// The disk's meta data is not affected if this is the case.
func (d *PersistentDisk) decodeMetaData(data []byte) error {
	if len(data) < 16 {
		return fmt.Errorf("meta data truncated: %d bytes", len(data))
	}

	checksum := binary.BigEndian.Uint32(data[len(data)-4:])
	data = data[:len(data)-4]

	newChecksum := crc32.ChecksumIEEE(data)
	if checksum != newChecksum {
		return fmt.Errorf("meta data corrupted: checksum %x, expected %x", newChecksum, checksum)
	}

	nextPageID := PageID(binary.BigEndian.Uint32(data[0:4]))
	count := binary.BigEndian.Uint64(data[4:12])
	if uint64(len(data)-12) != count*4 {
		return fmt.Errorf("meta data corrupted: %d deallocated entries, %d bytes", count, len(data)-12)
	}

	deallocated := make([]PageID, count)
	for i := range deallocated {
		deallocated[i] = PageID(binary.BigEndian.Uint32(data[12+i*4 : 12+(i+1)*4]))
	}

	d.nextPageID = nextPageID
	d.deallocatedPageIDs = deallocated

	return nil
}

func (d *PersistentDisk) metaFilePath() string {
	return filepath.Join(d.Directory, metaStoreFile)
}

func (d *PersistentDisk) pageFilePath() string {
	return filepath.Join(d.Directory, pageStoreFile)
}
