package store

import (
	"errors"
	"fmt"

	"github.com/tobiasfamos/HashStore/util"
)

const MaxMem = 1 << (10 * 3) // Do not allow stores to use more than 1GB of memory
const DefaultPath = "."      // Default to current working directory to persist the store

// DefaultNumBuckets is the bucket count used when a config does not set one.
const DefaultNumBuckets = 128

// defaultMemorySize is the buffer pool budget used by Open, which has no
// config parameter.
const defaultMemorySize = 1 << 20

// KeyValueStore defines the interface to be implemented by the KV store.
type KeyValueStore interface {
	// Put stores a new item with given key and value in the KV store. If
	// an item with the identical key and value already exists, an error
	// is returned.
	Put(key uint64, value [10]byte) error

	// Get retrieves an item with given key from the KV store. If no item
	// with the requested key exists, an error is returned.
	Get(key uint64) ([10]byte, error)

	// Remove deletes the item with the given key and value from the KV
	// store. If no such item exists, an error is returned.
	Remove(key uint64, value [10]byte) error

	// Create initializes a new instance of the KV store with the supplied
	// parameters. If creation fails, an error is returned.
	Create(config StoreConfig) error

	// Open opens an existing KV store from disk. If loading fails, an
	// error is returned.
	Open(path string) error

	// Close persists the active KV store to disk and unloads it. If it
	// fails, an error is returned.
	Close() error
}

// StoreConfig carries the parameters for creating a store.
type StoreConfig struct {
	// MemorySize is the memory budget for the buffer pool, in bytes.
	MemorySize uint
	// WorkingDirectory is where the store persists its pages.
	WorkingDirectory string
	// NumBuckets is the hash index's bucket count; 0 picks the default.
	NumBuckets uint32
}

/*
HashStore is a persistent key-value store backed by a linear-probe hash
index over a buffer pool with clock eviction.

The index's header page is the first page allocated on a fresh disk, so
reopening a store finds it at page 0.
*/
type HashStore struct {
	disk       *PersistentDisk
	bufferPool *BufferPool
	table      *LinearProbeHashTable[uint64, [10]byte]
}

func (s *HashStore) Create(config StoreConfig) error {
	if config.MemorySize > MaxMem {
		return fmt.Errorf("memory size %d exceeds limit of %d", config.MemorySize, MaxMem)
	}

	disk, err := NewPersistentDisk(config.WorkingDirectory)
	if err != nil {
		return err
	}
	if disk.Occupied() > 0 {
		return fmt.Errorf("directory %s already holds a store; use Open", config.WorkingDirectory)
	}

	numBuckets := config.NumBuckets
	if numBuckets == 0 {
		numBuckets = DefaultNumBuckets
	}

	bufferPool := s.newBufferPool(config.MemorySize, disk)
	table, err := NewLinearProbeHashTable[uint64, [10]byte](
		bufferPool, numBuckets, Uint64Codec{}, Bytes10Codec{}, CompareUint64,
	)
	if err != nil {
		return errors.Join(err, disk.Close())
	}

	s.disk = disk
	s.bufferPool = bufferPool
	s.table = table

	return nil
}

func (s *HashStore) Open(path string) error {
	disk, err := NewPersistentDisk(path)
	if err != nil {
		return err
	}
	if disk.Occupied() == 0 {
		return errors.Join(
			fmt.Errorf("directory %s does not hold a store; use Create", path),
			disk.Close(),
		)
	}

	bufferPool := s.newBufferPool(defaultMemorySize, disk)
	table, err := OpenLinearProbeHashTable[uint64, [10]byte](
		bufferPool, 0, Uint64Codec{}, Bytes10Codec{}, CompareUint64,
	)
	if err != nil {
		return errors.Join(err, disk.Close())
	}

	s.disk = disk
	s.bufferPool = bufferPool
	s.table = table

	return nil
}

func (s *HashStore) Put(key uint64, value [10]byte) error {
	if !s.table.Insert(nil, key, value) {
		return fmt.Errorf("unable to insert key %d: duplicate entry or bucket full", key)
	}

	return nil
}

func (s *HashStore) Get(key uint64) ([10]byte, error) {
	values, ok := s.table.GetValue(nil, key)
	if !ok {
		return [10]byte{}, fmt.Errorf("key %d not found", key)
	}

	return values[0], nil
}

func (s *HashStore) Remove(key uint64, value [10]byte) error {
	if !s.table.Remove(nil, key, value) {
		return fmt.Errorf("no entry with key %d and the given value", key)
	}

	return nil
}

func (s *HashStore) Close() error {
	var errs []error
	errs = append(errs, s.bufferPool.FlushAllPages()...)
	errs = append(errs, s.disk.Close())

	return errors.Join(errs...)
}

// newBufferPool sizes a buffer pool to the given memory budget. At least two
// frames are needed to hold a header and a block page at once.
func (s *HashStore) newBufferPool(memorySize uint, disk Disk) *BufferPool {
	poolSize := util.Max(uint(2), memorySize/PageSize)

	return NewBufferPool(poolSize, disk, NewClockReplacer(poolSize), NewLogManager(nil))
}
