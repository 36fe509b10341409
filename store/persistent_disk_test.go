package store

import (
	"os"
	"testing"
)

func TestPersistentDisk_WriteReadPage(t *testing.T) {
	disk, err := NewPersistentDisk(t.TempDir())
	if err != nil {
		t.Fatalf("Actual error = %s, Expected == nil", err)
	}
	defer disk.Close()

	page, err := disk.AllocatePage()
	if err != nil {
		t.Fatalf("Actual error = %s, Expected == nil", err)
	}
	copy(page.data[0:5], "HELLO")

	if err := disk.WritePage(page); err != nil {
		t.Fatalf("Actual error = %s, Expected == nil", err)
	}

	read, err := disk.ReadPage(page.id)
	if err != nil {
		t.Fatalf("Actual error = %s, Expected == nil", err)
	}
	if string(read.data[0:5]) != "HELLO" {
		t.Errorf("Actual data = %q, Expected == \"HELLO\"", read.data[0:5])
	}
}

func TestPersistentDisk_ReadUnwrittenPage(t *testing.T) {
	disk, err := NewPersistentDisk(t.TempDir())
	if err != nil {
		t.Fatalf("Actual error = %s, Expected == nil", err)
	}
	defer disk.Close()

	page, _ := disk.AllocatePage()

	read, err := disk.ReadPage(page.id)
	if err != nil {
		t.Fatalf("Actual error = %s, Expected == nil", err)
	}
	if read.data != [PageDataSize]byte{} {
		t.Errorf("Unwritten page should read back zeroed")
	}

	if _, err := disk.ReadPage(42); err == nil {
		t.Errorf("Actual error = nil, Expected == page not found")
	}
}

func TestPersistentDisk_Reopen(t *testing.T) {
	dir := t.TempDir()

	disk, err := NewPersistentDisk(dir)
	if err != nil {
		t.Fatalf("Actual error = %s, Expected == nil", err)
	}

	var lastID PageID
	for i := 0; i < 3; i++ {
		page, err := disk.AllocatePage()
		if err != nil {
			t.Fatalf("Actual error = %s, Expected == nil", err)
		}
		page.data[0] = byte(i + 1)
		if err := disk.WritePage(page); err != nil {
			t.Fatalf("Actual error = %s, Expected == nil", err)
		}
		lastID = page.id
	}
	disk.DeallocatePage(0)

	if err := disk.Close(); err != nil {
		t.Fatalf("Actual error = %s, Expected == nil", err)
	}

	// the allocation state survives a reopen
	disk, err = NewPersistentDisk(dir)
	if err != nil {
		t.Fatalf("Actual error = %s, Expected == nil", err)
	}
	defer disk.Close()

	if disk.Occupied() != 2 {
		t.Errorf("Actual occupied = %d, Expected == 2", disk.Occupied())
	}

	page, err := disk.AllocatePage()
	if err != nil {
		t.Fatalf("Actual error = %s, Expected == nil", err)
	}
	if page.id != lastID+1 {
		t.Errorf("Actual PageID = %d, Expected == %d", page.id, lastID+1)
	}

	read, err := disk.ReadPage(lastID)
	if err != nil {
		t.Fatalf("Actual error = %s, Expected == nil", err)
	}
	if read.data[0] != 3 {
		t.Errorf("Actual data[0] = %d, Expected == 3", read.data[0])
	}
}

func TestPersistentDisk_CorruptedMetaData(t *testing.T) {
	dir := t.TempDir()

	disk, err := NewPersistentDisk(dir)
	if err != nil {
		t.Fatalf("Actual error = %s, Expected == nil", err)
	}
	_, _ = disk.AllocatePage()
	if err := disk.Close(); err != nil {
		t.Fatalf("Actual error = %s, Expected == nil", err)
	}

	// flip a byte in the meta file
	path := disk.metaFilePath()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Actual error = %s, Expected == nil", err)
	}
	data[0] ^= 0xFF
	if err := os.WriteFile(path, data, 0660); err != nil {
		t.Fatalf("Actual error = %s, Expected == nil", err)
	}

	if _, err := NewPersistentDisk(dir); err == nil {
		t.Errorf("Actual error = nil, Expected == meta data corrupted")
	}
}
