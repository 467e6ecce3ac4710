package xv6fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tomgrim-xx/xv6fs"
	"github.com/tomgrim-xx/xv6fs/mkfs"
)

// memDevice is an in-memory Device, the test-only stand-in for a real
// disk image, grounded on the teacher's mock_test.go mockReader — same
// idea (simulate the collaborator in memory) applied to a
// read-write device instead of a read-only io.ReaderAt.
type memDevice struct {
	sectorSize int
	data       []byte
}

func newMemDevice(nsectors, sectorSize int) *memDevice {
	return &memDevice{sectorSize: sectorSize, data: make([]byte, nsectors*sectorSize)}
}

func (d *memDevice) SectorSize() int { return d.sectorSize }

func (d *memDevice) ReadSector(secno uint32, buf []byte) error {
	off := int(secno) * d.sectorSize
	copy(buf, d.data[off:off+d.sectorSize])
	return nil
}

func (d *memDevice) WriteSector(secno uint32, buf []byte) error {
	off := int(secno) * d.sectorSize
	copy(d.data[off:off+d.sectorSize], buf)
	return nil
}

func (d *memDevice) Close() error { return nil }

// buildTestImage creates a small on-disk image via mkfs.Build (the
// real offline builder, not a hand-rolled fixture) in t's temp
// directory and returns a mounted *xv6fs.FS over it.
func buildTestImage(t *testing.T, totalBlocks uint32, files ...string) *xv6fs.FS {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.img")
	if err := mkfs.Build(path, xv6fs.BSIZE, totalBlocks, files); err != nil {
		t.Fatalf("mkfs.Build: %v", err)
	}
	dev, err := xv6fs.NewFileDevice(path)
	if err != nil {
		t.Fatalf("NewFileDevice: %v", err)
	}
	fs, err := xv6fs.Mount(dev)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	t.Cleanup(func() { fs.Close() })
	return fs
}

func writeTempFile(t *testing.T, name string, contents []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, contents, 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
