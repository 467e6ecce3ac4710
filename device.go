package xv6fs

import (
	"fmt"
	"io"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Device is the block-device collaborator the file system core reads
// and writes through. It stands in for xv6's IDE driver + buffer cache
// layer, which this package deliberately leaves out of scope: callers
// supply whatever backing store they like (a plain image file, a raw
// block device, an in-memory buffer for tests) as long as it can do
// fixed-size sector I/O.
type Device interface {
	ReadSector(secno uint32, buf []byte) error
	WriteSector(secno uint32, buf []byte) error
	SectorSize() int
	Close() error
}

// FileDevice backs a Device with a plain *os.File — the common case of
// an xv6 disk image sitting on the host file system.
type FileDevice struct {
	mu   sync.Mutex
	f    *os.File
	size int
}

// NewFileDevice opens path for read-write block I/O using a
// BSIZE-sized sector.
func NewFileDevice(path string) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("xv6fs: open device: %w", err)
	}
	return &FileDevice{f: f, size: BSIZE}, nil
}

func (d *FileDevice) SectorSize() int { return d.size }

func (d *FileDevice) ReadSector(secno uint32, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.f.ReadAt(buf[:d.size], int64(secno)*int64(d.size))
	if err != nil && err != io.EOF {
		return fmt.Errorf("xv6fs: read sector %d: %w", secno, err)
	}
	return nil
}

func (d *FileDevice) WriteSector(secno uint32, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.f.WriteAt(buf[:d.size], int64(secno)*int64(d.size)); err != nil {
		return fmt.Errorf("xv6fs: write sector %d: %w", secno, err)
	}
	return nil
}

func (d *FileDevice) Close() error { return d.f.Close() }

// RawDevice backs a Device with a raw block device node (/dev/sdX,
// /dev/loopN, ...), discovering the device's native sector size and
// capacity via ioctl rather than trusting a caller-supplied guess.
type RawDevice struct {
	mu         sync.Mutex
	f          *os.File
	sectorSize int
}

// NewRawDevice opens a block special file and queries its logical
// sector size with BLKSSZGET.
func NewRawDevice(path string) (*RawDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("xv6fs: open raw device: %w", err)
	}
	sz, err := ioctlGetInt(f.Fd(), unix.BLKSSZGET)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("xv6fs: BLKSSZGET: %w", err)
	}
	return &RawDevice{f: f, sectorSize: sz}, nil
}

// Size returns the device's total capacity in bytes via BLKGETSIZE64.
func (d *RawDevice) Size() (uint64, error) {
	var sz uint64
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.f.Fd(), unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&sz)))
	if errno != 0 {
		return 0, fmt.Errorf("xv6fs: BLKGETSIZE64: %w", errno)
	}
	return sz, nil
}

func (d *RawDevice) SectorSize() int { return d.sectorSize }

func (d *RawDevice) ReadSector(secno uint32, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.f.ReadAt(buf[:d.sectorSize], int64(secno)*int64(d.sectorSize))
	if err != nil && err != io.EOF {
		return fmt.Errorf("xv6fs: read sector %d: %w", secno, err)
	}
	return nil
}

func (d *RawDevice) WriteSector(secno uint32, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.f.WriteAt(buf[:d.sectorSize], int64(secno)*int64(d.sectorSize)); err != nil {
		return fmt.Errorf("xv6fs: write sector %d: %w", secno, err)
	}
	return nil
}

func (d *RawDevice) Close() error { return d.f.Close() }

func ioctlGetInt(fd uintptr, req uint) (int, error) {
	var v int32
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(req), uintptr(unsafe.Pointer(&v)))
	if errno != 0 {
		return 0, errno
	}
	return int(v), nil
}
