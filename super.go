package xv6fs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Superblock mirrors xv6's on-disk struct superblock: the handful of
// geometry fields every other layer (bitmap, icache, bmap) derives its
// addressing from.
type Superblock struct {
	Size      uint32 // size of file system image, in blocks
	NBlocks   uint32 // number of data blocks
	NInodes   uint32 // number of inodes
	BlockSize uint32 // block size this image was built with; Mount accepts 0 or BSIZE
}

const superblockBlock = 1

func (s *Superblock) marshalBinary() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:], s.Size)
	binary.LittleEndian.PutUint32(buf[4:], s.NBlocks)
	binary.LittleEndian.PutUint32(buf[8:], s.NInodes)
	binary.LittleEndian.PutUint32(buf[12:], s.BlockSize)
	return buf
}

func (s *Superblock) unmarshalBinary(data []byte) error {
	if len(data) < 16 {
		return fmt.Errorf("xv6fs: superblock block too short")
	}
	r := bytes.NewReader(data[:16])
	fields := []*uint32{&s.Size, &s.NBlocks, &s.NInodes, &s.BlockSize}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return fmt.Errorf("xv6fs: decode superblock: %w", err)
		}
	}
	return nil
}

// FS is a mounted file system: the superblock, the block device it
// reads and writes through, the in-memory inode cache, and the device
// switch table. This is the handle every exported operation hangs off
// of, replacing the global statics xv6's single-file-system kernel
// gets away with.
type FS struct {
	dev Device
	sb  Superblock

	icache ICache
	devsw  [NDevDefault]DevHandler

	cgMu    sync.Mutex
	cgstats []groupStats

	log *logrus.Entry
}

// groupStats is the in-memory-only per-cylinder-group bookkeeping that
// guides directory placement: usedInodes and dirCount, maintained by
// Mount's initial scan and kept current by Ialloc.
type groupStats struct {
	usedInodes uint32
	dirCount   uint32
}

// Mount reads and validates the superblock from dev and brings up the
// in-memory inode cache, the Go equivalent of xv6's fs_init().
func Mount(dev Device, opts ...Option) (*FS, error) {
	fs := &FS{dev: dev}
	fs.icache.size = NInodeDefault
	fs.log = logrus.WithField("component", "xv6fs")

	for _, opt := range opts {
		opt(fs)
	}

	b, err := fs.readBlock(superblockBlock)
	if err != nil {
		return nil, fmt.Errorf("xv6fs: read superblock: %w", err)
	}
	if err := fs.sb.unmarshalBinary(b.data[:]); err != nil {
		fs.release(b)
		return nil, err
	}
	fs.release(b)

	if fs.sb.BlockSize != 0 && fs.sb.BlockSize != BSIZE {
		return nil, fmt.Errorf("xv6fs: image block size %d does not match compiled BSIZE %d", fs.sb.BlockSize, BSIZE)
	}

	fs.icache.init(fs.icache.size)

	if err := fs.initGroupStats(); err != nil {
		return nil, err
	}

	fs.log.WithFields(logrus.Fields{
		"size":    fs.sb.Size,
		"nblocks": fs.sb.NBlocks,
		"ninodes": fs.sb.NInodes,
	}).Info("mounted file system")

	return fs, nil
}

// Close releases the underlying device. Any outstanding *Inode
// references become invalid.
func (fs *FS) Close() error {
	return fs.dev.Close()
}

// Superblock returns a copy of the mounted file system's geometry.
func (fs *FS) Superblock() Superblock {
	return fs.sb
}
