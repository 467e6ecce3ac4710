// Package mkfs builds xv6fs disk images offline, the Go counterpart
// of xv6's mkfs.c: write zeroed blocks, lay down the superblock, seed
// the root directory, append each input file as a flat regular file
// in the root, and finally write the free-block bitmap.
package mkfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tomgrim-xx/xv6fs"
)

// Builder holds the in-progress state of one image build, the
// equivalent of mkfs.c's file-scope globals (freeblock, freeinode,
// usedblocks, ...) gathered into a value instead of package state so
// multiple builds can run concurrently.
type Builder struct {
	f *os.File

	size      uint32
	nblocks   uint32
	ninodes   uint32
	freeblock uint32
	freeinode uint32

	used map[uint32]bool
}

// defaultNInodes picks an inode budget large enough for a handful of
// cylinder groups without wasting most of a small image on an inode
// table: one group's worth, or the whole image's worth of 4-block
// chunks, whichever is smaller.
func defaultNInodes(totalBlocks uint32) uint32 {
	n := totalBlocks / 4
	if n < 16 {
		n = 16
	}
	if n > xv6fs.IPCG {
		n = xv6fs.IPCG
	}
	return n
}

// Build creates imagePath, sized totalBlocks*blockSize bytes, and
// populates it with a root directory containing each of files (its
// basename, with a single leading underscore stripped the way xv6's
// mkfs.c drops the "_cat"/"_rm" build-binary prefix). blockSize must
// equal xv6fs.BSIZE; it is accepted as a parameter only to preserve
// the CLI contract's historical signature.
func Build(imagePath string, blockSize int, totalBlocks uint32, files []string) error {
	return BuildWithInodes(imagePath, blockSize, totalBlocks, defaultNInodes(totalBlocks), files)
}

// BuildWithInodes is Build with an explicit inode budget, for callers
// that need an image spanning a chosen number of cylinder groups (for
// instance to exercise xv6fs's directory-placement policy, which only
// spreads load across groups once ninodes exceeds one group's worth).
func BuildWithInodes(imagePath string, blockSize int, totalBlocks, ninodes uint32, files []string) error {
	if blockSize != xv6fs.BSIZE {
		return fmt.Errorf("mkfs: block size %d does not match xv6fs.BSIZE %d", blockSize, xv6fs.BSIZE)
	}

	f, err := os.OpenFile(imagePath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return fmt.Errorf("mkfs: create image: %w", err)
	}
	defer f.Close()

	b := &Builder{
		f:       f,
		size:    totalBlocks,
		ninodes: ninodes,
		used:    make(map[uint32]bool),
	}

	ninodeBlocks := (b.ninodes + xv6fs.IPB - 1) / xv6fs.IPB
	nbitmapBlocks := (totalBlocks + xv6fs.CGSize - 1) / xv6fs.CGSize
	usedBlocks := 2 + ninodeBlocks + nbitmapBlocks
	if usedBlocks >= totalBlocks {
		return fmt.Errorf("mkfs: image too small: need at least %d blocks of metadata, got %d total", usedBlocks, totalBlocks)
	}
	b.nblocks = totalBlocks - usedBlocks
	b.freeblock = usedBlocks

	zero := make([]byte, xv6fs.BSIZE)
	for i := uint32(0); i < totalBlocks; i++ {
		if err := b.wsect(i, zero); err != nil {
			return err
		}
	}

	sbBuf := make([]byte, xv6fs.BSIZE)
	putU32(sbBuf[0:], b.size)
	putU32(sbBuf[4:], b.nblocks)
	putU32(sbBuf[8:], b.ninodes)
	putU32(sbBuf[12:], xv6fs.BSIZE)
	if err := b.wsect(1, sbBuf); err != nil {
		return err
	}

	rootino, err := b.ialloc(xv6fs.TDir)
	if err != nil {
		return err
	}
	if rootino != xv6fs.RootIno {
		return fmt.Errorf("mkfs: internal error: root inode is %d, want %d", rootino, xv6fs.RootIno)
	}

	if err := b.appendDirent(rootino, ".", rootino); err != nil {
		return err
	}
	if err := b.appendDirent(rootino, "..", rootino); err != nil {
		return err
	}

	for _, path := range files {
		name := filepath.Base(path)
		if strings.Contains(name, "/") {
			return fmt.Errorf("mkfs: %q: file name may not contain '/'", name)
		}
		name = strings.TrimPrefix(name, "_")

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("mkfs: read %s: %w", path, err)
		}

		inum, err := b.ialloc(xv6fs.TFile)
		if err != nil {
			return err
		}
		if err := b.appendDirent(rootino, name, inum); err != nil {
			return err
		}
		if err := b.iappend(inum, data); err != nil {
			return err
		}
	}

	if err := b.fixRootSize(rootino); err != nil {
		return err
	}

	return b.writeBitmap()
}
