package mkfs

import (
	"fmt"

	"github.com/tomgrim-xx/xv6fs"
)

func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func getU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// wsect writes one whole block, xv6 mkfs.c's wsect().
func (b *Builder) wsect(blockno uint32, buf []byte) error {
	if _, err := b.f.WriteAt(buf[:xv6fs.BSIZE], int64(blockno)*xv6fs.BSIZE); err != nil {
		return fmt.Errorf("mkfs: write block %d: %w", blockno, err)
	}
	return nil
}

// rsect reads one whole block, xv6 mkfs.c's rsect().
func (b *Builder) rsect(blockno uint32) ([]byte, error) {
	buf := make([]byte, xv6fs.BSIZE)
	if _, err := b.f.ReadAt(buf, int64(blockno)*xv6fs.BSIZE); err != nil {
		return nil, fmt.Errorf("mkfs: read block %d: %w", blockno, err)
	}
	return buf, nil
}

// dinode is a local copy of the on-disk layout; mkfs builds images
// byte-for-byte without depending on xv6fs's unexported marshaling.
type dinode struct {
	typ   xv6fs.IType
	major int16
	minor int16
	nlink int16
	size  uint32
	addrs [xv6fs.NAddrs]uint32
}

func (d *dinode) marshal() []byte {
	buf := make([]byte, xv6fs.DInodeSize)
	putU16(buf[0:], uint16(d.typ))
	putU16(buf[2:], uint16(d.major))
	putU16(buf[4:], uint16(d.minor))
	putU16(buf[6:], uint16(d.nlink))
	putU32(buf[8:], d.size)
	for i, a := range d.addrs {
		putU32(buf[12+i*4:], a)
	}
	return buf
}

func (d *dinode) unmarshal(buf []byte) {
	d.typ = xv6fs.IType(getU16(buf[0:]))
	d.major = int16(getU16(buf[2:]))
	d.minor = int16(getU16(buf[4:]))
	d.nlink = int16(getU16(buf[6:]))
	d.size = getU32(buf[8:])
	for i := range d.addrs {
		d.addrs[i] = getU32(buf[12+i*4:])
	}
}

func putU16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

func getU16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

// winode writes din to inode slot inum, xv6 mkfs.c's winode().
func (b *Builder) winode(inum uint32, din *dinode) error {
	blockno := xv6fs.IBlock(inum)
	buf, err := b.rsect(blockno)
	if err != nil {
		return err
	}
	off := (inum % xv6fs.IPB) * xv6fs.DInodeSize
	copy(buf[off:off+xv6fs.DInodeSize], din.marshal())
	return b.wsect(blockno, buf)
}

// rinode reads inode slot inum, xv6 mkfs.c's rinode().
func (b *Builder) rinode(inum uint32) (*dinode, error) {
	blockno := xv6fs.IBlock(inum)
	buf, err := b.rsect(blockno)
	if err != nil {
		return nil, err
	}
	off := (inum % xv6fs.IPB) * xv6fs.DInodeSize
	d := &dinode{}
	d.unmarshal(buf[off : off+xv6fs.DInodeSize])
	return d, nil
}

// ialloc allocates the next free inode number and writes an empty
// dinode of the given type, xv6 mkfs.c's ialloc().
func (b *Builder) ialloc(typ xv6fs.IType) (uint32, error) {
	b.freeinode++
	inum := b.freeinode - 1
	if inum == 0 {
		inum = 1
		b.freeinode = 2
	}
	din := &dinode{typ: typ, nlink: 1}
	if err := b.winode(inum, din); err != nil {
		return 0, err
	}
	return inum, nil
}

// allocBlock hands out the next free data block, recording it used so
// writeBitmap can mark every allocated block at the end of the build
// (mirroring mkfs.c's freeblock++/usedblocks bookkeeping, generalized
// across however many cylinder groups the image spans).
func (b *Builder) allocBlock() uint32 {
	bn := b.freeblock
	b.freeblock++
	b.used[bn] = true
	return bn
}

// appendDirent appends one directory entry to directory dirinum,
// xv6 mkfs.c's de/iappend combination specialized to a single entry.
func (b *Builder) appendDirent(dirinum uint32, name string, inum uint32) error {
	if len(name) > xv6fs.DirSiz {
		return fmt.Errorf("mkfs: name %q exceeds DIRSIZ", name)
	}
	buf := make([]byte, xv6fs.DirEntSize)
	putU16(buf[0:], uint16(inum))
	copy(buf[2:], name)
	return b.iappend(dirinum, buf)
}

// iappend appends data to the end of inode inum's file, allocating
// direct and, if needed, the single indirect block on demand. xv6
// mkfs.c's iappend(), generalized so fbn's indirect-block address
// itself comes from allocBlock rather than a single global counter
// assumed to live in cylinder group 0.
func (b *Builder) iappend(inum uint32, data []byte) error {
	din, err := b.rinode(inum)
	if err != nil {
		return err
	}

	off := din.size
	p := data
	for len(p) > 0 {
		fbn := off / xv6fs.BSIZE
		if fbn >= xv6fs.MaxFile {
			return fmt.Errorf("mkfs: inode %d exceeds MAXFILE", inum)
		}

		var blockno uint32
		if fbn < xv6fs.NDirect {
			if din.addrs[fbn] == 0 {
				din.addrs[fbn] = b.allocBlock()
			}
			blockno = din.addrs[fbn]
		} else {
			if din.addrs[xv6fs.NDirect] == 0 {
				din.addrs[xv6fs.NDirect] = b.allocBlock()
			}
			indirectBuf, err := b.rsect(din.addrs[xv6fs.NDirect])
			if err != nil {
				return err
			}
			idx := fbn - xv6fs.NDirect
			entryOff := idx * 4
			blockno = getU32(indirectBuf[entryOff:])
			if blockno == 0 {
				blockno = b.allocBlock()
				putU32(indirectBuf[entryOff:], blockno)
				if err := b.wsect(din.addrs[xv6fs.NDirect], indirectBuf); err != nil {
					return err
				}
			}
		}

		blockOff := off % xv6fs.BSIZE
		n := xv6fs.BSIZE - blockOff
		if uint32(len(p)) < n {
			n = uint32(len(p))
		}
		buf, err := b.rsect(blockno)
		if err != nil {
			return err
		}
		copy(buf[blockOff:blockOff+n], p[:n])
		if err := b.wsect(blockno, buf); err != nil {
			return err
		}

		off += n
		p = p[n:]
	}

	din.size = off
	return b.winode(inum, din)
}

// fixRootSize rounds the root directory's size up to a whole block,
// matching mkfs.c's final root-inode fixup.
func (b *Builder) fixRootSize(rootino uint32) error {
	din, err := b.rinode(rootino)
	if err != nil {
		return err
	}
	din.size = ((din.size + xv6fs.BSIZE - 1) / xv6fs.BSIZE) * xv6fs.BSIZE
	return b.winode(rootino, din)
}

// writeBitmap marks every block allocated during the build in the
// free-block bitmap, one bitmap block per cylinder group — the
// multi-group generalization of mkfs.c's single balloc() call.
func (b *Builder) writeBitmap() error {
	for base := uint32(0); base < b.size; base += xv6fs.CGSize {
		bm := make([]byte, xv6fs.BSIZE)
		for bi := uint32(0); bi < xv6fs.CGSize && base+bi < b.size; bi++ {
			if b.used[base+bi] || base+bi < b.metaBlocksEnd() {
				bm[bi/8] |= 1 << (bi % 8)
			}
		}
		if err := b.wsect(xv6fs.BBlock(base), bm); err != nil {
			return err
		}
	}
	return nil
}

// metaBlocksEnd returns the block number one past the boot/super/
// inode/bitmap region at the front of the image (blocks before
// b.freeblock's starting point are metadata, always marked used).
func (b *Builder) metaBlocksEnd() uint32 {
	return b.size - b.nblocks
}
