package xv6fs

// blockNone is a sentinel address meaning "no block mapped here" —
// Bmap returns it when called with alloc=false on a hole rather than
// allocating one. Readi's size clamp is the invariant that keeps any
// in-scope caller from ever reaching a hole in practice; any caller
// that reaches it anyway treats it as a consistency violation (Open
// Question 4, resolved in DESIGN.md).
const blockNone = ^uint32(0)

// Bmap returns the disk block number of the blockNo'th data block of
// ip. When alloc is true and no block is mapped yet (including the
// indirect block itself, for blockNo in the indirect range), one is
// allocated and wired into ip's address list. When alloc is false and
// the slot is a hole, Bmap returns blockNone rather than allocating —
// Writei always calls with alloc=true, Readi always calls with
// alloc=false, relying on its own size clamp to keep from requesting a
// block past ip.Size in the first place. Equivalent of fs.c's bmap().
func (fs *FS) Bmap(ip *Inode, blockNo uint32, alloc bool) (uint32, error) {
	if blockNo < NDirect {
		addr := ip.addrs[blockNo]
		if addr == 0 {
			if !alloc {
				return blockNone, nil
			}
			a, err := fs.Balloc()
			if err != nil {
				return 0, err
			}
			ip.addrs[blockNo] = a
			addr = a
		}
		return addr, nil
	}

	blockNo -= NDirect
	if blockNo >= NIndirectBlocks {
		panicConsistency("Bmap: block index out of range")
	}

	indirectAddr := ip.addrs[NDirect]
	if indirectAddr == 0 {
		if !alloc {
			return blockNone, nil
		}
		a, err := fs.Balloc()
		if err != nil {
			return 0, err
		}
		ip.addrs[NDirect] = a
		indirectAddr = a
	}

	b, err := fs.readBlock(indirectAddr)
	if err != nil {
		return 0, err
	}
	off := blockNo * 4
	addr := readUint32(b.data[off : off+4])
	if addr == 0 {
		if !alloc {
			fs.release(b)
			return blockNone, nil
		}
		a, err := fs.Balloc()
		if err != nil {
			fs.release(b)
			return 0, err
		}
		writeUint32(b.data[off:off+4], a)
		if err := fs.writeBack(b); err != nil {
			fs.release(b)
			return 0, err
		}
		addr = a
	}
	fs.release(b)
	return addr, nil
}

// Itrunc frees every data block (direct and indirect) owned by ip and
// resets its size to zero. Equivalent of fs.c's itrunc(). Caller must
// hold ip's lock.
func (fs *FS) Itrunc(ip *Inode) error {
	for i := 0; i < NDirect; i++ {
		if ip.addrs[i] != 0 {
			if err := fs.Bfree(ip.addrs[i]); err != nil {
				return err
			}
			ip.addrs[i] = 0
		}
	}

	if ip.addrs[NDirect] != 0 {
		b, err := fs.readBlock(ip.addrs[NDirect])
		if err != nil {
			return err
		}
		for i := 0; i < NIndirectBlocks; i++ {
			a := readUint32(b.data[i*4 : i*4+4])
			if a != 0 {
				if err := fs.Bfree(a); err != nil {
					fs.release(b)
					return err
				}
			}
		}
		fs.release(b)
		if err := fs.Bfree(ip.addrs[NDirect]); err != nil {
			return err
		}
		ip.addrs[NDirect] = 0
	}

	ip.Size = 0
	return fs.writeDinode(ip.Inum, ip.toDinode())
}

// Blocks returns every disk block number currently owned by ip: its
// direct blocks, the indirect block itself (if allocated), and the
// blocks it points to. Caller must hold ip's lock. Used by inspect's
// bitmap-reachability check, which has no other way to enumerate an
// inode's blocks without reaching into its unexported address list.
func (fs *FS) Blocks(ip *Inode) ([]uint32, error) {
	var blocks []uint32
	for i := 0; i < NDirect; i++ {
		if ip.addrs[i] != 0 {
			blocks = append(blocks, ip.addrs[i])
		}
	}

	indirectAddr := ip.addrs[NDirect]
	if indirectAddr != 0 {
		blocks = append(blocks, indirectAddr)
		b, err := fs.readBlock(indirectAddr)
		if err != nil {
			return nil, err
		}
		for i := 0; i < NIndirectBlocks; i++ {
			a := readUint32(b.data[i*4 : i*4+4])
			if a != 0 {
				blocks = append(blocks, a)
			}
		}
		fs.release(b)
	}
	return blocks, nil
}

func (ip *Inode) toDinode() *dinode {
	return &dinode{
		Type:  ip.Type,
		Major: ip.Major,
		Minor: ip.Minor,
		NLink: ip.NLink,
		Size:  ip.Size,
		Addrs: ip.addrs,
	}
}

func readUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func writeUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
