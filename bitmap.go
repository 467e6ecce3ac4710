package xv6fs

import "fmt"

// Balloc scans the free-block bitmap for the first block number, and
// marks it in use. Equivalent of fs.c's balloc(): a single
// linear-probe pass over the bitmap, covering every block the
// superblock describes (cylinder groups are transparent here — BBlock
// already folds the group offset into the bitmap block number).
// Unlike bfree, balloc does not zero the block it hands out; fs.c
// leaves the returned block's previous contents in place and relies on
// bfree having zeroed it on its way back to the free list.
func (fs *FS) Balloc() (uint32, error) {
	for b := uint32(0); b < fs.sb.Size; b += CGSize {
		bm, err := fs.readBlock(BBlock(b))
		if err != nil {
			return 0, err
		}
		for bi := uint32(0); bi < CGSize && b+bi < fs.sb.Size; bi++ {
			byteIdx := bi / 8
			bit := byte(1 << (bi % 8))
			if bm.data[byteIdx]&bit == 0 {
				bm.data[byteIdx] |= bit
				if err := fs.writeBack(bm); err != nil {
					fs.release(bm)
					return 0, err
				}
				fs.release(bm)
				return b + bi, nil
			}
		}
		fs.release(bm)
	}
	panicResourceExhausted("blocks")
	return 0, nil
}

// Bfree zeroes block b and clears its bit in the free-block bitmap.
// Equivalent of fs.c's bfree(), which calls bzero before touching the
// bitmap; panics if the block was already free, matching xv6's
// "freeing free block" panic — a double-free is a consistency
// violation, not a recoverable condition.
func (fs *FS) Bfree(b uint32) error {
	bm, err := fs.readBlock(BBlock(b))
	if err != nil {
		return err
	}
	bi := b % CGSize
	byteIdx := bi / 8
	bit := byte(1 << (bi % 8))
	if bm.data[byteIdx]&bit == 0 {
		fs.release(bm)
		panicConsistency(fmt.Sprintf("freeing free block %d", b))
	}
	fs.release(bm)

	if err := fs.zeroBlock(b); err != nil {
		return err
	}

	bm, err = fs.readBlock(BBlock(b))
	if err != nil {
		return err
	}
	bm.data[byteIdx] &^= bit
	err = fs.writeBack(bm)
	fs.release(bm)
	return err
}

// BlockAllocated reports whether block b's bit is set in the
// free-block bitmap, the read-only counterpart of Balloc/Bfree used by
// inspect's reachability check.
func (fs *FS) BlockAllocated(b uint32) (bool, error) {
	bm, err := fs.readBlock(BBlock(b))
	if err != nil {
		return false, err
	}
	bi := b % CGSize
	byteIdx := bi / 8
	bit := byte(1 << (bi % 8))
	allocated := bm.data[byteIdx]&bit != 0
	fs.release(bm)
	return allocated, nil
}
