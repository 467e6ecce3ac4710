package xv6fs

import "fmt"

// buf is an in-memory copy of one on-disk block, the Go analogue of
// xv6's struct buf without the buffer-cache bookkeeping (no B_VALID/
// B_DIRTY bits — every readBlock fetches fresh and every writeBack
// flushes immediately, since the shared device cache this package
// deliberately omits from scope is expected to absorb repeat traffic).
type buf struct {
	blockno uint32
	data    [BSIZE]byte
}

// readBlock loads block number blockno from dev into a fresh buf. It
// is the equivalent of xv6's bread(): every other function in this
// package that needs block contents goes through here.
func (fs *FS) readBlock(blockno uint32) (*buf, error) {
	b := &buf{blockno: blockno}
	secno := blockno * (BSIZE / uint32(fs.dev.SectorSize()))
	secPerBlock := BSIZE / fs.dev.SectorSize()
	for i := 0; i < secPerBlock; i++ {
		off := i * fs.dev.SectorSize()
		if err := fs.dev.ReadSector(secno+uint32(i), b.data[off:off+fs.dev.SectorSize()]); err != nil {
			return nil, fmt.Errorf("xv6fs: readBlock %d: %w", blockno, err)
		}
	}
	return b, nil
}

// writeBack flushes b to the device. Equivalent of xv6's bwrite().
func (fs *FS) writeBack(b *buf) error {
	secPerBlock := BSIZE / fs.dev.SectorSize()
	secno := b.blockno * uint32(secPerBlock)
	for i := 0; i < secPerBlock; i++ {
		off := i * fs.dev.SectorSize()
		if err := fs.dev.WriteSector(secno+uint32(i), b.data[off:off+fs.dev.SectorSize()]); err != nil {
			return fmt.Errorf("xv6fs: writeBack %d: %w", b.blockno, err)
		}
	}
	return nil
}

// release is the equivalent of xv6's brelse(). There is no cache to
// return the buffer to and no sector lock to drop, so it does nothing;
// it exists so call sites that mirror fs.c's bread/brelse pairing read
// the same way.
func (fs *FS) release(b *buf) {
	_ = b
}

// zeroBlock writes BSIZE zero bytes to blockno, the equivalent of
// xv6's bzero().
func (fs *FS) zeroBlock(blockno uint32) error {
	b, err := fs.readBlock(blockno)
	if err != nil {
		return err
	}
	for i := range b.data {
		b.data[i] = 0
	}
	err = fs.writeBack(b)
	fs.release(b)
	return err
}
