package xv6fs

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// dinode is the on-disk inode layout, bit-for-bit fs.h's struct
// dinode: 64 bytes, IPB of them per block.
type dinode struct {
	Type  IType
	Major int16
	Minor int16
	NLink int16
	Size  uint32
	Addrs [NAddrs]uint32
}

func (d *dinode) marshalBinary() []byte {
	buf := make([]byte, DInodeSize)
	binary.LittleEndian.PutUint16(buf[0:], uint16(d.Type))
	binary.LittleEndian.PutUint16(buf[2:], uint16(d.Major))
	binary.LittleEndian.PutUint16(buf[4:], uint16(d.Minor))
	binary.LittleEndian.PutUint16(buf[6:], uint16(d.NLink))
	binary.LittleEndian.PutUint32(buf[8:], d.Size)
	for i, a := range d.Addrs {
		binary.LittleEndian.PutUint32(buf[12+i*4:], a)
	}
	return buf
}

func (d *dinode) unmarshalBinary(data []byte) error {
	if len(data) < DInodeSize {
		return fmt.Errorf("xv6fs: dinode buffer too short")
	}
	r := bytes.NewReader(data[:DInodeSize])
	var typ, major, minor, nlink uint16
	for _, f := range []*uint16{&typ, &major, &minor, &nlink} {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return fmt.Errorf("xv6fs: decode dinode: %w", err)
		}
	}
	d.Type = IType(typ)
	d.Major = int16(major)
	d.Minor = int16(minor)
	d.NLink = int16(nlink)
	if err := binary.Read(r, binary.LittleEndian, &d.Size); err != nil {
		return fmt.Errorf("xv6fs: decode dinode size: %w", err)
	}
	for i := range d.Addrs {
		if err := binary.Read(r, binary.LittleEndian, &d.Addrs[i]); err != nil {
			return fmt.Errorf("xv6fs: decode dinode addrs: %w", err)
		}
	}
	return nil
}

// readDinode loads the on-disk dinode for inode number inum.
func (fs *FS) readDinode(inum uint32) (dinode, error) {
	var d dinode
	blockno := IBlock(inum)
	b, err := fs.readBlock(blockno)
	if err != nil {
		return d, err
	}
	off := (inum % IPB) * DInodeSize
	err = d.unmarshalBinary(b.data[off : off+DInodeSize])
	fs.release(b)
	return d, err
}

// writeDinode flushes d to inode number inum's on-disk slot. Caller
// must hold the inode's lock (mirrors fs.c's iupdate(), which requires
// the caller to already hold ip->lock).
func (fs *FS) writeDinode(inum uint32, d *dinode) error {
	blockno := IBlock(inum)
	b, err := fs.readBlock(blockno)
	if err != nil {
		return err
	}
	off := (inum % IPB) * DInodeSize
	copy(b.data[off:off+DInodeSize], d.marshalBinary())
	err = fs.writeBack(b)
	fs.release(b)
	return err
}
