package xv6fs

import "io"

// DevHandler handles I/O for T_DEV inodes — a major-number-addressed
// device file, the stand-in for xv6's console driver entry in the
// device switch table. Read/Write follow io.Reader/io.Writer
// semantics rather than xv6's fixed dst/n signature, since this
// package targets Go callers rather than a kernel syscall ABI.
type DevHandler interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// RegisterDevice installs h as the handler for T_DEV inodes carrying
// the given major number, the runtime counterpart of WithDevsw for a
// file system that is already mounted.
func (fs *FS) RegisterDevice(major uint16, h DevHandler) {
	if int(major) < len(fs.devsw) {
		fs.devsw[major] = h
	}
}

// Readi reads up to len(dst) bytes from ip starting at off into dst,
// returning the number of bytes actually read. Reads of T_DEV inodes
// are delegated to the device switch table; reads of regular files
// and directories clamp to ip.Size and walk Bmap in non-allocating
// mode, so a hole is never something Readi can reach. Equivalent of
// fs.c's readi().
func (fs *FS) Readi(ip *Inode, dst []byte, off uint32) (int, error) {
	if ip.Type == TDev {
		if int(ip.Major) >= len(fs.devsw) || fs.devsw[ip.Major] == nil {
			return 0, ErrBadDevice
		}
		return fs.devsw[ip.Major].Read(dst)
	}

	if off > ip.Size {
		return 0, nil
	}
	n := uint32(len(dst))
	if off+n > ip.Size {
		n = ip.Size - off
	}

	var total uint32
	for total < n {
		blockNo := (off + total) / BSIZE
		blockOff := (off + total) % BSIZE
		addr, err := fs.Bmap(ip, blockNo, false)
		if err != nil {
			return int(total), err
		}
		if addr == blockNone {
			panicConsistency("Readi: hole within file size")
		}
		b, err := fs.readBlock(addr)
		if err != nil {
			return int(total), err
		}
		chunk := uint32(BSIZE) - blockOff
		if remaining := n - total; chunk > remaining {
			chunk = remaining
		}
		copy(dst[total:total+chunk], b.data[blockOff:blockOff+chunk])
		fs.release(b)
		total += chunk
	}
	return int(total), nil
}

// Writei writes len(src) bytes from src into ip starting at off,
// allocating blocks as needed, and updates ip.Size and its on-disk
// dinode if the file grew. off+n overflowing uint32 fails with
// ErrFileTooBig, and a write starting past ip.Size fails with
// ErrInvalidArg, so Writei never leaves a hole. A write that would
// cross MAXFILE*BSIZE is clamped to the remaining room and partially
// succeeds rather than being rejected.
// Equivalent of fs.c's writei(). Caller must hold ip's lock.
func (fs *FS) Writei(ip *Inode, src []byte, off uint32) (int, error) {
	if ip.Type == TDev {
		if int(ip.Major) >= len(fs.devsw) || fs.devsw[ip.Major] == nil {
			return 0, ErrBadDevice
		}
		return fs.devsw[ip.Major].Write(src)
	}

	n := uint32(len(src))
	if off+n < off {
		return 0, ErrFileTooBig
	}
	if off > ip.Size {
		return 0, ErrInvalidArg
	}
	if off >= MaxFile*BSIZE {
		n = 0
	} else if off+n > MaxFile*BSIZE {
		n = MaxFile * BSIZE - off
	}
	src = src[:n]

	var total uint32
	for total < n {
		blockNo := (off + total) / BSIZE
		blockOff := (off + total) % BSIZE
		addr, err := fs.Bmap(ip, blockNo, true)
		if err != nil {
			return int(total), err
		}
		b, err := fs.readBlock(addr)
		if err != nil {
			return int(total), err
		}
		chunk := uint32(BSIZE) - blockOff
		if remaining := n - total; chunk > remaining {
			chunk = remaining
		}
		copy(b.data[blockOff:blockOff+chunk], src[total:total+chunk])
		if err := fs.writeBack(b); err != nil {
			fs.release(b)
			return int(total), err
		}
		fs.release(b)
		total += chunk
	}

	if off+total > ip.Size {
		ip.Size = off + total
	}
	if err := fs.writeDinode(ip.Inum, ip.toDinode()); err != nil {
		return int(total), err
	}
	return int(total), nil
}

// ReadAt/WriteAt adapt Readi/Writei to io.ReaderAt/io.WriterAt; the
// File returned by (*Inode).OpenFile reads through ReadAt.
type fileIO struct {
	fs *FS
	ip *Inode
}

func (f *fileIO) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, ErrInvalidArg
	}
	n, err := f.fs.Readi(f.ip, p, uint32(off))
	if err == nil && n < len(p) {
		err = io.EOF
	}
	return n, err
}

func (f *fileIO) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, ErrInvalidArg
	}
	return f.fs.Writei(f.ip, p, uint32(off))
}
