package xv6fs

import "bytes"

// dirent is one on-disk directory entry: a 2-byte inode number
// followed by a fixed DirSiz-byte, NUL-padded name. Mirrors fs.h's
// struct dirent.
type dirent struct {
	Inum uint16
	Name [DirSiz]byte
}

func (d *dirent) marshalBinary() []byte {
	buf := make([]byte, DirEntSize)
	buf[0] = byte(d.Inum)
	buf[1] = byte(d.Inum >> 8)
	copy(buf[2:], d.Name[:])
	return buf
}

func (d *dirent) unmarshalBinary(data []byte) {
	d.Inum = uint16(data[0]) | uint16(data[1])<<8
	copy(d.Name[:], data[2:2+DirSiz])
}

func (d *dirent) name() string {
	i := bytes.IndexByte(d.Name[:], 0)
	if i < 0 {
		i = DirSiz
	}
	return string(d.Name[:i])
}

// Namecmp compares two path element names with fixed-width
// DirSiz-byte semantics (names are never NUL-terminated if they fill
// the full width). Equivalent of fs.c's namecmp().
func Namecmp(a, b string) bool {
	if len(a) > DirSiz {
		a = a[:DirSiz]
	}
	if len(b) > DirSiz {
		b = b[:DirSiz]
	}
	return a == b
}

// Dirlookup searches directory dp for name, returning the inode it
// names and the byte offset of its directory entry. Equivalent of
// fs.c's dirlookup(). Caller must hold dp's lock.
func (fs *FS) Dirlookup(dp *Inode, name string) (*Inode, uint32, error) {
	if dp.Type != TDir {
		panicConsistency("Dirlookup: not a directory")
	}

	var de dirent
	for off := uint32(0); off < dp.Size; off += DirEntSize {
		buf := make([]byte, DirEntSize)
		n, err := fs.Readi(dp, buf, off)
		if err != nil {
			return nil, 0, err
		}
		if n != DirEntSize {
			panicConsistency("Dirlookup: short directory read")
		}
		de.unmarshalBinary(buf)
		if de.Inum == 0 {
			continue
		}
		if Namecmp(de.name(), name) {
			return fs.Iget(dp.Dev, uint32(de.Inum)), off, nil
		}
	}
	return nil, 0, ErrNotExist
}

// Dirlink adds a directory entry mapping name to inum inside dp,
// reusing the first empty slot if one exists or appending past the
// end otherwise. Equivalent of fs.c's dirlink(). Caller must hold dp's
// lock.
func (fs *FS) Dirlink(dp *Inode, name string, inum uint32) error {
	if existing, _, err := fs.Dirlookup(dp, name); err == nil {
		existing.Iput()
		return ErrNameExists
	}
	if len(name) > DirSiz {
		return ErrNameTooLong
	}

	var de dirent
	var off uint32
	for off = 0; off < dp.Size; off += DirEntSize {
		buf := make([]byte, DirEntSize)
		n, err := fs.Readi(dp, buf, off)
		if err != nil {
			return err
		}
		if n != DirEntSize {
			panicConsistency("Dirlink: short directory read")
		}
		de.unmarshalBinary(buf)
		if de.Inum == 0 {
			break
		}
	}

	de = dirent{Inum: uint16(inum)}
	copy(de.Name[:], name)
	if _, err := fs.Writei(dp, de.marshalBinary(), off); err != nil {
		return err
	}
	return nil
}
