package xv6fs

// Create resolves path's parent directory, allocates a new inode of
// type typ (major/minor meaningful only for TDev), links it into the
// parent under its final path element, and returns the new inode
// locked. This is the shared plumbing behind xv6's sysfile.c create()
// — not present in the retrieved fs.c/fs.h pair, but built from the
// same Ialloc/Dirlink/Namei primitives fs.c exposes, the way every
// xv6 port's open(O_CREATE)/mkdir/mknod funnels through one helper.
func (fs *FS) Create(p *Proc, path string, typ IType, major, minor int16) (*Inode, error) {
	dp, name, err := fs.NameiParent(p, path)
	if err != nil {
		return nil, err
	}
	if err := dp.Ilock(); err != nil {
		return nil, err
	}

	if existing, _, err := fs.Dirlookup(dp, name); err == nil {
		dp.IunlockPut()
		if err := existing.Ilock(); err != nil {
			existing.Iput()
			return nil, err
		}
		if typ == TFile && (existing.Type == TFile || existing.Type == TDev) {
			return existing, nil
		}
		existing.IunlockPut()
		return nil, ErrNameExists
	}

	ip, err := fs.Ialloc(typ, dp.Inum)
	if err != nil {
		dp.IunlockPut()
		return nil, err
	}
	if err := ip.Ilock(); err != nil {
		dp.IunlockPut()
		return nil, err
	}
	ip.Major = major
	ip.Minor = minor
	ip.NLink = 1
	if err := fs.writeDinode(ip.Inum, ip.toDinode()); err != nil {
		ip.IunlockPut()
		dp.IunlockPut()
		return nil, err
	}

	if typ == TDir {
		dp.NLink++
		if err := fs.writeDinode(dp.Inum, dp.toDinode()); err != nil {
			ip.IunlockPut()
			dp.IunlockPut()
			return nil, err
		}
		if err := fs.Dirlink(ip, ".", ip.Inum); err != nil {
			ip.IunlockPut()
			dp.IunlockPut()
			return nil, err
		}
		if err := fs.Dirlink(ip, "..", dp.Inum); err != nil {
			ip.IunlockPut()
			dp.IunlockPut()
			return nil, err
		}
	}

	if err := fs.Dirlink(dp, name, ip.Inum); err != nil {
		ip.IunlockPut()
		dp.IunlockPut()
		return nil, err
	}

	dp.IunlockPut()
	return ip, nil
}

// Mkdir creates an empty directory at path.
func (fs *FS) Mkdir(p *Proc, path string) (*Inode, error) {
	ip, err := fs.Create(p, path, TDir, 0, 0)
	if err != nil {
		return nil, err
	}
	ip.Iunlock()
	return ip, nil
}

// Mknod creates a device-file inode at path with the given major/minor.
func (fs *FS) Mknod(p *Proc, path string, major, minor int16) (*Inode, error) {
	ip, err := fs.Create(p, path, TDev, major, minor)
	if err != nil {
		return nil, err
	}
	ip.Iunlock()
	return ip, nil
}

// Unlink removes the directory entry at path, decrementing the
// target's link count and freeing it (via Iput) once the count and
// reference count both reach zero. Refuses to unlink a non-empty
// directory or "." / "..".
func (fs *FS) Unlink(p *Proc, path string) error {
	dp, name, err := fs.NameiParent(p, path)
	if err != nil {
		return err
	}
	if err := dp.Ilock(); err != nil {
		return err
	}
	if name == "." || name == ".." {
		dp.IunlockPut()
		return ErrInvalidArg
	}

	ip, off, err := fs.Dirlookup(dp, name)
	if err != nil {
		dp.IunlockPut()
		return err
	}
	if err := ip.Ilock(); err != nil {
		dp.IunlockPut()
		return err
	}

	if ip.NLink < 1 {
		panicConsistency("Unlink: nlink < 1")
	}
	if ip.Type == TDir && !fs.dirIsEmpty(ip) {
		ip.IunlockPut()
		dp.IunlockPut()
		return ErrNotEmpty
	}

	zero := make([]byte, DirEntSize)
	if _, err := fs.Writei(dp, zero, off); err != nil {
		ip.IunlockPut()
		dp.IunlockPut()
		return err
	}

	if ip.Type == TDir {
		dp.NLink--
		if err := fs.writeDinode(dp.Inum, dp.toDinode()); err != nil {
			ip.IunlockPut()
			dp.IunlockPut()
			return err
		}
	}
	dp.IunlockPut()

	ip.NLink--
	if err := fs.writeDinode(ip.Inum, ip.toDinode()); err != nil {
		ip.IunlockPut()
		return err
	}
	return ip.IunlockPut()
}

// dirIsEmpty reports whether dir ip contains only "." and "..".
// Caller must hold ip's lock.
func (fs *FS) dirIsEmpty(ip *Inode) bool {
	buf := make([]byte, DirEntSize)
	var de dirent
	for off := uint32(2 * DirEntSize); off < ip.Size; off += DirEntSize {
		n, err := fs.Readi(ip, buf, off)
		if err != nil || n != DirEntSize {
			return false
		}
		de.unmarshalBinary(buf)
		if de.Inum != 0 {
			return false
		}
	}
	return true
}
