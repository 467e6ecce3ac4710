package xv6fs

import (
	"io"
	"io/fs"
	"path"
	"time"
)

// File is a convenience wrapper letting a regular-file *Inode be used
// as an io/fs.File, adapted from the teacher's squashfs File/fileinfo
// pair. xv6 has no on-disk modification time, so ModTime reports the
// moment the inode was opened rather than a stored timestamp.
type File struct {
	*io.SectionReader
	ip     *Inode
	name   string
	openAt time.Time
}

// FileDir is the directory counterpart of File, exposing an *Inode's
// entries through fs.ReadDirFile.
type FileDir struct {
	ip     *Inode
	name   string
	offset uint32
}

type fileInfo struct {
	ip     *Inode
	name   string
	openAt time.Time
}

var (
	_ fs.File        = (*File)(nil)
	_ io.ReaderAt    = (*File)(nil)
	_ fs.ReadDirFile = (*FileDir)(nil)
	_ fs.FileInfo    = (*fileInfo)(nil)
)

// OpenFile returns an fs.File view of ip. Directories get a
// fs.ReadDirFile; everything else gets a seekable, ReaderAt-backed,
// read-only File over Readi.
func (ip *Inode) OpenFile(name string) fs.File {
	now := time.Now()
	if ip.Type == TDir {
		return &FileDir{ip: ip, name: name}
	}
	rw := &fileIO{fs: ip.fs, ip: ip}
	sec := stdioSectionReader(rw, int64(ip.Size))
	return &File{SectionReader: sec, ip: ip, name: name, openAt: now}
}

func stdioSectionReader(r io.ReaderAt, size int64) *io.SectionReader {
	return io.NewSectionReader(r, 0, size)
}

func (f *File) Stat() (fs.FileInfo, error) {
	return &fileInfo{ip: f.ip, name: path.Base(f.name), openAt: f.openAt}, nil
}

func (f *File) Sys() any { return f.ip }

func (f *File) Close() error { return f.ip.Iput() }

func (d *FileDir) Read(p []byte) (int, error) {
	return 0, fs.ErrInvalid
}

func (d *FileDir) Stat() (fs.FileInfo, error) {
	return &fileInfo{ip: d.ip, name: path.Base(d.name), openAt: time.Now()}, nil
}

func (d *FileDir) Sys() any { return d.ip }

func (d *FileDir) Close() error { return d.ip.Iput() }

// ReadDir lists up to n entries (or all remaining entries, if n<=0),
// skipping free slots the same way Dirlookup does.
func (d *FileDir) ReadDir(n int) ([]fs.DirEntry, error) {
	var out []fs.DirEntry
	var de dirent
	for (n <= 0 || len(out) < n) && d.offset < d.ip.Size {
		buf := make([]byte, DirEntSize)
		cnt, err := d.ip.fs.Readi(d.ip, buf, d.offset)
		if err != nil {
			return out, err
		}
		if cnt != DirEntSize {
			panicConsistency("ReadDir: short directory read")
		}
		de.unmarshalBinary(buf)
		d.offset += DirEntSize
		if de.Inum == 0 {
			continue
		}
		child := d.ip.fs.Iget(d.ip.Dev, uint32(de.Inum))
		if err := child.Ilock(); err != nil {
			return out, err
		}
		fi := &fileInfo{ip: child, name: de.name(), openAt: time.Now()}
		child.Iunlock()
		out = append(out, fs.FileInfoToDirEntry(fi))
	}
	if n > 0 && len(out) == 0 {
		return nil, io.EOF
	}
	return out, nil
}

func (fi *fileInfo) Name() string { return fi.name }

func (fi *fileInfo) Size() int64 { return int64(fi.ip.Size) }

// Mode reports only the file-type bits this format can express — no
// permission bits exist on disk (Non-goal: Unix permissions).
func (fi *fileInfo) Mode() fs.FileMode {
	switch fi.ip.Type {
	case TDir:
		return fs.ModeDir
	case TDev:
		return fs.ModeDevice
	default:
		return 0
	}
}

func (fi *fileInfo) ModTime() time.Time { return fi.openAt }

func (fi *fileInfo) IsDir() bool { return fi.ip.Type == TDir }

func (fi *fileInfo) Sys() any { return fi.ip }
