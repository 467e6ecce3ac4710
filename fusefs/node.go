//go:build fuse

// Package fusefs adapts a mounted *xv6fs.FS to a real FUSE mount,
// grounded on the teacher's inode_fuse.go/inode_linux.go node adapter
// (Lookup/Open/OpenDir/ReadDir/FillAttr, the root/inode-1 public
// number swap). Unlike the teacher, whose squashfs images are
// read-only, this bridge also implements Write/Create/Mkdir/Unlink,
// since an xv6fs image is meant to be edited.
package fusefs

import (
	"context"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/tomgrim-xx/xv6fs"
)

// Node wraps one *xv6fs.Inode as a go-fuse fs.InodeEmbedder.
type Node struct {
	fs.Inode

	xfs *xv6fs.FS
	ip  *xv6fs.Inode
}

var (
	_ fs.NodeLookuper  = (*Node)(nil)
	_ fs.NodeOpener    = (*Node)(nil)
	_ fs.NodeReaddirer = (*Node)(nil)
	_ fs.NodeGetattrer = (*Node)(nil)
	_ fs.NodeReader    = (*Node)(nil)
	_ fs.NodeWriter    = (*Node)(nil)
	_ fs.NodeCreater   = (*Node)(nil)
	_ fs.NodeMkdirer   = (*Node)(nil)
	_ fs.NodeUnlinker  = (*Node)(nil)
)

// Root builds the root Node for go-fuse's Mount, the xv6fs counterpart
// of the teacher's root/inode-1 swap: RootIno is always 1 on disk, so
// no renumbering is needed here.
func Root(xfs *xv6fs.FS) *Node {
	root := xfs.Iget(xv6fs.RootDev, xv6fs.RootIno)
	return &Node{xfs: xfs, ip: root}
}

func (n *Node) publicIno() uint64 { return uint64(n.ip.Inum) }

func (n *Node) fillAttr(out *fuse.Attr) {
	if err := n.ip.Ilock(); err != nil {
		return
	}
	out.Ino = n.publicIno()
	out.Size = uint64(n.ip.Size)
	out.Mode = modeBits(n.ip.Type)
	n.ip.Iunlock()
}

func modeBits(t xv6fs.IType) uint32 {
	switch t {
	case xv6fs.TDir:
		return syscall.S_IFDIR | 0755
	case xv6fs.TDev:
		return syscall.S_IFCHR | 0644
	default:
		return syscall.S_IFREG | 0644
	}
}

// Getattr fills in basic attributes. xv6fs has no permission bits on
// disk, so every node reports a fixed mode for its type.
func (n *Node) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	n.fillAttr(&out.Attr)
	return 0
}

// Lookup resolves name within the directory n wraps.
func (n *Node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	if err := n.ip.Ilock(); err != nil {
		return nil, syscall.EIO
	}
	child, _, err := n.xfs.Dirlookup(n.ip, name)
	n.ip.Iunlock()
	if err != nil {
		return nil, syscall.ENOENT
	}

	if err := child.Ilock(); err != nil {
		child.Iput()
		return nil, syscall.EIO
	}
	out.Ino = uint64(child.Inum)
	out.Attr.Ino = out.Ino
	out.Attr.Size = uint64(child.Size)
	out.Attr.Mode = modeBits(child.Type)
	child.Iunlock()

	childNode := &Node{xfs: n.xfs, ip: child}
	stable := fs.StableAttr{Ino: out.Ino, Mode: out.Attr.Mode & syscall.S_IFMT}
	return n.NewInode(ctx, childNode, stable), 0
}

// Open always succeeds; xv6fs has no open-mode restrictions to enforce
// beyond what Readi/Writei already check.
func (n *Node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	return nil, fuse.FOPEN_KEEP_CACHE, 0
}

// Read services a read request directly through Readi.
func (n *Node) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	if err := n.ip.Ilock(); err != nil {
		return nil, syscall.EIO
	}
	defer n.ip.Iunlock()
	cnt, err := n.xfs.Readi(n.ip, dest, uint32(off))
	if err != nil {
		return nil, syscall.EIO
	}
	return fuse.ReadResultData(dest[:cnt]), 0
}

// Write services a write request directly through Writei.
func (n *Node) Write(ctx context.Context, f fs.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	if err := n.ip.Ilock(); err != nil {
		return 0, syscall.EIO
	}
	defer n.ip.Iunlock()
	cnt, err := n.xfs.Writei(n.ip, data, uint32(off))
	if err != nil {
		return 0, syscall.EIO
	}
	return uint32(cnt), 0
}

// Readdir lists the directory's entries.
func (n *Node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	if err := n.ip.Ilock(); err != nil {
		return nil, syscall.EIO
	}
	defer n.ip.Iunlock()

	var entries []fuse.DirEntry
	var de struct {
		inum uint16
		name string
	}
	buf := make([]byte, xv6fs.DirEntSize)
	for off := uint32(0); off < n.ip.Size; off += xv6fs.DirEntSize {
		cnt, err := n.xfs.Readi(n.ip, buf, off)
		if err != nil || cnt != xv6fs.DirEntSize {
			break
		}
		de.inum = uint16(buf[0]) | uint16(buf[1])<<8
		if de.inum == 0 {
			continue
		}
		name := nameFromDirent(buf)
		entries = append(entries, fuse.DirEntry{Ino: uint64(de.inum), Name: name})
	}
	return fs.NewListDirStream(entries), 0
}

func nameFromDirent(buf []byte) string {
	nameBytes := buf[2:xv6fs.DirEntSize]
	n := 0
	for n < len(nameBytes) && nameBytes[n] != 0 {
		n++
	}
	return string(nameBytes[:n])
}

// Create makes a new regular file named name inside n.
func (n *Node) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	proc := &xv6fs.Proc{Cwd: n.ip, Killed: func() bool { return false }}
	child, err := n.xfs.Create(proc, name, xv6fs.TFile, 0, 0)
	if err != nil {
		return nil, nil, 0, syscall.EIO
	}
	child.Iunlock()

	out.Ino = uint64(child.Inum)
	out.Attr.Mode = modeBits(xv6fs.TFile)
	childNode := &Node{xfs: n.xfs, ip: child}
	stable := fs.StableAttr{Ino: out.Ino, Mode: syscall.S_IFREG}
	return n.NewInode(ctx, childNode, stable), nil, fuse.FOPEN_KEEP_CACHE, 0
}

// Mkdir creates a new subdirectory named name inside n.
func (n *Node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	proc := &xv6fs.Proc{Cwd: n.ip, Killed: func() bool { return false }}
	child, err := n.xfs.Mkdir(proc, name)
	if err != nil {
		return nil, syscall.EIO
	}

	out.Ino = uint64(child.Inum)
	out.Attr.Mode = modeBits(xv6fs.TDir)
	childNode := &Node{xfs: n.xfs, ip: child}
	stable := fs.StableAttr{Ino: out.Ino, Mode: syscall.S_IFDIR}
	return n.NewInode(ctx, childNode, stable), 0
}

// Unlink removes the directory entry named name inside n.
func (n *Node) Unlink(ctx context.Context, name string) syscall.Errno {
	proc := &xv6fs.Proc{Cwd: n.ip, Killed: func() bool { return false }}
	if err := n.xfs.Unlink(proc, name); err != nil {
		return syscall.EIO
	}
	return 0
}
