//go:build fuse

package fusefs

import (
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/tomgrim-xx/xv6fs"
)

// Mount attaches xfs at mountpoint and returns the running FUSE
// server. The caller is expected to call Wait() on the result to block
// until the mount is torn down (by Unmount(), or by the OS on process
// exit/unmount(8)). Grounded on the teacher's pattern of exposing a
// read-only tree through go-fuse, generalized here to go-fuse's
// InodeEmbedder (fs.Inode) API rather than the teacher's lower-level
// fuse.RawFileSystem hooks, since a read-write bridge benefits from
// the library's built-in node bookkeeping.
func Mount(xfs *xv6fs.FS, mountpoint string, opts *fs.Options) (*fuse.Server, error) {
	root := Root(xfs)
	return fs.Mount(mountpoint, root, opts)
}
