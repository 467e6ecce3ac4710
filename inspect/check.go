package inspect

import (
	"fmt"

	"github.com/tomgrim-xx/xv6fs"
)

// Report is the result of Check: a pass/fail verdict plus the list of
// specific invariant violations found, if any.
type Report struct {
	OK       bool
	Problems []string
}

func (r *Report) add(format string, args ...any) {
	r.OK = false
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

// Check validates the on-disk invariants an xv6fs image is expected
// to hold: every directory entry with a nonzero inode number names an
// inode whose link count is at least 1, every inode's size does not
// exceed MAXFILE*BSIZE, and every allocated data block is reachable
// from exactly one inode (directly or via its indirect block) with its
// bitmap bit set. It walks the tree from the root rather than scanning
// the raw inode table, so the nlink/size checks only report on inodes
// actually reachable from "/" — an unreachable-but-allocated inode is a
// leak, not a structural violation, and is out of scope for those two
// checks (though an unreachable block it owns would still have no
// claimant, surfacing as a reachability violation on its own).
func Check(fs *xv6fs.FS) (*Report, error) {
	r := &Report{OK: true}
	claims := make(map[uint32]int)

	root := fs.Iget(xv6fs.RootDev, xv6fs.RootIno)
	err := Walk(fs, root, "/", func(p string, ip *xv6fs.Inode) error {
		if lockErr := ip.Ilock(); lockErr != nil {
			return lockErr
		}
		defer ip.Iunlock()

		if ip.NLink < 1 {
			r.add("%s: inode %d has nlink %d, want >= 1", p, ip.Inum, ip.NLink)
		}
		maxSize := uint32(xv6fs.MaxFile) * xv6fs.BSIZE
		if ip.Size > maxSize {
			r.add("%s: inode %d size %d exceeds MAXFILE*BSIZE (%d)", p, ip.Inum, ip.Size, maxSize)
		}

		blocks, err := fs.Blocks(ip)
		if err != nil {
			return err
		}
		for _, b := range blocks {
			claims[b]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := checkBitmapReachability(fs, claims, r); err != nil {
		return nil, err
	}
	return r, nil
}

// checkBitmapReachability cross-checks the free-block bitmap against
// claims, the per-block reachability count gathered while walking the
// tree: every data block (past the boot/super/inode/bitmap region) must
// be allocated if and only if exactly one inode claims it.
func checkBitmapReachability(fs *xv6fs.FS, claims map[uint32]int, r *Report) error {
	sb := fs.Superblock()
	metaEnd := sb.Size - sb.NBlocks

	for b := metaEnd; b < sb.Size; b++ {
		allocated, err := fs.BlockAllocated(b)
		if err != nil {
			return err
		}
		n := claims[b]
		switch {
		case allocated && n == 0:
			r.add("block %d is marked allocated but is not reachable from any inode", b)
		case allocated && n > 1:
			r.add("block %d is reachable from %d inodes, want exactly 1", b, n)
		case !allocated && n > 0:
			r.add("block %d is reachable from %d inode(s) but its bitmap bit is clear", b, n)
		}
	}
	return nil
}

// Summary counts the entries found while walking an image from root.
type Summary struct {
	Files int
	Dirs  int
	Devs  int
}

// Info walks the whole tree from "/" and tallies file/dir/device
// counts, grounded on the teacher's cmd/sqfs showInfo/
// countFilesAndDirs helpers.
func Info(fs *xv6fs.FS) (Summary, error) {
	var s Summary
	root := fs.Iget(xv6fs.RootDev, xv6fs.RootIno)
	err := Walk(fs, root, "/", func(p string, ip *xv6fs.Inode) error {
		if lockErr := ip.Ilock(); lockErr != nil {
			return lockErr
		}
		typ := ip.Type
		ip.Iunlock()
		switch typ {
		case xv6fs.TDir:
			s.Dirs++
		case xv6fs.TDev:
			s.Devs++
		default:
			s.Files++
		}
		return nil
	})
	return s, err
}
