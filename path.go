package xv6fs

import "strings"

// Proc stands in for the xv6 process struct's file system context:
// just enough state (current working directory, a cancellation check)
// for Namei/NameiParent to resolve relative paths. There is no
// scheduler in this package, so Killed is a plain predicate rather
// than a signal a timer interrupt sets.
type Proc struct {
	Cwd    *Inode
	Killed func() bool
}

// skipelem splits path into its first element and the remainder,
// skipping leading slashes. Equivalent of fs.c's skipelem(). Returns
// ok=false once path is fully consumed.
func skipelem(path string) (elem, rest string, ok bool) {
	for len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}
	if len(path) == 0 {
		return "", "", false
	}
	i := strings.IndexByte(path, '/')
	if i < 0 {
		elem = path
		rest = ""
	} else {
		elem = path[:i]
		rest = path[i:]
		for len(rest) > 0 && rest[0] == '/' {
			rest = rest[1:]
		}
	}
	if len(elem) > DirSiz {
		elem = elem[:DirSiz]
	}
	return elem, rest, true
}

// namex is the shared walk behind Namei and NameiParent. When
// nameiparent is true it stops one element short, returning the parent
// directory and leaving the final element in name.
func (fs *FS) namex(p *Proc, path string, nameiparent bool) (*Inode, string, error) {
	var ip *Inode
	if len(path) > 0 && path[0] == '/' {
		ip = fs.Iget(RootDev, RootIno)
	} else {
		ip = fs.Idup(p.Cwd)
	}

	var name string
	rest := path
	for {
		elem, next, ok := skipelem(rest)
		if !ok {
			break
		}
		name = elem
		rest = next

		if err := ip.Ilock(); err != nil {
			ip.Iput()
			return nil, "", err
		}
		if ip.Type != TDir {
			ip.IunlockPut()
			return nil, "", ErrNotDir
		}
		if nameiparent && rest == "" {
			ip.Iunlock()
			return ip, name, nil
		}
		next2, _, err := fs.Dirlookup(ip, elem)
		if err != nil {
			ip.IunlockPut()
			return nil, "", ErrNotExist
		}
		ip.IunlockPut()
		ip = next2
	}
	if nameiparent {
		ip.Iput()
		return nil, "", ErrInvalidArg
	}
	return ip, name, nil
}

// Namei resolves path to the inode it names. Equivalent of fs.c's
// namei(). The returned inode is not locked.
func (fs *FS) Namei(p *Proc, path string) (*Inode, error) {
	ip, _, err := fs.namex(p, path, false)
	return ip, err
}

// NameiParent resolves all but the last element of path, returning the
// parent directory (unlocked) and the final element's name.
// Equivalent of fs.c's nameiparent().
func (fs *FS) NameiParent(p *Proc, path string) (*Inode, string, error) {
	return fs.namex(p, path, true)
}
