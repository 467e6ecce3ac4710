package xv6fs

import (
	"sync"
	"sync/atomic"
)

// Inode is the in-memory inode, the Go analogue of xv6's struct
// inode: a cached, ref-counted handle onto a dinode, plus the fields
// copied out of it once loaded. Valid is false until Ilock has read
// the dinode off disk at least once.
type Inode struct {
	fs  *FS
	Dev uint32
	Inum uint32

	ref   int32 // reference count, xv6's ip->ref
	valid int32 // 0 or 1, set atomically once the dinode has been read

	mu      sync.Mutex // serializes Ilock/Iunlock against this inode only
	busy    bool       // xv6's I_BUSY: someone currently holds the lock
	waiters sync.Cond

	// Fields mirrored from the on-disk dinode once valid==1.
	Type  IType
	Major int16
	Minor int16
	NLink int16
	Size  uint32
	addrs [NAddrs]uint32
}

// ICache is the in-memory inode cache: a fixed-size table of inode
// slots, shared by every open path through the file system. Mirrors
// fs.c's icache: a single lock protecting ref-count bookkeeping across
// all slots, with a per-inode sleep/wakeup for the I_BUSY field.
type ICache struct {
	mu    sync.Mutex
	size  int
	table []*Inode
}

func (c *ICache) init(size int) {
	c.size = size
	c.table = make([]*Inode, size)
}

// Iget finds the in-memory inode for (dev, inum), incrementing its
// reference count, or allocates an empty (invalid) slot for it if it
// is not already cached. Equivalent of fs.c's iget(). Does not read
// the disk or lock the inode; callers must Ilock before touching its
// contents.
func (fs *FS) Iget(dev, inum uint32) *Inode {
	c := &fs.icache
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ip := range c.table {
		if ip != nil && ip.ref > 0 && ip.Dev == dev && ip.Inum == inum {
			ip.ref++
			return ip
		}
	}

	for i, ip := range c.table {
		if ip == nil || ip.ref == 0 {
			ni := &Inode{fs: fs, Dev: dev, Inum: inum, ref: 1}
			ni.waiters.L = &ni.mu
			c.table[i] = ni
			return ni
		}
	}

	panicResourceExhausted("inodes in cache")
	return nil
}

// Idup increments ip's reference count and returns ip, xv6's idup().
func (fs *FS) Idup(ip *Inode) *Inode {
	fs.icache.mu.Lock()
	defer fs.icache.mu.Unlock()
	ip.ref++
	return ip
}

// Ilock locks ip, reading its dinode off disk the first time it is
// locked after being fetched by Iget. Blocks (via sync.Cond) if
// another goroutine currently holds the lock, the direct translation
// of fs.c's sleep()/wakeup() pair on I_BUSY.
func (ip *Inode) Ilock() error {
	if ip == nil || ip.ref < 1 {
		panicConsistency("Ilock on unreferenced inode")
	}
	ip.mu.Lock()
	for ip.busy {
		ip.waiters.Wait()
	}
	ip.busy = true
	ip.mu.Unlock()

	if atomic.LoadInt32(&ip.valid) == 0 {
		d, err := ip.fs.readDinode(ip.Inum)
		if err != nil {
			ip.Iunlock()
			return err
		}
		ip.Type = d.Type
		ip.Major = d.Major
		ip.Minor = d.Minor
		ip.NLink = d.NLink
		ip.Size = d.Size
		ip.addrs = d.Addrs
		atomic.StoreInt32(&ip.valid, 1)
		if ip.Type == TUnused {
			ip.Iunlock()
			panicConsistency("Ilock: no such inode")
		}
	}
	return nil
}

// Iunlock releases ip's lock, waking one waiter if any. Equivalent of
// fs.c's iunlock().
func (ip *Inode) Iunlock() {
	ip.mu.Lock()
	if !ip.busy {
		ip.mu.Unlock()
		panicConsistency("Iunlock of non-locked inode")
	}
	ip.busy = false
	ip.mu.Unlock()
	ip.waiters.Signal()
}

// Iput releases a reference to ip. If this was the last reference and
// the on-disk link count has dropped to zero, the inode's blocks are
// truncated and its dinode slot freed — xv6's iput()/itrunc()
// deletion path, run eagerly here since there is no reference-counted
// buffer cache deferring the work to the next open.
func (ip *Inode) Iput() error {
	fs := ip.fs
	ip.mu.Lock()
	for ip.busy {
		ip.waiters.Wait()
	}
	ip.busy = true
	ip.mu.Unlock()

	fs.icache.mu.Lock()
	refAfterThis := ip.ref - 1
	fs.icache.mu.Unlock()

	if atomic.LoadInt32(&ip.valid) == 1 && ip.NLink == 0 && refAfterThis == 0 {
		if err := fs.Itrunc(ip); err != nil {
			ip.Iunlock()
			return err
		}
		ip.Type = TUnused
		if err := fs.writeDinode(ip.Inum, &dinode{}); err != nil {
			ip.Iunlock()
			return err
		}
		atomic.StoreInt32(&ip.valid, 0)
	}

	ip.busy = false
	ip.waiters.Signal()

	fs.icache.mu.Lock()
	ip.ref--
	fs.icache.mu.Unlock()
	return nil
}

// IunlockPut is the common Iunlock()+Iput() pairing, xv6's
// iunlockput().
func (ip *Inode) IunlockPut() error {
	ip.Iunlock()
	return ip.Iput()
}
