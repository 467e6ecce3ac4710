package xv6fs

// initGroupStats populates fs.cgstats by scanning every on-disk dinode
// once at mount time, the Go counterpart of fs_init's cylinder-group
// census: usedInodes counts allocated inodes, dirCount counts T_DIR
// inodes, both per group of IPCG inode numbers.
func (fs *FS) initGroupStats() error {
	ngroups := (fs.sb.NInodes + IPCG - 1) / IPCG
	fs.cgstats = make([]groupStats, ngroups)

	for inum := uint32(0); inum < fs.sb.NInodes; inum++ {
		d, err := fs.readDinode(inum)
		if err != nil {
			return err
		}
		if d.Type == TUnused {
			continue
		}
		g := inum / IPCG
		fs.cgstats[g].usedInodes++
		if d.Type == TDir {
			fs.cgstats[g].dirCount++
		}
	}
	return nil
}

// chooseGroup picks the cylinder group a new inode of the given type
// should be placed in, per spec §4.4: directories go to the
// least-loaded group (lowest dircount among groups whose usedinodes is
// below the per-group mean, ties broken by lowest index, falling back
// to group 0 if none qualify); everything else is placed alongside its
// parent directory's group. Caller must hold fs.cgMu.
func (fs *FS) chooseGroup(typ IType, parentInum uint32) uint32 {
	if typ != TDir {
		return (parentInum / IPCG) % uint32(len(fs.cgstats))
	}

	var total uint64
	for _, g := range fs.cgstats {
		total += uint64(g.usedInodes)
	}
	// Computed as a float rather than truncating integer division: with
	// few inodes allocated so far, an integer mean rounds down to 0 and
	// "usedinodes below the mean" would vacuously exclude every group
	// (usedinodes can't be negative), defeating the spread policy right
	// when it matters most — the first handful of directories.
	mean := float64(total) / float64(len(fs.cgstats))

	best := uint32(0)
	found := false
	for i, g := range fs.cgstats {
		if float64(g.usedInodes) >= mean {
			continue
		}
		if !found || g.dirCount < fs.cgstats[best].dirCount {
			best = uint32(i)
			found = true
		}
	}
	return best
}

// Ialloc finds an unused dinode, marks it allocated with the given
// type, and returns a cached, unlocked *Inode for it. Equivalent of
// fs.c's ialloc(dev, type, parent_inum), with the Open Question 1 fix
// applied: the original only retries inodes 1..start when the first
// pass (start..ninodes) comes up empty, silently never considering
// group 0 if the scan started mid-image. Here the fallback pass covers
// every inode number from 1 up (inode 0 is never handed out), so a
// genuinely full image is the only way to exhaust this call.
func (fs *FS) Ialloc(typ IType, parentInum uint32) (*Inode, error) {
	fs.cgMu.Lock()
	defer fs.cgMu.Unlock()

	bestgroup := fs.chooseGroup(typ, parentInum)
	start := bestgroup * IPCG
	if start == 0 {
		start = 1
	}

	for pass := 0; pass < 2; pass++ {
		var lo, hi uint32
		if pass == 0 {
			lo, hi = start, fs.sb.NInodes
		} else {
			lo, hi = 0, fs.sb.NInodes
		}
		for inum := lo; inum < hi; inum++ {
			if inum == 0 {
				continue
			}
			d, err := fs.readDinode(inum)
			if err != nil {
				return nil, err
			}
			if d.Type == TUnused {
				d.Type = typ
				if err := fs.writeDinode(inum, &d); err != nil {
					return nil, err
				}
				g := inum / IPCG
				fs.cgstats[g].usedInodes++
				if typ == TDir {
					fs.cgstats[g].dirCount++
				}
				ip := fs.Iget(RootDev, inum)
				return ip, nil
			}
		}
	}
	panicResourceExhausted("inodes")
	return nil, nil
}
