package xv6fs_test

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/tomgrim-xx/xv6fs"
	"github.com/tomgrim-xx/xv6fs/mkfs"
)

// TestIallocSpreadsDirectoriesAcrossCylinderGroups reproduces spec
// scenario 5: creating 16 directories in a fresh image with
// ninodes >= 16*IPCG must not pile them onto one cylinder group — no
// group may end up with more than ceil(16/cgcount)+1 directories.
func TestIallocSpreadsDirectoriesAcrossCylinderGroups(t *testing.T) {
	const cgcount = 16
	const ninodes = cgcount * xv6fs.IPCG
	const totalBlocks = cgcount * xv6fs.CGSize

	path := filepath.Join(t.TempDir(), "test.img")
	if err := mkfs.BuildWithInodes(path, xv6fs.BSIZE, totalBlocks, ninodes, nil); err != nil {
		t.Fatalf("mkfs.BuildWithInodes: %v", err)
	}
	dev, err := xv6fs.NewFileDevice(path)
	if err != nil {
		t.Fatalf("NewFileDevice: %v", err)
	}
	fs, err := xv6fs.Mount(dev)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	defer fs.Close()

	proc := &xv6fs.Proc{Cwd: fs.Iget(xv6fs.RootDev, xv6fs.RootIno), Killed: func() bool { return false }}

	groups := make(map[uint32]int)
	for i := 0; i < 16; i++ {
		ip, err := fs.Mkdir(proc, fmt.Sprintf("/dir%d", i))
		if err != nil {
			t.Fatalf("Mkdir(dir%d): %v", i, err)
		}
		groups[ip.Inum/xv6fs.IPCG]++
		ip.Iput()
	}
	// Root's own directory inode also lives in some group; count it too.
	groups[xv6fs.RootIno/xv6fs.IPCG]++

	limit := (16+cgcount-1)/cgcount + 1
	for g, n := range groups {
		if n > limit {
			t.Errorf("cylinder group %d holds %d directories, want at most %d", g, n, limit)
		}
	}
}
