package xv6fs_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/tomgrim-xx/xv6fs"
)

func rootProc(t *testing.T, fs *xv6fs.FS) *xv6fs.Proc {
	t.Helper()
	return &xv6fs.Proc{
		Cwd:    fs.Iget(xv6fs.RootDev, xv6fs.RootIno),
		Killed: func() bool { return false },
	}
}

func TestMountReadsSuperblock(t *testing.T) {
	fs := buildTestImage(t, 512)
	sb := fs.Superblock()
	if sb.Size != 512 {
		t.Errorf("Superblock().Size = %d, want 512", sb.Size)
	}
	if sb.BlockSize != xv6fs.BSIZE {
		t.Errorf("Superblock().BlockSize = %d, want %d", sb.BlockSize, xv6fs.BSIZE)
	}
}

func TestSeedFileIsReadable(t *testing.T) {
	contents := []byte("hello from a seed file\n")
	path := writeTempFile(t, "hello.txt", contents)

	fs := buildTestImage(t, 512, path)
	proc := rootProc(t, fs)

	ip, err := fs.Namei(proc, "hello.txt")
	if err != nil {
		t.Fatalf("Namei: %v", err)
	}
	if err := ip.Ilock(); err != nil {
		t.Fatalf("Ilock: %v", err)
	}
	defer ip.IunlockPut()

	buf := make([]byte, len(contents))
	n, err := fs.Readi(ip, buf, 0)
	if err != nil {
		t.Fatalf("Readi: %v", err)
	}
	if n != len(contents) || !bytes.Equal(buf, contents) {
		t.Errorf("Readi = %q, want %q", buf[:n], contents)
	}
}

func TestCreateWriteReadRoundTrip(t *testing.T) {
	fs := buildTestImage(t, 512)
	proc := rootProc(t, fs)

	ip, err := fs.Create(proc, "greeting", xv6fs.TFile, 0, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	data := []byte("xv6fs round trip")
	n, err := fs.Writei(ip, data, 0)
	if err != nil {
		t.Fatalf("Writei: %v", err)
	}
	if n != len(data) {
		t.Fatalf("Writei wrote %d bytes, want %d", n, len(data))
	}
	ip.Iunlock()
	ip.Iput()

	ip2, err := fs.Namei(proc, "greeting")
	if err != nil {
		t.Fatalf("Namei: %v", err)
	}
	if err := ip2.Ilock(); err != nil {
		t.Fatalf("Ilock: %v", err)
	}
	defer ip2.IunlockPut()

	if ip2.Size != uint32(len(data)) {
		t.Errorf("ip2.Size = %d, want %d", ip2.Size, len(data))
	}
	buf := make([]byte, len(data))
	if _, err := fs.Readi(ip2, buf, 0); err != nil {
		t.Fatalf("Readi: %v", err)
	}
	if !bytes.Equal(buf, data) {
		t.Errorf("Readi = %q, want %q", buf, data)
	}
}

func TestMkdirAndNestedLookup(t *testing.T) {
	fs := buildTestImage(t, 512)
	proc := rootProc(t, fs)

	if _, err := fs.Mkdir(proc, "subdir"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	sub, err := fs.Namei(proc, "subdir")
	if err != nil {
		t.Fatalf("Namei subdir: %v", err)
	}
	if err := sub.Ilock(); err != nil {
		t.Fatalf("Ilock: %v", err)
	}
	if sub.Type != xv6fs.TDir {
		t.Errorf("subdir Type = %v, want TDir", sub.Type)
	}
	sub.IunlockPut()

	nestedProc := &xv6fs.Proc{Cwd: fs.Iget(xv6fs.RootDev, xv6fs.RootIno), Killed: func() bool { return false }}
	if _, err := fs.Create(nestedProc, "subdir/leaf", xv6fs.TFile, 0, 0); err != nil {
		t.Fatalf("Create nested: %v", err)
	}

	leaf, err := fs.Namei(nestedProc, "subdir/leaf")
	if err != nil {
		t.Fatalf("Namei nested: %v", err)
	}
	leaf.Iput()
}

func TestUnlinkRemovesEntry(t *testing.T) {
	fs := buildTestImage(t, 512)
	proc := rootProc(t, fs)

	ip, err := fs.Create(proc, "gone", xv6fs.TFile, 0, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ip.Iunlock()
	ip.Iput()

	if err := fs.Unlink(proc, "gone"); err != nil {
		t.Fatalf("Unlink: %v", err)
	}

	if _, err := fs.Namei(proc, "gone"); !errors.Is(err, xv6fs.ErrNotExist) {
		t.Errorf("Namei after Unlink: got %v, want ErrNotExist", err)
	}
}

func TestUnlinkRefusesNonEmptyDir(t *testing.T) {
	fs := buildTestImage(t, 512)
	proc := rootProc(t, fs)

	if _, err := fs.Mkdir(proc, "populated"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	nestedProc := &xv6fs.Proc{Cwd: fs.Iget(xv6fs.RootDev, xv6fs.RootIno), Killed: func() bool { return false }}
	if _, err := fs.Create(nestedProc, "populated/child", xv6fs.TFile, 0, 0); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := fs.Unlink(proc, "populated"); !errors.Is(err, xv6fs.ErrNotEmpty) {
		t.Errorf("Unlink of non-empty dir: got %v, want ErrNotEmpty", err)
	}
}

func TestCreateExistingFileReopens(t *testing.T) {
	fs := buildTestImage(t, 512)
	proc := rootProc(t, fs)

	ip, err := fs.Create(proc, "dup", xv6fs.TFile, 0, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ip.Iunlock()
	ip.Iput()

	second, err := fs.Create(proc, "dup", xv6fs.TFile, 0, 0)
	if err != nil {
		t.Fatalf("second Create should reopen existing file, got error: %v", err)
	}
	second.Iunlock()
	second.Iput()
}

func TestWriteBeyondMaxFileClamps(t *testing.T) {
	// 16384 blocks gives mkfs's default inode budget a full group of
	// inode blocks, so the data blocks of a MAXFILE-sized file all come
	// after group 0's bitmap block.
	fs := buildTestImage(t, 16384)
	proc := rootProc(t, fs)

	ip, err := fs.Create(proc, "huge", xv6fs.TFile, 0, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer ip.IunlockPut()

	// Writei rejects a start past the end of the file, so first fill
	// the file to one block short of MAXFILE; the write from there
	// straddles the ceiling: half lands inside the file, half falls
	// off the edge.
	off := uint32(xv6fs.MaxFile-1) * xv6fs.BSIZE
	if n, err := fs.Writei(ip, make([]byte, off), 0); err != nil || n != int(off) {
		t.Fatalf("Writei filling the file to %d bytes: wrote %d, err %v", off, n, err)
	}
	src := bytes.Repeat([]byte("x"), 2*xv6fs.BSIZE)
	n, err := fs.Writei(ip, src, off)
	if err != nil {
		t.Fatalf("Writei straddling MAXFILE: %v", err)
	}
	if want := xv6fs.BSIZE; n != want {
		t.Errorf("Writei straddling MAXFILE wrote %d bytes, want %d (clamped to MAXFILE*BSIZE-off)", n, want)
	}
	if ip.Size != xv6fs.MaxFile*xv6fs.BSIZE {
		t.Errorf("ip.Size = %d, want %d (MAXFILE*BSIZE)", ip.Size, xv6fs.MaxFile*xv6fs.BSIZE)
	}

	// A write that starts at or past the ceiling clamps to zero bytes
	// rather than being rejected.
	n, err = fs.Writei(ip, []byte("y"), xv6fs.MaxFile*xv6fs.BSIZE)
	if err != nil {
		t.Fatalf("Writei at MAXFILE boundary: %v", err)
	}
	if n != 0 {
		t.Errorf("Writei at MAXFILE boundary wrote %d bytes, want 0", n)
	}

	// An off+n unsigned overflow is a hard failure.
	_, err = fs.Writei(ip, src, ^uint32(0)-10)
	if !errors.Is(err, xv6fs.ErrFileTooBig) {
		t.Errorf("Writei with off+n overflow: got %v, want ErrFileTooBig", err)
	}
}

// TestIndirectBlockAllocatedAndFreed writes enough data to push the
// 13th block (index NDirect, zero-based) into the single indirect
// block, then truncates and checks the indirect block and everything
// it points to are freed.
func TestIndirectBlockAllocatedAndFreed(t *testing.T) {
	fs := buildTestImage(t, 512)
	proc := rootProc(t, fs)

	ip, err := fs.Create(proc, "spans", xv6fs.TFile, 0, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	src := bytes.Repeat([]byte("z"), 13*xv6fs.BSIZE)
	n, err := fs.Writei(ip, src, 0)
	if err != nil {
		t.Fatalf("Writei: %v", err)
	}
	if n != len(src) {
		t.Fatalf("Writei wrote %d bytes, want %d", n, len(src))
	}

	dst := make([]byte, len(src))
	if _, err := fs.Readi(ip, dst, 0); err != nil {
		t.Fatalf("Readi: %v", err)
	}
	if !bytes.Equal(src, dst) {
		t.Fatal("data read back across the direct/indirect boundary does not match what was written")
	}

	blocks, err := fs.Blocks(ip)
	if err != nil {
		t.Fatalf("Blocks: %v", err)
	}
	// 12 direct blocks + 1 indirect block + 1 block addressed through it.
	if want := xv6fs.NDirect + 2; len(blocks) != want {
		t.Fatalf("Blocks returned %d entries, want %d (NDirect direct + indirect block + 1 indirect-addressed block)", len(blocks), want)
	}
	for _, b := range blocks {
		allocated, err := fs.BlockAllocated(b)
		if err != nil {
			t.Fatalf("BlockAllocated(%d): %v", b, err)
		}
		if !allocated {
			t.Errorf("block %d is owned by the inode but its bitmap bit is clear", b)
		}
	}

	if err := fs.Itrunc(ip); err != nil {
		t.Fatalf("Itrunc: %v", err)
	}
	if ip.Size != 0 {
		t.Errorf("ip.Size after Itrunc = %d, want 0", ip.Size)
	}

	afterBlocks, err := fs.Blocks(ip)
	if err != nil {
		t.Fatalf("Blocks after Itrunc: %v", err)
	}
	if len(afterBlocks) != 0 {
		t.Errorf("Blocks after Itrunc returned %d entries, want 0", len(afterBlocks))
	}
	for _, b := range blocks {
		allocated, err := fs.BlockAllocated(b)
		if err != nil {
			t.Fatalf("BlockAllocated(%d) after Itrunc: %v", b, err)
		}
		if allocated {
			t.Errorf("block %d is still marked allocated after Itrunc freed it", b)
		}
	}

	ip.IunlockPut()
}
