package xv6fs_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tomgrim-xx/xv6fs"
	"github.com/tomgrim-xx/xv6fs/mkfs"
)

func TestBallocBfreeRoundTrip(t *testing.T) {
	fs := buildTestImage(t, 512)

	b, err := fs.Balloc()
	if err != nil {
		t.Fatalf("Balloc: %v", err)
	}
	if err := fs.Bfree(b); err != nil {
		t.Fatalf("Bfree: %v", err)
	}

	b2, err := fs.Balloc()
	if err != nil {
		t.Fatalf("Balloc after Bfree: %v", err)
	}
	if b2 != b {
		t.Errorf("Balloc after Bfree returned %d, want the just-freed block %d", b2, b)
	}
}

func TestBfreeZeroesBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.img")
	if err := mkfs.Build(path, xv6fs.BSIZE, 512, nil); err != nil {
		t.Fatalf("mkfs.Build: %v", err)
	}
	dev, err := xv6fs.NewFileDevice(path)
	if err != nil {
		t.Fatalf("NewFileDevice: %v", err)
	}
	fs, err := xv6fs.Mount(dev)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}

	proc := rootProc(t, fs)
	ip, err := fs.Create(proc, "scratch", xv6fs.TFile, 0, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := fs.Writei(ip, []byte("not zero"), 0); err != nil {
		t.Fatalf("Writei: %v", err)
	}
	// Free the block that now holds "not zero", so the zeroing is
	// observable.
	blocks, err := fs.Blocks(ip)
	if err != nil {
		t.Fatalf("Blocks: %v", err)
	}
	b := blocks[0]
	ip.IunlockPut()

	if err := fs.Bfree(b); err != nil {
		t.Fatalf("Bfree: %v", err)
	}

	b2, err := fs.Balloc()
	if err != nil {
		t.Fatalf("Balloc after Bfree: %v", err)
	}
	if b2 != b {
		t.Fatalf("Balloc after Bfree returned %d, want the just-freed block %d", b2, b)
	}
	fs.Close()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read image: %v", err)
	}
	block := raw[int64(b2)*xv6fs.BSIZE : int64(b2)*xv6fs.BSIZE+xv6fs.BSIZE]
	for i, v := range block {
		if v != 0 {
			t.Fatalf("block %d byte %d = %d, want 0 after Bfree zeroed it", b2, i, v)
		}
	}
}

func TestBfreeDoubleFreePanics(t *testing.T) {
	fs := buildTestImage(t, 512)

	b, err := fs.Balloc()
	if err != nil {
		t.Fatalf("Balloc: %v", err)
	}
	if err := fs.Bfree(b); err != nil {
		t.Fatalf("Bfree: %v", err)
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic on double free, got none")
		}
		var ce *xv6fs.ConsistencyError
		if !errors.As(r.(error), &ce) {
			t.Errorf("recovered value %v is not a *ConsistencyError", r)
		}
	}()
	fs.Bfree(b)
}
