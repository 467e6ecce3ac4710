package xv6fs_test

import (
	"testing"

	"github.com/tomgrim-xx/xv6fs"
)

func TestIBlock(t *testing.T) {
	cases := []struct {
		inum uint32
		want uint32
	}{
		{0, 2},
		{xv6fs.IPB - 1, 2},
		{xv6fs.IPB, 3},
		{xv6fs.IPCG, xv6fs.CGSize + 2},
	}
	for _, c := range cases {
		if got := xv6fs.IBlock(c.inum); got != c.want {
			t.Errorf("IBlock(%d) = %d, want %d", c.inum, got, c.want)
		}
	}
}

func TestBBlock(t *testing.T) {
	cases := []struct {
		block uint32
		want  uint32
	}{
		{0, xv6fs.IBPCG + 2},
		{xv6fs.CGSize - 1, xv6fs.IBPCG + 2},
		{xv6fs.CGSize, xv6fs.CGSize + xv6fs.IBPCG + 2},
	}
	for _, c := range cases {
		if got := xv6fs.BBlock(c.block); got != c.want {
			t.Errorf("BBlock(%d) = %d, want %d", c.block, got, c.want)
		}
	}
}

func TestITypeString(t *testing.T) {
	if xv6fs.TDir.String() != "dir" {
		t.Errorf("TDir.String() = %q, want %q", xv6fs.TDir.String(), "dir")
	}
	if xv6fs.TUnused.String() != "unused" {
		t.Errorf("TUnused.String() = %q, want %q", xv6fs.TUnused.String(), "unused")
	}
}
