package xv6fs_test

import (
	"bytes"
	"testing"

	"github.com/tomgrim-xx/xv6fs"
)

func TestSnapshotRoundTrip(t *testing.T) {
	const nsectors = 64
	src := newMemDevice(nsectors, xv6fs.BSIZE)
	for i := range src.data {
		src.data[i] = byte(i)
	}

	for _, codec := range []xv6fs.Codec{xv6fs.ZstdCodec{}, xv6fs.XzCodec{}} {
		t.Run(codec.String(), func(t *testing.T) {
			var archive bytes.Buffer
			if err := xv6fs.SnapshotExport(src, nsectors, &archive, codec); err != nil {
				t.Fatalf("SnapshotExport: %v", err)
			}

			dst := newMemDevice(nsectors, xv6fs.BSIZE)
			if err := xv6fs.SnapshotImport(&archive, dst, codec); err != nil {
				t.Fatalf("SnapshotImport: %v", err)
			}

			if !bytes.Equal(src.data, dst.data) {
				t.Errorf("round trip through %s codec did not preserve image bytes", codec.String())
			}
		})
	}
}

func TestCodecByNameUnknown(t *testing.T) {
	if _, err := xv6fs.CodecByName("bogus"); err == nil {
		t.Error("CodecByName(\"bogus\") should fail")
	}
}
