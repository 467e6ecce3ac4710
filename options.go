package xv6fs

import "io"

// Option configures an *FS at Mount time, following the teacher's
// functional-option pattern.
type Option func(fs *FS)

// WithCacheSize overrides the number of in-memory inode cache slots
// (xv6's NINODE, compiled to a fixed 50).
func WithCacheSize(n int) Option {
	return func(fs *FS) {
		if n > 0 {
			fs.icache.size = n
		}
	}
}

// WithLogOutput redirects structured log output; by default logrus
// writes to its package-level default (stderr).
func WithLogOutput(w io.Writer) Option {
	return func(fs *FS) {
		fs.log.Logger.SetOutput(w)
	}
}

// WithDevsw installs a device-file handler at the given major number,
// used to service reads/writes on T_DEV inodes (the console, in xv6;
// any caller-supplied byte stream here).
func WithDevsw(major uint16, d DevHandler) Option {
	return func(fs *FS) {
		if int(major) < len(fs.devsw) {
			fs.devsw[major] = d
		}
	}
}
