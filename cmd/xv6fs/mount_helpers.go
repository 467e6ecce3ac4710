package main

import (
	"github.com/tomgrim-xx/xv6fs"
)

func openImage(path string) (*xv6fs.FS, error) {
	dev, err := xv6fs.NewFileDevice(path)
	if err != nil {
		return nil, err
	}
	return xv6fs.Mount(dev)
}
