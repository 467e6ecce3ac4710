package xv6fs

import "github.com/sirupsen/logrus"

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// SetLogLevel adjusts the verbosity of this package's structured
// logging, shared across every mounted *FS.
func SetLogLevel(level logrus.Level) {
	logrus.SetLevel(level)
}
