//go:build linux

package ioengine

import (
	"os"

	"golang.org/x/sys/unix"
)

// AdviseSequential hints to the kernel that file will be read or
// written largely in order, matching how a reader or writer driver
// walks HDUs from offset 0. Best-effort: a failure here never fails
// the caller's actual I/O.
func AdviseSequential(file *os.File) error {
	return unix.Fadvise(int(file.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
