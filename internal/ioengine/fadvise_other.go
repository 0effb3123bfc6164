//go:build !linux

package ioengine

import "os"

// AdviseSequential is a no-op outside Linux; fadvise has no portable
// equivalent worth shimming.
func AdviseSequential(file *os.File) error {
	return nil
}
