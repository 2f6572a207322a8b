package treewatch

import (
	"io/fs"
	"os"
	"sync"

	"github.com/karrick/godirwalk"
)

// FS supplies file metadata and directory listings.
type FS interface {
	// Stat returns metadata for path without following a final symlink.
	Stat(path string) (fs.FileInfo, error)
	// ReadDirnames returns the names of the entries in dir.
	ReadDirnames(dir string) ([]string, error)
}

// OSFS is the FS of the host operating system.
type OSFS struct{}

var scratchPool = sync.Pool{
	New: func() any {
		b := make([]byte, godirwalk.MinimumScratchBufferSize)
		return &b
	},
}

// Stat uses os.Lstat so symlinked directories are reported as KindOther and
// never recursed into.
func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Lstat(path)
}

// ReadDirnames lists dir with godirwalk, reusing pooled scratch buffers.
func (OSFS) ReadDirnames(dir string) ([]string, error) {
	buf := scratchPool.Get().(*[]byte)
	defer scratchPool.Put(buf)
	return godirwalk.ReadDirnames(dir, *buf)
}
