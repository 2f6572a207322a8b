package treewatch

import (
	"io/fs"
	"time"
)

// Kind classifies a path in the snapshot.
type Kind int

const (
	KindFile      Kind = iota // Regular file
	KindDirectory             // Directory
	KindOther                 // Symlink, socket, device, pipe
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "dir"
	default:
		return "other"
	}
}

// Metadata holds the last observed attributes of a path.
type Metadata struct {
	Kind    Kind        // File, directory or other
	Size    int64       // Size in bytes
	ModTime time.Time   // Modification time
	Mode    fs.FileMode // Permission and type bits
}

// IsDir reports whether the metadata describes a directory.
func (m Metadata) IsDir() bool { return m.Kind == KindDirectory }

// IsFile reports whether the metadata describes a regular file.
func (m Metadata) IsFile() bool { return m.Kind == KindFile }

// Equal reports whether two observations of the same path are indistinguishable.
func (m Metadata) Equal(o Metadata) bool {
	return m.Kind == o.Kind && m.Size == o.Size && m.Mode == o.Mode && m.ModTime.Equal(o.ModTime)
}

// metadataFromInfo converts an fs.FileInfo returned by the stat collaborator.
func metadataFromInfo(info fs.FileInfo) Metadata {
	kind := KindOther
	switch {
	case info.Mode().IsRegular():
		kind = KindFile
	case info.IsDir():
		kind = KindDirectory
	}
	return Metadata{
		Kind:    kind,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Mode:    info.Mode(),
	}
}
