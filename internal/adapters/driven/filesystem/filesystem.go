// Package filesystem reads project trees from the local disk.
package filesystem

import (
	"io/fs"
	"os"

	"github.com/custodia-labs/sercha-components/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.FileSystem = (*OS)(nil)

// OS implements driven.FileSystem over the os package
type OS struct{}

// New returns the local file system
func New() *OS {
	return &OS{}
}

// ReadDir returns entries sorted by file name
func (OS) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(name)
}

func (OS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (OS) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}
