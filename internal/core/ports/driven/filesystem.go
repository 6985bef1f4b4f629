package driven

import "io/fs"

// FileSystem is the read-only directory listing and file read capability the indexer consumes.
// Paths are OS paths. ReadDir returns entries sorted by name.
type FileSystem interface {
	// ReadDir lists the entries of a directory
	ReadDir(name string) ([]fs.DirEntry, error)

	// ReadFile reads a whole file
	ReadFile(name string) ([]byte, error)

	// Stat returns file metadata (modification time is used for lastModified)
	Stat(name string) (fs.FileInfo, error)
}
