package persist

import (
	"fmt"
	"os"
	"path/filepath"
)

// dirPerm is the mode of directories created for history documents. They
// hold clipboard contents, so only the owner may list them.
const dirPerm = 0o700

// WriteFileAtomic replaces path with data so that a crash leaves either the
// old or the new file, never a partial one. Missing parent directories are
// created.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("%w: mkdir %s: %w", ErrIO, dir, err)
	}
	if err := replaceFile(path, data); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}
