// Package trash provides the move-to-trash collaborator.
//
// The core never unlinks images directly; deletion always goes through a
// Trash so a failed move leaves the collection untouched.
package trash

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Trash moves a file out of the active collection's reach.
type Trash interface {
	MoveToTrash(path string) error
}

// Disabled is a Trash that rejects every move. Used when no writable trash
// directory is available.
type Disabled struct{}

func (Disabled) MoveToTrash(path string) error {
	return fmt.Errorf("trash is disabled, refusing to delete %s", path)
}

// Dir is a Trash backed by a directory. Files are renamed into it, with a
// copy-and-remove fallback for cross-device moves.
type Dir struct {
	root string
}

// NewDir creates the trash directory if needed.
func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create trash directory: %w", err)
	}
	return &Dir{root: root}, nil
}

// Root returns the trash directory path.
func (d *Dir) Root() string {
	return d.root
}

// MoveToTrash moves path into the trash directory. The original name is kept
// when free; otherwise a numeric suffix is added.
func (d *Dir) MoveToTrash(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot trash %s: %w", path, err)
	}

	dest := d.freeName(filepath.Base(path))

	if err := os.Rename(path, dest); err == nil {
		return nil
	}

	// Rename fails across filesystems; fall back to copy then remove.
	if err := copyFile(path, dest); err != nil {
		return fmt.Errorf("failed to move %s to trash: %w", path, err)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("trashed copy of %s but failed to remove original: %w", path, err)
	}
	return nil
}

func (d *Dir) freeName(base string) string {
	dest := filepath.Join(d.root, base)
	if _, err := os.Stat(dest); os.IsNotExist(err) {
		return dest
	}
	ext := filepath.Ext(base)
	stem := base[:len(base)-len(ext)]
	for i := 1; ; i++ {
		dest = filepath.Join(d.root, fmt.Sprintf("%s.%d%s", stem, i, ext))
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			return dest
		}
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
