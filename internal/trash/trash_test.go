package trash

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMoveToTrash(t *testing.T) {
	root := t.TempDir()
	d, err := NewDir(filepath.Join(root, "trash"))
	if err != nil {
		t.Fatal(err)
	}

	src := filepath.Join(root, "photo.jpg")
	if err := os.WriteFile(src, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := d.MoveToTrash(src); err != nil {
		t.Fatalf("MoveToTrash() error: %v", err)
	}

	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Error("original file still exists after trash")
	}
	if _, err := os.Stat(filepath.Join(d.Root(), "photo.jpg")); err != nil {
		t.Errorf("trashed file missing: %v", err)
	}
}

func TestMoveToTrashNameCollision(t *testing.T) {
	root := t.TempDir()
	d, err := NewDir(filepath.Join(root, "trash"))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		src := filepath.Join(root, "photo.jpg")
		if err := os.WriteFile(src, []byte{byte(i)}, 0644); err != nil {
			t.Fatal(err)
		}
		if err := d.MoveToTrash(src); err != nil {
			t.Fatalf("MoveToTrash() round %d error: %v", i, err)
		}
	}

	entries, err := os.ReadDir(d.Root())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("trash holds %d files, want 3 (collision suffixes)", len(entries))
	}
}

func TestMoveToTrashMissingFile(t *testing.T) {
	d, err := NewDir(filepath.Join(t.TempDir(), "trash"))
	if err != nil {
		t.Fatal(err)
	}
	if err := d.MoveToTrash(filepath.Join(t.TempDir(), "gone.jpg")); err == nil {
		t.Error("MoveToTrash() on missing file: want error")
	}
}
