package jsonfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cofl/osd/internal/core/drive"
)

func TestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("save and get", func(t *testing.T) {
		store := New(filepath.Join(t.TempDir(), "drives.json"))

		d := drive.Drive{
			Name:      "DS001",
			Path:      `\\img-svr-01\MDT_Share$`,
			CreatedAt: time.Now(),
		}

		if err := store.Save(ctx, d); err != nil {
			t.Fatalf("Save: %v", err)
		}

		got, err := store.Get(ctx, "ds001")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}

		if got.Name != d.Name || got.Path != d.Path {
			t.Errorf("got %+v, want %+v", got, d)
		}
	})

	t.Run("get not found", func(t *testing.T) {
		store := New(filepath.Join(t.TempDir(), "drives.json"))

		_, err := store.Get(ctx, "nonexistent")
		if !errors.Is(err, drive.ErrNotFound) {
			t.Errorf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("list sorted", func(t *testing.T) {
		store := New(filepath.Join(t.TempDir(), "drives.json"))

		drives, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(drives) != 0 {
			t.Errorf("got %d drives, want 0", len(drives))
		}

		for _, name := range []string{"lab", "DS001"} {
			if err := store.Save(ctx, drive.Drive{Name: name, Path: "/srv/" + name}); err != nil {
				t.Fatalf("Save %s: %v", name, err)
			}
		}

		drives, err = store.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(drives) != 2 || drives[0].Name != "DS001" {
			t.Errorf("got %+v, want DS001 first of 2", drives)
		}
	})

	t.Run("save updates existing case-insensitively", func(t *testing.T) {
		store := New(filepath.Join(t.TempDir(), "drives.json"))

		if err := store.Save(ctx, drive.Drive{Name: "DS001", Path: "/old"}); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if err := store.Save(ctx, drive.Drive{Name: "ds001", Path: "/new"}); err != nil {
			t.Fatalf("Save update: %v", err)
		}

		got, err := store.Get(ctx, "DS001")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Path != "/new" {
			t.Errorf("got path %q, want %q", got.Path, "/new")
		}

		drives, _ := store.List(ctx)
		if len(drives) != 1 {
			t.Errorf("got %d drives, want 1", len(drives))
		}
	})

	t.Run("save rejects invalid name", func(t *testing.T) {
		store := New(filepath.Join(t.TempDir(), "drives.json"))

		if err := store.Save(ctx, drive.Drive{Name: "bad name", Path: "/x"}); err == nil {
			t.Error("expected error for invalid name")
		}
	})

	t.Run("delete", func(t *testing.T) {
		store := New(filepath.Join(t.TempDir(), "drives.json"))

		if err := store.Save(ctx, drive.Drive{Name: "gone", Path: "/x"}); err != nil {
			t.Fatalf("Save: %v", err)
		}

		if err := store.Delete(ctx, "GONE"); err != nil {
			t.Fatalf("Delete: %v", err)
		}

		_, err := store.Get(ctx, "gone")
		if !errors.Is(err, drive.ErrNotFound) {
			t.Errorf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("delete not found", func(t *testing.T) {
		store := New(filepath.Join(t.TempDir(), "drives.json"))

		err := store.Delete(ctx, "nonexistent")
		if !errors.Is(err, drive.ErrNotFound) {
			t.Errorf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "drives.json")
		if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}

		_, err := New(path).List(ctx)
		if err == nil || !strings.Contains(err.Error(), "parse drives file") {
			t.Errorf("got %v, want parse error", err)
		}
	})
}

func TestStore_ResolveDrive(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "drives.json"))
	if err := store.Save(context.Background(), drive.Drive{Name: "DS001", Path: `\\srv\MDT`}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path, err := store.ResolveDrive("DS001")
	if err != nil {
		t.Fatalf("ResolveDrive: %v", err)
	}
	if path != `\\srv\MDT` {
		t.Errorf("got %q, want %q", path, `\\srv\MDT`)
	}

	_, err = store.ResolveDrive("DS404")
	if err == nil || !strings.Contains(err.Error(), "osd drive add") {
		t.Errorf("got %v, want not registered error", err)
	}
}
