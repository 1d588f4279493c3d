package filesystem

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"labelpro/core"
)

func setupStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() failed: %v", err)
	}
	return store, dir
}

func TestSaveGetDelete(t *testing.T) {
	store, dir := setupStore(t)
	ctx := context.Background()

	rec := &core.TemplateRecord{ID: "t1", UserID: "u1", Name: "Badges", Data: []byte(`{"objects":[]}`)}
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "u1", "t1")); err != nil {
		t.Errorf("template file not written: %v", err)
	}

	got, err := store.Get(ctx, "u1", "t1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Name != "Badges" || string(got.Data) != `{"objects":[]}` || got.UserID != "u1" {
		t.Errorf("Get() = %+v", got)
	}

	if err := store.Delete(ctx, "u1", "t1"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, err := store.Get(ctx, "u1", "t1"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get() after delete = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "u1", "t1"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second Delete() = %v, want ErrNotFound", err)
	}
}

func TestSave_KeepsCreatedAt(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	first := &core.TemplateRecord{ID: "t1", UserID: "u1", Name: "a"}
	if err := store.Save(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := &core.TemplateRecord{ID: "t1", UserID: "u1", Name: "b"}
	if err := store.Save(ctx, second); err != nil {
		t.Fatal(err)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", second.CreatedAt, first.CreatedAt)
	}
}

func TestList(t *testing.T) {
	store, dir := setupStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if err := store.Save(ctx, &core.TemplateRecord{ID: id, UserID: "u1", Data: []byte("{}")}); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "u1", "broken"), []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	list, err := store.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("List() returned %d, want 2", len(list))
	}
	for _, r := range list {
		if r.Data != nil {
			t.Errorf("List() included data for %s", r.ID)
		}
	}

	empty, err := store.List(ctx, "nobody")
	if err != nil || len(empty) != 0 {
		t.Errorf("List() for unknown user = %v, %v", empty, err)
	}
}

func TestPathTraversalRejected(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	for _, id := range []string{"../escape", "..", "a/b", ""} {
		var verr *core.ValidationError
		if _, err := store.Get(ctx, "u1", id); !errors.As(err, &verr) {
			t.Errorf("Get(%q) = %v, want ValidationError", id, err)
		}
		if err := store.Save(ctx, &core.TemplateRecord{ID: id, UserID: "u1"}); !errors.As(err, &verr) {
			t.Errorf("Save(%q) = %v, want ValidationError", id, err)
		}
	}
}
