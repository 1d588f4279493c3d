package library

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"labelpro/canvas"
	"labelpro/core"
	"labelpro/stores/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTemplate() canvas.Template {
	text := canvas.NewText()
	text.DataKey = "name"
	return canvas.Template{
		Settings: canvas.DefaultSettings(),
		Objects:  []canvas.Object{text, canvas.NewBarcode("")},
	}
}

func newService() (*Service, *memory.Store) {
	store := memory.NewStore()
	return NewService(store, store), store
}

func TestPersistAndLoad(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()
	tpl := sampleTemplate()

	record, err := svc.Persist(ctx, PersistRequest{
		UserID:   "u1",
		Name:     "Shelf tag",
		Template: tpl,
		Metadata: map[string]string{"category": "retail"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.Empty(t, record.Preview)

	loaded, err := svc.Load(ctx, "u1", record.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Objects, 2)
	assert.Equal(t, tpl.Objects[0].Attrs().ID, loaded.Objects[0].Attrs().ID)
	assert.Equal(t, canvas.KindBarcode, loaded.Objects[1].Kind())

	revs, err := store.ListRevisions(ctx, "u1", record.ID)
	require.NoError(t, err)
	assert.Len(t, revs, 1)
}

func TestPersist_KeepsGivenID(t *testing.T) {
	svc, _ := newService()
	record, err := svc.Persist(context.Background(), PersistRequest{
		UserID: "u1", ID: "tag-1", Name: "Tag", Template: sampleTemplate(),
	})
	require.NoError(t, err)
	assert.Equal(t, "tag-1", record.ID)
}

func TestPersist_Validation(t *testing.T) {
	svc, _ := newService()
	valid := func() PersistRequest {
		return PersistRequest{UserID: "u1", Name: "Tag", Template: sampleTemplate()}
	}

	tests := []struct {
		name  string
		edit  func(*PersistRequest)
		field string
	}{
		{"missing name", func(r *PersistRequest) { r.Name = "" }, "name"},
		{"long name", func(r *PersistRequest) { r.Name = strings.Repeat("x", 121) }, "name"},
		{"missing user", func(r *PersistRequest) { r.UserID = "" }, "UserID"},
		{"path id", func(r *PersistRequest) { r.ID = "../other" }, "id"},
		{"bad settings", func(r *PersistRequest) { r.Template.Settings.Width = 0 }, "settings"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.edit(&req)
			_, err := svc.Persist(context.Background(), req)
			var verr *core.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestEncodePreview(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 800, 400))
	for y := 0; y < 400; y++ {
		for x := 0; x < 800; x++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	url, err := EncodePreview(img)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, "data:image/png;base64,"))

	empty, err := EncodePreview(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestPersist_StoresPreview(t *testing.T) {
	svc, store := newService()
	record, err := svc.Persist(context.Background(), PersistRequest{
		UserID:   "u1",
		Name:     "Tag",
		Template: sampleTemplate(),
		Preview:  image.NewRGBA(image.Rect(0, 0, 40, 20)),
	})
	require.NoError(t, err)

	stored, err := store.Get(context.Background(), "u1", record.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.Preview, "data:image/png;base64,"))
}

func TestLoad_NotFound(t *testing.T) {
	svc, _ := newService()
	_, err := svc.Load(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRestore(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()

	first := sampleTemplate()
	record, err := svc.Persist(ctx, PersistRequest{UserID: "u1", ID: "t1", Name: "v1", Template: first})
	require.NoError(t, err)
	revs, err := store.ListRevisions(ctx, "u1", record.ID)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	original := revs[0].ID

	second := sampleTemplate()
	second.Objects = second.Objects[:1]
	_, err = svc.Persist(ctx, PersistRequest{UserID: "u1", ID: "t1", Name: "v2", Template: second})
	require.NoError(t, err)

	restored, err := svc.Restore(ctx, "u1", "t1", original)
	require.NoError(t, err)
	assert.Equal(t, "v1", restored.Name)

	loaded, err := svc.Load(ctx, "u1", "t1")
	require.NoError(t, err)
	assert.Len(t, loaded.Objects, 2)

	revs, err = store.ListRevisions(ctx, "u1", "t1")
	require.NoError(t, err)
	assert.Len(t, revs, 3)

	_, err = svc.Restore(ctx, "u1", "other", original)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRestore_NoRevisions(t *testing.T) {
	svc := NewService(memory.NewStore(), nil)
	assert.False(t, svc.HasRevisions())
	_, err := svc.Restore(context.Background(), "u1", "t1", "r1")
	assert.ErrorIs(t, err, ErrNoRevisions)
}
