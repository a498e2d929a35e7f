package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_SaveAndGet(t *testing.T) {
	m := NewMemoryStorage()

	rec := &ImageRecord{Kind: KindGeneration, Name: "Test", FileName: "test", Path: "/out/test.jpg"}
	require.NoError(t, m.SaveImage(rec))
	require.NotEmpty(t, rec.Id)
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := m.GetImage(rec.Id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "/out/test.jpg", got.Path)

	// returned records are copies
	got.Path = "changed"
	again, _ := m.GetImage(rec.Id)
	assert.Equal(t, "/out/test.jpg", again.Path)

	missing, err := m.GetImage("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryStorage_ListNewestFirst(t *testing.T) {
	m := NewMemoryStorage()
	base := time.Now()
	for i, name := range []string{"a", "b", "c"} {
		require.NoError(t, m.SaveImage(&ImageRecord{
			Name:      name,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	list, err := m.ListImages(0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "c", list[0].Name)
	assert.Equal(t, "a", list[2].Name)

	list, err = m.ListImages(2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[1].Name)
}

func TestMemoryStorage_SaveReplacesSameId(t *testing.T) {
	m := NewMemoryStorage()
	require.NoError(t, m.SaveImage(&ImageRecord{Id: "x", Name: "first"}))
	require.NoError(t, m.SaveImage(&ImageRecord{Id: "x", Name: "second"}))

	list, _ := m.ListImages(0)
	require.Len(t, list, 1)
	assert.Equal(t, "second", list[0].Name)
}
