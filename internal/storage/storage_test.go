package storage

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSystemSaveOpenDelete(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewFileSystem(root, "/media")
	require.NoError(t, err)

	name, err := s.Save(ctx, "completed_images/photo.jpg", strings.NewReader("jpeg bytes"))
	require.NoError(t, err)
	assert.Equal(t, "completed_images/photo.jpg", name)
	assert.Equal(t, "/media/completed_images/photo.jpg", s.URL(name))

	onDisk, err := os.ReadFile(filepath.Join(root, "completed_images", "photo.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(onDisk))

	rc, err := s.Open(ctx, name)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "jpeg bytes", string(got))

	require.NoError(t, s.Delete(ctx, name))
	_, err = s.Open(ctx, name)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	assert.NoError(t, s.Delete(ctx, name), "deleting a missing blob is not an error")
}

func TestFileSystemSaveCollision(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileSystem(t.TempDir(), "/media/")
	require.NoError(t, err)

	first, err := s.Save(ctx, "thumbnails/photo_thumb.png", strings.NewReader("a"))
	require.NoError(t, err)
	second, err := s.Save(ctx, "thumbnails/photo_thumb.png", strings.NewReader("b"))
	require.NoError(t, err)

	assert.Equal(t, "thumbnails/photo_thumb.png", first)
	assert.Regexp(t, regexp.MustCompile(`^thumbnails/photo_thumb_[0-9a-f]{7}\.png$`), second)
}

func TestCleanName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "a/b.png", want: "a/b.png"},
		{in: "/a//b.png", want: "a/b.png"},
		{in: "a\\b.png", want: "a/b.png"},
		{in: "../../etc/passwd", want: "etc/passwd"},
		{in: "", wantErr: true},
		{in: "/", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := cleanName(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("/media/")

	name, err := m.Save(ctx, "x/y.gif", strings.NewReader("gif"))
	require.NoError(t, err)
	assert.Equal(t, []byte("gif"), m.Bytes(name))
	assert.Equal(t, "/media/x/y.gif", m.URL(name))

	again, err := m.Save(ctx, "x/y.gif", strings.NewReader("gif2"))
	require.NoError(t, err)
	assert.NotEqual(t, name, again)
	assert.Equal(t, 2, m.Len())

	_, err = m.Open(ctx, "missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	require.NoError(t, m.Delete(ctx, name))
	assert.Nil(t, m.Bytes(name))
	assert.Equal(t, 1, m.Len())
}
