// Package thumbnail attaches completion images to todos and derives their
// bounded-size thumbnails.
package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"path"

	"github.com/Tomlord1122/todo-homework/internal/domain"
	"github.com/Tomlord1122/todo-homework/internal/storage"
)

const (
	// MaxSize bounds both thumbnail dimensions, in pixels.
	MaxSize = 300

	// MaxPixels caps width x height of an upload. Larger images are rejected
	// before their pixels are decoded.
	MaxPixels = 40_000_000

	// ImageDir holds original completion images.
	ImageDir = "completed_images"
	// ThumbnailDir holds derived thumbnails.
	ThumbnailDir = "thumbnails"
)

// ErrDecode is returned when an uploaded completion image cannot be decoded.
var ErrDecode = errors.New("cannot decode image")

// Upload is a just received completion image.
type Upload struct {
	Filename string
	Body     io.Reader
}

// Persister writes a todo and its timestamps to the store.
type Persister interface {
	Save(ctx context.Context, todo *domain.Todo) error
}

// Pipeline saves todos, storing a newly attached completion image and its
// thumbnail before the todo itself is persisted.
type Pipeline struct {
	store     storage.Storage
	todos     Persister
	maxSize   int
	maxPixels int
}

func NewPipeline(store storage.Storage, todos Persister) *Pipeline {
	return &Pipeline{store: store, todos: todos, maxSize: MaxSize, maxPixels: MaxPixels}
}

// Save persists todo. When upload is non-nil the image is stored as the
// todo's completion image and, for jpeg, gif and png uploads, a thumbnail no
// larger than MaxSize on either side is stored as well. Both blob names are
// assigned to todo before the final persist.
//
// Decode and encode failures abort the save. Blobs written before the failure
// are left in place. Once the todo is persisted, the blobs it referenced before
// the upload are deleted.
func (p *Pipeline) Save(ctx context.Context, todo *domain.Todo, upload *Upload) error {
	if upload == nil {
		return p.todos.Save(ctx, todo)
	}

	filename := baseName(upload.Filename)
	if filename == "." || filename == ".." || filename == "/" {
		verr := &domain.ValidationError{}
		verr.Add("completed_image", "Invalid file name.")
		return verr
	}

	data, err := io.ReadAll(upload.Body)
	if err != nil {
		return fmt.Errorf("read upload %s: %w", upload.Filename, err)
	}

	img, err := p.decode(data)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrDecode, upload.Filename, err)
	}

	previous := []string{todo.CompletedImage, todo.Thumbnail}
	name, err := p.store.Save(ctx, path.Join(ImageDir, filename), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("store completion image: %w", err)
	}
	todo.CompletedImage = name
	todo.Thumbnail = ""

	if err := p.attachThumbnail(ctx, todo, filename, img); err != nil {
		return err
	}
	if err := p.todos.Save(ctx, todo); err != nil {
		return err
	}
	p.remove(ctx, previous...)
	return nil
}

// decode checks the declared size before allocating the pixel buffer.
func (p *Pipeline) decode(data []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(p.maxPixels) {
		return nil, fmt.Errorf("image is %dx%d, limit is %d pixels", cfg.Width, cfg.Height, p.maxPixels)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

// Remove deletes the blobs a todo references. It is called after the todo
// itself is gone; failures are logged.
func (p *Pipeline) Remove(ctx context.Context, todo *domain.Todo) {
	p.remove(ctx, todo.CompletedImage, todo.Thumbnail)
}

func (p *Pipeline) remove(ctx context.Context, names ...string) {
	for _, name := range names {
		if name == "" {
			continue
		}
		if err := p.store.Delete(ctx, name); err != nil {
			log.Printf("Failed to delete blob %s: %v", name, err)
		}
	}
}

func (p *Pipeline) attachThumbnail(ctx context.Context, todo *domain.Todo, filename string, img image.Image) error {
	format, ok := FormatFor(path.Ext(filename))
	if !ok {
		log.Printf("No thumbnail for %s: unsupported extension", filename)
		return nil
	}

	var buf bytes.Buffer
	if err := Encode(&buf, Resize(img, p.maxSize), format); err != nil {
		return fmt.Errorf("encode thumbnail for %s: %w", filename, err)
	}

	name, err := p.store.Save(ctx, path.Join(ThumbnailDir, Name(filename)), bytes.NewReader(buf.Bytes()))
	if err != nil {
		return fmt.Errorf("store thumbnail: %w", err)
	}
	todo.Thumbnail = name
	return nil
}

// DisplayURL returns the URL to show for a todo's image: the thumbnail when
// there is one, otherwise the original completion image.
func (p *Pipeline) DisplayURL(todo *domain.Todo) (string, bool) {
	return DisplayURL(p.store, todo)
}

// DisplayURL is the store-level form of Pipeline.DisplayURL.
func DisplayURL(store storage.Storage, todo *domain.Todo) (string, bool) {
	switch {
	case todo.Thumbnail != "":
		return store.URL(todo.Thumbnail), true
	case todo.CompletedImage != "":
		return store.URL(todo.CompletedImage), true
	default:
		return "", false
	}
}
