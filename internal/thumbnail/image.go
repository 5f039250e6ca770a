package thumbnail

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"path"
	"strings"

	"golang.org/x/image/draw"

	// Extra decoders: such uploads are accepted but never get a thumbnail.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Format is an output encoding for thumbnails.
type Format string

const (
	JPEG Format = "jpeg"
	GIF  Format = "gif"
	PNG  Format = "png"
)

var formatsByExt = map[string]Format{
	".jpg":  JPEG,
	".jpeg": JPEG,
	".gif":  GIF,
	".png":  PNG,
}

// FormatFor maps a file extension (with the dot, any case) to a thumbnail format.
func FormatFor(ext string) (Format, bool) {
	f, ok := formatsByExt[strings.ToLower(ext)]
	return f, ok
}

// Name derives the thumbnail file name: photo.JPG -> photo_thumb.jpg.
func Name(filename string) string {
	base := baseName(filename)
	ext := path.Ext(base)
	return strings.TrimSuffix(base, ext) + "_thumb" + strings.ToLower(ext)
}

// baseName strips any client supplied directories from an upload name.
func baseName(filename string) string {
	return path.Base(strings.ReplaceAll(filename, "\\", "/"))
}

// Fit returns the size of a w x h image scaled down to fit in a bound x bound
// box, keeping the aspect ratio. Images already inside the box keep their size.
func Fit(w, h, bound int) (int, int) {
	if w <= bound && h <= bound {
		return w, h
	}
	scale := math.Min(float64(bound)/float64(w), float64(bound)/float64(h))
	nw := clamp(int(math.Round(float64(w)*scale)), 1, bound)
	nh := clamp(int(math.Round(float64(h)*scale)), 1, bound)
	return nw, nh
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// Resize scales img to fit within a bound x bound box using bilinear filtering.
func Resize(img image.Image, bound int) image.Image {
	b := img.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), bound)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Encode writes img to w in format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case JPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpeg.DefaultQuality})
	case GIF:
		return gif.Encode(w, img, nil)
	case PNG:
		return png.Encode(w, img)
	default:
		return fmt.Errorf("unsupported thumbnail format %q", f)
	}
}
