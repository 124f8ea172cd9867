package storage

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

const (
	thumbnailMaxSize = 480
	webpQuality      = 70
)

// writeThumbnail stores a downscaled WebP next to the cover so feed cards
// never pull the full-size upload.
func (b *Bucket) writeThumbnail(coverPath string, content []byte) error {
	src, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return err
	}

	resized := resizeToFit(src, thumbnailMaxSize, thumbnailMaxSize)
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, resized, &webp.Options{Quality: webpQuality}); err != nil {
		return err
	}

	thumbPath := filepath.Join(filepath.Dir(coverPath), thumbnailName(filepath.Base(coverPath)))
	return os.WriteFile(thumbPath, buf.Bytes(), 0o600)
}

// ThumbnailURL maps a cover's public URL to its thumbnail's. It does not
// check existence; callers fall back to the cover on a 404.
func (b *Bucket) ThumbnailURL(coverURL string) string {
	name := strings.TrimPrefix(coverURL, b.baseURL+"/")
	if name == coverURL || name == "" {
		return coverURL
	}
	return b.publicURL(thumbnailName(name))
}

func thumbnailName(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "_thumb.webp"
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}
