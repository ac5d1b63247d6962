package output

import (
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// IsPPM reports whether filename has a .ppm extension
func IsPPM(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".ppm")
}

// SaveImage writes img to filename. ".ppm" uses the P3 encoder; any other
// extension is handed to imaging, which picks PNG, JPEG, GIF, TIFF or BMP.
func SaveImage(filename string, img *image.RGBA) error {
	if IsPPM(filename) {
		return WritePPMFile(filename, img)
	}
	if err := imaging.Save(img, filename); err != nil {
		return fmt.Errorf("failed to save %s: %w", filename, err)
	}
	return nil
}

// EncodePNG writes img to w as PNG
func EncodePNG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.PNG)
}

// Thumbnail scales img down to fit within maxSize x maxSize, keeping the
// aspect ratio. Images already small enough are returned unchanged.
func Thumbnail(img image.Image, maxSize uint) image.Image {
	return resize.Thumbnail(maxSize, maxSize, img, resize.Bilinear)
}

// ThumbnailPath returns the path a thumbnail of filename is saved to:
// "render.ppm" becomes "render_thumb.png"
func ThumbnailPath(filename string) string {
	ext := filepath.Ext(filename)
	return strings.TrimSuffix(filename, ext) + "_thumb.png"
}

// SaveThumbnail writes a thumbnail of img next to filename and returns its path
func SaveThumbnail(filename string, img image.Image, maxSize uint) (string, error) {
	thumbPath := ThumbnailPath(filename)
	if err := imaging.Save(Thumbnail(img, maxSize), thumbPath); err != nil {
		return "", fmt.Errorf("failed to save thumbnail %s: %w", thumbPath, err)
	}
	return thumbPath, nil
}
