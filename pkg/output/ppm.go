package output

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"
)

// EncodePPM writes img as a plain-text P3 portable pixmap: the header
// "P3\n<width> <height>\n255\n" followed by one "r g b" line per pixel in
// row-major order, top row first. Output is buffered and flushed once.
func EncodePPM(w io.Writer, img *image.RGBA) error {
	bounds := img.Bounds()
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "P3\n%d %d\n255\n", bounds.Dx(), bounds.Dy()); err != nil {
		return fmt.Errorf("failed to write PPM header: %w", err)
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.RGBAAt(x, y)
			if _, err := fmt.Fprintf(bw, "%d %d %d\n", c.R, c.G, c.B); err != nil {
				return fmt.Errorf("failed to write PPM pixel: %w", err)
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush PPM output: %w", err)
	}
	return nil
}

// WritePPMFile encodes img to filename, creating or truncating it
func WritePPMFile(filename string, img *image.RGBA) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}

	if err := EncodePPM(file, img); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
