package media

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Canvas dimensions for the rendered video frame.
const (
	CanvasWidth  = 1920
	CanvasHeight = 1080
)

// coverMargin keeps breathing room between the cover and the frame edge.
const coverMargin = 100

// jpegQuality for the normalized scratch image.
const jpegQuality = 95

// CoverSide returns the side length of the resized cover square. The cover
// must fit the frame height with a margin and never exceed half the frame
// width, so for the fixed 1920x1080 canvas this is 960.
func CoverSide() int {
	side := CanvasHeight - coverMargin
	if half := CanvasWidth / 2; half < side {
		side = half
	}
	return side
}

// SquareCrop returns the largest centered square crop region for a source
// image of the given dimensions: side min(w, h), centered within the bounds.
func SquareCrop(w, h int) image.Rectangle {
	side := w
	if h < side {
		side = h
	}
	left := (w - side) / 2
	top := (h - side) / 2
	return image.Rect(left, top, left+side, top+side)
}

// normalizeCover loads the cover image, crops the largest centered square,
// resizes it to CoverSide with Lanczos resampling, composites it centered on
// a black CanvasWidth x CanvasHeight background, and writes the result as a
// quality-95 JPEG to dst.
func normalizeCover(src, dst string) error {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("open cover image: %w", err)
	}

	bounds := img.Bounds()
	square := imaging.Crop(img, SquareCrop(bounds.Dx(), bounds.Dy()))

	side := CoverSide()
	resized := imaging.Resize(square, side, side, imaging.Lanczos)

	background := imaging.New(CanvasWidth, CanvasHeight, color.Black)
	composed := imaging.PasteCenter(background, resized)

	if err := imaging.Save(composed, dst, imaging.JPEGQuality(jpegQuality)); err != nil {
		return fmt.Errorf("save normalized cover: %w", err)
	}
	return nil
}
