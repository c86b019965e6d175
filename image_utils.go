package detds

import (
	"image"
	"image/draw"
	"os"

	"github.com/disintegration/imaging"
)

// defaultJPEGQuality is used when saving JPEGs and no quality is configured.
const defaultJPEGQuality = 95

// decodeImageConfig opens the file at path and returns the results of image.DecodeConfig.
func decodeImageConfig(path string) (config image.Config, format string, err error) {
	file, err := os.Open(path)
	if err != nil {
		return image.Config{}, "", err
	}
	defer file.Close()

	return image.DecodeConfig(file)
}

// loadImage reads and decodes the image at path. Any failure is returned as a *LoadError.
func loadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return img, nil
}

// saveImage writes img to path. The encoding follows the file extension of path (JPEG, PNG, GIF,
// TIFF or BMP).
func saveImage(path string, img image.Image, jpegQuality int) error {
	if jpegQuality < 1 || jpegQuality > 100 {
		jpegQuality = defaultJPEGQuality
	}
	return imaging.Save(img, path, imaging.JPEGQuality(jpegQuality))
}

// toRGBA returns a copy of img as *image.RGBA with its origin moved to (0, 0).
func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
