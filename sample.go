package detds

// Random sample annotations for demos and fixtures.

import (
	"log"
	"math/rand"
	"path/filepath"
)

const (
	minSampleBoxes   = 2
	maxSampleBoxes   = 4
	minSampleBoxFrac = 0.1 // Min. box size as a fraction of the image size.
	maxSampleBoxFrac = 0.4 // Max. box size as a fraction of the image size.
)

// Sampler generates random YOLO annotations.
type Sampler struct {
	Categories CategoryTable
	Rand       *rand.Rand // Nil uses the process-wide source of math/rand.
}

// NewSampler returns a Sampler for the default categories and the process-wide random source.
func NewSampler() Sampler {
	return Sampler{Categories: DefaultCategories()}
}

func (s Sampler) intn(n int) int {
	if s.Rand != nil {
		return s.Rand.Intn(n)
	}
	return rand.Intn(n)
}

func (s Sampler) randFloat() float64 {
	if s.Rand != nil {
		return s.Rand.Float64()
	}
	return rand.Float64()
}

// uniform returns a random value in [lo, hi).
func (s Sampler) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*s.randFloat()
}

// Boxes returns between two and four random boxes that lie within an image of the given size.
// Each box covers 10% to 40% of the image width and height, and at least one pixel in each
// direction.
func (s Sampler) Boxes(imageWidth, imageHeight int) []BoundingBox {
	n := minSampleBoxes + s.intn(maxSampleBoxes-minSampleBoxes+1)
	numClasses := s.Categories.Len()
	if numClasses == 0 {
		numClasses = 1
	}

	w := float64(imageWidth)
	h := float64(imageHeight)
	boxes := make([]BoundingBox, 0, n)
	for i := 0; i < n; i++ {
		classID := s.intn(numClasses)

		boxW := s.uniform(minSampleBoxFrac, maxSampleBoxFrac) * w
		boxH := s.uniform(minSampleBoxFrac, maxSampleBoxFrac) * h

		x1 := s.uniform(0, w-boxW)
		y1 := s.uniform(0, h-boxH)

		b := BoundingBox{
			ClassID: classID,
			X1:      int(x1),
			Y1:      int(y1),
			X2:      int(x1 + boxW),
			Y2:      int(y1 + boxH),
		}
		// Truncation collapses sub-pixel boxes on tiny images. X1 < imageWidth always holds, so
		// widening by one pixel stays inside the image.
		if b.X2 <= b.X1 {
			b.X2 = b.X1 + 1
		}
		if b.Y2 <= b.Y1 {
			b.Y2 = b.Y1 + 1
		}
		boxes = append(boxes, b)
	}

	return boxes
}

// Generate creates random boxes for the image at imagePath and writes them as a YOLO label file
// named after the image to outputDir.
func (s Sampler) Generate(imagePath, outputDir string) ([]BoundingBox, error) {
	img, err := loadImage(imagePath)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()

	boxes := s.Boxes(bounds.Dx(), bounds.Dy())

	labelPath := filepath.Join(outputDir, fileStem(imagePath)+yoloLabelExt)
	if err := WriteYOLO(labelPath, boxes, bounds.Dx(), bounds.Dy()); err != nil {
		return nil, err
	}
	log.Printf("Created sample annotation: %s", labelPath)

	return boxes, nil
}

// CreateSampleAnnotation generates with the settings of NewSampler.
func CreateSampleAnnotation(imagePath, outputDir string) ([]BoundingBox, error) {
	return NewSampler().Generate(imagePath, outputDir)
}
