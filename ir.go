package detds

// The intermediate representation shared by the dataset exporters.

import (
	"log"
	"path/filepath"

	"github.com/pkg/errors"
)

// LabeledImage is one image of a YOLO dataset together with its boxes in pixel coordinates.
type LabeledImage struct {
	LabelPath string        // The YOLO label file the boxes were read from.
	ImagePath string        // The image file; empty when no image was found.
	FileName  string        // The image file name, without directory.
	Width     int           // Image width in pixels.
	Height    int           // Image height in pixels.
	Boxes     []BoundingBox // The boxes, in label file order.
}

// LabeledImages is the annotation data for a list of images.
type LabeledImages []LabeledImage

// NumBoxes is the total number of boxes over all images.
func (data LabeledImages) NumBoxes() int {
	n := 0
	for _, d := range data {
		n += len(d.Boxes)
	}
	return n
}

// LoadDir reads every YOLO label file in labelDir and resolves the matching image in imageDir.
//
// The image file name is the label file name with c.ImageExt as extension. When imageDir is
// empty, the image does not exist or cannot be decoded, the default size is assumed. Files are
// processed in lexicographic order. A malformed label file fails the whole load.
func (c Converter) LoadDir(labelDir, imageDir string) (LabeledImages, error) {
	labelFiles, err := filesByExtInDir(labelDir, yoloLabelExt)
	if err != nil {
		return nil, err
	}
	log.Printf("Parsing YOLO labels for %d files", len(labelFiles))

	data := make(LabeledImages, 0, len(labelFiles))
	for _, labelPath := range labelFiles {
		_, baseNoExt, _, err := splitPath(labelPath)
		if err != nil {
			return nil, err
		}

		d := LabeledImage{
			LabelPath: labelPath,
			FileName:  baseNoExt + c.imageExt(),
			Width:     c.DefaultWidth,
			Height:    c.DefaultHeight,
		}

		// Get the true image size if the image is available.
		if imageDir != "" {
			imagePath := filepath.Join(imageDir, d.FileName)
			if cfg, _, err := decodeImageConfig(imagePath); err == nil {
				d.ImagePath = imagePath
				d.Width = cfg.Width
				d.Height = cfg.Height
			}
		}

		d.Boxes, err = ReadYOLOWithPolicy(labelPath, d.Width, d.Height, c.Policy)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load %q", labelPath)
		}

		data = append(data, d)
	}

	return data, nil
}
