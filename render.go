package detds

// Drawing of YOLO labels onto images.

import (
	"image"
	"image/color"
	"log"
	"path/filepath"

	"github.com/llgcode/draw2d/draw2dimg"
	"github.com/llgcode/draw2d/draw2dkit"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	boxLineWidth = 2  // Rectangle outline width in pixels.
	labelPadding = 10 // Extra width and height of the label background.
	labelInset   = 5  // Offset of the label text from the box corner.
)

// LabelPathFunc returns the YOLO label file for an image.
type LabelPathFunc func(imagePath string) string

// ImagesToLabelsPath assumes the dataset layout <split>/images/<name>.<ext> and returns
// <split>/labels/<name>.txt.
func ImagesToLabelsPath(imagePath string) string {
	splitDir := filepath.Dir(filepath.Dir(imagePath))
	return filepath.Join(splitDir, "labels", fileStem(imagePath)+yoloLabelExt)
}

// Renderer draws bounding boxes and class labels onto images.
type Renderer struct {
	Categories  CategoryTable
	LabelPath   LabelPathFunc // Used when no label path is given; nil means ImagesToLabelsPath.
	Face        font.Face     // The label font; nil means basicfont.Face7x13.
	JPEGQuality int           // Quality for JPEG outputs; zero selects the default.
}

// NewRenderer returns a Renderer for the default categories and dataset layout.
func NewRenderer() Renderer {
	return Renderer{
		Categories: DefaultCategories(),
		LabelPath:  ImagesToLabelsPath,
		Face:       basicfont.Face7x13,
	}
}

// Render draws the boxes of the YOLO label file onto the image at imagePath and returns the
// result.
//
// An empty labelPath is derived from imagePath with r.LabelPath. A missing label file leaves the
// image unchanged. If outputPath is not empty, the annotated image is also saved there, encoded
// according to its file extension.
func (r Renderer) Render(imagePath, labelPath, outputPath string) (image.Image, error) {
	src, err := loadImage(imagePath)
	if err != nil {
		return nil, err
	}
	img := toRGBA(src)
	bounds := img.Bounds()

	if labelPath == "" {
		resolve := r.LabelPath
		if resolve == nil {
			resolve = ImagesToLabelsPath
		}
		labelPath = resolve(imagePath)
	}

	boxes, err := ReadYOLO(labelPath, bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}

	r.DrawBoxes(img, boxes)

	if outputPath != "" {
		if err := saveImage(outputPath, img, r.JPEGQuality); err != nil {
			return nil, err
		}
		log.Printf("Annotated image saved to %s", outputPath)
	}

	return img, nil
}

// DrawBoxes draws each box outline with a filled label above its top edge onto img.
func (r Renderer) DrawBoxes(img *image.RGBA, boxes []BoundingBox) {
	face := r.Face
	if face == nil {
		face = basicfont.Face7x13
	}
	textHeight := face.Metrics().Ascent.Ceil()

	gc := draw2dimg.NewGraphicContext(img)
	gc.SetLineWidth(boxLineWidth)

	for _, b := range boxes {
		c := r.Categories.Color(b.ClassID)
		label := r.Categories.Label(b.ClassID)
		x1, y1 := float64(b.X1), float64(b.Y1)

		// Box outline.
		gc.SetStrokeColor(c)
		draw2dkit.Rectangle(gc, x1, y1, float64(b.X2), float64(b.Y2))
		gc.Stroke()

		// Label background.
		textWidth := font.MeasureString(face, label).Ceil()
		gc.SetFillColor(c)
		draw2dkit.Rectangle(gc, x1, y1-float64(textHeight+labelPadding),
			x1+float64(textWidth+labelPadding), y1)
		gc.Fill()

		// Label text.
		d := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(color.White),
			Face: face,
			Dot:  fixed.P(b.X1+labelInset, b.Y1-labelInset),
		}
		d.DrawString(label)
	}
}

// RenderAnnotations renders with the settings of NewRenderer.
func RenderAnnotations(imagePath, labelPath, outputPath string) (image.Image, error) {
	return NewRenderer().Render(imagePath, labelPath, outputPath)
}
