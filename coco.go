package detds

// COCO specific functionality.

import (
	"encoding/json"
	"io/ioutil"
	"log"

	"github.com/pkg/errors"
)

// COCOInfo is the "info" section of a COCO file.
type COCOInfo struct {
	Description string `json:"description"`
	URL         string `json:"url"`
	Version     string `json:"version"`
	Year        int    `json:"year"`
	Contributor string `json:"contributor"`
	DateCreated string `json:"date_created"`
}

// COCOLicense is an entry of the "licenses" section.
type COCOLicense struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// COCOCategory is an entry of the "categories" section.
type COCOCategory struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Supercategory string `json:"supercategory"`
}

// COCOImage is an entry of the "images" section.
type COCOImage struct {
	ID       int    `json:"id"`
	FileName string `json:"file_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// COCOAnnotation is a single object annotation. BBox is [x, y, width, height] in pixels.
type COCOAnnotation struct {
	ID           int         `json:"id"`
	ImageID      int         `json:"image_id"`
	CategoryID   int         `json:"category_id"`
	BBox         [4]int      `json:"bbox"`
	Area         int         `json:"area"`
	Segmentation [][]float64 `json:"segmentation"` // Always empty, never null.
	IsCrowd      int         `json:"iscrowd"`
}

// COCODataset is the aggregated description of a whole dataset in COCO layout.
type COCODataset struct {
	Info        COCOInfo         `json:"info"`
	Licenses    []COCOLicense    `json:"licenses"`
	Categories  []COCOCategory   `json:"categories"`
	Images      []COCOImage      `json:"images"`
	Annotations []COCOAnnotation `json:"annotations"`
}

// Converter turns a directory of YOLO labels into other dataset formats.
type Converter struct {
	Categories    CategoryTable
	ImageExt      string      // Extension of the image files, including the dot.
	DefaultWidth  int         // Image width assumed when the image is unavailable.
	DefaultHeight int         // Image height assumed when the image is unavailable.
	Policy        ParsePolicy // How label files are parsed.
	Supercategory string      // The supercategory of all COCO categories.
}

// NewConverter returns a Converter with the default category table, ".jpg" images, a 640x480
// fallback size and the permissive parse policy.
func NewConverter() Converter {
	return Converter{
		Categories:    DefaultCategories(),
		ImageExt:      ".jpg",
		DefaultWidth:  640,
		DefaultHeight: 480,
		Policy:        Permissive,
		Supercategory: "object",
	}
}

func (c Converter) imageExt() string {
	if c.ImageExt == "" {
		return ".jpg"
	}
	return c.ImageExt
}

// ToCOCO converts the intermediate representation to COCO format. Image and annotation ids are
// assigned sequentially from 1 in the order of data.
func (c Converter) ToCOCO(data LabeledImages) COCODataset {
	coco := COCODataset{
		Info: COCOInfo{
			Description: "Object Detection Dataset",
			URL:         "https://rskworld.in",
			Version:     "1.0",
			Year:        2026,
			Contributor: "detds",
			DateCreated: "2026-01-01",
		},
		Licenses: []COCOLicense{
			{ID: 1, Name: "Free for Educational Use", URL: "https://rskworld.in/terms"},
		},
		Categories:  make([]COCOCategory, 0, c.Categories.Len()),
		Images:      make([]COCOImage, 0, len(data)),
		Annotations: make([]COCOAnnotation, 0, data.NumBoxes()),
	}

	for i, name := range c.Categories.Names() {
		coco.Categories = append(coco.Categories,
			COCOCategory{ID: i, Name: name, Supercategory: c.Supercategory})
	}

	annotationID := 0
	for i, d := range data {
		imageID := i + 1
		coco.Images = append(coco.Images, COCOImage{
			ID:       imageID,
			FileName: d.FileName,
			Width:    d.Width,
			Height:   d.Height,
		})

		for _, b := range d.Boxes {
			annotationID++
			coco.Annotations = append(coco.Annotations, COCOAnnotation{
				ID:           annotationID,
				ImageID:      imageID,
				CategoryID:   b.ClassID,
				BBox:         [4]int{b.X1, b.Y1, b.Width(), b.Height()},
				Area:         b.Area(),
				Segmentation: [][]float64{},
			})
		}
	}

	return coco
}

// Convert reads the YOLO labels in labelDir, converts them to COCO format and writes the result
// as indented JSON to outputPath. imageDir may be empty.
func (c Converter) Convert(labelDir, outputPath, imageDir string) (COCODataset, error) {
	data, err := c.LoadDir(labelDir, imageDir)
	if err != nil {
		return COCODataset{}, err
	}

	coco := c.ToCOCO(data)
	if err := WriteCOCO(outputPath, coco); err != nil {
		return COCODataset{}, err
	}

	log.Printf("COCO annotations saved to %s", outputPath)
	log.Printf("Total images: %d", len(coco.Images))
	log.Printf("Total annotations: %d", len(coco.Annotations))

	return coco, nil
}

// ConvertYOLOToCOCO converts with the settings of NewConverter.
func ConvertYOLOToCOCO(labelDir, outputPath, imageDir string) (COCODataset, error) {
	return NewConverter().Convert(labelDir, outputPath, imageDir)
}

// WriteCOCO writes the COCO data to outFile.
func WriteCOCO(outFile string, data COCODataset) error {
	enc, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	if err := ioutil.WriteFile(outFile, enc, 0644); err != nil {
		return errors.Wrapf(err, "cannot write file %q", outFile)
	}
	return nil
}

// ReadCOCO reads a COCO file written by WriteCOCO.
func ReadCOCO(path string) (COCODataset, error) {
	enc, err := ioutil.ReadFile(path)
	if err != nil {
		return COCODataset{}, err
	}

	var data COCODataset
	if err := json.Unmarshal(enc, &data); err != nil {
		return COCODataset{}, errors.Wrapf(err, "failed to parse COCO input from %q", path)
	}
	return data, nil
}
