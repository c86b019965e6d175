package detds

// Pascal VOC specific functionality.

import (
	"encoding/xml"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// VOCBndBox is the pixel bounding box of a VOC object.
type VOCBndBox struct {
	XMin int `xml:"xmin"`
	YMin int `xml:"ymin"`
	XMax int `xml:"xmax"`
	YMax int `xml:"ymax"`
}

// VOCObject is a single object within a VOC annotation.
type VOCObject struct {
	Name      string    `xml:"name"`
	Pose      string    `xml:"pose"`
	Truncated int       `xml:"truncated"` // 1 if the box extends beyond the image.
	Difficult int       `xml:"difficult"`
	BndBox    VOCBndBox `xml:"bndbox"`
}

// VOCSize is the image size.
type VOCSize struct {
	Width  int `xml:"width"`
	Height int `xml:"height"`
	Depth  int `xml:"depth"`
}

// VOCAnnotation defines the VOC annotation structure for a single image.
type VOCAnnotation struct {
	XMLName  xml.Name    `xml:"annotation"`
	Folder   string      `xml:"folder"`
	FileName string      `xml:"filename"`
	Size     VOCSize     `xml:"size"`
	Objects  []VOCObject `xml:"object"`
}

// ToVOC converts one image of the intermediate representation to VOC format.
func (c Converter) ToVOC(d LabeledImage) VOCAnnotation {
	folder := "images"
	if d.ImagePath != "" {
		folder = filepath.Base(filepath.Dir(d.ImagePath))
	}

	a := VOCAnnotation{
		Folder:   folder,
		FileName: d.FileName,
		Size:     VOCSize{Width: d.Width, Height: d.Height, Depth: 3},
		Objects:  make([]VOCObject, 0, len(d.Boxes)),
	}
	for _, b := range d.Boxes {
		o := VOCObject{
			Name:   c.Categories.Label(b.ClassID),
			Pose:   "Unspecified",
			BndBox: VOCBndBox{XMin: b.X1, YMin: b.Y1, XMax: b.X2, YMax: b.Y2},
		}
		if b.X1 < 0 || b.Y1 < 0 || b.X2 > d.Width || b.Y2 > d.Height {
			o.Truncated = 1
		}
		a.Objects = append(a.Objects, o)
	}

	return a
}

// ExportVOC writes one VOC XML file per image to outDir, named after the image.
func (c Converter) ExportVOC(data LabeledImages, outDir string) error {
	dirInfo, err := os.Stat(outDir)
	if err != nil || !dirInfo.IsDir() {
		return errors.Errorf("cannot access directory %q: %v", outDir, err)
	}

	for _, d := range data {
		path := filepath.Join(outDir, fileStem(d.FileName)+".xml")
		if err := WriteVOC(path, c.ToVOC(d)); err != nil {
			return err
		}
	}

	log.Printf("Wrote %d VOC annotation files to %s", len(data), outDir)
	return nil
}

// WriteVOC writes a single VOC annotation to path.
func WriteVOC(path string, a VOCAnnotation) error {
	enc, err := xml.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	enc = append([]byte(xml.Header), enc...)
	enc = append(enc, '\n')
	if err := ioutil.WriteFile(path, enc, 0644); err != nil {
		return errors.Wrapf(err, "cannot write file %q", path)
	}
	return nil
}

// ReadVOC reads a single VOC annotation file.
func ReadVOC(path string) (VOCAnnotation, error) {
	enc, err := ioutil.ReadFile(path)
	if err != nil {
		return VOCAnnotation{}, err
	}

	var a VOCAnnotation
	if err := xml.Unmarshal(enc, &a); err != nil {
		return VOCAnnotation{}, errors.Wrapf(err, "failed to parse VOC input from %q", path)
	}
	return a, nil
}
