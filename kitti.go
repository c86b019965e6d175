package detds

// KITTI specific functionality.

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// KITTIAnnotation is a single annotation within a KITTI file.
type KITTIAnnotation struct {
	Coords [4]float64 // x1, y1, x2, y2
	Label  string
}

// ToKITTI converts the boxes of one image to KITTI annotations. Spaces in class names are
// replaced with underscores, as KITTI lines are space separated.
func (c Converter) ToKITTI(d LabeledImage) []KITTIAnnotation {
	annotations := make([]KITTIAnnotation, len(d.Boxes))
	for i, b := range d.Boxes {
		annotations[i] = KITTIAnnotation{
			Coords: [4]float64{float64(b.X1), float64(b.Y1), float64(b.X2), float64(b.Y2)},
			Label:  strings.Replace(c.Categories.Label(b.ClassID), " ", "_", -1),
		}
	}
	return annotations
}

// ExportKITTI writes one KITTI label file per image to dirPath, named after the image.
func (c Converter) ExportKITTI(data LabeledImages, dirPath string) error {
	dirInfo, err := os.Stat(dirPath)
	if err != nil || !dirInfo.IsDir() {
		return errors.Errorf("cannot access directory %q: %v", dirPath, err)
	}

	for _, d := range data {
		path := filepath.Join(dirPath, fileStem(d.FileName)+".txt")
		if err := WriteKITTI(path, c.ToKITTI(d)); err != nil {
			return err
		}
	}

	log.Printf("Wrote %d KITTI label files to %s", len(data), dirPath)
	return nil
}

// WriteKITTI writes the annotations of one image to path.
func WriteKITTI(path string, annotations []KITTIAnnotation) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "cannot create %q", path)
	}
	defer closeWithErrCheck(file, &err)

	w := bufio.NewWriter(file)
	for _, a := range annotations {
		_, err = fmt.Fprintf(w,
			"%s 0.0 0 0.0 %.2f %.2f %.2f %.2f 0.0 0.0 0.0 0.0 0.0 0.0 0.0\n",
			a.Label, a.Coords[0], a.Coords[1], a.Coords[2], a.Coords[3])
		if err != nil {
			return err
		}
	}

	return w.Flush()
}

// ReadKITTI reads the annotations of one KITTI label file.
func ReadKITTI(path string) ([]KITTIAnnotation, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read file %q", path)
	}

	var annotations []KITTIAnnotation
	for i, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		a, err := parseKITTIAnnotation(line)
		if err != nil {
			return nil, &ParseError{Path: path, Line: i + 1, Text: line, Err: err}
		}
		annotations = append(annotations, a)
	}

	return annotations, nil
}

// parseKITTIAnnotation parses the line of values for a single annotation.
func parseKITTIAnnotation(line string) (KITTIAnnotation, error) {
	a := KITTIAnnotation{}

	tokens := strings.Fields(line)
	if len(tokens) < 8 {
		return a, errors.Errorf("insufficient tokens in %q", line)
	}

	a.Label = tokens[0]
	var err error
	for i := 4; i < 8 && err == nil; i++ {
		a.Coords[i-4], err = strconv.ParseFloat(tokens[i], 64)
	}
	if err != nil {
		return a, errors.Errorf("unexpected values in %q: %v", line, err)
	}

	return a, nil
}
