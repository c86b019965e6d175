package detds

// YOLO text label specific functionality.

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// yoloLabelExt is the file extension of YOLO label files.
const yoloLabelExt = ".txt"

// maxYOLOLineLen bounds the length of a single label file line, comments included.
const maxYOLOLineLen = 16 * 1024 * 1024

// maxPixelCoord bounds the magnitude of a box corner in pixels.
const maxPixelCoord = math.MaxInt32

// The comment lines written at the top of every YOLO label file.
const (
	yoloHeaderTitle  = "# Object Detection Dataset - YOLO Annotation"
	yoloHeaderFormat = "# Format: class_id x_center y_center width height (normalized)"
)

// BoundingBox is an object box in absolute pixel coordinates. (X1, Y1) is the top-left corner
// and (X2, Y2) the bottom-right corner.
type BoundingBox struct {
	ClassID        int
	X1, Y1, X2, Y2 int
}

// Width is X2-X1.
func (b BoundingBox) Width() int {
	return b.X2 - b.X1
}

// Height is Y2-Y1.
func (b BoundingBox) Height() int {
	return b.Y2 - b.Y1
}

// Area is Width*Height.
func (b BoundingBox) Area() int {
	return b.Width() * b.Height()
}

// ParsePolicy controls how tolerant the YOLO reader is of missing or incomplete input.
type ParsePolicy int

const (
	// Permissive treats a missing file as empty and skips lines with fewer than five tokens.
	Permissive ParsePolicy = iota
	// Strict fails on a missing file and on short lines.
	Strict
)

func (p ParsePolicy) String() string {
	switch p {
	case Permissive:
		return "permissive"
	case Strict:
		return "strict"
	}
	return fmt.Sprintf("ParsePolicy(%d)", int(p))
}

// ReadYOLO reads the YOLO label file at path and converts the normalized boxes to pixel
// coordinates for an image of the given size. A missing file yields no boxes and no error.
func ReadYOLO(path string, imageWidth, imageHeight int) ([]BoundingBox, error) {
	return ReadYOLOWithPolicy(path, imageWidth, imageHeight, Permissive)
}

// ReadYOLOWithPolicy works like ReadYOLO with an explicit parse policy.
func ReadYOLOWithPolicy(path string, imageWidth, imageHeight int, policy ParsePolicy) (
	boxes []BoundingBox, err error) {

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) && policy == Permissive {
			return []BoundingBox{}, nil
		}
		return nil, errors.Wrapf(err, "cannot read label file %q", path)
	}
	defer closeWithErrCheck(file, &err)

	return ParseYOLO(file, path, imageWidth, imageHeight, policy)
}

// ParseYOLO parses YOLO label lines from r. The name is only used in error messages.
//
// Blank lines and lines starting with '#' are skipped. The pixel corners are truncated toward
// zero, not rounded.
func ParseYOLO(r io.Reader, name string, imageWidth, imageHeight int, policy ParsePolicy) (
	[]BoundingBox, error) {

	boxes := make([]BoundingBox, 0, 8)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxYOLOLineLen)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		tokens := strings.Fields(line)
		if len(tokens) < 5 {
			if policy == Strict {
				return nil, &ParseError{Path: name, Line: lineNum, Text: line,
					Err: errors.Errorf("expected 5 tokens, got %d", len(tokens))}
			}
			continue
		}

		b, err := parseYOLOLine(tokens, imageWidth, imageHeight)
		if err != nil {
			return nil, &ParseError{Path: name, Line: lineNum, Text: line, Err: err}
		}
		boxes = append(boxes, b)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %q as lines", name)
	}

	return boxes, nil
}

// parseYOLOLine converts the tokens of one label line to a pixel-space box.
func parseYOLOLine(tokens []string, imageWidth, imageHeight int) (BoundingBox, error) {
	classID, err := strconv.Atoi(tokens[0])
	if err != nil {
		return BoundingBox{}, err
	}

	var v [4]float64
	for i := range v {
		if v[i], err = strconv.ParseFloat(tokens[i+1], 64); err != nil {
			return BoundingBox{}, err
		}
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return BoundingBox{}, errors.Errorf("non-finite value %q", tokens[i+1])
		}
	}

	xCenter := v[0] * float64(imageWidth)
	yCenter := v[1] * float64(imageHeight)
	width := v[2] * float64(imageWidth)
	height := v[3] * float64(imageHeight)

	if math.Abs(xCenter)+math.Abs(width) > maxPixelCoord ||
		math.Abs(yCenter)+math.Abs(height) > maxPixelCoord {
		return BoundingBox{}, errors.Errorf("box exceeds the pixel coordinate range")
	}

	return BoundingBox{
		ClassID: classID,
		X1:      int(xCenter - width/2),
		Y1:      int(yCenter - height/2),
		X2:      int(xCenter + width/2),
		Y2:      int(yCenter + height/2),
	}, nil
}

// WriteYOLO writes boxes to path in YOLO format, replacing any existing file. Coordinates are
// normalized by the image size and written with six decimal places.
func WriteYOLO(path string, boxes []BoundingBox, imageWidth, imageHeight int) (err error) {
	if imageWidth <= 0 || imageHeight <= 0 {
		return errors.Errorf("invalid image size %dx%d for %q", imageWidth, imageHeight, path)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "cannot create label file %q", path)
	}
	defer closeWithErrCheck(file, &err)

	w := bufio.NewWriter(file)
	if err := FormatYOLO(w, boxes, imageWidth, imageHeight); err != nil {
		return errors.Wrapf(err, "failed to write %q", path)
	}
	return w.Flush()
}

// FormatYOLO writes the header comments and one line per box to w.
func FormatYOLO(w io.Writer, boxes []BoundingBox, imageWidth, imageHeight int) error {
	if _, err := fmt.Fprintf(w, "%s\n%s\n", yoloHeaderTitle, yoloHeaderFormat); err != nil {
		return err
	}

	fw := float64(imageWidth)
	fh := float64(imageHeight)
	for _, b := range boxes {
		xCenter := (float64(b.X1+b.X2) / 2) / fw
		yCenter := (float64(b.Y1+b.Y2) / 2) / fh
		width := float64(b.X2-b.X1) / fw
		height := float64(b.Y2-b.Y1) / fh

		_, err := fmt.Fprintf(w, "%d %.6f %.6f %.6f %.6f\n", b.ClassID, xCenter, yCenter, width, height)
		if err != nil {
			return err
		}
	}

	return nil
}
