package detds

// Per-split and per-class dataset statistics.

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// DefaultSplits are the dataset splits counted by ComputeStatistics.
var DefaultSplits = []string{"train", "valid"}

const (
	barBlock    = "█"
	barScale    = 10 // Occurrences per bar block.
	barMaxWidth = 30 // Maximum number of bar blocks.
)

// SplitStatistics holds the counts of one dataset split.
type SplitStatistics struct {
	Name        string
	Images      int
	Annotations int
}

// Statistics holds the counts of a whole dataset.
type Statistics struct {
	Splits      []SplitStatistics
	ClassNames  []string       // Class names in id order.
	ClassCounts map[string]int // Occurrences per class name over all splits.
}

// ComputeStatistics counts images, annotations and per-class occurrences in the train/labels
// and valid/labels directories of dataDir. A missing split directory counts as empty.
//
// Only class ids are needed, so boxes are read for a 1x1 image. Ids outside categories count as
// annotations but not toward any class.
func ComputeStatistics(dataDir string, categories CategoryTable) (*Statistics, error) {
	s := &Statistics{
		Splits:      make([]SplitStatistics, 0, len(DefaultSplits)),
		ClassNames:  categories.Names(),
		ClassCounts: make(map[string]int, categories.Len()),
	}
	for _, name := range s.ClassNames {
		s.ClassCounts[name] = 0
	}

	for _, split := range DefaultSplits {
		st := SplitStatistics{Name: split}

		labelDir := filepath.Join(dataDir, split, "labels")
		if isDir(labelDir) {
			labelFiles, err := filesByExtInDir(labelDir, yoloLabelExt)
			if err != nil {
				return nil, err
			}

			for _, path := range labelFiles {
				st.Images++
				boxes, err := ReadYOLO(path, 1, 1)
				if err != nil {
					return nil, errors.Wrapf(err, "failed to count %q", path)
				}
				st.Annotations += len(boxes)
				for _, b := range boxes {
					if name, ok := categories.Name(b.ClassID); ok {
						s.ClassCounts[name]++
					}
				}
			}
		}

		s.Splits = append(s.Splits, st)
	}

	return s, nil
}

// Split returns the counts of the named split, or zero counts if it is unknown.
func (s *Statistics) Split(name string) SplitStatistics {
	for _, st := range s.Splits {
		if st.Name == name {
			return st
		}
	}
	return SplitStatistics{Name: name}
}

// TotalImages is the number of images over all splits.
func (s *Statistics) TotalImages() int {
	n := 0
	for _, st := range s.Splits {
		n += st.Images
	}
	return n
}

// TotalAnnotations is the number of annotations over all splits.
func (s *Statistics) TotalAnnotations() int {
	n := 0
	for _, st := range s.Splits {
		n += st.Annotations
	}
	return n
}

// splitTitles are the report headings of the default splits.
var splitTitles = map[string]string{
	"train": "Training Set",
	"valid": "Validation Set",
}

// classBar returns the report bar for count: one block per ten occurrences, at most thirty.
func classBar(count int) string {
	n := count / barScale
	if n > barMaxWidth {
		n = barMaxWidth
	}
	if n < 0 {
		n = 0
	}
	return strings.Repeat(barBlock, n)
}

// WriteReport writes a human-readable summary of s to w.
func (s *Statistics) WriteReport(w io.Writer) error {
	rule := strings.Repeat("=", 60)

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", rule)
	fmt.Fprintf(&b, "  OBJECT DETECTION DATASET STATISTICS\n")
	fmt.Fprintf(&b, "%s\n", rule)
	for _, st := range s.Splits {
		title, ok := splitTitles[st.Name]
		if !ok {
			title = st.Name
		}
		fmt.Fprintf(&b, "\n%s:\n", title)
		fmt.Fprintf(&b, "  - Images: %d\n", st.Images)
		fmt.Fprintf(&b, "  - Annotations: %d\n", st.Annotations)
	}
	fmt.Fprintf(&b, "\nTotal:\n")
	fmt.Fprintf(&b, "  - Images: %d\n", s.TotalImages())
	fmt.Fprintf(&b, "  - Annotations: %d\n", s.TotalAnnotations())
	fmt.Fprintf(&b, "\nClass Distribution:\n")
	for _, name := range s.ClassNames {
		count := s.ClassCounts[name]
		fmt.Fprintf(&b, "  %-12s: %5d %s\n", name, count, classBar(count))
	}
	fmt.Fprintf(&b, "%s\n", rule)

	_, err := io.WriteString(w, b.String())
	return err
}
