package detds

// TFRecord object detection specific functionality.

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strings"

	"github.com/golang/protobuf/proto"
	"github.com/pkg/errors"
	"github.com/ryszard/tfutils/go/example"
	"github.com/ryszard/tfutils/go/tfrecord"
	"github.com/ryszard/tfutils/proto/tensorflow/core/example" // package tensorflow
)

// TFFeatureMap maps feature names to their values. Values must be convertible to
// tensorflow.Feature.
type TFFeatureMap map[string]interface{}

// toTFFeatures converts the intermediate representation for a single image to the feature map
// used by the TensorFlow object detection API. Class labels are the class ids plus one, as id 0
// is reserved for the background class.
func toTFFeatures(d LabeledImage, categories CategoryTable) (TFFeatureMap, error) {
	if d.ImagePath == "" {
		return nil, errors.Errorf("no image for %q", d.LabelPath)
	}

	// Get the image format.
	_, format, err := decodeImageConfig(d.ImagePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode the image metadata")
	}

	// Read the image data.
	imgData, err := readFile(d.ImagePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read the image")
	}

	// Prepare the feature map for the per file data.
	f := make(TFFeatureMap, 16)
	f["image/height"] = d.Height
	f["image/width"] = d.Width
	f["image/filename"] = d.FileName
	f["image/source_id"] = d.FileName
	f["image/encoded"] = imgData
	f["image/format"] = format

	// Prepare the per label data.
	numLabels := len(d.Boxes)
	xmins := make([]float32, numLabels)
	ymins := make([]float32, numLabels)
	xmaxs := make([]float32, numLabels)
	ymaxs := make([]float32, numLabels)
	classes := make([]string, numLabels)
	classIDs := make([]int64, numLabels)
	for i, b := range d.Boxes {
		xmins[i] = float32(b.X1) / float32(d.Width)
		ymins[i] = float32(b.Y1) / float32(d.Height)
		xmaxs[i] = float32(b.X2) / float32(d.Width)
		ymaxs[i] = float32(b.Y2) / float32(d.Height)
		classes[i] = categories.Label(b.ClassID)
		classIDs[i] = int64(b.ClassID) + 1
	}
	f["image/object/bbox/xmin"] = xmins
	f["image/object/bbox/ymin"] = ymins
	f["image/object/bbox/xmax"] = xmaxs
	f["image/object/bbox/ymax"] = ymaxs
	f["image/object/class/text"] = classes
	f["image/object/class/label"] = classIDs

	return f, nil
}

// WriteTFRecord does a streaming conversion, serialisation and file write for the annotation data
// to one or more TFRecord files stored under recordFilePath (with suffixes added when numShards>1).
// Images without an image file are skipped.
//
// The label map for categories is written to labelMapPath.
func WriteTFRecord(recordFilePath, labelMapPath string, data LabeledImages,
	categories CategoryTable, numShards int) (err error) {
	var shardFile *os.File
	defer func() {
		if e := recover(); e != nil {
			if shardFile != nil {
				_ = shardFile.Close()
			}
			err = errors.Errorf("conversion to TensorFlow Example failed: %v", e)
		}
	}()

	if numShards <= 0 {
		numShards = 1
	}

	fmtShardSuffix := func(idx int) string {
		return fmt.Sprintf("-%05d-of-%05d", idx, numShards)
	}

	shardSize := int(math.Ceil(float64(len(data)) / float64(numShards)))
	shardIdx := -1
	written := 0

	// Convert and serialise one data element at a time.
	for i, d := range data {
		// Check if a new shard file needs to be opened for writing.
		if i%shardSize == 0 {
			shardIdx++

			// Close the previous shard file.
			if shardFile != nil {
				if err := shardFile.Close(); err != nil {
					return err
				}
				shardFile = nil
			}

			// Create the new shard file.
			shardPath := recordFilePath
			if numShards > 1 {
				shardPath += fmtShardSuffix(shardIdx)
			}
			f, err := os.Create(shardPath)
			if err != nil {
				return errors.Wrapf(err, "failed to create shard at %q", shardPath)
			}
			shardFile = f
		}

		// Convert the file data to an example.
		features, err := toTFFeatures(d, categories)
		if err != nil {
			log.Printf("Failed to convert %q: %v", d.FileName, err)
			continue
		}
		tfExample := newTFExample(features)

		// Write the example.
		if err := writeTFRecordExample(shardFile, tfExample); err != nil {
			shardFile.Close()
			return errors.Wrap(err, "failed to write example")
		}
		written++
	}

	if shardFile != nil {
		if err := shardFile.Close(); err != nil {
			return err
		}
	}
	log.Printf("Wrote %d TFRecord examples to %s", written, recordFilePath)

	return saveTFRecordLabelMap(labelMapPath, categories)
}

// newTFExample converts the feature map to an Example. It panics on values that have no
// tensorflow.Feature representation.
var newTFExample = func(features TFFeatureMap) *tensorflow.Example {
	return example.New(features)
}

// writeTFRecordExample serialises the example and writes it as a TFRecord to w.
func writeTFRecordExample(w io.Writer, e *tensorflow.Example) error {
	enc, err := proto.Marshal(e)
	if err != nil {
		return err
	}

	return tfrecord.Write(w, enc)
}

// saveTFRecordLabelMap writes the categories in the prototxt label map format of the TensorFlow
// object detection API to path. Ids start at 1.
func saveTFRecordLabelMap(path string, categories CategoryTable) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create the label map file %q", path)
	}
	defer closeWithErrCheck(file, &err)

	w := bufio.NewWriter(file)
	for i, name := range categories.Names() {
		name = strings.Replace(name, "'", "\\'", -1)
		if _, err := fmt.Fprintf(w, "item {\n  id: %d\n  name: '%s'\n}\n", i+1, name); err != nil {
			return errors.Wrapf(err, "failed to write the label map %q", path)
		}
	}

	return w.Flush()
}
