package detds

import (
	"encoding/binary"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ryszard/tfutils/proto/tensorflow/core/example" // package tensorflow
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tfRecordFixture(t *testing.T) LabeledImages {
	dir := t.TempDir()
	labelDir := filepath.Join(dir, "labels")
	imageDir := filepath.Join(dir, "images")

	writeText(t, filepath.Join(labelDir, "a.txt"), "0 0.5 0.5 0.5 0.5\n")
	writeText(t, filepath.Join(labelDir, "b.txt"), "1 0.25 0.25 0.5 0.5\n2 0.5 0.5 1 1\n")
	writePNG(t, filepath.Join(imageDir, "a.png"), 64, 48, color.White)
	writePNG(t, filepath.Join(imageDir, "b.png"), 32, 32, color.Black)

	c := NewConverter()
	c.ImageExt = ".png"
	data, err := c.LoadDir(labelDir, imageDir)
	require.NoError(t, err)
	return data
}

func TestToTFFeatures(t *testing.T) {
	data := tfRecordFixture(t)

	f, err := toTFFeatures(data[1], DefaultCategories())
	require.NoError(t, err)

	assert.Equal(t, 32, f["image/height"])
	assert.Equal(t, 32, f["image/width"])
	assert.Equal(t, "b.png", f["image/filename"])
	assert.Equal(t, "png", f["image/format"])
	assert.NotEmpty(t, f["image/encoded"])
	assert.Equal(t, []float32{0, 0}, f["image/object/bbox/xmin"])
	assert.Equal(t, []float32{0.5, 1}, f["image/object/bbox/xmax"])
	assert.Equal(t, []string{"car", "dog"}, f["image/object/class/text"])
	assert.Equal(t, []int64{2, 3}, f["image/object/class/label"])

	_, err = toTFFeatures(LabeledImage{LabelPath: "x.txt"}, DefaultCategories())
	assert.Error(t, err)
}

func TestWriteTFRecord(t *testing.T) {
	data := tfRecordFixture(t)
	dir := t.TempDir()
	recordPath := filepath.Join(dir, "train.record")
	labelMapPath := filepath.Join(dir, "label_map.pbtxt")

	require.NoError(t, WriteTFRecord(recordPath, labelMapPath, data, DefaultCategories(), 1))

	// A TFRecord is a little-endian uint64 length, a CRC, the payload and another CRC.
	enc, err := os.ReadFile(recordPath)
	require.NoError(t, err)
	require.True(t, len(enc) > 12)
	first := binary.LittleEndian.Uint64(enc[:8])
	assert.True(t, uint64(len(enc)) > first+16, "expected a second record after the first")

	labelMap := readText(t, labelMapPath)
	assert.True(t, strings.HasPrefix(labelMap, "item {\n  id: 1\n  name: 'person'\n}\n"))
	assert.Contains(t, labelMap, "item {\n  id: 10\n  name: 'chair'\n}\n")
	assert.Equal(t, 10, strings.Count(labelMap, "item {"))
}

func TestWriteTFRecord_Shards(t *testing.T) {
	data := tfRecordFixture(t)
	dir := t.TempDir()
	recordPath := filepath.Join(dir, "train.record")

	require.NoError(t, WriteTFRecord(recordPath, filepath.Join(dir, "label_map.pbtxt"), data,
		DefaultCategories(), 2))

	for _, suffix := range []string{"-00000-of-00002", "-00001-of-00002"} {
		info, err := os.Stat(recordPath + suffix)
		require.NoError(t, err)
		assert.True(t, info.Size() > 16)
	}
	_, err := os.Stat(recordPath)
	assert.True(t, os.IsNotExist(err))
}

func TestWriteTFRecord_SkipsImagesWithoutFile(t *testing.T) {
	data := tfRecordFixture(t)
	data = append(data, LabeledImage{LabelPath: "c.txt", FileName: "c.png", Width: 10, Height: 10})
	dir := t.TempDir()

	err := WriteTFRecord(filepath.Join(dir, "train.record"), filepath.Join(dir, "label_map.pbtxt"),
		data, DefaultCategories(), 1)
	assert.NoError(t, err)
}

// openFileCount returns how many of the process's file descriptors refer to path.
func openFileCount(t *testing.T, path string) int {
	t.Helper()

	fds, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skip("/proc/self/fd is not available")
	}
	n := 0
	for _, fd := range fds {
		target, err := os.Readlink(filepath.Join("/proc/self/fd", fd.Name()))
		if err == nil && target == path {
			n++
		}
	}
	return n
}

func TestWriteTFRecord_PanicClosesShard(t *testing.T) {
	data := tfRecordFixture(t)
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	recordPath := filepath.Join(dir, "train.record")

	orig := newTFExample
	newTFExample = func(TFFeatureMap) *tensorflow.Example {
		panic("unsupported feature value")
	}
	defer func() { newTFExample = orig }()

	err = WriteTFRecord(recordPath, filepath.Join(dir, "label_map.pbtxt"), data, DefaultCategories(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported feature value")
	assert.Equal(t, 0, openFileCount(t, recordPath))
}

func TestSaveTFRecordLabelMap_Quotes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "label_map.pbtxt")
	table := CategoryTable{Categories: []Category{{Name: "kid's bike"}}}

	require.NoError(t, saveTFRecordLabelMap(path, table))
	assert.Equal(t, "item {\n  id: 1\n  name: 'kid\\'s bike'\n}\n", readText(t, path))
}
