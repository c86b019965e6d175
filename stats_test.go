package detds

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStatistics(t *testing.T) {
	dir := t.TempDir()
	writeText(t, filepath.Join(dir, "train", "labels", "img1.txt"),
		"0 0.5 0.5 0.2 0.2\n1 0.3 0.3 0.1 0.1\n0 0.7 0.7 0.2 0.2\n")

	stats, err := ComputeStatistics(dir, DefaultCategories())
	require.NoError(t, err)

	assert.Equal(t, SplitStatistics{Name: "train", Images: 1, Annotations: 3}, stats.Split("train"))
	assert.Equal(t, SplitStatistics{Name: "valid"}, stats.Split("valid"))
	assert.Equal(t, 1, stats.TotalImages())
	assert.Equal(t, 3, stats.TotalAnnotations())
	assert.Equal(t, 2, stats.ClassCounts["person"])
	assert.Equal(t, 1, stats.ClassCounts["car"])
	assert.Equal(t, 0, stats.ClassCounts["chair"])
	assert.Len(t, stats.ClassCounts, 10)
}

func TestComputeStatistics_BothSplits(t *testing.T) {
	dir := t.TempDir()
	writeText(t, filepath.Join(dir, "train", "labels", "a.txt"), "2 0.5 0.5 0.1 0.1\n")
	writeText(t, filepath.Join(dir, "train", "labels", "b.txt"), "# empty\n")
	writeText(t, filepath.Join(dir, "valid", "labels", "c.txt"), "2 0.5 0.5 0.1 0.1\n42 0.5 0.5 0.1 0.1\n")
	writeText(t, filepath.Join(dir, "valid", "labels", "readme"), "ignored\n")

	stats, err := ComputeStatistics(dir, DefaultCategories())
	require.NoError(t, err)

	assert.Equal(t, SplitStatistics{Name: "train", Images: 2, Annotations: 1}, stats.Split("train"))
	assert.Equal(t, SplitStatistics{Name: "valid", Images: 1, Annotations: 2}, stats.Split("valid"))
	assert.Equal(t, 3, stats.TotalAnnotations())
	// Id 42 counts as an annotation but toward no class.
	assert.Equal(t, 2, stats.ClassCounts["dog"])
	assert.Len(t, stats.ClassCounts, 10)
}

func TestComputeStatistics_EmptyDataset(t *testing.T) {
	stats, err := ComputeStatistics(filepath.Join(t.TempDir(), "missing"), DefaultCategories())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalImages())
	assert.Equal(t, 0, stats.TotalAnnotations())
}

func TestComputeStatistics_ParseError(t *testing.T) {
	dir := t.TempDir()
	writeText(t, filepath.Join(dir, "train", "labels", "a.txt"), "x 0.5 0.5 0.1 0.1\n")

	_, err := ComputeStatistics(dir, DefaultCategories())
	assert.Error(t, err)
}

func TestClassBar(t *testing.T) {
	assert.Equal(t, "", classBar(0))
	assert.Equal(t, "", classBar(9))
	assert.Equal(t, "██", classBar(25))
	assert.Equal(t, strings.Repeat("█", 30), classBar(300))
	assert.Equal(t, strings.Repeat("█", 30), classBar(5000))
}

func TestStatistics_WriteReport(t *testing.T) {
	dir := t.TempDir()
	var labels strings.Builder
	for i := 0; i < 25; i++ {
		labels.WriteString("0 0.5 0.5 0.1 0.1\n")
	}
	writeText(t, filepath.Join(dir, "train", "labels", "a.txt"), labels.String())
	writeText(t, filepath.Join(dir, "valid", "labels", "b.txt"), "1 0.5 0.5 0.1 0.1\n")

	stats, err := ComputeStatistics(dir, DefaultCategories())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, stats.WriteReport(&buf))
	report := buf.String()

	rule := strings.Repeat("=", 60)
	assert.Contains(t, report, rule+"\n  OBJECT DETECTION DATASET STATISTICS\n"+rule+"\n")
	assert.Contains(t, report, "Training Set:\n  - Images: 1\n  - Annotations: 25\n")
	assert.Contains(t, report, "Validation Set:\n  - Images: 1\n  - Annotations: 1\n")
	assert.Contains(t, report, "Total:\n  - Images: 2\n  - Annotations: 26\n")
	assert.Contains(t, report, "\n  person      :    25 ██\n")
	assert.Contains(t, report, "\n  car         :     1 \n")
	assert.Contains(t, report, "\n  motorcycle  :     0 \n")
	assert.True(t, strings.HasSuffix(report, rule+"\n"))

	// Classes are listed in id order.
	assert.True(t, strings.Index(report, "person") < strings.Index(report, "chair"))
}
