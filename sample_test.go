package detds

import (
	"image/color"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampler_Boxes(t *testing.T) {
	s := NewSampler()
	s.Rand = rand.New(rand.NewSource(42))

	sizes := [][2]int{{640, 480}, {100, 100}, {1920, 1080}, {50, 300}}
	for i := 0; i < 500; i++ {
		size := sizes[i%len(sizes)]
		w, h := size[0], size[1]

		boxes := s.Boxes(w, h)
		require.True(t, len(boxes) >= 2 && len(boxes) <= 4, "got %d boxes", len(boxes))

		for _, b := range boxes {
			assert.True(t, b.ClassID >= 0 && b.ClassID < 10, "class id %d", b.ClassID)
			assert.True(t, b.X1 >= 0 && b.X1 < b.X2 && b.X2 <= w, "box %+v in %dx%d", b, w, h)
			assert.True(t, b.Y1 >= 0 && b.Y1 < b.Y2 && b.Y2 <= h, "box %+v in %dx%d", b, w, h)
			assert.True(t, b.Width() >= int(0.1*float64(w))-1 && b.Width() <= int(0.4*float64(w))+1,
				"box %+v width in %dx%d", b, w, h)
		}
	}
}

func TestSampler_BoxesTinyImages(t *testing.T) {
	s := NewSampler()
	s.Rand = rand.New(rand.NewSource(3))

	for _, size := range [][2]int{{1, 1}, {5, 5}, {9, 3}, {2, 640}} {
		w, h := size[0], size[1]
		for i := 0; i < 200; i++ {
			for _, b := range s.Boxes(w, h) {
				require.True(t, b.X1 >= 0 && b.X1 < b.X2 && b.X2 <= w, "box %+v in %dx%d", b, w, h)
				require.True(t, b.Y1 >= 0 && b.Y1 < b.Y2 && b.Y2 <= h, "box %+v in %dx%d", b, w, h)
			}
		}
	}
}

func TestSampler_BoxesDeterministic(t *testing.T) {
	a := Sampler{Categories: DefaultCategories(), Rand: rand.New(rand.NewSource(7))}
	b := Sampler{Categories: DefaultCategories(), Rand: rand.New(rand.NewSource(7))}

	assert.Equal(t, a.Boxes(640, 480), b.Boxes(640, 480))
}

func TestSampler_Generate(t *testing.T) {
	imagePath := filepath.Join(t.TempDir(), "street.png")
	writePNG(t, imagePath, 320, 240, color.White)
	outDir := t.TempDir()

	s := NewSampler()
	s.Rand = rand.New(rand.NewSource(1))
	boxes, err := s.Generate(imagePath, outDir)
	require.NoError(t, err)

	got, err := ReadYOLO(filepath.Join(outDir, "street.txt"), 320, 240)
	require.NoError(t, err)
	require.Len(t, got, len(boxes))
	for i := range boxes {
		assert.Equal(t, boxes[i].ClassID, got[i].ClassID)
		assert.InDelta(t, boxes[i].X1, got[i].X1, 1)
		assert.InDelta(t, boxes[i].Y1, got[i].Y1, 1)
		assert.InDelta(t, boxes[i].X2, got[i].X2, 1)
		assert.InDelta(t, boxes[i].Y2, got[i].Y2, 1)
	}
}

func TestCreateSampleAnnotation_LoadError(t *testing.T) {
	outDir := t.TempDir()

	_, err := CreateSampleAnnotation(filepath.Join(t.TempDir(), "missing.jpg"), outDir)
	var le *LoadError
	require.True(t, errors.As(err, &le))

	files, err := filesByExtInDir(outDir, "")
	require.NoError(t, err)
	assert.Empty(t, files)
}
