package imageprocessor

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soilscan/classifier"
	"soilscan/types"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uniformImage(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, SampleSize, SampleSize))
	for y := 0; y < SampleSize; y++ {
		for x := 0; x < SampleSize; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// mottled is a fixture with a soil-like texture: two tones in a checker pattern
func mottled() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, SampleSize, SampleSize))
	for y := 0; y < SampleSize; y++ {
		for x := 0; x < SampleSize; x++ {
			if (x/5+y/5)%2 == 0 {
				img.SetRGBA(x, y, color.RGBA{R: 170, G: 80, B: 50, A: 255})
			} else {
				img.SetRGBA(x, y, color.RGBA{R: 150, G: 70, B: 40, A: 255})
			}
		}
	}
	return img
}

func newTestExtractor() *DominantColorExtractor {
	registry := &ImageLoaderRegistry{loaders: make(map[string]ImageLoader)}
	registry.registerStandardLoaders()
	return NewDominantColorExtractor(registry, 0)
}

func TestUniformImageReturnsItsColor(t *testing.T) {
	e := newTestExtractor()
	defer e.Close()

	for _, c := range []color.RGBA{
		{R: 30, G: 25, B: 20, A: 255},
		{R: 180, G: 70, B: 40, A: 255},
		{R: 120, G: 125, B: 130, A: 255},
		{R: 255, G: 255, B: 255, A: 255},
	} {
		got, err := e.ExtractDominantColor(encodePNG(t, uniformImage(c)))
		require.NoError(t, err)
		assert.Equal(t, types.RGBColor{R: int(c.R), G: int(c.G), B: int(c.B)}, got)
	}
}

func TestMottledImageIsTheMean(t *testing.T) {
	got, err := newTestExtractor().ExtractDominantColor(encodePNG(t, mottled()))
	require.NoError(t, err)
	assert.Equal(t, types.RGBColor{R: 160, G: 75, B: 45}, got)
}

func TestLargeImageIsAveragedWhenShrunk(t *testing.T) {
	// one-pixel stripes alternate at ten times the sample resolution
	const side = SampleSize * 10
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			if x%2 == 0 {
				img.SetRGBA(x, y, color.RGBA{R: 200, G: 100, B: 0, A: 255})
			} else {
				img.SetRGBA(x, y, color.RGBA{R: 100, G: 50, B: 40, A: 255})
			}
		}
	}

	got, err := newTestExtractor().ExtractDominantColor(encodePNG(t, img))
	require.NoError(t, err)
	assert.Equal(t, types.RGBColor{R: 150, G: 75, B: 20}, got)
}

func TestClassificationIsReproducible(t *testing.T) {
	e := newTestExtractor()
	data := encodePNG(t, mottled())

	first, err := e.ExtractDominantColor(data)
	require.NoError(t, err)
	want := classifier.Classify(first)
	assert.Equal(t, types.SoilFerrallitique, want)

	var wg sync.WaitGroup
	results := make([]types.SoilType, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := e.ExtractDominantColor(data)
			if err == nil {
				results[i] = classifier.Classify(c)
			}
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestExtractDominantColorFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, uniformImage(color.RGBA{R: 90, G: 60, B: 30, A: 255})), 0o644))

	got, err := newTestExtractor().ExtractDominantColorFile(path)
	require.NoError(t, err)
	assert.Equal(t, types.RGBColor{R: 90, G: 60, B: 30}, got)
}

func TestDecodeFailures(t *testing.T) {
	e := newTestExtractor()

	_, err := e.ExtractDominantColor(nil)
	assert.True(t, types.IsCode(err, types.ErrCodeImageDecode))

	_, err = e.ExtractDominantColor([]byte("not an image at all"))
	assert.True(t, types.IsCode(err, types.ErrCodeImageDecode))

	bad := filepath.Join(t.TempDir(), "broken.jpg")
	require.NoError(t, os.WriteFile(bad, []byte{0xff, 0xd8, 0x00}, 0o644))
	_, err = e.ExtractDominantColorFile(bad)
	assert.True(t, types.IsCode(err, types.ErrCodeImageDecode))

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Empty(t, appErr.Details)
}

func TestRegistryFallsBackToDefaultLoader(t *testing.T) {
	registry := &ImageLoaderRegistry{loaders: make(map[string]ImageLoader)}
	registry.registerStandardLoaders()

	assert.True(t, registry.CanLoadFile("a.PNG"))
	assert.False(t, registry.CanLoadFile("a.xyz"))
	assert.NotNil(t, registry.GetLoader("a.xyz"))
	assert.NoError(t, registry.Close())
}
