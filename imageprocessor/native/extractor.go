// Package native extracts the dominant colour of a photo without OpenCV.
//
// With a single cluster the k-means objective is minimised by the per-channel
// mean, so the centroid is computed directly and no seed is involved.
package native

import (
	"bytes"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"gonum.org/v1/gonum/stat"

	"soilscan/logging"
	"soilscan/types"
)

// SampleSize is the side of the square the photo is resampled to
const SampleSize = 100

// Extractor computes dominant colours with the Go image decoders
type Extractor struct{}

// NewExtractor returns a native extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractDominantColor decodes encoded image bytes and returns their dominant colour
func (e *Extractor) ExtractDominantColor(data []byte) (types.RGBColor, error) {
	if len(data) == 0 {
		return types.RGBColor{}, types.NewAppError(types.ErrCodeImageDecode, "image is empty", nil)
	}
	return e.extract(bytes.NewReader(data))
}

// ExtractDominantColorFile reads the image at path and returns its dominant colour
func (e *Extractor) ExtractDominantColorFile(path string) (types.RGBColor, error) {
	f, err := os.Open(path)
	if err != nil {
		logging.DebugLog("Cannot open %s: %v", path, err)
		return types.RGBColor{}, types.NewAppError(types.ErrCodeImageDecode, "cannot open image", err)
	}
	defer f.Close()

	return e.extract(f)
}

// Close is a no-op
func (e *Extractor) Close() error {
	return nil
}

func (e *Extractor) extract(r io.Reader) (types.RGBColor, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return types.RGBColor{}, types.NewAppError(types.ErrCodeImageDecode, "cannot decode image", err)
	}
	if src.Bounds().Empty() {
		return types.RGBColor{}, types.NewAppError(types.ErrCodeImageDecode, "image has no pixels", nil)
	}

	small := image.NewRGBA(image.Rect(0, 0, SampleSize, SampleSize))
	draw.CatmullRom.Scale(small, small.Bounds(), dropAlpha(src), src.Bounds(), draw.Src, nil)

	n := SampleSize * SampleSize
	reds := make([]float64, 0, n)
	greens := make([]float64, 0, n)
	blues := make([]float64, 0, n)
	for i := 0; i < len(small.Pix); i += 4 {
		reds = append(reds, float64(small.Pix[i]))
		greens = append(greens, float64(small.Pix[i+1]))
		blues = append(blues, float64(small.Pix[i+2]))
	}

	return types.RGBColor{
		R: int(math.Round(stat.Mean(reds, nil))),
		G: int(math.Round(stat.Mean(greens, nil))),
		B: int(math.Round(stat.Mean(blues, nil))),
	}, nil
}

// dropAlpha returns src with every pixel made opaque, keeping its straight
// (non-premultiplied) RGB values. Opaque images are returned as is.
func dropAlpha(src image.Image) image.Image {
	if o, ok := src.(interface{ Opaque() bool }); ok && o.Opaque() {
		return src
	}

	b := src.Bounds()
	flat := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			c.A = 0xff
			flat.SetNRGBA(x, y, c)
		}
	}
	return flat
}
