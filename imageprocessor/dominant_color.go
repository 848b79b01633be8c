package imageprocessor

import (
	"image"
	"math"
	"runtime"

	"gocv.io/x/gocv"

	"soilscan/logging"
	"soilscan/types"
)

// Clustering parameters for the dominant colour
const (
	SampleSize        = 100
	ClusterAttempts   = 10
	clusterIterations = 300
	clusterEpsilon    = 1e-4
)

// DominantColorExtractor reduces a photo to the centroid of a one-cluster
// k-means fit over its pixels
type DominantColorExtractor struct {
	registry *ImageLoaderRegistry
	seed     int
}

// NewDominantColorExtractor returns an extractor that loads files through registry
// and seeds OpenCV's random generator with seed before every clustering run
func NewDominantColorExtractor(registry *ImageLoaderRegistry, seed int) *DominantColorExtractor {
	if registry == nil {
		registry = NewImageLoaderRegistry()
	}
	return &DominantColorExtractor{registry: registry, seed: seed}
}

// ExtractDominantColor decodes encoded image bytes and returns their dominant colour
func (e *DominantColorExtractor) ExtractDominantColor(data []byte) (types.RGBColor, error) {
	if len(data) == 0 {
		return types.RGBColor{}, types.NewAppError(types.ErrCodeImageDecode, "image is empty", nil)
	}

	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return types.RGBColor{}, types.NewAppError(types.ErrCodeImageDecode, "cannot decode image", err)
	}
	defer img.Close()
	if img.Empty() {
		return types.RGBColor{}, types.NewAppError(types.ErrCodeImageDecode, "cannot decode image", nil)
	}

	return e.dominantColor(img)
}

// ExtractDominantColorFile loads the image at path and returns its dominant colour
func (e *DominantColorExtractor) ExtractDominantColorFile(path string) (types.RGBColor, error) {
	img, err := e.registry.LoadImage(path)
	defer img.Close()
	if err != nil || img.Empty() {
		logging.DebugLog("Cannot decode %s: %v", path, err)
		return types.RGBColor{}, types.NewAppError(types.ErrCodeImageDecode, "cannot decode image", err)
	}

	return e.dominantColor(img)
}

// Close releases the loaders of the registry
func (e *DominantColorExtractor) Close() error {
	return e.registry.Close()
}

func (e *DominantColorExtractor) dominantColor(img gocv.Mat) (types.RGBColor, error) {
	if img.Channels() != 3 {
		return types.RGBColor{}, types.NewAppError(types.ErrCodeImageDecode, "image is not a colour image", nil)
	}

	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(img, &small, image.Point{X: SampleSize, Y: SampleSize}, 0, 0, gocv.InterpolationArea)
	if small.Empty() {
		return types.RGBColor{}, types.NewAppError(types.ErrCodeImageDecode, "cannot resize image", nil)
	}

	// (h*w) x 3 float32, one row per pixel
	h, w := small.Rows(), small.Cols()
	pixels := gocv.NewMatWithSize(h*w, 3, gocv.MatTypeCV32F)
	defer pixels.Close()

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			vec := small.GetVecbAt(y, x)
			pixels.SetFloatAt(idx, 0, float32(vec[0]))
			pixels.SetFloatAt(idx, 1, float32(vec[1]))
			pixels.SetFloatAt(idx, 2, float32(vec[2]))
		}
	}

	labels := gocv.NewMat()
	defer labels.Close()
	centers := gocv.NewMat()
	defer centers.Close()

	criteria := gocv.NewTermCriteria(gocv.EPS+gocv.MaxIter, clusterIterations, clusterEpsilon)

	// the generator is per OS thread, seeding and clustering must share one
	runtime.LockOSThread()
	gocv.SetRNGSeed(e.seed)
	gocv.KMeans(pixels, 1, &labels, criteria, ClusterAttempts, gocv.KMeansPPCenters, &centers)
	runtime.UnlockOSThread()

	if centers.Rows() < 1 {
		return types.RGBColor{}, types.NewAppError(types.ErrCodeImageDecode, "clustering produced no centroid", nil)
	}

	// OpenCV channel order is BGR
	return types.RGBColor{
		R: toChannel(centers.GetFloatAt(0, 2)),
		G: toChannel(centers.GetFloatAt(0, 1)),
		B: toChannel(centers.GetFloatAt(0, 0)),
	}, nil
}

// toChannel rounds a centroid coordinate into [0,255]
func toChannel(v float32) int {
	c := int(math.Round(float64(v)))
	if c < 0 {
		return 0
	}
	if c > 255 {
		return 255
	}
	return c
}
